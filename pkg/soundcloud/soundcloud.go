// Package soundcloud classifies SoundCloud track and set URLs.
package soundcloud

import (
	"net/url"
	"strings"
)

// DefaultHosts is the allow-list of SoundCloud hostnames accepted by the
// service. It can be overridden through configuration.
var DefaultHosts = []string{
	"soundcloud.com",
	"on.soundcloud.com",
	"m.soundcloud.com",
}

// IsSupported reports whether raw is a well-formed http(s) URL whose hostname
// is one of the allowed hosts or a subdomain of one. Anything that fails to
// parse is rejected rather than returned as an error.
//
// The hostname check is anchored at a dot boundary so that a hostname like
// "soundcloud.com.attacker.net" does not pass as "soundcloud.com".
func IsSupported(raw string, hosts []string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	hostname := strings.ToLower(u.Hostname())
	if hostname == "" {
		return false
	}

	for _, allowed := range hosts {
		allowed = strings.ToLower(allowed)
		if hostname == allowed {
			return true
		}
		if strings.HasSuffix(hostname, "."+allowed) {
			return true
		}
	}
	return false
}

// IsCollection reports whether raw points at a multi-track set (playlist)
// rather than a single track. SoundCloud set URLs carry a reserved "sets"
// path segment: https://soundcloud.com/<artist>/sets/<set-name>.
//
// The result is advisory only; it adjusts timeouts and user messaging, never
// correctness.
func IsCollection(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}

	for _, segment := range strings.Split(u.Path, "/") {
		if segment == "sets" {
			return true
		}
	}
	return false
}
