// Package progress produces the staged wait estimate shown to clients while
// a conversion is running.
//
// The extraction and transcoding tools expose no usable fine-grained progress
// signal, so the percentage here is an estimate keyed to elapsed time, not
// ground truth. It is capped below completion: only the arrival of the real
// result may ever claim 100%.
package progress

import "time"

// Cap is the highest percentage the estimate will report. The remaining gap
// is closed by the caller once the converted file actually exists.
const Cap = 95

// stage maps an elapsed-time threshold to the percentage reached at that
// point. Estimates interpolate linearly between stages.
type stage struct {
	at      time.Duration
	percent int
}

var trackStages = []stage{
	{0, 2},
	{2 * time.Second, 15},
	{5 * time.Second, 35},
	{10 * time.Second, 55},
	{20 * time.Second, 72},
	{45 * time.Second, 85},
	{90 * time.Second, Cap},
}

// Sets resolve and transcode track-by-track, so the curve is stretched out.
var collectionStages = []stage{
	{0, 1},
	{10 * time.Second, 10},
	{30 * time.Second, 25},
	{60 * time.Second, 45},
	{2 * time.Minute, 65},
	{5 * time.Minute, 82},
	{10 * time.Minute, Cap},
}

// EstimateAt returns the estimated completion percentage after elapsed time.
// The result is monotonically non-decreasing in elapsed and never exceeds
// Cap. Negative elapsed values are treated as zero.
func EstimateAt(elapsed time.Duration, collection bool) int {
	if elapsed < 0 {
		elapsed = 0
	}

	stages := trackStages
	if collection {
		stages = collectionStages
	}

	last := stages[len(stages)-1]
	if elapsed >= last.at {
		return last.percent
	}

	for i := 1; i < len(stages); i++ {
		if elapsed >= stages[i].at {
			continue
		}
		prev, next := stages[i-1], stages[i]
		span := next.at - prev.at
		frac := float64(elapsed-prev.at) / float64(span)
		return prev.percent + int(frac*float64(next.percent-prev.percent))
	}
	return last.percent
}

// MessageAt returns the status line accompanying the estimate. Collection
// requests get distinct wording so users expect the longer wait.
func MessageAt(elapsed time.Duration, collection bool) string {
	if collection {
		switch {
		case elapsed < 30*time.Second:
			return "Processing set... multi-track sets take noticeably longer than single tracks"
		case elapsed < 5*time.Minute:
			return "Still converting tracks from the set, hang tight..."
		default:
			return "Large set, still working... this can take a while"
		}
	}

	switch {
	case elapsed < 5*time.Second:
		return "Fetching track..."
	case elapsed < 20*time.Second:
		return "Converting audio..."
	default:
		return "Almost there, finalizing..."
	}
}
