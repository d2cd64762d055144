// Package reader reconciles saved reading progress with the viewport a reader
// is about to show.
//
// Restoration is an ordered list of rules. Each rule either produces a scroll
// position from evidence it trusts or declines, and the first rule that
// produces a position wins:
//
//	target     a pending explicit jump, such as a clicked bookmark
//	scrollTop  the saved raw scroll position, if the viewport still measures the same
//	chunk      the top of the saved chunk plus the saved offset within it
//	ratio      the saved scroll ratio applied to the current content height
//	top        offset 0
//
// Nothing here touches a DOM. Callers pass measurements in and apply the result.
package reader

import "math"

// Tolerances for trusting a saved raw scroll position.
const (
	ClientHeightTolerance = 6.0
	ScrollHeightTolerance = 24.0

	// Ratios at or below this are treated as the top of the section.
	minRestoreRatio = 0.001
)

type Strategy string

const (
	StrategyTarget    Strategy = "target"
	StrategyScrollTop Strategy = "scrollTop"
	StrategyChunk     Strategy = "chunk"
	StrategyRatio     Strategy = "ratio"
	StrategyTop       Strategy = "top"
)

// Viewport holds the measurements of the scroll container for the loaded section.
type Viewport struct {
	ScrollHeight float64 `json:"scrollHeight" binding:"min=0"`
	ClientHeight float64 `json:"clientHeight" binding:"min=0"`
}

// MaxScroll is the largest meaningful scroll offset, never below 1.
func (v Viewport) MaxScroll() float64 {
	return math.Max(1, v.ScrollHeight-v.ClientHeight)
}

// Saved is the positional part of a stored checkpoint for the section being opened.
// Zero ScrollHeight or ClientHeight means the metrics were never recorded.
type Saved struct {
	ChunkIndex   int     `json:"chunkIndex"`
	ChunkOffset  float64 `json:"chunkOffset"`
	ScrollRatio  float64 `json:"scrollRatio"`
	ScrollTop    float64 `json:"scrollTop"`
	ScrollHeight float64 `json:"scrollHeight"`
	ClientHeight float64 `json:"clientHeight"`
}

// HasMetrics reports whether the viewport measurements were saved alongside the position.
func (s Saved) HasMetrics() bool {
	return s.ScrollHeight > 0 && s.ClientHeight > 0
}

// NonZero reports whether any signal points somewhere other than the top.
func (s Saved) NonZero() bool {
	return s.ScrollRatio > minRestoreRatio || s.ChunkOffset > 0 || s.ChunkIndex > 0 || s.ScrollTop > 0
}

// Inputs is everything a restoration decision may look at.
type Inputs struct {
	// Target is a pending explicit scroll position. It bypasses saved progress.
	Target *float64
	// Saved is nil when the user has no progress in this section.
	Saved    *Saved
	Viewport Viewport
	// ChunkTops maps rendered chunk indices to their offset from the top of
	// the content. A chunk missing from the map was not found.
	ChunkTops map[int]float64
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	Strategy  Strategy `json:"strategy"`
	ScrollTop float64  `json:"scrollTop"`
	// Restoring is set when the position came from saved progress. The reader
	// stays in the restoring state until the caller has applied it.
	Restoring bool `json:"restoring"`
}

type rule struct {
	strategy Strategy
	apply    func(in Inputs) (float64, bool)
}

var rules = []rule{
	{StrategyTarget, byTarget},
	{StrategyScrollTop, byScrollTop},
	{StrategyChunk, byChunk},
	{StrategyRatio, byRatio},
}

// Resolve walks the rules top-down and returns the first position produced.
// It never fails: with no usable evidence the answer is the top of the section.
func Resolve(in Inputs) Resolution {
	if in.Target == nil && (in.Saved == nil || !in.Saved.NonZero()) {
		return Resolution{Strategy: StrategyTop}
	}
	for _, r := range rules {
		if top, ok := r.apply(in); ok {
			return Resolution{
				Strategy:  r.strategy,
				ScrollTop: top,
				Restoring: r.strategy != StrategyTarget,
			}
		}
	}
	return Resolution{Strategy: StrategyTop}
}

func byTarget(in Inputs) (float64, bool) {
	if in.Target == nil || !finite(*in.Target) {
		return 0, false
	}
	return math.Max(0, *in.Target), true
}

func byScrollTop(in Inputs) (float64, bool) {
	s := in.Saved
	if s == nil || s.ScrollTop <= 0 || !s.HasMetrics() {
		return 0, false
	}
	if math.Abs(in.Viewport.ClientHeight-s.ClientHeight) > ClientHeightTolerance {
		return 0, false
	}
	if math.Abs(in.Viewport.ScrollHeight-s.ScrollHeight) > ScrollHeightTolerance {
		return 0, false
	}
	return s.ScrollTop, true
}

func byChunk(in Inputs) (float64, bool) {
	if in.Saved == nil {
		return 0, false
	}
	top, ok := in.ChunkTops[in.Saved.ChunkIndex]
	if !ok || !finite(top) {
		return 0, false
	}
	return top + math.Max(0, in.Saved.ChunkOffset), true
}

func byRatio(in Inputs) (float64, bool) {
	if in.Saved == nil || !finite(in.Saved.ScrollRatio) {
		return 0, false
	}
	ratio := clamp(in.Saved.ScrollRatio, 0, 1)
	return math.Round(ratio * in.Viewport.MaxScroll()), true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
