package reader

import "math"

// ChunkBox is the rendered extent of one chunk, in content coordinates.
type ChunkBox struct {
	Index  int     `json:"index"`
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// Position is the reading position derived from a scroll offset.
type Position struct {
	ChunkIndex   int     `json:"chunkIndex"`
	ChunkOffset  float64 `json:"chunkOffset"`
	ScrollRatio  float64 `json:"scrollRatio"`
	ScrollTop    float64 `json:"scrollTop"`
	ScrollHeight float64 `json:"scrollHeight"`
	ClientHeight float64 `json:"clientHeight"`
}

// Locate converts a scroll offset into a position. Chunks must be in document
// order; the current chunk is the first one whose bottom lies below scrollTop.
// With no such chunk the position falls back to chunk 0, offset 0.
func Locate(scrollTop float64, vp Viewport, chunks []ChunkBox) Position {
	scrollTop = math.Max(0, scrollTop)
	pos := Position{
		ScrollRatio:  clamp(scrollTop/vp.MaxScroll(), 0, 1),
		ScrollTop:    scrollTop,
		ScrollHeight: vp.ScrollHeight,
		ClientHeight: vp.ClientHeight,
	}
	for _, c := range chunks {
		if c.Top+c.Height > scrollTop {
			pos.ChunkIndex = c.Index
			pos.ChunkOffset = math.Max(0, scrollTop-c.Top)
			break
		}
	}
	return pos
}

// Saved returns the position in the shape Resolve expects on the next load.
func (p Position) Saved() Saved {
	return Saved(p)
}
