package reader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func TestResolve_ScrollTopWithinTolerance(t *testing.T) {
	in := Inputs{
		Saved: &Saved{
			ChunkIndex:   3,
			ChunkOffset:  40,
			ScrollRatio:  0.9,
			ScrollTop:    450,
			ScrollHeight: 5000,
			ClientHeight: 800,
		},
		Viewport:  Viewport{ScrollHeight: 5020, ClientHeight: 805},
		ChunkTops: map[int]float64{3: 1200},
	}

	res := Resolve(in)
	assert.Equal(t, StrategyScrollTop, res.Strategy)
	assert.Equal(t, 450.0, res.ScrollTop)
	assert.True(t, res.Restoring)
}

func TestResolve_ScrollHeightDriftFallsThroughToChunk(t *testing.T) {
	in := Inputs{
		Saved: &Saved{
			ChunkIndex:   3,
			ChunkOffset:  40,
			ScrollRatio:  0.5,
			ScrollTop:    450,
			ScrollHeight: 5000,
			ClientHeight: 800,
		},
		Viewport:  Viewport{ScrollHeight: 5025, ClientHeight: 800},
		ChunkTops: map[int]float64{2: 700, 3: 1200},
	}

	res := Resolve(in)
	assert.Equal(t, StrategyChunk, res.Strategy)
	assert.Equal(t, 1240.0, res.ScrollTop)
}

func TestResolve_ClientHeightDriftFallsThrough(t *testing.T) {
	in := Inputs{
		Saved:     &Saved{ChunkIndex: 1, ScrollTop: 450, ScrollHeight: 5000, ClientHeight: 800},
		Viewport:  Viewport{ScrollHeight: 5000, ClientHeight: 807},
		ChunkTops: map[int]float64{1: 300},
	}

	res := Resolve(in)
	assert.Equal(t, StrategyChunk, res.Strategy)
	assert.Equal(t, 300.0, res.ScrollTop)
}

func TestResolve_ToleranceBoundaryIsInclusive(t *testing.T) {
	in := Inputs{
		Saved:    &Saved{ScrollTop: 100, ScrollHeight: 2000, ClientHeight: 600},
		Viewport: Viewport{ScrollHeight: 2024, ClientHeight: 594},
	}
	assert.Equal(t, StrategyScrollTop, Resolve(in).Strategy)
}

func TestResolve_MissingMetricsSkipScrollTop(t *testing.T) {
	in := Inputs{
		Saved:    &Saved{ScrollTop: 450, ScrollRatio: 0.25},
		Viewport: Viewport{ScrollHeight: 2100, ClientHeight: 100},
	}

	res := Resolve(in)
	assert.Equal(t, StrategyRatio, res.Strategy)
	assert.Equal(t, 500.0, res.ScrollTop)
}

func TestResolve_MissingChunkFallsBackToRatio(t *testing.T) {
	in := Inputs{
		Saved:     &Saved{ChunkIndex: 9, ChunkOffset: 12, ScrollRatio: 0.333},
		Viewport:  Viewport{ScrollHeight: 1000, ClientHeight: 400},
		ChunkTops: map[int]float64{0: 0, 1: 200},
	}

	res := Resolve(in)
	assert.Equal(t, StrategyRatio, res.Strategy)
	assert.Equal(t, 200.0, res.ScrollTop)
}

func TestResolve_RatioUsesAtLeastOnePixel(t *testing.T) {
	in := Inputs{
		Saved:    &Saved{ScrollRatio: 1},
		Viewport: Viewport{ScrollHeight: 300, ClientHeight: 800},
	}
	assert.Equal(t, 1.0, Resolve(in).ScrollTop)
}

func TestResolve_ExplicitTargetWins(t *testing.T) {
	in := Inputs{
		Target:   ptr(1234),
		Saved:    &Saved{ScrollTop: 450, ScrollHeight: 5000, ClientHeight: 800},
		Viewport: Viewport{ScrollHeight: 5000, ClientHeight: 800},
	}

	res := Resolve(in)
	assert.Equal(t, StrategyTarget, res.Strategy)
	assert.Equal(t, 1234.0, res.ScrollTop)
	assert.False(t, res.Restoring)
}

func TestResolve_NothingToRestore(t *testing.T) {
	tests := []struct {
		name string
		in   Inputs
	}{
		{"no progress", Inputs{Viewport: Viewport{ScrollHeight: 1000, ClientHeight: 500}}},
		{"zero progress", Inputs{Saved: &Saved{ScrollHeight: 1000, ClientHeight: 500}}},
		{"negligible ratio", Inputs{Saved: &Saved{ScrollRatio: 0.0005}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Resolve(tt.in)
			assert.Equal(t, StrategyTop, res.Strategy)
			assert.Zero(t, res.ScrollTop)
			assert.False(t, res.Restoring)
		})
	}
}

func TestLocate(t *testing.T) {
	chunks := []ChunkBox{
		{Index: 0, Top: 0, Height: 300},
		{Index: 1, Top: 300, Height: 300},
		{Index: 2, Top: 600, Height: 400},
	}
	vp := Viewport{ScrollHeight: 1000, ClientHeight: 200}

	pos := Locate(450, vp, chunks)
	assert.Equal(t, 1, pos.ChunkIndex)
	assert.Equal(t, 150.0, pos.ChunkOffset)
	assert.InDelta(t, 0.5625, pos.ScrollRatio, 1e-9)
	assert.Equal(t, 450.0, pos.ScrollTop)
	assert.Equal(t, 1000.0, pos.ScrollHeight)
	assert.Equal(t, 200.0, pos.ClientHeight)

	// The boundary belongs to the next chunk.
	pos = Locate(300, vp, chunks)
	assert.Equal(t, 1, pos.ChunkIndex)
	assert.Zero(t, pos.ChunkOffset)

	pos = Locate(5000, vp, chunks)
	assert.Zero(t, pos.ChunkIndex)
	assert.Equal(t, 1.0, pos.ScrollRatio)

	pos = Locate(-20, vp, nil)
	assert.Zero(t, pos.ScrollTop)
	assert.Zero(t, pos.ScrollRatio)
}

func TestLocate_RoundTripsThroughResolve(t *testing.T) {
	chunks := []ChunkBox{{Index: 0, Top: 0, Height: 500}, {Index: 1, Top: 500, Height: 500}}
	vp := Viewport{ScrollHeight: 1000, ClientHeight: 400}

	saved := Locate(620, vp, chunks).Saved()

	// Same layout: raw scroll position is trusted.
	res := Resolve(Inputs{Saved: &saved, Viewport: vp})
	assert.Equal(t, StrategyScrollTop, res.Strategy)
	assert.Equal(t, 620.0, res.ScrollTop)

	// Reflowed layout: chunk 1 moved down, position follows the chunk.
	res = Resolve(Inputs{
		Saved:     &saved,
		Viewport:  Viewport{ScrollHeight: 1400, ClientHeight: 400},
		ChunkTops: map[int]float64{0: 0, 1: 700},
	})
	assert.Equal(t, StrategyChunk, res.Strategy)
	assert.Equal(t, 820.0, res.ScrollTop)
}
