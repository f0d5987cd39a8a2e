package statistics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/bridgetable/internal/boardlog"
	"github.com/lox/bridgetable/internal/bridge"
)

func sampleRecords() []boardlog.Record {
	return []boardlog.Record{
		{Board: 1, Contract: "3NT", Declarer: "S", TricksNS: 9, TricksEW: 4, Score: 400},
		{Board: 2, Contract: "4HX", Declarer: "E", TricksNS: 4, TricksEW: 9, Score: -100},
		{Board: 3, Contract: "1C", Declarer: "W", TricksNS: 5, TricksEW: 8, Score: 110},
		{Board: 4, PassedOut: true},
	}
}

func TestStatisticsEmpty(t *testing.T) {
	var stats Statistics
	assert.Zero(t, stats.Mean())
	assert.Zero(t, stats.Variance())
	assert.Zero(t, stats.StdDev())
	assert.Zero(t, stats.StdError())
	assert.Zero(t, stats.Median())
	assert.Zero(t, stats.Percentile(0.9))
	assert.NoError(t, stats.Validate())
}

func TestStatisticsFromRecords(t *testing.T) {
	var stats Statistics
	require.NoError(t, stats.AddRecords(sampleRecords()))
	require.NoError(t, stats.Validate())

	assert.Equal(t, 4, stats.Boards)
	assert.Equal(t, 1, stats.PassedOut)
	assert.Equal(t, []float64{400, 100, -110, 0}, stats.Values)
	assert.InDelta(t, 97.5, stats.Mean(), 1e-9)
	assert.InDelta(t, 50, stats.Median(), 1e-9)

	ns := stats.Sides[bridge.NorthSouth]
	assert.Equal(t, SideStats{Declared: 1, Made: 1, Games: 1}, ns)
	assert.InDelta(t, 1.0, ns.MakeRate(), 1e-9)

	ew := stats.Sides[bridge.EastWest]
	assert.Equal(t, SideStats{Declared: 2, Made: 1, Defeated: 1, Games: 1}, ew)
	assert.InDelta(t, 0.5, ew.MakeRate(), 1e-9)
}

func TestStatisticsSpread(t *testing.T) {
	var stats Statistics
	stats.Add(BoardResult{Contract: bridge.Contract{Level: 2, Strain: bridge.StrainSpades, Declarer: bridge.North}, Tricks: 8, Score: 100})
	stats.Add(BoardResult{Contract: bridge.Contract{Level: 2, Strain: bridge.StrainSpades, Declarer: bridge.North}, Tricks: 7, Score: -100})

	assert.Zero(t, stats.Mean())
	assert.InDelta(t, 20000, stats.Variance(), 1e-9)
	assert.InDelta(t, math.Sqrt(20000), stats.StdDev(), 1e-9)
	assert.InDelta(t, 100, stats.StdError(), 1e-9)

	lo, hi := stats.ConfidenceInterval95()
	assert.InDelta(t, -196, lo, 1e-9)
	assert.InDelta(t, 196, hi, 1e-9)
	assert.InDelta(t, 100, stats.Percentile(1), 1e-9)
}

func TestStatisticsSlams(t *testing.T) {
	var stats Statistics
	stats.Add(BoardResult{Contract: bridge.Contract{Level: 6, Strain: bridge.StrainClubs, Declarer: bridge.East}, Tricks: 12, Score: 920})
	stats.Add(BoardResult{Contract: bridge.Contract{Level: 2, Strain: bridge.StrainHearts, Doubling: bridge.Doubled, Declarer: bridge.West}, Tricks: 8, Score: 470})

	ew := stats.Sides[bridge.EastWest]
	assert.Equal(t, 1, ew.Slams)
	assert.Equal(t, 2, ew.Games, "a doubled part-score worth 120 is a game")
}

func TestValidateDetectsMismatch(t *testing.T) {
	var stats Statistics
	require.NoError(t, stats.AddRecords(sampleRecords()))
	stats.Sides[bridge.NorthSouth].Made++
	assert.Error(t, stats.Validate())

	stats = Statistics{}
	require.NoError(t, stats.AddRecords(sampleRecords()))
	stats.PassedOut++
	assert.Error(t, stats.Validate())
}

func TestFromRecordErrors(t *testing.T) {
	tests := []struct {
		name string
		rec  boardlog.Record
	}{
		{"bad declarer", boardlog.Record{Board: 1, Contract: "3NT", Declarer: "Q"}},
		{"missing contract", boardlog.Record{Board: 2, Declarer: "N"}},
		{"bad contract", boardlog.Record{Board: 3, Contract: "9NT", Declarer: "N"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromRecord(tt.rec)
			assert.Error(t, err)
		})
	}

	r, err := FromRecord(boardlog.Record{PassedOut: true})
	require.NoError(t, err)
	assert.True(t, r.PassedOut)
	assert.False(t, r.Made())
	assert.Zero(t, r.NetNS())
}
