package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLane(t *testing.T) {
	assert.Equal(t, LaneCore, ParseLane("core"))
	assert.Equal(t, LaneCore, ParseLane(" CORE "))
	assert.Equal(t, LaneScout, ParseLane("scout"))
	assert.Equal(t, LaneScout, ParseLane(""))
	assert.Equal(t, LaneScout, ParseLane("unknown"))
}

func TestPosition_ValueUSD(t *testing.T) {
	p := Position{Mint: "mintA", Quantity: 250}

	assert.InDelta(t, 500.0, p.ValueUSD(2.0), 1e-9)
	assert.Equal(t, 0.0, p.ValueUSD(0))
	assert.Equal(t, 0.0, p.ValueUSD(-1))
}

func TestExecutionOutcome_Filled(t *testing.T) {
	testCases := []struct {
		status   ExecutionStatus
		expected bool
	}{
		{ExecConfirmed, true},
		{ExecPaper, true},
		{ExecSubmitted, true},
		{ExecFailed, false},
		{"", false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.status), func(t *testing.T) {
			assert.Equal(t, tc.expected, ExecutionOutcome{Status: tc.status}.Filled())
		})
	}
}

func TestQuote_IntermediateMints(t *testing.T) {
	direct := &Quote{Route: []RouteHop{{InputMint: "A", OutputMint: "B"}}}
	assert.Nil(t, direct.IntermediateMints())

	twoHop := &Quote{Route: []RouteHop{
		{InputMint: "A", OutputMint: "X"},
		{InputMint: "X", OutputMint: "B"},
	}}
	assert.Equal(t, []string{"X"}, twoHop.IntermediateMints())

	var nilQuote *Quote
	assert.Nil(t, nilQuote.IntermediateMints())
}
