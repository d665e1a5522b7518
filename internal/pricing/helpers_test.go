package pricing

import (
	"math"
	"testing"
)

// baseParams is the reference scenario the fixture values below were taken from.
var baseParams = Params{Spot: 100, Strike: 100, Rate: 0.05, Dividend: 0.02, Vol: 0.2, Time: 0.5}

func withinPct(t *testing.T, expected, actual, pct float64, msg string) {
	t.Helper()
	if math.Abs(actual-expected)/math.Abs(expected) > pct {
		t.Fatalf("%s: expected %v within %.3f%%, got %v", msg, expected, pct*100, actual)
	}
}
