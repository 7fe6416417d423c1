package validator

import (
	"context"
	"math"

	"github.com/wagerlab/arenacore/internal/engine/challenge"
)

// PriceValidator scores a numeric prediction against the hidden next close
// (spec §4.3 "Price-prediction"): score = |prediction - truth|, lower wins.
type PriceValidator struct{}

func (PriceValidator) Validate(_ context.Context, resp interface{}, truth challenge.GroundTruth, _ challenge.Challenge) Result {
	prediction, ok := toFloat(resp)
	if !ok || math.IsNaN(prediction) || math.IsInf(prediction, 0) {
		return Result{Score: math.Inf(1), Passed: false, LowerIsBetter: true, Diagnostics: "non-finite or missing prediction"}
	}

	score := math.Abs(prediction - truth.PriceNext)
	return Result{Score: score, Passed: true, LowerIsBetter: true}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
