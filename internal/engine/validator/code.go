package validator

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/wagerlab/arenacore/internal/engine/challenge"
	"github.com/wagerlab/arenacore/internal/engine/sandbox"
)

// CodeValidator runs the candidate function against each hidden test case in
// the hardened sandbox and compares results with structural equality (spec
// §4.3 "Code problem").
type CodeValidator struct{}

func (CodeValidator) Validate(ctx context.Context, resp interface{}, _ challenge.GroundTruth, ch challenge.Challenge) Result {
	source, ok := resp.(string)
	if !ok || strings.TrimSpace(source) == "" || ch.Code == nil {
		return Result{Score: 0, Passed: false, Diagnostics: "missing or non-string code response"}
	}

	started := time.Now()
	passed := 0
	total := len(ch.Code.TestCases)
	var logs []string

	for _, tc := range ch.Code.TestCases {
		out := sandbox.Run(ctx, sandbox.Invocation{
			Source:       source,
			FunctionName: ch.Code.FunctionName,
			Args:         tc.Input,
		})
		logs = append(logs, out.Stdout...)
		// Any sandbox failure (timeout, crash, malformed output) counts as a
		// failed test case rather than aborting the whole run — spec §4.3.1
		// point 8 requires the validator to degrade gracefully, never
		// propagate.
		if out.Err != nil {
			continue
		}
		if reflect.DeepEqual(normalize(out.Result), normalize(tc.Expected)) {
			passed++
		}
	}

	elapsed := time.Since(started).Milliseconds()
	score := float64(passed)*10000 - float64(elapsed)

	return Result{
		Score:       score,
		Passed:      passed == total && total > 0,
		TestsPassed: passed,
		TestsTotal:  total,
		ElapsedMs:   elapsed,
		Logs:        logs,
	}
}

// normalize collapses the numeric-type differences between Go's decoded
// JSON-like values (int vs float64 vs float32) so structural comparison
// between a test fixture and a sandboxed result behaves consistently.
func normalize(v interface{}) interface{} {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	case []interface{}:
		out := make([]interface{}, len(n))
		for i, e := range n {
			out[i] = normalize(e)
		}
		return out
	default:
		return v
	}
}
