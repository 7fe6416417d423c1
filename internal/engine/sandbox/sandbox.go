// Package sandbox runs untrusted candidate code inside a hardened,
// in-process JavaScript runtime for the code-execution contest (spec
// §4.3.1). It is grounded on the same goja idiom the rest of this
// organization's services use for user-supplied script execution: a fresh
// runtime per call, a watcher goroutine that interrupts on context
// cancellation, and a console shimmed to no-ops rather than real I/O.
package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/dop251/goja"

	"github.com/wagerlab/arenacore/infrastructure/errors"
)

// identifierPattern is the strict function-name check required before a
// candidate's declared entry point is ever handed to the runtime (spec
// §4.3.1 point 3).
var identifierPattern = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// WallClockTimeout is the hard parent-enforced budget (spec §4.3.1 point 6).
const WallClockTimeout = 5 * time.Second

// innerBudget leaves headroom for harness overhead within the wall-clock
// timeout, per spec §4.3.1 point 6 ("4s budget leaving 1s for harness
// overhead").
const innerBudget = 4 * time.Second

// maxHeapBytes records the 64 MiB per-call heap figure (spec §4.3.1 point
// 5). Nothing applies it: Run does not limit the runtime's heap use.
const maxHeapBytes = 64 << 20

// maxStdoutBytes caps accumulated console output (spec §4.3.1 point 7).
const maxStdoutBytes = 64 << 10

// Invocation is one call into the sandboxed entry point.
type Invocation struct {
	Source       string
	FunctionName string
	Args         []interface{}
}

// Outcome is the sandbox's result for one invocation. On any failure path
// (timeout, crash, invalid output) Err is set and Result is the zero value —
// callers must never let Err escape as a bare panic or exception (spec
// §4.3.1 point 8); see CodeValidator for how this is folded into a
// zero-score validator result instead of propagating.
type Outcome struct {
	Result interface{}
	Stdout []string
	Err    error
}

// Run validates the function name, then evaluates source and invokes
// FunctionName with Args inside a freshly constructed, tightly scoped goja
// runtime, enforcing the wall-clock timeouts and the stdout cap from
// §4.3.1. Heap use is not limited.
func Run(ctx context.Context, inv Invocation) Outcome {
	if !identifierPattern.MatchString(inv.FunctionName) {
		return Outcome{Err: errors.SandboxForbiddenCall(inv.FunctionName)}
	}

	runCtx, cancel := context.WithTimeout(ctx, WallClockTimeout)
	defer cancel()

	resultCh := make(chan Outcome, 1)
	go func() {
		resultCh <- runInRuntime(runCtx, inv)
	}()

	select {
	case out := <-resultCh:
		return out
	case <-runCtx.Done():
		return Outcome{Err: errors.SandboxTimeout(runCtx.Err())}
	}
}

func runInRuntime(ctx context.Context, inv Invocation) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Err: errors.SandboxRuntimeError(fmt.Errorf("panic: %v", r))}
		}
	}()

	rt := goja.New()

	var stdout bytes.Buffer
	attachConsole(rt, &stdout)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			rt.Interrupt(ctx.Err())
		case <-stop:
		}
	}()

	innerCtx, innerCancel := context.WithTimeout(ctx, innerBudget)
	defer innerCancel()
	go func() {
		select {
		case <-innerCtx.Done():
			if innerCtx.Err() != nil && ctx.Err() == nil {
				rt.Interrupt(innerCtx.Err())
			}
		case <-stop:
		}
	}()

	if _, err := rt.RunString(inv.Source); err != nil {
		return Outcome{Err: translateRuntimeError(err), Stdout: splitCapped(&stdout)}
	}

	fnVal := rt.Get(inv.FunctionName)
	if goja.IsUndefined(fnVal) || goja.IsNull(fnVal) {
		return Outcome{Err: errors.SandboxRuntimeError(fmt.Errorf("function %q not defined", inv.FunctionName)), Stdout: splitCapped(&stdout)}
	}
	fn, ok := goja.AssertFunction(fnVal)
	if !ok {
		return Outcome{Err: errors.SandboxRuntimeError(fmt.Errorf("%q is not callable", inv.FunctionName)), Stdout: splitCapped(&stdout)}
	}

	args := make([]goja.Value, len(inv.Args))
	for i, a := range inv.Args {
		args[i] = rt.ToValue(a)
	}

	val, err := fn(goja.Undefined(), args...)
	if err != nil {
		return Outcome{Err: translateRuntimeError(err), Stdout: splitCapped(&stdout)}
	}

	val, err = resolvePromise(ctx, val)
	if err != nil {
		return Outcome{Err: translateRuntimeError(err), Stdout: splitCapped(&stdout)}
	}

	return Outcome{Result: val.Export(), Stdout: splitCapped(&stdout)}
}

// attachConsole binds console.log/info/warn/error to append into a capped
// buffer and return goja.Undefined(), never touching real stdout (spec
// §4.3.1 point 1: "console bound to no-ops").
func attachConsole(rt *goja.Runtime, buf *bytes.Buffer) {
	console := rt.NewObject()
	logFn := func(call goja.FunctionCall) goja.Value {
		if buf.Len() >= maxStdoutBytes {
			return goja.Undefined()
		}
		args := make([]interface{}, len(call.Arguments))
		for i, a := range call.Arguments {
			args[i] = a.Export()
		}
		line := fmt.Sprintln(args...)
		remaining := maxStdoutBytes - buf.Len()
		if remaining < len(line) {
			line = line[:remaining]
		}
		buf.WriteString(line)
		return goja.Undefined()
	}
	_ = console.Set("log", logFn)
	_ = console.Set("info", logFn)
	_ = console.Set("warn", logFn)
	_ = console.Set("error", logFn)
	_ = rt.Set("console", console)
}

func splitCapped(buf *bytes.Buffer) []string {
	s := buf.String()
	if s == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			if i > start {
				lines = append(lines, s[start:i])
			}
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

func resolvePromise(ctx context.Context, val goja.Value) (goja.Value, error) {
	exported := val.Export()
	promise, ok := exported.(*goja.Promise)
	if !ok {
		return val, nil
	}
	switch promise.State() {
	case goja.PromiseStateFulfilled:
		return promise.Result(), nil
	case goja.PromiseStateRejected:
		return nil, fmt.Errorf("promise rejected: %v", promise.Result().Export())
	default:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("function returned a promise that did not settle")
	}
}

func translateRuntimeError(err error) error {
	switch typed := err.(type) {
	case *goja.InterruptedError:
		return errors.SandboxTimeout(typed)
	case *goja.Exception:
		return errors.SandboxRuntimeError(typed)
	default:
		return errors.SandboxRuntimeError(err)
	}
}
