package sandbox

import (
	"context"
	"testing"
)

func TestRunSimpleFunction(t *testing.T) {
	out := Run(context.Background(), Invocation{
		Source:       "function add(a, b) { return a + b; }",
		FunctionName: "add",
		Args:         []interface{}{2.0, 3.0},
	})
	if out.Err != nil {
		t.Fatalf("unexpected error: %v", out.Err)
	}
	if out.Result != int64(5) {
		t.Fatalf("Result = %v, want 5", out.Result)
	}
}

func TestRunRejectsInvalidFunctionName(t *testing.T) {
	out := Run(context.Background(), Invocation{
		Source:       "function ok(){}",
		FunctionName: "not a name",
	})
	if out.Err == nil {
		t.Fatal("expected an error for an invalid function name")
	}
}

func TestRunTimeout(t *testing.T) {
	out := Run(context.Background(), Invocation{
		Source:       "function loop(){ while(true){} }",
		FunctionName: "loop",
	})
	if out.Err == nil {
		t.Fatal("expected a timeout error for an infinite loop")
	}
}

func TestRunCapturesConsoleOutput(t *testing.T) {
	out := Run(context.Background(), Invocation{
		Source:       "function f(){ console.log('hello'); return 1; }",
		FunctionName: "f",
	})
	if out.Err != nil {
		t.Fatalf("unexpected error: %v", out.Err)
	}
	if len(out.Stdout) != 1 || out.Stdout[0] != "hello" {
		t.Fatalf("Stdout = %v, want [\"hello\"]", out.Stdout)
	}
}

func TestRunNoFilesystemOrProcessAccess(t *testing.T) {
	out := Run(context.Background(), Invocation{
		Source:       "function f(){ return typeof require; }",
		FunctionName: "f",
	})
	if out.Err != nil {
		t.Fatalf("unexpected error: %v", out.Err)
	}
	if out.Result != "undefined" {
		t.Fatalf("require should not be reachable, got typeof = %v", out.Result)
	}
}
