package graph

import (
	"errors"
	"testing"
)

func TestFunctionCompileAndInvoke(t *testing.T) {
	fn := NewFunction("function (x) { return x + 1 }")
	if err := fn.Compile(); err != nil {
		t.Fatalf("compile: %v", err)
	}
	res, err := fn.Invoke(2)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if n, ok := res.(int64); !ok || n != 3 {
		t.Fatalf("expected 3, got %v (%T)", res, res)
	}
}

func TestFunctionArrowSource(t *testing.T) {
	fn := NewFunction("(a, b) => a * b")
	res, err := fn.Invoke(6, 7)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if n, ok := res.(int64); !ok || n != 42 {
		t.Fatalf("expected 42, got %v", res)
	}
}

func TestFunctionWithoutSourceIsUninvokable(t *testing.T) {
	fn := NewFunction("")
	if _, err := fn.Invoke(); !errors.Is(err, ErrNoSource) {
		t.Fatalf("expected ErrNoSource, got %v", err)
	}
}

func TestFunctionInvalidSourceFailsCompile(t *testing.T) {
	fn := NewFunction("function ( { nope")
	if err := fn.Compile(); err == nil {
		t.Fatal("expected a compile error")
	}
}
