package graph

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dop251/goja"

	"github.com/evermem/memimg/domain/value"
)

// ErrNoSource marks a function value whose source text was never captured.
// Such a value still serialises (its slot is omitted) but cannot be
// invoked.
var ErrNoSource = errors.New("function has no captured source text")

// Function is an opaque callable carrying its source text. Restored
// functions are executable only through the embedded interpreter; functions
// that captured lexical state at the origin are lossy. Mutation tracking
// does not apply to function bodies.
type Function struct {
	node
	sourceCode string

	mu   sync.Mutex
	prog *goja.Program
}

// NewFunction creates a detached function value from source text.
func NewFunction(sourceCode string) *Function {
	return &Function{sourceCode: sourceCode}
}

// ValueKind implements value.Composite.
func (f *Function) ValueKind() value.Kind { return value.KindFunction }

// SourceCode returns the captured source text; empty when none was
// captured.
func (f *Function) SourceCode() string { return f.sourceCode }

// Compile parses the source text without running it. The compiled program
// is cached for Invoke.
func (f *Function) Compile() error {
	if f.sourceCode == "" {
		return ErrNoSource
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.prog != nil {
		return nil
	}
	prog, err := goja.Compile("function.js", "("+f.sourceCode+")", false)
	if err != nil {
		return fmt.Errorf("compile function: %w", err)
	}
	f.prog = prog
	return nil
}

// Invoke runs the function in a fresh runtime with the given arguments.
// Arguments and the result cross the interpreter boundary as plain exported
// values.
func (f *Function) Invoke(args ...any) (any, error) {
	if err := f.Compile(); err != nil {
		return nil, err
	}
	vm := goja.New()
	f.mu.Lock()
	prog := f.prog
	f.mu.Unlock()

	val, err := vm.RunProgram(prog)
	if err != nil {
		return nil, fmt.Errorf("evaluate function: %w", err)
	}
	fn, ok := goja.AssertFunction(val)
	if !ok {
		return nil, fmt.Errorf("source text %q is not a function", f.sourceCode)
	}

	jsArgs := make([]goja.Value, len(args))
	for i, a := range args {
		jsArgs[i] = vm.ToValue(Export(a))
	}
	res, err := fn(goja.Undefined(), jsArgs...)
	if err != nil {
		return nil, fmt.Errorf("call function: %w", err)
	}
	if res == nil || goja.IsUndefined(res) {
		return value.Undef, nil
	}
	if goja.IsNull(res) {
		return nil, nil
	}
	return res.Export(), nil
}
