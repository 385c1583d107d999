package memimg

import (
	"context"
	"fmt"

	"github.com/dop251/goja"

	"github.com/evermem/memimg/domain/event"
	"github.com/evermem/memimg/domain/graph"
	"github.com/evermem/memimg/pkg/metrics"
)

// ExecuteScript compiles and runs source in a fresh runtime with the
// image's root exposed as the read-only global `root`, then appends a
// SCRIPT event as an audit marker. Scripts observe an exported copy of the
// graph and mutate nothing; a replayed SCRIPT event is a no-op.
func (im *Image) ExecuteScript(ctx context.Context, source string) (any, error) {
	result, err := im.runScript(source)
	metrics.RecordScriptExecution(err)
	im.logger.ScriptExecuted(im.id, err)
	if err != nil {
		return nil, err
	}

	ev, err := event.Build(graph.Mutation{Op: graph.OpScript, Source: source}, im.infra, im.registry)
	if err != nil {
		return nil, err
	}
	if err := im.log.Append(ctx, ev); err != nil {
		return nil, fmt.Errorf("append SCRIPT event: %w", err)
	}
	metrics.RecordAppend(string(ev.Type))
	im.logger.EventAppended(im.id, string(ev.Type), ev.Path)
	return result, nil
}

func (im *Image) runScript(source string) (any, error) {
	if _, err := goja.Compile("script.js", source, false); err != nil {
		return nil, fmt.Errorf("compile script: %w", err)
	}

	vm := goja.New()
	if err := vm.Set("root", graph.Export(im.root)); err != nil {
		return nil, fmt.Errorf("bind root: %w", err)
	}

	console := vm.NewObject()
	_ = console.Set("log", func(call goja.FunctionCall) goja.Value {
		args := make([]any, len(call.Arguments))
		for i, arg := range call.Arguments {
			args[i] = arg.String()
		}
		im.logger.WithImage(im.id).Debug(fmt.Sprint(args...))
		return goja.Undefined()
	})
	_ = vm.Set("console", console)

	val, err := vm.RunString(source)
	if err != nil {
		return nil, fmt.Errorf("execute script: %w", err)
	}
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil, nil
	}
	return val.Export(), nil
}
