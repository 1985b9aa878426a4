package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
)

// runResult carries the single terminal outcome of one invocation.
type runResult struct {
	value any
	err   error
}

// wrapScript embeds the rewritten user code in nested async closures. The
// inner closure makes top-level return and await legal; the outer handler
// logs the failure to the console shim before re-raising, so diagnostic
// output produced before the error is preserved alongside it.
func wrapScript(code string) string {
	var b strings.Builder
	b.WriteString("(async () => {\n")
	b.WriteString("try {\n")
	b.WriteString("return await (async () => {\n")
	b.WriteString(code)
	b.WriteString("\n})();\n")
	b.WriteString("} catch (err) {\n")
	b.WriteString("console.error(err && err.message ? err.message : String(err));\n")
	b.WriteString("throw err;\n")
	b.WriteString("}\n")
	b.WriteString("})()\n")
	return b.String()
}

// runScript compiles the wrapped code once and executes it on the context's
// event loop under a hard wall-clock deadline. The deadline is enforced by
// interrupting the VM, which preempts even synchronous infinite loops. Results
// arriving after the deadline are discarded; already-captured stdout is
// always preserved by the caller.
func runScript(ctx context.Context, cc *capabilityContext, code string, timeout time.Duration) (any, error) {
	program, err := goja.Compile("user_code", wrapScript(code), false)
	if err != nil {
		return nil, newScriptError(ErrorKindCompile, err)
	}

	resCh := make(chan runResult, 1)
	cc.loop.Start()
	defer cc.loop.StopNoWait()

	cc.loop.RunOnLoop(func(vm *goja.Runtime) {
		v, err := vm.RunProgram(program)
		if err != nil {
			deliver(resCh, runResult{err: classifyRunError(err)})
			return
		}
		settlePromise(vm, v, resCh)
	})

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case res := <-resCh:
		return res.value, res.err
	case <-timer.C:
		cc.vm.Interrupt("execution timed out")
		return nil, newScriptError(ErrorKindTimeout, fmt.Errorf("execution exceeded the %s budget", timeout))
	case <-ctx.Done():
		cc.vm.Interrupt("execution canceled")
		return nil, newScriptError(ErrorKindTimeout, ctx.Err())
	}
}

// settlePromise attaches fulfillment handlers to the wrapper's promise. The
// wrapper is an async IIFE and always yields a thenable; the fallback covers
// a non-promise value defensively rather than failing the invocation.
func settlePromise(vm *goja.Runtime, v goja.Value, resCh chan<- runResult) {
	obj := v.ToObject(vm)
	if obj == nil {
		deliver(resCh, runResult{value: exportValue(v)})
		return
	}
	then, ok := goja.AssertFunction(obj.Get("then"))
	if !ok {
		deliver(resCh, runResult{value: exportValue(v)})
		return
	}
	onFulfilled := vm.ToValue(func(call goja.FunctionCall) goja.Value {
		deliver(resCh, runResult{value: exportValue(call.Argument(0))})
		return goja.Undefined()
	})
	onRejected := vm.ToValue(func(call goja.FunctionCall) goja.Value {
		msg := rejectionMessage(call.Argument(0))
		deliver(resCh, runResult{err: newScriptError(ErrorKindRuntime, errors.New(msg))})
		return goja.Undefined()
	})
	if _, err := then(v, onFulfilled, onRejected); err != nil {
		deliver(resCh, runResult{err: classifyRunError(err)})
	}
}

// deliver hands the outcome over without blocking. The channel holds one
// result; anything after the first, including completions past the deadline,
// is discarded so late work cannot mutate already-returned state.
func deliver(resCh chan<- runResult, res runResult) {
	select {
	case resCh <- res:
	default:
	}
}

func exportValue(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return v.Export()
}

func rejectionMessage(reason goja.Value) string {
	if reason == nil || goja.IsUndefined(reason) {
		return "unknown error"
	}
	if obj, ok := reason.(*goja.Object); ok {
		if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
			return msg.String()
		}
	}
	return reason.String()
}

func classifyRunError(err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return newScriptError(ErrorKindTimeout, err)
	}
	return newScriptError(ErrorKindRuntime, err)
}
