package sandbox

import (
	"encoding/base64"
	"fmt"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/buffer"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/dop251/goja_nodejs/url"
)

// capabilityContext is the isolated global-binding set one script executes
// against. It is built fresh per invocation and torn down with it; contexts
// are never pooled or reused, so no state bleeds between user scripts.
type capabilityContext struct {
	cfg    *Config
	loop   *eventloop.EventLoop
	vm     *goja.Runtime
	stdout *stdoutBuffer
}

type capability struct {
	name    string
	install func(*capabilityContext) error
}

// capabilityTable is the manually curated allow-list of globals visible to
// user code, on top of the VM's own ECMAScript builtins (JSON, Object, Array,
// Math, Promise, Map, Set, …). The absence of an entry is itself a security
// property: the VM has no host access by construction, and nothing outside
// this table is ever added.
var capabilityTable = []capability{
	{name: "console", install: installConsole},
	{name: "encoding", install: installEncoding},
	{name: "url", install: installURL},
	{name: "buffer", install: installBuffer},
	{name: "fetch", install: installFetch},
	{name: "webtypes", install: installWebTypes},
}

// deniedGlobals are overwritten with undefined after installation. The event
// loop registers interval and immediate timers we do not expose, and the
// module registry leaves a require binding behind; eval is withheld because
// dynamic code loading is not part of the capability contract.
var deniedGlobals = []string{
	"require",
	"module",
	"exports",
	"process",
	"global",
	"setInterval",
	"clearInterval",
	"setImmediate",
	"eval",
}

// newCapabilityContext builds the execution context for a single invocation:
// a fresh VM on its own event loop, the capability table installed, denied
// globals removed, and the resolver's bindings merged last into the same flat
// namespace.
func newCapabilityContext(cfg *Config, bindings map[string]any) (*capabilityContext, error) {
	loop := eventloop.NewEventLoop(eventloop.EnableConsole(false))
	c := &capabilityContext{
		cfg:    cfg,
		loop:   loop,
		stdout: newStdoutBuffer(cfg.MaxStdoutBytes),
	}
	var installErr error
	loop.Run(func(vm *goja.Runtime) {
		c.vm = vm
		vm.SetMaxCallStackSize(cfg.MaxCallStackSize)
		for _, cap := range capabilityTable {
			if err := cap.install(c); err != nil {
				installErr = fmt.Errorf("failed to install %s capability: %w", cap.name, err)
				return
			}
		}
		for _, name := range deniedGlobals {
			if err := vm.Set(name, goja.Undefined()); err != nil {
				installErr = fmt.Errorf("failed to remove %s global: %w", name, err)
				return
			}
		}
		for name, value := range bindings {
			if err := vm.Set(name, value); err != nil {
				installErr = fmt.Errorf("failed to bind %s: %w", name, err)
				return
			}
		}
	})
	if installErr != nil {
		return nil, installErr
	}
	return c, nil
}

func installURL(c *capabilityContext) error {
	url.Enable(c.vm)
	return nil
}

func installBuffer(c *capabilityContext) error {
	buffer.Enable(c.vm)
	return nil
}

// installEncoding binds atob/btoa and the TextEncoder/TextDecoder pair. The
// UTF-8 transcoding runs in Go; the prelude wraps it in the standard class
// surface and the helpers are removed afterwards.
func installEncoding(c *capabilityContext) error {
	if err := c.vm.Set("btoa", func(call goja.FunctionCall) goja.Value {
		encoded := base64.StdEncoding.EncodeToString([]byte(call.Argument(0).String()))
		return c.vm.ToValue(encoded)
	}); err != nil {
		return err
	}
	if err := c.vm.Set("atob", func(call goja.FunctionCall) goja.Value {
		decoded, err := base64.StdEncoding.DecodeString(call.Argument(0).String())
		if err != nil {
			panic(c.vm.NewTypeError("atob: invalid base64 input"))
		}
		return c.vm.ToValue(string(decoded))
	}); err != nil {
		return err
	}
	if err := c.vm.Set("__encodeUTF8", func(s string) goja.ArrayBuffer {
		return c.vm.NewArrayBuffer([]byte(s))
	}); err != nil {
		return err
	}
	if err := c.vm.Set("__decodeUTF8", func(v goja.Value) string {
		return string(exportBytes(v))
	}); err != nil {
		return err
	}
	if _, err := c.vm.RunProgram(textCodecProgram); err != nil {
		return err
	}
	for _, helper := range []string{"__encodeUTF8", "__decodeUTF8"} {
		if err := c.vm.Set(helper, goja.Undefined()); err != nil {
			return err
		}
	}
	return nil
}

// installWebTypes defines the Headers/Request/Response/Blob/FormData surface.
func installWebTypes(c *capabilityContext) error {
	_, err := c.vm.RunProgram(webTypesProgram)
	return err
}

// exportBytes extracts raw bytes from an ArrayBuffer or typed-array value.
func exportBytes(v goja.Value) []byte {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	switch data := v.Export().(type) {
	case []byte:
		return data
	case goja.ArrayBuffer:
		return data.Bytes()
	case string:
		return []byte(data)
	default:
		return nil
	}
}
