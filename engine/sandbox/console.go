package sandbox

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/dop251/goja"
)

// stdoutBuffer is the per-invocation arena for captured console output. It is
// constructed with the capability context and discarded with it; nothing here
// is shared across invocations.
type stdoutBuffer struct {
	mu    sync.Mutex
	buf   strings.Builder
	limit int
}

func newStdoutBuffer(limit int) *stdoutBuffer {
	return &stdoutBuffer{limit: limit}
}

func (b *stdoutBuffer) writeLine(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.limit > 0 && b.buf.Len()+len(line)+1 > b.limit {
		return
	}
	b.buf.WriteString(line)
	b.buf.WriteByte('\n')
}

func (b *stdoutBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// installConsole binds the console shim. All levels append formatted lines to
// the stdout buffer; real process output is never touched.
func installConsole(c *capabilityContext) error {
	write := func(call goja.FunctionCall) goja.Value {
		c.stdout.writeLine(formatConsoleArgs(call.Arguments))
		return goja.Undefined()
	}
	console := c.vm.NewObject()
	for _, level := range []string{"log", "error", "warn"} {
		if err := console.Set(level, write); err != nil {
			return err
		}
	}
	return c.vm.Set("console", console)
}

func formatConsoleArgs(args []goja.Value) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, formatConsoleValue(arg))
	}
	return strings.Join(parts, " ")
}

func formatConsoleValue(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}
	exported := v.Export()
	switch val := exported.(type) {
	case string:
		return val
	case map[string]any, []any:
		if raw, err := json.Marshal(val); err == nil {
			return string(raw)
		}
		return fmt.Sprintf("%v", val)
	default:
		return v.String()
	}
}
