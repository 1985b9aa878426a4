package sandbox_test

import (
	"testing"

	"github.com/ThomasVuNguyen/sim/engine/core"
	"github.com/ThomasVuNguyen/sim/engine/sandbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_NoReferences(t *testing.T) {
	t.Run("Should leave code without references untouched", func(t *testing.T) {
		code := "const x = 1;\nreturn x + 1;"
		res := sandbox.Resolve(&sandbox.ExecutionRequest{Code: code})
		assert.Equal(t, code, res.Code)
		assert.Empty(t, res.Bindings)
	})

	t.Run("Should be a no-op on already-resolved code", func(t *testing.T) {
		code := "return workflowVar_count + templateVar_API_KEY.length + tag_block_output;"
		res := sandbox.Resolve(&sandbox.ExecutionRequest{Code: code})
		assert.Equal(t, code, res.Code)
		assert.Empty(t, res.Bindings)
	})
}

func TestResolve_WorkflowVariables(t *testing.T) {
	vars := core.WorkflowVariables{
		"v1": {Name: "count", Type: "number", Value: "42"},
		"v2": {Name: "is enabled", Type: "boolean", Value: "true"},
		"v3": {Name: "payload", Type: "json", Value: `{"a":1}`},
		"v4": {Name: "greeting", Type: "string", Value: "hello"},
	}

	t.Run("Should substitute a matched reference everywhere with one binding", func(t *testing.T) {
		req := &sandbox.ExecutionRequest{
			Code:              "return <variable.count> + <variable.count>;",
			WorkflowVariables: vars,
		}
		res := sandbox.Resolve(req)
		assert.Equal(t, "return workflowVar_count + workflowVar_count;", res.Code)
		require.Len(t, res.Bindings, 1)
		assert.Equal(t, float64(42), res.Bindings["workflowVar_count"])
	})

	t.Run("Should match names case- and whitespace-insensitively", func(t *testing.T) {
		req := &sandbox.ExecutionRequest{
			Code:              "return <variable.IsEnabled>;",
			WorkflowVariables: vars,
		}
		res := sandbox.Resolve(req)
		assert.Equal(t, "return workflowVar_IsEnabled;", res.Code)
		assert.Equal(t, true, res.Bindings["workflowVar_IsEnabled"])
	})

	t.Run("Should parse json-typed variables from string values", func(t *testing.T) {
		req := &sandbox.ExecutionRequest{
			Code:              "return <variable.payload>;",
			WorkflowVariables: vars,
		}
		res := sandbox.Resolve(req)
		assert.Equal(t, map[string]any{"a": float64(1)}, res.Bindings["workflowVar_payload"])
	})

	t.Run("Should keep the raw value when json parsing fails", func(t *testing.T) {
		req := &sandbox.ExecutionRequest{
			Code: "return <variable.broken>;",
			WorkflowVariables: core.WorkflowVariables{
				"v1": {Name: "broken", Type: "json", Value: "{not json"},
			},
		}
		res := sandbox.Resolve(req)
		assert.Equal(t, "{not json", res.Bindings["workflowVar_broken"])
	})

	t.Run("Should pass string-typed variables through unchanged", func(t *testing.T) {
		req := &sandbox.ExecutionRequest{
			Code:              "return <variable.greeting>;",
			WorkflowVariables: vars,
		}
		res := sandbox.Resolve(req)
		assert.Equal(t, "hello", res.Bindings["workflowVar_greeting"])
	})

	t.Run("Should delete unmatched references from the text", func(t *testing.T) {
		req := &sandbox.ExecutionRequest{
			Code:              "return '<variable.missing>';",
			WorkflowVariables: vars,
		}
		res := sandbox.Resolve(req)
		assert.Equal(t, "return '';", res.Code)
		assert.Empty(t, res.Bindings)
	})
}

func TestResolve_TemplateVariables(t *testing.T) {
	t.Run("Should bind env values exactly on round trip", func(t *testing.T) {
		req := &sandbox.ExecutionRequest{
			Code:    "return {{FOO}};",
			EnvVars: core.EnvMap{"FOO": "bar"},
		}
		res := sandbox.Resolve(req)
		assert.Equal(t, "return templateVar_FOO;", res.Code)
		assert.Equal(t, "bar", res.Bindings["templateVar_FOO"])
	})

	t.Run("Should prefer envVars over params", func(t *testing.T) {
		req := &sandbox.ExecutionRequest{
			Code:    "return {{KEY}};",
			EnvVars: core.EnvMap{"KEY": "from-env"},
			Params:  core.Params{"KEY": "from-params"},
		}
		res := sandbox.Resolve(req)
		assert.Equal(t, "from-env", res.Bindings["templateVar_KEY"])
	})

	t.Run("Should fall back to params when env misses", func(t *testing.T) {
		req := &sandbox.ExecutionRequest{
			Code:   "return {{count}};",
			Params: core.Params{"count": 7},
		}
		res := sandbox.Resolve(req)
		assert.Equal(t, 7, res.Bindings["templateVar_count"])
	})

	t.Run("Should substitute with empty string when absent everywhere", func(t *testing.T) {
		req := &sandbox.ExecutionRequest{Code: "return {{MISSING}};"}
		res := sandbox.Resolve(req)
		assert.Equal(t, "return templateVar_MISSING;", res.Code)
		assert.Equal(t, "", res.Bindings["templateVar_MISSING"])
	})
}

func TestResolve_Tags(t *testing.T) {
	t.Run("Should resolve dotted paths against params first", func(t *testing.T) {
		req := &sandbox.ExecutionRequest{
			Code:   "return <user.name>;",
			Params: core.Params{"user": map[string]any{"name": "ada"}},
		}
		res := sandbox.Resolve(req)
		assert.Equal(t, "return tag_user_name;", res.Code)
		assert.Equal(t, "ada", res.Bindings["tag_user_name"])
	})

	t.Run("Should resolve against blockData directly by block id", func(t *testing.T) {
		req := &sandbox.ExecutionRequest{
			Code: "return <block1.output>;",
			BlockData: core.BlockData{
				"block1": map[string]any{"output": float64(99)},
			},
		}
		res := sandbox.Resolve(req)
		assert.Equal(t, "return tag_block1_output;", res.Code)
		assert.Equal(t, float64(99), res.Bindings["tag_block1_output"])
	})

	t.Run("Should map block names through blockNameMapping case-insensitively", func(t *testing.T) {
		req := &sandbox.ExecutionRequest{
			Code: "return <MyBlock.output.value>;",
			BlockData: core.BlockData{
				"id-123": map[string]any{"output": map[string]any{"value": "nested"}},
			},
			BlockNameMapping: core.BlockNameMapping{"myblock": "id-123"},
		}
		res := sandbox.Resolve(req)
		assert.Equal(t, "return tag_MyBlock_output_value;", res.Code)
		assert.Equal(t, "nested", res.Bindings["tag_MyBlock_output_value"])
	})

	t.Run("Should leave unresolvable references in the text", func(t *testing.T) {
		code := "const x = 1 < 2; return <unknown.path>;"
		res := sandbox.Resolve(&sandbox.ExecutionRequest{Code: code})
		assert.Equal(t, code, res.Code)
		assert.Empty(t, res.Bindings)
	})

	t.Run("Should leave references that resolve to empty values", func(t *testing.T) {
		req := &sandbox.ExecutionRequest{
			Code:   "return <user.name>;",
			Params: core.Params{"user": map[string]any{"name": ""}},
		}
		res := sandbox.Resolve(req)
		assert.Equal(t, "return <user.name>;", res.Code)
		assert.Empty(t, res.Bindings)
	})
}

func TestResolve_PassOrdering(t *testing.T) {
	t.Run("Should run all three passes on one script", func(t *testing.T) {
		req := &sandbox.ExecutionRequest{
			Code: "return <variable.count> + {{FOO}}.length + <agent.output>;",
			WorkflowVariables: core.WorkflowVariables{
				"v1": {Name: "count", Type: "number", Value: float64(2)},
			},
			EnvVars: core.EnvMap{"FOO": "bar"},
			BlockData: core.BlockData{
				"agent": map[string]any{"output": "done"},
			},
		}
		res := sandbox.Resolve(req)
		assert.Equal(t, "return workflowVar_count + templateVar_FOO.length + tag_agent_output;", res.Code)
		assert.Len(t, res.Bindings, 3)
	})
}
