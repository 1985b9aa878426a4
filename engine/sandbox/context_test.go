package sandbox_test

import (
	"context"
	"testing"

	"github.com/ThomasVuNguyen/sim/engine/sandbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCode(t *testing.T, code string) *sandbox.ExecutionResult {
	t.Helper()
	result, err := newTestService().Execute(context.Background(), &sandbox.ExecutionRequest{Code: code})
	require.NoError(t, err)
	require.True(t, result.Success, "execution failed: %s", result.Error)
	return result
}

func TestCapability_Encoding(t *testing.T) {
	t.Run("Should round-trip base64 through btoa and atob", func(t *testing.T) {
		result := runCode(t, "return atob(btoa('hello world'));")
		assert.Equal(t, "hello world", result.Result)
	})

	t.Run("Should encode to the expected base64 text", func(t *testing.T) {
		result := runCode(t, "return btoa('abc');")
		assert.Equal(t, "YWJj", result.Result)
	})

	t.Run("Should raise on invalid base64 input", func(t *testing.T) {
		result, err := newTestService().Execute(context.Background(), &sandbox.ExecutionRequest{
			Code: "return atob('not valid base64!!');",
		})
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "invalid base64")
	})

	t.Run("Should round-trip utf-8 through TextEncoder and TextDecoder", func(t *testing.T) {
		result := runCode(t, `
			const bytes = new TextEncoder().encode('héllo ✓');
			return new TextDecoder().decode(bytes);
		`)
		assert.Equal(t, "héllo ✓", result.Result)
	})

	t.Run("Should report utf-8 as the codec encoding", func(t *testing.T) {
		result := runCode(t, "return new TextEncoder().encoding + '/' + new TextDecoder().encoding;")
		assert.Equal(t, "utf-8/utf-8", result.Result)
	})
}

func TestCapability_URL(t *testing.T) {
	t.Run("Should parse url components", func(t *testing.T) {
		result := runCode(t, `
			const u = new URL('https://example.com:8443/path?q=1');
			return u.hostname + '|' + u.pathname + '|' + u.searchParams.get('q');
		`)
		assert.Equal(t, "example.com|/path|1", result.Result)
	})

	t.Run("Should build query strings with URLSearchParams", func(t *testing.T) {
		result := runCode(t, `
			const p = new URLSearchParams();
			p.set('a', '1');
			p.set('b', 'two');
			return p.toString();
		`)
		assert.Equal(t, "a=1&b=two", result.Result)
	})
}

func TestCapability_Buffer(t *testing.T) {
	t.Run("Should convert between utf-8 and base64", func(t *testing.T) {
		result := runCode(t, "return Buffer.from('hi', 'utf-8').toString('base64');")
		assert.Equal(t, "aGk=", result.Result)
	})
}

func TestCapability_WebTypes(t *testing.T) {
	t.Run("Should treat header names case-insensitively", func(t *testing.T) {
		result := runCode(t, `
			const h = new Headers({'Content-Type': 'application/json'});
			return h.get('content-type');
		`)
		assert.Equal(t, "application/json", result.Result)
	})

	t.Run("Should append multi-valued headers", func(t *testing.T) {
		result := runCode(t, `
			const h = new Headers();
			h.append('Accept', 'text/html');
			h.append('Accept', 'application/json');
			return h.get('accept');
		`)
		assert.Equal(t, "text/html, application/json", result.Result)
	})

	t.Run("Should construct responses with a json body", func(t *testing.T) {
		result := runCode(t, `
			const res = new Response('{"n": 3}', {status: 201});
			return { ok: res.ok, status: res.status, n: res.json().n };
		`)
		body, ok := result.Result.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, true, body["ok"])
		assert.Equal(t, int64(201), body["status"])
		assert.Equal(t, int64(3), body["n"])
	})

	t.Run("Should normalize request methods", func(t *testing.T) {
		result := runCode(t, `
			const req = new Request('https://example.com', {method: 'post'});
			return req.method;
		`)
		assert.Equal(t, "POST", result.Result)
	})

	t.Run("Should collect blob parts into text", func(t *testing.T) {
		result := runCode(t, "return new Blob(['a', 'b', 'c']).text();")
		assert.Equal(t, "abc", result.Result)
	})

	t.Run("Should keep formdata entries in order", func(t *testing.T) {
		result := runCode(t, `
			const fd = new FormData();
			fd.append('k', 'v1');
			fd.append('k', 'v2');
			return fd.getAll('k').join(',');
		`)
		assert.Equal(t, "v1,v2", result.Result)
	})
}

func TestCapability_Console(t *testing.T) {
	t.Run("Should capture all console levels", func(t *testing.T) {
		result := runCode(t, `
			console.log('one');
			console.warn('two');
			console.error('three');
			return true;
		`)
		assert.Equal(t, "one\ntwo\nthree", result.Stdout)
	})

	t.Run("Should render null and undefined literally", func(t *testing.T) {
		result := runCode(t, "console.log(null, undefined, 3); return true;")
		assert.Equal(t, "null undefined 3", result.Stdout)
	})

	t.Run("Should render arrays as json", func(t *testing.T) {
		result := runCode(t, "console.log([1, 'a']); return true;")
		assert.Equal(t, `[1,"a"]`, result.Stdout)
	})
}
