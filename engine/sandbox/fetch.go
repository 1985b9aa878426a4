package sandbox

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dop251/goja"
	"github.com/go-resty/resty/v2"
)

// fetchRequest is the Go-side view of a fetch call's arguments.
type fetchRequest struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    string
	HasBody bool
}

// installFetch binds the network capability. The HTTP round trip runs off the
// event loop; the promise settles back on it, so user code never observes
// concurrent mutation of its own context.
func installFetch(c *capabilityContext) error {
	client := resty.New().SetTimeout(c.cfg.FetchTimeout)
	return c.vm.Set("fetch", func(call goja.FunctionCall) goja.Value {
		promise, resolve, reject := c.vm.NewPromise()
		req, err := parseFetchArgs(call)
		if err != nil {
			reject(c.vm.NewTypeError(err.Error()))
			return c.vm.ToValue(promise)
		}
		go func() {
			resp, err := doFetch(client, req)
			c.loop.RunOnLoop(func(vm *goja.Runtime) {
				if err != nil {
					reject(vm.NewGoError(fmt.Errorf("fetch failed: %w", err)))
					return
				}
				resolve(newFetchResponse(resp))
			})
		}()
		return c.vm.ToValue(promise)
	})
}

func parseFetchArgs(call goja.FunctionCall) (*fetchRequest, error) {
	req := &fetchRequest{Method: http.MethodGet, Headers: map[string]string{}}
	input := call.Argument(0)
	if input == nil || goja.IsUndefined(input) {
		return nil, fmt.Errorf("fetch requires a url or Request argument")
	}
	if obj, ok := input.Export().(map[string]any); ok {
		applyFetchInit(req, obj)
		if u, ok := obj["url"].(string); ok {
			req.URL = u
		}
	} else {
		req.URL = input.String()
	}
	if init, ok := call.Argument(1).Export().(map[string]any); ok {
		applyFetchInit(req, init)
	}
	if req.URL == "" {
		return nil, fmt.Errorf("fetch requires a non-empty url")
	}
	return req, nil
}

func applyFetchInit(req *fetchRequest, init map[string]any) {
	if m, ok := init["method"].(string); ok && m != "" {
		req.Method = strings.ToUpper(m)
	}
	if h, ok := init["headers"]; ok {
		applyFetchHeaders(req, h)
	}
	if body, ok := init["body"]; ok && body != nil {
		req.HasBody = true
		switch b := body.(type) {
		case string:
			req.Body = b
		default:
			if raw, err := json.Marshal(b); err == nil {
				req.Body = string(raw)
			} else {
				req.Body = fmt.Sprintf("%v", b)
			}
		}
	}
}

func applyFetchHeaders(req *fetchRequest, h any) {
	headers, ok := h.(map[string]any)
	if !ok {
		return
	}
	// A Headers instance exports its entries under the internal map field.
	if inner, ok := headers["_map"].(map[string]any); ok {
		headers = inner
	}
	for k, v := range headers {
		if s, ok := v.(string); ok {
			req.Headers[k] = s
		}
	}
}

func doFetch(client *resty.Client, req *fetchRequest) (*resty.Response, error) {
	r := client.R().SetHeaders(req.Headers)
	if req.HasBody {
		r.SetBody(req.Body)
	}
	return r.Execute(req.Method, req.URL)
}

// newFetchResponse maps the HTTP response onto the fetch Response surface.
// text() and json() return plain values; awaiting a non-thenable resolves to
// the value itself, so the usual `await res.json()` pattern works unchanged.
func newFetchResponse(resp *resty.Response) map[string]any {
	body := string(resp.Body())
	headers := make(map[string]any, len(resp.Header()))
	for name, values := range resp.Header() {
		if len(values) > 0 {
			headers[strings.ToLower(name)] = strings.Join(values, ", ")
		}
	}
	status := resp.StatusCode()
	return map[string]any{
		"ok":         status >= 200 && status < 300,
		"status":     status,
		"statusText": http.StatusText(status),
		"url":        resp.Request.URL,
		"headers": map[string]any{
			"get": func(name string) any {
				if v, ok := headers[strings.ToLower(name)]; ok {
					return v
				}
				return nil
			},
			"has": func(name string) bool {
				_, ok := headers[strings.ToLower(name)]
				return ok
			},
		},
		"text": func() string { return body },
		"json": func() (any, error) {
			var v any
			if err := json.Unmarshal([]byte(body), &v); err != nil {
				return nil, fmt.Errorf("invalid json response body: %w", err)
			}
			return v, nil
		},
	}
}
