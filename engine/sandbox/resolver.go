package sandbox

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/ThomasVuNguyen/sim/engine/core"
	"github.com/tidwall/gjson"
)

// The resolver rewrites three reference syntaxes in the source text into
// context-bound identifiers. It is a best-effort textual pass: the test suite,
// not the patterns, is the behavioral contract. It is pure and side-effect
// free; no execution happens here.
//
// The passes run in a fixed order because later passes must not re-match text
// already substituted by earlier ones:
//
//  1. <variable.NAME>  workflow variables, type-coerced, deleted on miss
//  2. {{NAME}}         env/params templates, always substituted ("" default)
//  3. <block.path>     tag references, left in place when unresolvable

var (
	workflowVarRe = regexp.MustCompile(`<variable\.([^>]+)>`)
	templateVarRe = regexp.MustCompile(`\{\{([^}]+)\}\}`)
	tagRe         = regexp.MustCompile(`<([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z0-9_]+)*)>`)

	identSanitizeRe = regexp.MustCompile(`[^a-zA-Z0-9_]`)
)

// Generated identifiers are namespaced per source so they cannot collide with
// JavaScript reserved words or each other across passes. If two distinct
// references sanitize to the same identifier, the later binding overwrites the
// earlier one in the context map; that is accepted resolver behavior.
const (
	workflowVarPrefix = "workflowVar_"
	templateVarPrefix = "templateVar_"
	tagPrefix         = "tag_"
)

func bindingIdent(prefix, name string) string {
	return prefix + identSanitizeRe.ReplaceAllString(name, "_")
}

// Resolution is the output of the resolver: the rewritten code plus the
// accumulated bindings, ready for context construction. Its lifetime is one
// invocation.
type Resolution struct {
	Code     string
	Bindings map[string]any
}

// Resolve rewrites every variable reference in req.Code. Substitution replaces
// all occurrences of the exact reference text, so repeated use of one
// reference binds once and substitutes everywhere. Replacement is literal:
// the reference text is never interpreted as a pattern.
func Resolve(req *ExecutionRequest) *Resolution {
	res := &Resolution{
		Code:     req.Code,
		Bindings: make(map[string]any),
	}
	res.resolveWorkflowVariables(req.WorkflowVariables)
	res.resolveTemplateVariables(req.EnvVars, req.Params)
	res.resolveTags(req.Params, req.BlockData, req.BlockNameMapping)
	return res
}

// resolveWorkflowVariables handles <variable.NAME>. NAME is matched case- and
// whitespace-insensitively against declared variable names. Unmatched
// references are deleted from the text.
func (r *Resolution) resolveWorkflowVariables(vars core.WorkflowVariables) {
	for _, ref := range uniqueMatches(workflowVarRe, r.Code) {
		name := strings.ReplaceAll(ref.arg, " ", "")
		wv, ok := lookupWorkflowVariable(vars, name)
		if !ok {
			r.Code = strings.ReplaceAll(r.Code, ref.text, "")
			continue
		}
		ident := bindingIdent(workflowVarPrefix, name)
		r.Bindings[ident] = coerceVariableValue(wv)
		r.Code = strings.ReplaceAll(r.Code, ref.text, ident)
	}
}

// resolveTemplateVariables handles {{NAME}}. NAME is looked up in envVars
// first, then params, defaulting to the empty string. The reference is always
// substituted, never deleted.
func (r *Resolution) resolveTemplateVariables(envVars core.EnvMap, params core.Params) {
	for _, ref := range uniqueMatches(templateVarRe, r.Code) {
		name := strings.TrimSpace(ref.arg)
		var value any = ""
		if v, ok := envVars[name]; ok {
			value = v
		} else if v, ok := params[name]; ok {
			value = v
		}
		ident := bindingIdent(templateVarPrefix, name)
		r.Bindings[ident] = value
		r.Code = strings.ReplaceAll(r.Code, ref.text, ident)
	}
}

// resolveTags handles <PATH> with dotted identifier segments. Resolution order
// is params, then blockData directly, then blockNameMapping with the first
// segment as a case-insensitive block name. Only non-empty, defined
// resolutions are substituted; anything else is left in the text unchanged.
func (r *Resolution) resolveTags(params core.Params, blockData core.BlockData, nameMap core.BlockNameMapping) {
	paramsDoc := newPathDoc(map[string]any(params))
	blockDoc := newPathDoc(map[string]any(blockData))
	for _, ref := range uniqueMatches(tagRe, r.Code) {
		path := ref.arg
		value, ok := paramsDoc.lookup(path)
		if !ok {
			value, ok = blockDoc.lookup(path)
		}
		if !ok && strings.Contains(path, ".") {
			value, ok = lookupByBlockName(path, blockData, nameMap)
		}
		if !ok || isEmptyValue(value) {
			continue
		}
		ident := bindingIdent(tagPrefix, path)
		r.Bindings[ident] = value
		r.Code = strings.ReplaceAll(r.Code, ref.text, ident)
	}
}

// lookupByBlockName maps the first path segment through blockNameMapping to a
// block id and traverses the remaining path inside that block's data.
func lookupByBlockName(path string, blockData core.BlockData, nameMap core.BlockNameMapping) (any, bool) {
	first, rest, _ := strings.Cut(path, ".")
	blockID, ok := nameMap[strings.ToLower(first)]
	if !ok {
		return nil, false
	}
	data, ok := blockData[blockID]
	if !ok {
		return nil, false
	}
	obj, ok := data.(map[string]any)
	if !ok {
		return nil, false
	}
	return newPathDoc(obj).lookup(rest)
}

func lookupWorkflowVariable(vars core.WorkflowVariables, name string) (core.WorkflowVariable, bool) {
	for _, wv := range vars {
		if strings.EqualFold(strings.ReplaceAll(wv.Name, " ", ""), name) {
			return wv, true
		}
	}
	return core.WorkflowVariable{}, false
}

// coerceVariableValue applies the variable's declared type to its raw value.
func coerceVariableValue(wv core.WorkflowVariable) any {
	switch wv.Type {
	case "number":
		return coerceNumber(wv.Value)
	case "boolean":
		if b, ok := wv.Value.(bool); ok {
			return b
		}
		s, _ := wv.Value.(string)
		return s == "true"
	case "json":
		if s, ok := wv.Value.(string); ok {
			var parsed any
			if err := json.Unmarshal([]byte(s), &parsed); err == nil {
				return parsed
			}
		}
		return wv.Value
	default:
		// "string" and undeclared types pass through unchanged.
		return wv.Value
	}
}

func coerceNumber(v any) any {
	switch n := v.(type) {
	case float64, float32, int, int32, int64:
		return n
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f
		}
	}
	return v
}

// isEmptyValue reports values the tag pass treats as unresolved.
func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	return false
}

type refMatch struct {
	text string // the full reference text, e.g. "<variable.count>"
	arg  string // the captured group, e.g. "count"
}

// uniqueMatches returns each distinct reference text once, in order of first
// appearance. Replacement is global, so one entry per reference is enough.
func uniqueMatches(re *regexp.Regexp, code string) []refMatch {
	seen := make(map[string]bool)
	var refs []refMatch
	for _, m := range re.FindAllStringSubmatch(code, -1) {
		if seen[m[0]] {
			continue
		}
		seen[m[0]] = true
		refs = append(refs, refMatch{text: m[0], arg: m[1]})
	}
	return refs
}

// pathDoc resolves dotted paths against a mapping. The mapping is serialized
// once and traversed with gjson, which handles nested objects and array
// indexes uniformly.
type pathDoc struct {
	raw []byte
}

func newPathDoc(m map[string]any) *pathDoc {
	if len(m) == 0 {
		return &pathDoc{}
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return &pathDoc{}
	}
	return &pathDoc{raw: raw}
}

func (d *pathDoc) lookup(path string) (any, bool) {
	if d.raw == nil || path == "" {
		return nil, false
	}
	result := gjson.GetBytes(d.raw, path)
	if !result.Exists() {
		return nil, false
	}
	return result.Value(), true
}
