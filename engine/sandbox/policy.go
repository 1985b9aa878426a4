package sandbox

import "regexp"

// The policy gate inspects the original, unresolved source text. It runs
// before the resolver and context builder so that no side effect exists for a
// request destined for delegation.

var (
	// importStmtRe matches an import keyword at the start of a statement.
	importStmtRe = regexp.MustCompile(`(?m)^\s*import\s`)
	// requireCallRe matches require(...) with a string or template literal
	// argument. Computed require targets are not detectable textually and run
	// locally, where no require binding exists.
	requireCallRe = regexp.MustCompile("require\\s*\\(\\s*['\"`]")
)

// DetectsImport reports whether the source text needs package imports.
func DetectsImport(code string) bool {
	return importStmtRe.MatchString(code) || requireCallRe.MatchString(code)
}

// CheckPolicy decides local-vs-delegated execution. It returns nil when the
// request may run locally, or a *DelegationError describing why it must leave
// the process. The checks are ordered cheapest first and purely textual.
func CheckPolicy(req *ExecutionRequest) error {
	if req.Language == LanguagePython {
		return &DelegationError{Reason: DelegationNonDefaultLanguage, Language: req.Language}
	}
	if DetectsImport(req.Code) {
		return &DelegationError{Reason: DelegationRequiresImport, Language: req.Language}
	}
	return nil
}
