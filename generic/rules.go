package generic

// =============================================================================
// ISSUE & RESULT - Business-rule outcomes
// =============================================================================

// RuleID is a stable rule identifier. Other layers (help lookups, stored
// results) key off these values, so they must not be renamed.
type RuleID string

// Code identifies the specific outcome a rule produced.
type Code string

// CodeValidationError is reserved for malformed input caught at the boundary
// of a public operation.
const CodeValidationError Code = "VALIDATION_ERROR"

// RuleInput is cited by the synthetic issue produced for malformed input.
const RuleInput RuleID = "INPUT"

// Issue is a single error or warning.
type Issue struct {
	Code     Code   `json:"code"`
	Message  string `json:"message"`
	Rule     RuleID `json:"rule"`
	Blocking bool   `json:"blocking"`
}

// Result is the outcome of a validation call. It is built once and never
// mutated by the engine afterwards.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// Blocking creates an error issue.
func Blocking(rule RuleID, code Code, message string) Issue {
	return Issue{Code: code, Message: message, Rule: rule, Blocking: true}
}

// Warning creates a non-blocking issue.
func Warning(rule RuleID, code Code, message string) Issue {
	return Issue{Code: code, Message: message, Rule: rule, Blocking: false}
}

// Invalid is the result returned when input cannot be evaluated at all.
func Invalid(err error) Result {
	return NewResult([]Issue{Blocking(RuleInput, CodeValidationError, "invalid input: "+err.Error())})
}

// NewResult splits issues into errors and warnings, keeping their order.
func NewResult(issues []Issue) Result {
	r := Result{Errors: []Issue{}, Warnings: []Issue{}}
	for _, is := range issues {
		if is.Blocking {
			r.Errors = append(r.Errors, is)
		} else {
			r.Warnings = append(r.Warnings, is)
		}
	}
	r.Valid = len(r.Errors) == 0
	return r
}

// HasRule reports whether any error or warning cites rule.
func (r Result) HasRule(rule RuleID) bool {
	for _, is := range r.Errors {
		if is.Rule == rule {
			return true
		}
	}
	for _, is := range r.Warnings {
		if is.Rule == rule {
			return true
		}
	}
	return false
}

// Messages returns the error messages in order.
func (r Result) Messages() []string {
	out := make([]string, 0, len(r.Errors))
	for _, is := range r.Errors {
		out = append(out, is.Message)
	}
	return out
}

// =============================================================================
// RULE SET - Every rule runs
// =============================================================================

// Rule evaluates one independent constraint and returns any issues found.
type Rule[T any] struct {
	ID    RuleID
	Check func(T) []Issue
}

// RuleSet evaluates all rules in order with no short-circuit. Every issue
// produced is kept.
type RuleSet[T any] []Rule[T]

func (rs RuleSet[T]) Evaluate(in T) Result {
	var issues []Issue
	for _, rule := range rs {
		issues = append(issues, rule.Check(in)...)
	}
	return NewResult(issues)
}

// Only returns the subset of rules with the given IDs, in their original order.
func (rs RuleSet[T]) Only(ids ...RuleID) RuleSet[T] {
	var out RuleSet[T]
	for _, rule := range rs {
		for _, id := range ids {
			if rule.ID == id {
				out = append(out, rule)
				break
			}
		}
	}
	return out
}

// =============================================================================
// PIPELINE - Stops at the first blocking issue
// =============================================================================

// Step is one stage of a Pipeline. It returns nil when the stage passes.
type Step[T any] struct {
	ID    RuleID
	Check func(T) *Issue
}

// Pipeline runs steps in order and returns as soon as a step produces a
// blocking issue; later steps are not evaluated. Warnings from steps that ran
// are kept.
type Pipeline[T any] []Step[T]

func (p Pipeline[T]) Run(in T) Result {
	var issues []Issue
	for _, step := range p {
		is := step.Check(in)
		if is == nil {
			continue
		}
		issues = append(issues, *is)
		if is.Blocking {
			break
		}
	}
	return NewResult(issues)
}
