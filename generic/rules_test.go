package generic_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/labor-engine/generic"
)

func failing(id generic.RuleID, blocking bool) func(int) *generic.Issue {
	return func(int) *generic.Issue {
		is := generic.Warning(id, "C", string(id))
		is.Blocking = blocking
		return &is
	}
}

func TestRuleSet_EvaluatesEveryRule(t *testing.T) {
	// GIVEN: Two blocking rules and a warning
	// THEN: All three issues are reported, in rule order

	rs := generic.RuleSet[int]{
		{ID: "A", Check: func(int) []generic.Issue { return []generic.Issue{generic.Blocking("A", "C", "a")} }},
		{ID: "B", Check: func(int) []generic.Issue { return []generic.Issue{generic.Warning("B", "C", "b")} }},
		{ID: "C", Check: func(int) []generic.Issue { return []generic.Issue{generic.Blocking("C", "C", "c")} }},
	}
	r := rs.Evaluate(0)

	assert.False(t, r.Valid)
	assert.Equal(t, []string{"a", "c"}, r.Messages())
	require.Len(t, r.Warnings, 1)
	assert.True(t, r.HasRule("B"))

	only := rs.Only("C", "B").Evaluate(0)
	assert.Len(t, only.Errors, 1)
	assert.Len(t, only.Warnings, 1)
}

func TestPipeline_StopsAtFirstBlockingIssue(t *testing.T) {
	// GIVEN: warning, blocking, blocking
	// THEN: The warning and the first error are kept, the last step never runs

	ran := false
	p := generic.Pipeline[int]{
		{ID: "W", Check: failing("W", false)},
		{ID: "E1", Check: failing("E1", true)},
		{ID: "E2", Check: func(int) *generic.Issue { ran = true; return nil }},
	}
	r := p.Run(0)

	assert.False(t, r.Valid)
	require.Len(t, r.Errors, 1)
	assert.Equal(t, generic.RuleID("E1"), r.Errors[0].Rule)
	assert.Len(t, r.Warnings, 1)
	assert.False(t, ran)
}

func TestResult_EmptyIsValid(t *testing.T) {
	r := generic.NewResult(nil)
	assert.True(t, r.Valid)
	assert.NotNil(t, r.Errors)
	assert.NotNil(t, r.Warnings)
}

func TestInvalid(t *testing.T) {
	r := generic.Invalid(errors.New("boom"))
	assert.False(t, r.Valid)
	require.Len(t, r.Errors, 1)
	assert.Equal(t, generic.CodeValidationError, r.Errors[0].Code)
	assert.Equal(t, generic.RuleInput, r.Errors[0].Rule)
	assert.Empty(t, r.Warnings)
}

func TestErrors(t *testing.T) {
	_, err := generic.ParseDate("nope")
	assert.True(t, generic.IsClientError(err))
	assert.False(t, generic.IsNotFound(err))

	var insufficient error = &generic.InsufficientBalanceError{ContractID: "c-1", Available: decimal.NewFromInt(2), Requested: decimal.NewFromInt(5)}
	assert.Contains(t, insufficient.Error(), "available 2, requested 5")
	assert.True(t, generic.IsInsufficientBalance(fmt.Errorf("approving: %w", insufficient)))
	assert.False(t, generic.IsInsufficientBalance(err))
}
