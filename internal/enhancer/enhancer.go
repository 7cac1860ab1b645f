// =============================================================================
// DORA Register of Information - Error Enhancer
// =============================================================================
//
// The enhancer attaches a remediation hint to validation findings. Hints
// come from a static rule table: a rule matches on the finding code and,
// optionally, on a "TEMPLATE.column" pattern and a message pattern. When
// several rules match, a rule with a pattern beats a code-only rule; among
// equals the first rule in the table wins.
//
// Enhancement is pure. Only Suggestion is ever written; findings that no
// rule matches are returned unchanged.
//
// =============================================================================

package enhancer

import (
	"regexp"
	"strings"

	"github.com/FedericoTs/dora-comply/internal/types"
)

// Rule maps findings to a suggestion.
type Rule struct {
	// Code is the finding code the rule applies to.
	Code string

	// Target optionally restricts the rule to matching "TEMPLATE.column"
	// locations, e.g. `^B_05\.01\.c0010$`.
	Target *regexp.Regexp

	// Message optionally restricts the rule to findings whose message
	// matches. Package findings carry no location, so this is how they are
	// told apart.
	Message *regexp.Regexp

	// Suggestion is the hint text. "{value}" is replaced by the offending
	// value and "{column}" by the ESA column code.
	Suggestion string
}

func (r Rule) matches(e types.ValidationError) bool {
	if r.Code != e.Code {
		return false
	}
	if r.Message != nil && !r.Message.MatchString(e.Message) {
		return false
	}
	return r.Target == nil || r.Target.MatchString(e.TemplateID+"."+e.ESACode)
}

func (r Rule) specific() bool {
	return r.Target != nil || r.Message != nil
}

func (r Rule) render(e types.ValidationError) string {
	return strings.NewReplacer("{value}", e.Value, "{column}", e.ESACode).Replace(r.Suggestion)
}

// Enhancer applies a rule table.
type Enhancer struct {
	rules []Rule
}

// New creates an Enhancer over rules, in priority order.
func New(rules ...Rule) *Enhancer {
	return &Enhancer{rules: rules}
}

// Enhance returns a copy of errs with suggestions attached.
func (h *Enhancer) Enhance(errs []types.ValidationError) []types.ValidationError {
	out := make([]types.ValidationError, len(errs))
	for i, e := range errs {
		if rule, ok := h.match(e); ok {
			e.Suggestion = rule.render(e)
		}
		out[i] = e
	}
	return out
}

func (h *Enhancer) match(e types.ValidationError) (Rule, bool) {
	var fallback *Rule
	for i := range h.rules {
		r := &h.rules[i]
		if !r.matches(e) {
			continue
		}
		if r.specific() {
			return *r, true
		}
		if fallback == nil {
			fallback = r
		}
	}
	if fallback == nil {
		return Rule{}, false
	}
	return *fallback, true
}

// =============================================================================
// DEFAULT RULES
// =============================================================================

var defaultEnhancer = New(DefaultRules()...)

// Default returns the enhancer over DefaultRules.
func Default() *Enhancer {
	return defaultEnhancer
}

// EnhanceErrorsWithSuggestions applies the default rule table.
func EnhanceErrorsWithSuggestions(errs []types.ValidationError) []types.ValidationError {
	return defaultEnhancer.Enhance(errs)
}

// DefaultRules returns the built-in rule table.
func DefaultRules() []Rule {
	return []Rule{
		// Location specific.
		{
			Code:       types.CodeReferenceDangling,
			Target:     regexp.MustCompile(`^B_0[25]\.02\.c0030$|^B_03\.02\.c0020$|^B_05\.02\.c0060$|^B_07\.01\.c0020$`),
			Suggestion: "Add provider {value} to B_05.01 or correct the provider code on this row.",
		},
		{
			Code:       types.CodeReferenceDangling,
			Target:     regexp.MustCompile(`\.c0010$|^B_02\.03\.c0020$`),
			Suggestion: "Add contract {value} to B_02.01 or correct the contractual arrangement reference.",
		},
		{
			Code:       types.CodeReferenceDangling,
			Target:     regexp.MustCompile(`^B_02\.02\.c0050$`),
			Suggestion: "Add function {value} to B_06.01 or correct the function identifier.",
		},
		{
			Code:       types.CodeReferenceDangling,
			Target:     regexp.MustCompile(`^B_04\.01\.c0040$`),
			Suggestion: "Add branch {value} to B_01.03 or leave the column empty for the head office.",
		},
		{
			Code:       types.CodeReferenceDangling,
			Target:     regexp.MustCompile(`^B_06\.01\.c0040$|^B_0[1-4]\.0[1-3]\.c0020$`),
			Suggestion: "Add entity {value} to B_01.02 (entities in scope) or correct the LEI.",
		},
		{
			Code:       types.CodeEnumInvalid,
			Target:     regexp.MustCompile(`^B_01\.0[12]\.c0030$|^B_01\.03\.c0040$|^B_02\.02\.c01[2356]0$|^B_05\.01\.c0080$`),
			Suggestion: "Use an ISO 3166-1 alpha-2 country code (e.g. DE) or the ESA form eba_GA:DE.",
		},
		{
			Code:       types.CodeEnumInvalid,
			Target:     regexp.MustCompile(`^B_01\.02\.c0100$|^B_02\.01\.c0040$|^B_05\.01\.c0090$`),
			Suggestion: "Use an ISO 4217 currency code (e.g. EUR) or the ESA form eba_CU:EUR.",
		},
		{
			Code:       types.CodeEnumInvalid,
			Target:     regexp.MustCompile(`^B_06\.01\.c0050$`),
			Suggestion: "Criticality must be eba_BT:x28 (critical or important), eba_BT:x29 (not critical) or eba_BT:x21 (not assessed).",
		},
		{
			Code:       types.CodeRequiredMissing,
			Target:     regexp.MustCompile(`^B_01\.0[12]\.c0010$`),
			Suggestion: "Every entity row needs its 20 character LEI; look it up at gleif.org.",
		},
		{
			Code:       types.CodeParametersInvalid,
			Message:    regexp.MustCompile(`^entity LEI`),
			Suggestion: "Re-enter the entity LEI from its GLEIF record (search.gleif.org); it is 20 characters ending in two check digits.",
		},

		// Generic.
		{
			Code:       types.CodeRequiredMissing,
			Suggestion: "Fill in {column}; the column is mandatory for every row of this template.",
		},
		{
			Code:       types.CodeEnumInvalid,
			Suggestion: "Replace {value} with a code from the column's ESA code list.",
		},
		{
			Code:       types.CodeNumberInvalid,
			Suggestion: "Use digits with a point as decimal separator and no grouping, e.g. 1234.50.",
		},
		{
			Code:       types.CodeNumberNegative,
			Suggestion: "Amounts and durations are expected to be zero or positive; check the sign.",
		},
		{
			Code:       types.CodeDateInvalid,
			Suggestion: "Write dates as YYYY-MM-DD, e.g. 2024-12-31.",
		},
		{
			Code:       types.CodeDateOutOfRange,
			Suggestion: "Check the year of {value}; it lies outside the plausible range for this column.",
		},
		{
			Code:       types.CodeBooleanInvalid,
			Suggestion: `Use "true" or "false".`,
		},
		{
			Code:       types.CodeLEIInvalid,
			Suggestion: "Check {value} against the GLEIF register; the last two digits are an ISO 7064 checksum.",
		},
		{
			Code:       types.CodeDuplicateKey,
			Suggestion: "Merge the duplicate rows or give each row a distinct identifier.",
		},
		{
			Code:       types.CodeParametersInvalid,
			Suggestion: "Correct the organisation settings (LEI, reporting date, base currency) and run the export again.",
		},
	}
}
