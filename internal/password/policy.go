// Package password implements the account password policy. The policy is a
// fixed set of named rules evaluated independently so callers can show
// per-rule pass/fail feedback while a password is being typed.
package password

import (
	"strings"
	"unicode"
)

// Policy bounds.
const (
	MinLength = 8
	MaxLength = 32
)

// specialChars is the set of accepted special characters.
const specialChars = "!@#$%^&*"

// Rule names, stable identifiers for per-rule feedback.
const (
	RuleMinLength    = "minLength"
	RuleMaxLength    = "maxLength"
	RuleUppercase    = "uppercase"
	RuleLowercase    = "lowercase"
	RuleNumber       = "number"
	RuleSpecialChar  = "specialChar"
	RuleMatchConfirm = "matchConfirm"
)

// Strength classifies how many policy rules a candidate satisfies.
type Strength string

const (
	StrengthWeak   Strength = "weak"
	StrengthMedium Strength = "medium"
	StrengthStrong Strength = "strong"
)

// Result holds the outcome of evaluating a candidate password against the
// policy. Rules maps each rule name to whether it passed.
type Result struct {
	Rules map[string]bool

	// confirmSupplied records whether a confirmation was part of the
	// evaluation; when absent, matchConfirm is vacuously true and does not
	// count toward strength.
	confirmSupplied bool
}

// Evaluate checks candidate against every policy rule. confirm is the
// retyped confirmation; when empty the matchConfirm rule passes vacuously.
func Evaluate(candidate, confirm string) Result {
	rules := map[string]bool{
		RuleMinLength:    len(candidate) >= MinLength,
		RuleMaxLength:    len(candidate) > 0 && len(candidate) <= MaxLength,
		RuleUppercase:    containsFunc(candidate, unicode.IsUpper),
		RuleLowercase:    containsFunc(candidate, unicode.IsLower),
		RuleNumber:       containsFunc(candidate, unicode.IsDigit),
		RuleSpecialChar:  strings.ContainsAny(candidate, specialChars),
		RuleMatchConfirm: confirm == "" || candidate == confirm,
	}
	return Result{Rules: rules, confirmSupplied: confirm != ""}
}

// Valid reports whether every rule passed.
func (r Result) Valid() bool {
	for _, ok := range r.Rules {
		if !ok {
			return false
		}
	}
	return true
}

// Strength classifies the candidate by how many rules it satisfies. The
// matchConfirm rule only counts when a confirmation was supplied.
func (r Result) Strength() Strength {
	passed := 0
	for name, ok := range r.Rules {
		if name == RuleMatchConfirm && !r.confirmSupplied {
			continue
		}
		if ok {
			passed++
		}
	}
	switch {
	case passed < 4:
		return StrengthWeak
	case passed < 6:
		return StrengthMedium
	default:
		return StrengthStrong
	}
}

func containsFunc(s string, fn func(rune) bool) bool {
	for _, r := range s {
		if fn(r) {
			return true
		}
	}
	return false
}
