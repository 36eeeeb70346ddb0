// Package password scores candidate passwords. The same check gates
// sign-up and password updates.
package password

import (
	"unicode"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

const minLength = 8

type Feedback struct {
	Warning     string   `json:"warning,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

type Result struct {
	IsValid  bool     `json:"is_valid"`
	Feedback Feedback `json:"feedback"`
}

// Validate applies the account password policy: minimum length, mixed
// character classes, and an entropy floor from zxcvbn so trivially
// guessable passwords fail even when they satisfy the class rules.
func Validate(candidate string) Result {
	var suggestions []string

	if len(candidate) < minLength {
		return Result{Feedback: Feedback{
			Warning:     "password is too short",
			Suggestions: []string{"use at least 8 characters"},
		}}
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range candidate {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		suggestions = append(suggestions, "add an uppercase letter")
	}
	if !hasLower {
		suggestions = append(suggestions, "add a lowercase letter")
	}
	if !hasDigit {
		suggestions = append(suggestions, "add a digit")
	}
	if len(suggestions) > 0 {
		return Result{Feedback: Feedback{
			Warning:     "password needs a mix of character types",
			Suggestions: suggestions,
		}}
	}

	strength := zxcvbn.PasswordStrength(candidate, nil)
	if strength.Score < 1 {
		return Result{Feedback: Feedback{
			Warning: "password is too easy to guess",
			Suggestions: []string{
				"avoid common words and patterns",
				"add a few more words or symbols",
			},
		}}
	}

	return Result{IsValid: true}
}
