// Package calc evaluates arithmetic expressions for the computation stage.
// It is a dedicated tokenizer and recursive-descent parser restricted to
// numeric literals, a fixed operator set, and an allow-list of named
// functions. It is never a general-purpose evaluator, which removes the whole
// injection class instead of blacklisting patterns.
package calc

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// disallowed tokens are rejected before evaluation even begins. They can
// never be valid input, so their presence means someone is probing.
var disallowed = []string{"__", "import", "exec", "eval", "open", "input"}

// Evaluate computes a mathematical expression and returns either a formatted
// numeric result or a descriptive error string. It never returns an error
// value and never panics: the caller is a language-model tool boundary.
func Evaluate(expr string) string {
	normalized := strings.ToLower(strings.TrimSpace(expr))
	if normalized == "" {
		return "Error: empty expression."
	}

	for _, tok := range disallowed {
		if strings.Contains(normalized, tok) {
			return "Error: Invalid expression - contains potentially dangerous operations."
		}
	}

	p, err := newParser(normalized)
	if err != nil {
		return errorString(expr, err)
	}
	result, err := p.parse()
	if err != nil {
		return errorString(expr, err)
	}

	if math.IsNaN(result) || math.IsInf(result, 0) {
		return "Error: Invalid mathematical operation - result is not a finite number."
	}
	return formatResult(result)
}

// formatResult renders integral floats as plain integers and everything
// else to 10 significant digits.
func formatResult(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return fmt.Sprintf("%.10g", v)
}

func errorString(expr string, err error) string {
	switch e := err.(type) {
	case *syntaxError:
		return fmt.Sprintf("Error: Invalid mathematical expression syntax in '%s': %s.", strings.TrimSpace(expr), e.msg)
	case *nameError:
		return fmt.Sprintf("Error: Unrecognized name or function in expression: %s.", e.name)
	case *domainError:
		return fmt.Sprintf("Error: Invalid mathematical operation - %s.", e.msg)
	case *divisionByZeroError:
		return "Error: Division by zero."
	default:
		return fmt.Sprintf("Error calculating '%s': %s.", strings.TrimSpace(expr), err)
	}
}

type syntaxError struct{ msg string }

func (e *syntaxError) Error() string { return e.msg }

type nameError struct{ name string }

func (e *nameError) Error() string { return "unrecognized name " + e.name }

type domainError struct{ msg string }

func (e *domainError) Error() string { return e.msg }

type divisionByZeroError struct{}

func (e *divisionByZeroError) Error() string { return "division by zero" }
