package generation

import (
	"fmt"
	"strings"
)

// ErrUntracedNumber reports a reply number that is absent from the frozen
// context. Such a reply is never sent as-is.
type ErrUntracedNumber struct {
	Number string
}

func (e *ErrUntracedNumber) Error() string {
	return fmt.Sprintf("reply contains number %q not present in context", e.Number)
}

// Validator checks a drafted reply against its frozen context.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateNumbers requires every numeric token in the reply to appear in
// the context. Bare small integers are exempt: ordinals and counts like
// "2-3 sentences" or "24 hours" are conversational, not claims.
func (v *Validator) ValidateNumbers(c *Context, reply string) error {
	allowed := c.Numbers()
	for _, tok := range numberPattern.FindAllString(reply, -1) {
		norm := normalizeNumber(tok)
		if allowed[norm] {
			continue
		}
		if isConversationalNumber(norm) {
			continue
		}
		return &ErrUntracedNumber{Number: tok}
	}
	return nil
}

// isConversationalNumber exempts one and two digit integers without
// decimals. Prices and durations from the knowledge base are always larger
// or carry units the context would contain.
func isConversationalNumber(norm string) bool {
	if len(norm) > 2 {
		return false
	}
	return !strings.Contains(norm, ".")
}
