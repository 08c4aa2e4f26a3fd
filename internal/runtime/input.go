package runtime

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/aretw0/omnibot/pkg/domain"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^(\+55\s?)?(\(?\d{2}\)?\s?)?\d{4,5}-?\d{4}$`)
	cpfPattern   = regexp.MustCompile(`^\d{3}\.?\d{3}\.?\d{3}-?\d{2}$`)
	nonDigit     = regexp.MustCompile(`\D`)
)

// ValidateInput checks raw customer text against the expected input type and
// returns the value to store. CPF values are stored as bare digits.
func ValidateInput(nodeID string, kind domain.InputType, raw string) (string, error) {
	value := strings.TrimSpace(raw)
	fail := func(reason string) (string, error) {
		return "", &domain.ValidationError{NodeID: nodeID, Type: kind, Reason: reason}
	}

	switch kind {
	case domain.InputEmail:
		if !emailPattern.MatchString(value) {
			return fail(fmt.Sprintf("%q is not an email address", value))
		}
		return value, nil
	case domain.InputPhone:
		compact := strings.Join(strings.Fields(value), "")
		if !phonePattern.MatchString(compact) {
			return fail(fmt.Sprintf("%q is not a phone number", value))
		}
		return value, nil
	case domain.InputCPF:
		if !cpfPattern.MatchString(value) {
			return fail(fmt.Sprintf("%q is not a CPF", value))
		}
		return nonDigit.ReplaceAllString(value, ""), nil
	default:
		if value == "" {
			return fail("empty input")
		}
		return value, nil
	}
}

// inputTypeFor guesses the validation of an integration input from its variable name.
func inputTypeFor(variable string) domain.InputType {
	switch domain.InputType(strings.ToLower(variable)) {
	case domain.InputCPF:
		return domain.InputCPF
	case domain.InputEmail:
		return domain.InputEmail
	case domain.InputPhone, "telefone":
		return domain.InputPhone
	}
	return domain.InputText
}

// promptFor is the question an integration node asks for a missing input.
func promptFor(variable string) string {
	switch inputTypeFor(variable) {
	case domain.InputCPF:
		return "Por favor, digite seu CPF:"
	case domain.InputEmail:
		return "Por favor, digite seu email:"
	case domain.InputPhone:
		return "Por favor, digite seu telefone:"
	}
	return fmt.Sprintf("Por favor, digite %s:", variable)
}

var handoffKeywords = map[string]bool{"atendente": true, "humano": true, "pessoa": true}

// wantsHuman reports whether the text asks for a human agent.
// Keywords match whole words only, so "pessoal" does not count.
func wantsHuman(text string) bool {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if handoffKeywords[w] {
			return true
		}
	}
	return false
}
