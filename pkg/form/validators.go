package form

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Validator checks one cleaned field value.
type Validator interface {
	// Validate returns nil if the value is valid, or an error whose
	// message is shown to the user.
	Validate(value any) error
}

// ValidatorFunc is a function that implements Validator.
type ValidatorFunc func(value any) error

func (f ValidatorFunc) Validate(value any) error {
	return f(value)
}

// ValidationError is a single field validation failure.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// MinLength validates that a string has at least n characters.
func MinLength(n int, msg string) Validator {
	if msg == "" {
		msg = fmt.Sprintf("Must be at least %d characters", n)
	}
	return ValidatorFunc(func(value any) error {
		s := toString(value)
		if s == "" {
			return nil // empty values are the Required flag's concern
		}
		if len([]rune(s)) < n {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// MaxLength validates that a string has at most n characters.
func MaxLength(n int, msg string) Validator {
	if msg == "" {
		msg = fmt.Sprintf("Must be at most %d characters", n)
	}
	return ValidatorFunc(func(value any) error {
		if len([]rune(toString(value))) > n {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// Pattern validates that a string matches the given regular expression.
func Pattern(pattern string, msg string) Validator {
	re := regexp.MustCompile(pattern)
	if msg == "" {
		msg = "Invalid format"
	}
	return ValidatorFunc(func(value any) error {
		s := toString(value)
		if s == "" {
			return nil
		}
		if !re.MatchString(s) {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// Email validates that the value is a valid email address.
func Email(msg string) Validator {
	if msg == "" {
		msg = "Invalid email address"
	}
	re := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

	return ValidatorFunc(func(value any) error {
		s := toString(value)
		if s == "" {
			return nil
		}
		if !re.MatchString(s) {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// URL validates that the value is an absolute URL.
func URL(msg string) Validator {
	if msg == "" {
		msg = "Invalid URL"
	}
	return ValidatorFunc(func(value any) error {
		s := toString(value)
		if s == "" {
			return nil
		}
		u, err := url.Parse(s)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// Alpha validates that the value contains only letters.
func Alpha(msg string) Validator {
	if msg == "" {
		msg = "Must contain only letters"
	}
	return ValidatorFunc(func(value any) error {
		for _, r := range toString(value) {
			if !unicode.IsLetter(r) {
				return ValidationError{Message: msg}
			}
		}
		return nil
	})
}

// Numeric validates that the value contains only digits.
func Numeric(msg string) Validator {
	if msg == "" {
		msg = "Must contain only numbers"
	}
	return ValidatorFunc(func(value any) error {
		for _, r := range toString(value) {
			if !unicode.IsDigit(r) {
				return ValidationError{Message: msg}
			}
		}
		return nil
	})
}

// Min validates that a numeric value is >= n.
func Min(n any, msg string) Validator {
	minVal := toFloat64(n)
	if msg == "" {
		msg = fmt.Sprintf("Must be at least %v", n)
	}
	return ValidatorFunc(func(value any) error {
		if value == nil {
			return nil
		}
		if toFloat64(value) < minVal {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// Max validates that a numeric value is <= n.
func Max(n any, msg string) Validator {
	maxVal := toFloat64(n)
	if msg == "" {
		msg = fmt.Sprintf("Must be at most %v", n)
	}
	return ValidatorFunc(func(value any) error {
		if value == nil {
			return nil
		}
		if toFloat64(value) > maxVal {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// Between validates that a numeric value is between min and max (inclusive).
func Between(min, max any, msg string) Validator {
	minVal := toFloat64(min)
	maxVal := toFloat64(max)
	if msg == "" {
		msg = fmt.Sprintf("Must be between %v and %v", min, max)
	}
	return ValidatorFunc(func(value any) error {
		if value == nil {
			return nil
		}
		v := toFloat64(value)
		if v < minVal || v > maxVal {
			return ValidationError{Message: msg}
		}
		return nil
	})
}

// Custom creates a validator from a custom function.
func Custom(fn func(value any) error) Validator {
	return ValidatorFunc(fn)
}

// toString converts a value to a string.
func toString(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// toFloat64 converts a value to float64.
func toFloat64(value any) float64 {
	switch v := value.(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float32:
		return float64(v)
	case float64:
		return v
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}

// validatorFromTag creates a validator from a tag name and value.
func validatorFromTag(name, value string, t reflect.Type) Validator {
	switch name {
	case "min":
		if n, err := strconv.Atoi(value); err == nil {
			if t != nil && (t.Kind() == reflect.String || t.Kind() == reflect.Slice) {
				return MinLength(n, "")
			}
			return Min(n, "")
		}
		return nil
	case "max":
		if n, err := strconv.Atoi(value); err == nil {
			if t != nil && (t.Kind() == reflect.String || t.Kind() == reflect.Slice) {
				return MaxLength(n, "")
			}
			return Max(n, "")
		}
		return nil
	case "minlen", "minlength":
		n, _ := strconv.Atoi(value)
		return MinLength(n, "")
	case "maxlen", "maxlength":
		n, _ := strconv.Atoi(value)
		return MaxLength(n, "")
	case "email":
		return Email("")
	case "url":
		return URL("")
	case "alpha":
		return Alpha("")
	case "numeric":
		return Numeric("")
	case "pattern", "regex":
		return Pattern(value, "")
	default:
		return nil
	}
}

// parseValidateTag parses a validate tag string into validators. The
// "required" rule is handled by the caller since it maps to Field.Required
// rather than a validator.
func parseValidateTag(tag string, t reflect.Type) (validators []Validator, required bool) {
	if tag == "" {
		return nil, false
	}

	for _, rule := range strings.Split(tag, ",") {
		rule = strings.TrimSpace(rule)
		if rule == "" {
			continue
		}
		if rule == "required" {
			required = true
			continue
		}

		parts := strings.SplitN(rule, "=", 2)
		ruleName := parts[0]
		var ruleValue string
		if len(parts) > 1 {
			ruleValue = parts[1]
		}

		if v := validatorFromTag(ruleName, ruleValue, t); v != nil {
			validators = append(validators, v)
		}
	}

	return validators, required
}
