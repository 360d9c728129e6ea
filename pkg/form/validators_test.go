package form

import (
	"reflect"
	"testing"
)

func TestStringValidators(t *testing.T) {
	tests := []struct {
		name  string
		v     Validator
		value any
		valid bool
	}{
		{"minlength ok", MinLength(3, ""), "abc", true},
		{"minlength short", MinLength(3, ""), "ab", false},
		{"minlength skips empty", MinLength(3, ""), "", true},
		{"maxlength ok", MaxLength(3, ""), "abc", true},
		{"maxlength long", MaxLength(3, ""), "abcd", false},
		{"email ok", Email(""), "a@b.co", true},
		{"email bad", Email(""), "not-an-email", false},
		{"url ok", URL(""), "https://example.com", true},
		{"url bad", URL(""), "://nope", false},
		{"pattern ok", Pattern(`^\d+$`, ""), "123", true},
		{"pattern bad", Pattern(`^\d+$`, ""), "12a", false},
		{"alpha ok", Alpha(""), "abc", true},
		{"alpha bad", Alpha(""), "a1", false},
		{"numeric ok", Numeric(""), "42", true},
		{"numeric bad", Numeric(""), "4x", false},
	}
	for _, tt := range tests {
		err := tt.v.Validate(tt.value)
		if tt.valid && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if !tt.valid && err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestNumericValidators(t *testing.T) {
	if err := Min(5, "").Validate(4); err == nil {
		t.Error("Min(5) must reject 4")
	}
	if err := Min(5, "").Validate(5); err != nil {
		t.Errorf("Min(5) must accept 5: %v", err)
	}
	if err := Max(5, "").Validate(6); err == nil {
		t.Error("Max(5) must reject 6")
	}
	if err := Between(1, 10, "").Validate(7.5); err != nil {
		t.Errorf("Between(1,10) must accept 7.5: %v", err)
	}
	if err := Between(1, 10, "").Validate(11); err == nil {
		t.Error("Between(1,10) must reject 11")
	}
	if err := Min(5, "").Validate(nil); err != nil {
		t.Errorf("numeric validators must skip nil: %v", err)
	}
}

func TestCustomMessage(t *testing.T) {
	err := MinLength(3, "too short").Validate("a")
	if err == nil || err.Error() != "too short" {
		t.Errorf("err = %v", err)
	}
}

func TestParseValidateTag(t *testing.T) {
	strType := reflect.TypeOf("")
	intType := reflect.TypeOf(0)

	vs, required := parseValidateTag("required,min=2,max=10", strType)
	if !required {
		t.Error("expected required")
	}
	if len(vs) != 2 {
		t.Fatalf("expected 2 validators, got %d", len(vs))
	}
	// min/max on strings are length rules
	if err := vs[0].Validate("a"); err == nil {
		t.Error("min=2 on string must reject one character")
	}
	if err := vs[1].Validate("this string is far too long"); err == nil {
		t.Error("max=10 on string must reject long values")
	}

	vs, _ = parseValidateTag("min=2", intType)
	if len(vs) != 1 {
		t.Fatalf("expected 1 validator, got %d", len(vs))
	}
	// min on ints is a magnitude rule
	if err := vs[0].Validate(1); err == nil {
		t.Error("min=2 on int must reject 1")
	}
	if err := vs[0].Validate(3); err != nil {
		t.Errorf("min=2 on int must accept 3: %v", err)
	}

	if vs, required := parseValidateTag("", nil); vs != nil || required {
		t.Error("empty tag must parse to nothing")
	}
}
