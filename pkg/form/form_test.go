package form

import (
	"errors"
	"net/url"
	"testing"

	"github.com/multiform-dev/multiform"
)

func bound(prefix string, pairs ...string) multiform.Args {
	data := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		data.Add(pairs[i], pairs[i+1])
	}
	return multiform.Args{Data: data, Prefix: prefix}
}

func TestUnboundForm(t *testing.T) {
	f := New(multiform.Args{Prefix: "user"}, []Field{
		{Name: "name", Required: true},
	})

	if f.IsBound() {
		t.Error("expected unbound form")
	}
	if f.IsValid() {
		t.Error("unbound form must not be valid")
	}
	if len(f.Errors()) != 0 {
		t.Errorf("unbound form must have no errors, got %v", f.Errors())
	}
	if _, ok := f.CleanedData(); ok {
		t.Error("unbound form must have no cleaned data")
	}
}

func TestCleanByKind(t *testing.T) {
	f := New(bound("p",
		"p-name", "Alice",
		"p-age", "30",
		"p-score", "1.5",
		"p-admin", "on",
		"p-tags", "go",
	), []Field{
		{Name: "name", Kind: String},
		{Name: "age", Kind: Int},
		{Name: "score", Kind: Float},
		{Name: "admin", Kind: Bool},
		{Name: "tags", Kind: Strings},
	})

	if !f.IsValid() {
		t.Fatalf("expected valid, errors: %v", f.Errors())
	}
	cd, _ := f.CleanedData()
	if cd["name"] != "Alice" {
		t.Errorf("name = %v", cd["name"])
	}
	if cd["age"] != 30 {
		t.Errorf("age = %v (%T)", cd["age"], cd["age"])
	}
	if cd["score"] != 1.5 {
		t.Errorf("score = %v", cd["score"])
	}
	if cd["admin"] != true {
		t.Errorf("admin = %v", cd["admin"])
	}
	tags, _ := cd["tags"].([]string)
	if len(tags) != 1 || tags[0] != "go" {
		t.Errorf("tags = %v", cd["tags"])
	}
}

func TestConversionErrors(t *testing.T) {
	f := New(bound("p", "p-age", "abc"), []Field{
		{Name: "age", Kind: Int},
	})

	if f.IsValid() {
		t.Fatal("expected invalid")
	}
	if msgs := f.Errors()["age"]; len(msgs) != 1 {
		t.Errorf("expected one conversion error, got %v", msgs)
	}
	if _, ok := f.CleanedData(); ok {
		t.Error("invalid form must have no cleaned data")
	}
}

func TestRequired(t *testing.T) {
	f := New(bound("p", "p-name", "  "), []Field{
		{Name: "name", Required: true},
		{Name: "nick"},
	})

	if f.IsValid() {
		t.Fatal("expected invalid")
	}
	if msgs := f.Errors()["name"]; len(msgs) != 1 {
		t.Errorf("expected required error for name, got %v", f.Errors())
	}
	if _, ok := f.Errors()["nick"]; ok {
		t.Error("optional empty field must not error")
	}
}

func TestOptionalEmptyValues(t *testing.T) {
	f := New(bound("p", "p-name", ""), []Field{
		{Name: "name", Kind: String},
		{Name: "age", Kind: Int},
		{Name: "admin", Kind: Bool},
	})

	if !f.IsValid() {
		t.Fatalf("errors: %v", f.Errors())
	}
	cd, _ := f.CleanedData()
	if cd["name"] != "" {
		t.Errorf("empty optional string should clean to \"\", got %v", cd["name"])
	}
	if cd["age"] != nil {
		t.Errorf("empty optional int should clean to nil, got %v", cd["age"])
	}
	if cd["admin"] != false {
		t.Errorf("absent checkbox should clean to false, got %v", cd["admin"])
	}
}

func TestFieldValidators(t *testing.T) {
	f := New(bound("p", "p-name", "x", "p-email", "nope"), []Field{
		{Name: "name", Validators: []Validator{MinLength(2, "")}},
		{Name: "email", Validators: []Validator{Email("")}},
	})

	if f.IsValid() {
		t.Fatal("expected invalid")
	}
	errs := f.Errors()
	if len(errs["name"]) != 1 || len(errs["email"]) != 1 {
		t.Errorf("expected one error per field, got %v", errs)
	}
}

func TestValidatorsSkipEmpty(t *testing.T) {
	f := New(bound("p"), []Field{
		{Name: "email", Validators: []Validator{Email("")}},
	})
	if !f.IsValid() {
		t.Errorf("validators must skip empty optional values, errors: %v", f.Errors())
	}
}

func TestCleanHook(t *testing.T) {
	hook := func(f *Form) error {
		pw, _ := f.CleanedValue("password")
		again, _ := f.CleanedValue("confirm")
		if pw != again {
			return errors.New("Passwords do not match")
		}
		return nil
	}

	f := New(bound("p", "p-password", "a", "p-confirm", "b"),
		[]Field{{Name: "password"}, {Name: "confirm"}},
		WithClean(hook))

	if f.IsValid() {
		t.Fatal("expected invalid")
	}
	nf := f.NonFieldErrors()
	if len(nf) != 1 || nf[0] != "Passwords do not match" {
		t.Errorf("non-field errors = %v", nf)
	}

	ok := New(bound("p", "p-password", "a", "p-confirm", "a"),
		[]Field{{Name: "password"}, {Name: "confirm"}},
		WithClean(hook))
	if !ok.IsValid() {
		t.Errorf("expected valid, errors: %v %v", ok.Errors(), ok.NonFieldErrors())
	}
}

func TestCleanHookAddError(t *testing.T) {
	f := New(bound("p", "p-name", "taken"),
		[]Field{{Name: "name"}},
		WithClean(func(f *Form) error {
			if v, _ := f.CleanedValue("name"); v == "taken" {
				f.AddError("name", "Already in use")
			}
			return nil
		}))

	if f.IsValid() {
		t.Fatal("expected invalid")
	}
	if msgs := f.Errors()["name"]; len(msgs) != 1 || msgs[0] != "Already in use" {
		t.Errorf("errors = %v", f.Errors())
	}
}

func TestAddPrefix(t *testing.T) {
	f := New(bound("user"), []Field{{Name: "email"}})
	if got := f.AddPrefix("email"); got != "user-email" {
		t.Errorf("AddPrefix = %q", got)
	}
	bare := New(bound(""), []Field{{Name: "email"}})
	if got := bare.AddPrefix("email"); got != "email" {
		t.Errorf("AddPrefix without prefix = %q", got)
	}
}

func TestSetCleanedData(t *testing.T) {
	f := New(bound("p", "p-name", "a"), []Field{{Name: "name"}})
	f.SetCleanedData(map[string]any{"name": "b"})
	cd, ok := f.CleanedData()
	if !ok || cd["name"] != "b" {
		t.Errorf("cleaned = %v, ok = %v", cd, ok)
	}
}

func TestIsMultipartAndMedia(t *testing.T) {
	plain := New(bound("p"), []Field{{Name: "name"}})
	if plain.IsMultipart() {
		t.Error("form without file fields must not be multipart")
	}

	withFile := New(bound("p"), []Field{{Name: "avatar", Kind: File}},
		WithMedia(multiform.Media{JS: []string{"widget.js"}}))
	if !withFile.IsMultipart() {
		t.Error("form with a file field must be multipart")
	}
	if m := withFile.Media(); len(m.JS) != 1 || m.JS[0] != "widget.js" {
		t.Errorf("media = %+v", m)
	}
}

func TestFromStruct(t *testing.T) {
	type profile struct {
		DisplayName string   `form:"display_name" validate:"required,min=2,max=100"`
		Age         int      `form:"age" validate:"min=0,max=150"`
		Interests   []string `form:"interests"`
		Admin       bool     `form:"admin"`
		Skipped     string   `form:"-"`
		hidden      string
	}
	_ = profile{hidden: ""}

	fields := FromStruct(profile{})
	if len(fields) != 4 {
		t.Fatalf("expected 4 fields, got %d: %+v", len(fields), fields)
	}
	if fields[0].Name != "display_name" || !fields[0].Required || len(fields[0].Validators) != 2 {
		t.Errorf("display_name = %+v", fields[0])
	}
	if fields[1].Name != "age" || fields[1].Kind != Int || fields[1].Required {
		t.Errorf("age = %+v", fields[1])
	}
	if fields[2].Kind != Strings {
		t.Errorf("interests kind = %v", fields[2].Kind)
	}
	if fields[3].Kind != Bool {
		t.Errorf("admin kind = %v", fields[3].Kind)
	}

	f := New(bound("u", "u-display_name", "x"), fields)
	if f.IsValid() {
		t.Error("min=2 on string should reject one character")
	}
}

func TestChildConstructor(t *testing.T) {
	mf, err := multiform.New(multiform.Schema{
		{Key: "user", New: Child([]Field{{Name: "email", Required: true}})},
	}, multiform.Config{Data: url.Values{"user-email": {""}}})
	if err != nil {
		t.Fatal(err)
	}
	if mf.Validate() {
		t.Fatal("expected invalid")
	}
	if msgs := mf.Errors().Field("user-email"); len(msgs) != 1 {
		t.Errorf("expected namespaced required error, got %v", mf.Errors())
	}
}
