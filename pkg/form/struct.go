package form

import (
	"mime/multipart"
	"reflect"
	"strings"
)

// FromStruct derives field declarations from a struct's form and validate
// tags. The form tag names the field (falling back to the lowercased Go
// name, "-" skips it) and the validate tag is parsed into a Required flag
// plus validators:
//
//	type Profile struct {
//	    DisplayName string   `form:"display_name" validate:"required,min=2,max=100"`
//	    Age         int      `form:"age" validate:"min=0,max=150"`
//	    Interests   []string `form:"interests"`
//	}
//
// The field kind follows the Go type: string, int, float64, bool,
// []string, and *multipart.FileHeader are supported; other types are
// skipped. Unexported fields are skipped.
func FromStruct(v any) []Field {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	fields := make([]Field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		name := sf.Tag.Get("form")
		if name == "" {
			name = strings.ToLower(sf.Name)
		}
		if name == "-" {
			continue
		}

		kind, ok := kindOf(sf.Type)
		if !ok {
			continue
		}

		validators, required := parseValidateTag(sf.Tag.Get("validate"), sf.Type)
		fields = append(fields, Field{
			Name:       name,
			Kind:       kind,
			Required:   required,
			Validators: validators,
		})
	}
	return fields
}

var fileHeaderType = reflect.TypeOf((*multipart.FileHeader)(nil))

func kindOf(t reflect.Type) (Kind, bool) {
	if t == fileHeaderType {
		return File, true
	}
	switch t.Kind() {
	case reflect.String:
		return String, true
	case reflect.Int, reflect.Int64:
		return Int, true
	case reflect.Float32, reflect.Float64:
		return Float, true
	case reflect.Bool:
		return Bool, true
	case reflect.Slice:
		if t.Elem().Kind() == reflect.String {
			return Strings, true
		}
		return 0, false
	default:
		return 0, false
	}
}
