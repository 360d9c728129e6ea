// Package form provides a concrete child-form implementation for
// multiform aggregates: declarative fields with validators, binding to
// submitted data under a namespaced prefix, HTML rendering, repeating
// sub-form collections, and store-backed record forms.
//
// # Basic Usage
//
//	fields := []form.Field{
//	    {Name: "name", Required: true, Validators: []form.Validator{form.MinLength(2, "")}},
//	    {Name: "email", Kind: form.String, Widget: form.EmailInput, Required: true,
//	        Validators: []form.Validator{form.Email("")}},
//	}
//
//	schema := multiform.Schema{
//	    {Key: "user", New: form.Child(fields)},
//	}
//
// Field declarations can also be derived from struct tags, in the same
// grammar used elsewhere in this module:
//
//	type Profile struct {
//	    DisplayName string `form:"display_name" validate:"required,min=2,max=100"`
//	    Website     string `form:"website" validate:"pattern=^https?://"`
//	}
//
//	fields := form.FromStruct(Profile{})
//
// # Validation
//
// A form validates once per instance: field values are converted by kind,
// the field validators run, and then the whole-form clean hook (if any).
// Cleaned data is available only after a successful validation.
//
// # Record Forms
//
// RecordForm binds a form to a record kind in a store.Store. When the
// aggregate forwards an existing record the form updates it; otherwise
// Save inserts a new one. Relation fields are written by the deferred
// SaveRelated phase, after the primary record has its identifier.
package form
