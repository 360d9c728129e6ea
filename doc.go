// Package multiform groups several independent forms behind a single
// form-like interface: one submit, one validation pass, one combined set
// of cleaned values.
//
// # Overview
//
// A MultiForm owns an ordered collection of named child forms. Each child
// keeps its own field set, its own validation logic, and a namespaced
// field prefix so that children never collide on one submission. The
// container validates every child, merges their errors into a single
// mapping, assembles the cleaned data of the children that validated, and
// runs an optional cross-form clean hook that can reject the aggregate
// even when every child is individually valid.
//
// # Basic Usage
//
//	schema := multiform.Schema{
//	    {Key: "user", New: form.Child(userFields)},
//	    {Key: "profile", New: form.Child(profileFields)},
//	}
//
//	mf, err := multiform.New(schema, multiform.Config{
//	    Data: r.PostForm,
//	    Clean: func(mf *multiform.MultiForm, cleaned multiform.CleanedData) (multiform.CleanedData, error) {
//	        // Validation that spans children goes here.
//	        return nil, nil
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//
//	if mf.Validate() {
//	    data := mf.CleanedData()
//	    // data["user"], data["profile"]
//	} else {
//	    errs := mf.Errors()
//	}
//
// # Child Contract
//
// Children implement the small Form interface. Everything beyond it is an
// optional capability: a child that can render HTML implements Renderer, a
// child that persists records implements Saver, a child with a second
// relationship-save phase implements RelatedSaver, and so on. The container
// checks capabilities with type assertions and skips children that lack
// them.
//
// # Persistence
//
// ModelMultiForm extends the container with create/update semantics: an
// optional existing record per child key, and a two-phase save in which
// relationship data is written by a deferred operation after every primary
// record has been committed.
//
// The package github.com/multiform-dev/multiform/pkg/form provides a
// concrete child implementation with declarative fields, validators,
// HTML rendering, repeating sub-form collections, and store-backed record
// forms.
package multiform
