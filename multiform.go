package multiform

import (
	"fmt"
	"html/template"
	"net/url"
	"sort"
	"strings"
)

// CleanedData is the unified cleaned-value mapping, keyed by child key.
// Values are map[string]any for plain children and []map[string]any for
// FormSet children.
type CleanedData map[string]any

// CleanFunc is the cross-form clean hook. It receives the cleaned data
// assembled from the valid children and may return a full or partial
// replacement whose entries overwrite the corresponding unified entries,
// or an error to invalidate the whole aggregate. Returned errors never
// propagate out of validation; they become cross-form error entries.
type CleanFunc func(mf *MultiForm, cleaned CleanedData) (CleanedData, error)

// Config carries the construction inputs of an aggregate.
type Config struct {
	// Data is the raw submitted data, shared by every child. Nil means
	// the aggregate is unbound.
	Data url.Values

	// Files holds uploaded files, shared by every child.
	Files Files

	// Initial maps child keys to that child's initial values. Nil is
	// fine; so are missing keys.
	Initial map[string]map[string]any

	// Prefix is an outer namespace, used when one aggregate is nested
	// inside another. Child prefixes become "key__prefix".
	Prefix string

	// Clean is the cross-form clean hook. Nil means passthrough.
	Clean CleanFunc

	// Instances maps child keys to existing persisted records. Only
	// NewModel reads it; New ignores it. Nil is fine.
	Instances map[string]any
}

// MultiForm treats an ordered collection of named child forms as one
// form: one validation pass, one error mapping, one cleaned-data mapping.
//
// A MultiForm is not safe for concurrent use; callers must serialize
// access to a single instance.
type MultiForm struct {
	keys  []string
	forms map[string]Form
	data  url.Values
	files Files
	clean CleanFunc

	crossformErrors []string
	errs            Errors
	cleaned         CleanedData
}

// New constructs the aggregate, building every declared child in order
// with its namespaced prefix and its slice of the initial mapping. It
// fails only on schema mistakes (empty or duplicate keys, nil
// constructors), never on missing initial values.
func New(schema Schema, cfg Config) (*MultiForm, error) {
	return build(schema, cfg, nil)
}

func build(schema Schema, cfg Config, instances map[string]any) (*MultiForm, error) {
	mf := &MultiForm{
		keys:  make([]string, 0, len(schema)),
		forms: make(map[string]Form, len(schema)),
		data:  cfg.Data,
		files: cfg.Files,
		clean: cfg.Clean,
	}
	for _, spec := range schema {
		if spec.Key == "" {
			return nil, fmt.Errorf("multiform: empty child key in schema")
		}
		if spec.New == nil {
			return nil, fmt.Errorf("multiform: child %q has no constructor", spec.Key)
		}
		if _, dup := mf.forms[spec.Key]; dup {
			return nil, fmt.Errorf("multiform: duplicate child key %q", spec.Key)
		}
		args := Args{
			Data:   cfg.Data,
			Files:  cfg.Files,
			Prefix: childPrefix(spec.Key, cfg.Prefix),
		}
		if cfg.Initial != nil {
			args.Initial = cfg.Initial[spec.Key]
		}
		if inst, ok := instances[spec.Key]; ok {
			args.Instance = inst
		}
		mf.forms[spec.Key] = spec.New(args)
		mf.keys = append(mf.keys, spec.Key)
	}
	return mf, nil
}

// childPrefix derives a child's field namespace from its key and the
// aggregate's own prefix, so nested aggregates cannot collide.
func childPrefix(key, outer string) string {
	if outer == "" {
		return key
	}
	return key + "__" + outer
}

// Keys returns the child keys in declaration order.
func (m *MultiForm) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Get returns the child form for a key. Addressing an undeclared key is a
// configuration error and returns a KeyNotFoundError listing the declared
// keys.
func (m *MultiForm) Get(key string) (Form, error) {
	f, ok := m.forms[key]
	if !ok {
		choices := m.Keys()
		sort.Strings(choices)
		return nil, &KeyNotFoundError{Key: key, Choices: choices}
	}
	return f, nil
}

// IsBound reports whether any child received submitted data. An aggregate
// is live if any part of it was submitted, even if others were not.
func (m *MultiForm) IsBound() bool {
	for _, key := range m.keys {
		if m.forms[key].IsBound() {
			return true
		}
	}
	return false
}

// Validate runs the full validation procedure and returns the verdict:
// every child valid and no cross-form errors. With zero children the
// verdict is vacuously true.
//
// The procedure re-runs on every call and refreshes the mappings served
// by Errors and CleanedData, so all three always describe the most recent
// run. Repeated calls on unchanged input produce identical results.
func (m *MultiForm) Validate() bool {
	errs := Errors{}
	cleaned := CleanedData{}
	m.crossformErrors = nil

	formsValid := true
	for _, key := range m.keys {
		f := m.forms[key]
		valid := f.IsValid()
		if !valid {
			formsValid = false
		}

		if fs, ok := f.(FormSet); ok {
			subs := fs.Forms()
			entry := make([]map[string][]string, len(subs))
			hasErrors := false
			for i, sub := range subs {
				entry[i] = sub.Errors()
				if len(entry[i]) > 0 {
					hasErrors = true
				}
			}
			if hasErrors {
				errs[key] = entry
			}
			if valid {
				list := make([]map[string]any, len(subs))
				for i, sub := range subs {
					list[i], _ = sub.CleanedData()
				}
				cleaned[key] = list
			}
			continue
		}

		for name, msgs := range f.Errors() {
			errs[f.AddPrefix(name)] = msgs
		}
		// Cleaned data is only read from children that validated;
		// invalid children simply have no entry.
		if valid {
			if cd, ok := f.CleanedData(); ok {
				cleaned[key] = cd
			}
		}
	}

	if m.clean != nil {
		extra, err := m.clean(m, cleaned)
		if err != nil {
			m.AddCrossFormError(err)
		} else {
			for k, v := range extra {
				cleaned[k] = v
			}
		}
	}

	if len(m.crossformErrors) > 0 {
		errs[NonFieldErrorsKey] = append([]string(nil), m.crossformErrors...)
	}

	m.errs = errs
	m.cleaned = cleaned
	return formsValid && len(m.crossformErrors) == 0
}

// AddCrossFormError records a validation failure that is not attributable
// to a single child. Clean hooks may call it directly instead of (or in
// addition to) returning an error.
func (m *MultiForm) AddCrossFormError(err error) {
	m.crossformErrors = append(m.crossformErrors, messagesOf(err)...)
}

// Errors returns the unified error mapping: every child's field errors
// under prefixed names, FormSet children under their key, and cross-form
// errors under NonFieldErrorsKey. The first access triggers a full
// validation pass; afterwards it serves the mapping from the most recent
// Validate call.
func (m *MultiForm) Errors() Errors {
	if m.errs == nil {
		m.Validate()
	}
	return m.errs
}

// CleanedData returns the unified cleaned-value mapping from the most
// recent validation pass, keyed by child key and containing only the
// children that individually validated (plus any entries the clean hook
// merged in). The first access triggers a full validation pass.
func (m *MultiForm) CleanedData() CleanedData {
	if m.cleaned == nil {
		m.Validate()
	}
	return m.cleaned
}

// SetCleanedData overwrites children's cleaned values directly, without
// re-validation. For FormSet children the value must be a
// []map[string]any aligned positionally with the sub-forms. Intended for
// programmatic post-processing, not user-facing correction flows.
func (m *MultiForm) SetCleanedData(data map[string]any) error {
	for key, value := range data {
		f, err := m.Get(key)
		if err != nil {
			return err
		}
		if fs, ok := f.(FormSet); ok {
			list, ok := value.([]map[string]any)
			if !ok {
				return fmt.Errorf("multiform: child %q is a form set, want []map[string]any, got %T", key, value)
			}
			subs := fs.Forms()
			for i, sub := range subs {
				if i >= len(list) {
					break
				}
				sub.SetCleanedData(list[i])
			}
		} else {
			cd, ok := value.(map[string]any)
			if !ok {
				return fmt.Errorf("multiform: child %q wants map[string]any, got %T", key, value)
			}
			f.SetCleanedData(cd)
		}
		if m.cleaned != nil {
			m.cleaned[key] = value
		}
	}
	return nil
}

// NonFieldErrors concatenates the cross-form errors from the most recent
// validation pass with every child's own non-field errors. Children
// without that capability are skipped.
func (m *MultiForm) NonFieldErrors() []string {
	out := append([]string(nil), m.crossformErrors...)
	for _, key := range m.keys {
		if nfe, ok := m.forms[key].(NonFieldErrorser); ok {
			out = append(out, nfe.NonFieldErrors()...)
		}
	}
	return out
}

// IsMultipart reports whether any child requires a multipart submission.
func (m *MultiForm) IsMultipart() bool {
	for _, key := range m.keys {
		if mp, ok := m.forms[key].(Multiparter); ok && mp.IsMultipart() {
			return true
		}
	}
	return false
}

// Media returns the merged asset declarations of all children.
func (m *MultiForm) Media() Media {
	var media Media
	for _, key := range m.keys {
		if mp, ok := m.forms[key].(MediaProvider); ok {
			media = media.Merge(mp.Media())
		}
	}
	return media
}

// Fields returns every child's fields in declaration order, for children
// that expose them.
func (m *MultiForm) Fields() []BoundField {
	var fields []BoundField
	for _, key := range m.keys {
		if fl, ok := m.forms[key].(FieldLister); ok {
			fields = append(fields, fl.Fields()...)
		}
	}
	return fields
}

// HiddenFields returns the hidden fields of all children, in order.
func (m *MultiForm) HiddenFields() []BoundField {
	var fields []BoundField
	for _, f := range m.Fields() {
		if f.IsHidden() {
			fields = append(fields, f)
		}
	}
	return fields
}

// VisibleFields returns the visible fields of all children, in order.
func (m *MultiForm) VisibleFields() []BoundField {
	var fields []BoundField
	for _, f := range m.Fields() {
		if !f.IsHidden() {
			fields = append(fields, f)
		}
	}
	return fields
}

// AsTable concatenates the table rendering of every child that renders.
func (m *MultiForm) AsTable() template.HTML {
	return m.render(func(r Renderer) template.HTML { return r.AsTable() })
}

// AsUL concatenates the list rendering of every child that renders.
func (m *MultiForm) AsUL() template.HTML {
	return m.render(func(r Renderer) template.HTML { return r.AsUL() })
}

// AsP concatenates the paragraph rendering of every child that renders.
func (m *MultiForm) AsP() template.HTML {
	return m.render(func(r Renderer) template.HTML { return r.AsP() })
}

func (m *MultiForm) render(one func(Renderer) template.HTML) template.HTML {
	var b strings.Builder
	for _, key := range m.keys {
		if r, ok := m.forms[key].(Renderer); ok {
			b.WriteString(string(one(r)))
		}
	}
	return template.HTML(b.String())
}
