package form

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/multiform-dev/multiform"
)

// Kind is the value type a field cleans to.
type Kind int

const (
	// String cleans to string.
	String Kind = iota
	// Int cleans to int (nil when empty and not required).
	Int
	// Float cleans to float64 (nil when empty and not required).
	Float
	// Bool cleans to bool; an absent checkbox is false.
	Bool
	// Strings cleans to []string, one entry per submitted value.
	Strings
	// File cleans to *multipart.FileHeader drawn from the uploaded files.
	File
)

// Widget selects the HTML control a field renders as.
type Widget int

const (
	// AutoWidget picks a widget from the field kind.
	AutoWidget Widget = iota
	TextInput
	EmailInput
	NumberInput
	PasswordInput
	Textarea
	CheckboxInput
	SelectMultiple
	HiddenInput
	FileInput
)

// Choice is one option of a SelectMultiple widget.
type Choice struct {
	Value string
	Label string
}

// Field declares one form field.
type Field struct {
	Name       string
	Label      string // defaults to a humanized Name
	Kind       Kind
	Widget     Widget
	Required   bool
	Validators []Validator
	Initial    any
	Choices    []Choice // SelectMultiple options
	Help       string
}

// CleanFunc is a whole-form clean hook, run after field cleaning. It can
// read cleaned values, add field or non-field errors, or return an error
// that becomes a non-field error.
type CleanFunc func(f *Form) error

// Option configures a Form at construction.
type Option func(*Form)

// WithClean installs the whole-form clean hook.
func WithClean(fn CleanFunc) Option {
	return func(f *Form) { f.clean = fn }
}

// WithMedia declares the CSS/JS assets the form needs.
func WithMedia(m multiform.Media) Option {
	return func(f *Form) { f.media = m }
}

// Form is a bound (or unbound) form over declared fields. It implements
// the multiform child contract plus the rendering, media, multipart, and
// field-listing capabilities.
type Form struct {
	fields  []Field
	data    url.Values
	files   multiform.Files
	prefix  string
	initial map[string]any
	clean   CleanFunc
	media   multiform.Media

	validated bool
	valid     bool
	cleaned   map[string]any
	fieldErrs map[string][]string
	nonField  []string
}

// New constructs a form over the given fields from the arguments the
// aggregate computed for it. A nil Data leaves the form unbound.
func New(args multiform.Args, fields []Field, opts ...Option) *Form {
	f := &Form{
		fields:  fields,
		data:    args.Data,
		files:   args.Files,
		prefix:  args.Prefix,
		initial: args.Initial,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Child returns a multiform constructor for a form over the given fields.
func Child(fields []Field, opts ...Option) multiform.Constructor {
	return func(args multiform.Args) multiform.Form {
		return New(args, fields, opts...)
	}
}

// IsBound reports whether the form was constructed with submitted data.
func (f *Form) IsBound() bool {
	return f.data != nil || len(f.files) > 0
}

// IsValid validates once per instance and reports the result. Unbound
// forms are never valid.
func (f *Form) IsValid() bool {
	if !f.IsBound() {
		return false
	}
	if !f.validated {
		f.fullClean()
	}
	return f.valid
}

// Errors returns field errors keyed by bare field name. Accessing it on a
// bound form triggers validation; on an unbound form it is empty.
func (f *Form) Errors() map[string][]string {
	if f.IsBound() && !f.validated {
		f.fullClean()
	}
	if f.fieldErrs == nil {
		return map[string][]string{}
	}
	return f.fieldErrs
}

// NonFieldErrors returns errors recorded against the form as a whole.
func (f *Form) NonFieldErrors() []string {
	if f.IsBound() && !f.validated {
		f.fullClean()
	}
	return f.nonField
}

// AddPrefix returns the namespaced name for a field.
func (f *Form) AddPrefix(name string) string {
	if f.prefix == "" {
		return name
	}
	return f.prefix + "-" + name
}

// Prefix returns the form's field namespace.
func (f *Form) Prefix() string { return f.prefix }

// CleanedData returns the validated values. ok is false until the form
// has validated successfully (or cleaned data was overwritten).
func (f *Form) CleanedData() (map[string]any, bool) {
	if f.IsBound() && !f.validated {
		f.fullClean()
	}
	return f.cleaned, f.cleaned != nil
}

// SetCleanedData overwrites the cleaned values directly, without
// re-validation.
func (f *Form) SetCleanedData(data map[string]any) {
	f.cleaned = data
	f.validated = true
}

// CleanedValue returns one cleaned value. Meant for clean hooks and
// post-validation consumers.
func (f *Form) CleanedValue(name string) (any, bool) {
	if f.cleaned == nil {
		return nil, false
	}
	v, ok := f.cleaned[name]
	return v, ok
}

// AddError records a message against a field and discards that field's
// cleaned value. Meant for clean hooks.
func (f *Form) AddError(name, msg string) {
	if f.fieldErrs == nil {
		f.fieldErrs = map[string][]string{}
	}
	f.fieldErrs[name] = append(f.fieldErrs[name], msg)
	delete(f.cleaned, name)
}

// AddNonFieldError records a message against the form as a whole. Meant
// for clean hooks.
func (f *Form) AddNonFieldError(msg string) {
	f.nonField = append(f.nonField, msg)
}

// IsMultipart reports whether the form declares any file field.
func (f *Form) IsMultipart() bool {
	for _, fd := range f.fields {
		if fd.Kind == File {
			return true
		}
	}
	return false
}

// Media returns the form's asset declarations.
func (f *Form) Media() multiform.Media { return f.media }

// fullClean converts and validates every field, then runs the clean hook.
func (f *Form) fullClean() {
	f.validated = true
	f.fieldErrs = map[string][]string{}
	f.nonField = nil
	f.cleaned = map[string]any{}

	for _, fd := range f.fields {
		value, errs := f.cleanField(fd)
		if len(errs) > 0 {
			f.fieldErrs[fd.Name] = errs
			continue
		}
		f.cleaned[fd.Name] = value
	}

	if f.clean != nil {
		if err := f.clean(f); err != nil {
			f.nonField = append(f.nonField, errorMessages(err)...)
		}
	}

	f.valid = len(f.fieldErrs) == 0 && len(f.nonField) == 0
	if !f.valid {
		f.cleaned = nil
	}
}

// cleanField converts one field's raw value by kind and runs its
// validators.
func (f *Form) cleanField(fd Field) (any, []string) {
	name := f.AddPrefix(fd.Name)

	switch fd.Kind {
	case File:
		headers := f.files[name]
		if len(headers) == 0 {
			if fd.Required {
				return nil, []string{requiredMessage}
			}
			return nil, nil
		}
		return runValidators(fd, headers[0])

	case Strings:
		var values []string
		if f.data != nil {
			values = f.data[name]
		}
		if len(values) == 0 {
			if fd.Required {
				return nil, []string{requiredMessage}
			}
			return []string(nil), nil
		}
		return runValidators(fd, append([]string(nil), values...))
	}

	var raw string
	if f.data != nil {
		raw = f.data.Get(name)
	}

	if fd.Kind == Bool {
		value := truthy(raw)
		if fd.Required && !value {
			return nil, []string{requiredMessage}
		}
		return runValidators(fd, value)
	}

	if strings.TrimSpace(raw) == "" {
		if fd.Required {
			return nil, []string{requiredMessage}
		}
		if fd.Kind == String {
			return "", nil
		}
		return nil, nil
	}

	switch fd.Kind {
	case Int:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return nil, []string{"Enter a whole number"}
		}
		return runValidators(fd, n)
	case Float:
		x, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, []string{"Enter a number"}
		}
		return runValidators(fd, x)
	default:
		return runValidators(fd, raw)
	}
}

func runValidators(fd Field, value any) (any, []string) {
	var errs []string
	for _, v := range fd.Validators {
		if err := v.Validate(value); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return value, nil
}

// rawValue returns the value a widget should display: the submitted value
// when bound, otherwise the initial value.
func (f *Form) rawValue(fd Field) string {
	name := f.AddPrefix(fd.Name)
	if f.data != nil {
		return f.data.Get(name)
	}
	if f.initial != nil {
		if v, ok := f.initial[fd.Name]; ok {
			return fmt.Sprintf("%v", v)
		}
	}
	if fd.Initial != nil {
		return fmt.Sprintf("%v", fd.Initial)
	}
	return ""
}

func (f *Form) rawValues(fd Field) []string {
	name := f.AddPrefix(fd.Name)
	if f.data != nil {
		return f.data[name]
	}
	if f.initial != nil {
		if v, ok := f.initial[fd.Name].([]string); ok {
			return v
		}
	}
	if v, ok := fd.Initial.([]string); ok {
		return v
	}
	return nil
}

func truthy(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}

const requiredMessage = "This field is required"

// errorMessages extracts the messages of a clean-hook failure.
func errorMessages(err error) []string {
	if ve, ok := err.(*multiform.ValidationError); ok {
		return ve.Messages
	}
	return []string{err.Error()}
}

// label returns the display label of a field, humanizing the name when no
// explicit label is declared.
func (fd Field) label() string {
	if fd.Label != "" {
		return fd.Label
	}
	name := strings.ReplaceAll(fd.Name, "_", " ")
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// widget resolves AutoWidget from the field kind.
func (fd Field) widget() Widget {
	if fd.Widget != AutoWidget {
		return fd.Widget
	}
	switch fd.Kind {
	case Int, Float:
		return NumberInput
	case Bool:
		return CheckboxInput
	case Strings:
		return SelectMultiple
	case File:
		return FileInput
	default:
		return TextInput
	}
}
