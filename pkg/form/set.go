package form

import (
	"context"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/multiform-dev/multiform"
)

// maxSetForms bounds the sub-form count read from submitted data, so a
// hostile management value cannot make the server allocate unbounded
// forms.
const maxSetForms = 1000

// Set is an ordered collection of sub-forms built from one constructor,
// usable as a single child of an aggregate. Sub-form i namespaces its
// fields under "<prefix>-<i>"; the number of submitted sub-forms travels
// in the hidden "<prefix>-TOTAL" management value.
type Set struct {
	prefix string
	bound  bool
	forms  []multiform.Form
}

// NewSet builds a collection of count sub-forms over the given fields.
func NewSet(args multiform.Args, count int, fields []Field, opts ...Option) *Set {
	return NewSetOf(args, count, Child(fields, opts...))
}

// NewSetOf builds a collection whose sub-forms come from an arbitrary
// constructor, so record forms can repeat too. When the arguments carry
// submitted data the count is read from the management value instead of
// count, following what the client actually sent.
func NewSetOf(args multiform.Args, count int, child multiform.Constructor) *Set {
	s := &Set{
		prefix: args.Prefix,
		bound:  args.Data != nil || len(args.Files) > 0,
	}
	if s.bound {
		if n, err := strconv.Atoi(args.Data.Get(s.managementKey())); err == nil && n >= 0 {
			count = min(n, maxSetForms)
		}
	}
	for i := 0; i < count; i++ {
		sub := args
		sub.Prefix = fmt.Sprintf("%s-%d", args.Prefix, i)
		s.forms = append(s.forms, child(sub))
	}
	return s
}

// SetChild returns a multiform constructor for a collection over the
// given fields, with count sub-forms when unbound.
func SetChild(count int, fields []Field, opts ...Option) multiform.Constructor {
	return SetChildOf(count, Child(fields, opts...))
}

// SetChildOf returns a multiform constructor for a collection built from
// an arbitrary sub-form constructor.
func SetChildOf(count int, child multiform.Constructor) multiform.Constructor {
	return func(args multiform.Args) multiform.Form {
		return NewSetOf(args, count, child)
	}
}

func (s *Set) managementKey() string { return s.AddPrefix("TOTAL") }

// Forms returns the sub-forms in order.
func (s *Set) Forms() []multiform.Form {
	return append([]multiform.Form(nil), s.forms...)
}

// Len returns the number of sub-forms.
func (s *Set) Len() int { return len(s.forms) }

// At returns sub-form i.
func (s *Set) At(i int) multiform.Form { return s.forms[i] }

// IsBound reports whether the collection was constructed with submitted
// data.
func (s *Set) IsBound() bool { return s.bound }

// IsValid reports whether every sub-form is valid. All sub-forms are
// validated even after the first failure, so every error surfaces.
func (s *Set) IsValid() bool {
	if !s.bound {
		return false
	}
	valid := true
	for _, f := range s.forms {
		if !f.IsValid() {
			valid = false
		}
	}
	return valid
}

// Errors merges sub-form errors under position-qualified names. Aggregate
// containers read per-sub errors through Forms instead; this form is for
// using a Set standalone.
func (s *Set) Errors() map[string][]string {
	out := map[string][]string{}
	for i, f := range s.forms {
		for name, msgs := range f.Errors() {
			out[fmt.Sprintf("%d-%s", i, name)] = msgs
		}
	}
	return out
}

// NonFieldErrors concatenates the sub-forms' non-field errors in order.
func (s *Set) NonFieldErrors() []string {
	var out []string
	for _, f := range s.forms {
		if nfe, ok := f.(multiform.NonFieldErrorser); ok {
			out = append(out, nfe.NonFieldErrors()...)
		}
	}
	return out
}

// AddPrefix returns the namespaced name for a collection-level field,
// such as the management value.
func (s *Set) AddPrefix(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "-" + name
}

// CleanedData reports no map-shaped data; collections expose their
// cleaned values positionally through CleanedList.
func (s *Set) CleanedData() (map[string]any, bool) {
	return nil, false
}

// CleanedList returns each sub-form's cleaned values in order. ok is
// false unless every sub-form validated.
func (s *Set) CleanedList() ([]map[string]any, bool) {
	out := make([]map[string]any, len(s.forms))
	for i, f := range s.forms {
		cd, ok := f.CleanedData()
		if !ok {
			return nil, false
		}
		out[i] = cd
	}
	return out, true
}

// SetCleanedData is a no-op at the collection level; aggregates write
// positional cleaned values into the sub-forms directly.
func (s *Set) SetCleanedData(map[string]any) {}

// SetCleanedList overwrites sub-form cleaned values positionally.
func (s *Set) SetCleanedList(list []map[string]any) {
	for i, f := range s.forms {
		if i >= len(list) {
			return
		}
		f.SetCleanedData(list[i])
	}
}

// Save saves every sub-form in order and returns the saved records
// positionally. Every sub-form must support saving.
func (s *Set) Save(ctx context.Context, commit bool) (any, error) {
	out := make([]any, len(s.forms))
	for i, f := range s.forms {
		sv, ok := f.(multiform.Saver)
		if !ok {
			return nil, fmt.Errorf("sub-form %d does not support save", i)
		}
		obj, err := sv.Save(ctx, commit)
		if err != nil {
			return nil, fmt.Errorf("sub-form %d: %w", i, err)
		}
		out[i] = obj
	}
	return out, nil
}

// SaveRelated runs the deferred save phase of every sub-form that has
// one.
func (s *Set) SaveRelated(ctx context.Context) error {
	for i, f := range s.forms {
		if rs, ok := f.(multiform.RelatedSaver); ok {
			if err := rs.SaveRelated(ctx); err != nil {
				return fmt.Errorf("sub-form %d: %w", i, err)
			}
		}
	}
	return nil
}

// IsMultipart reports whether any sub-form carries file fields.
func (s *Set) IsMultipart() bool {
	for _, f := range s.forms {
		if mp, ok := f.(multiform.Multiparter); ok && mp.IsMultipart() {
			return true
		}
	}
	return false
}

// Media returns the merged asset declarations of the sub-forms.
func (s *Set) Media() multiform.Media {
	var media multiform.Media
	for _, f := range s.forms {
		if mp, ok := f.(multiform.MediaProvider); ok {
			media = media.Merge(mp.Media())
		}
	}
	return media
}

// AsTable renders every sub-form as table rows plus the management input.
func (s *Set) AsTable() template.HTML {
	return s.render(func(r multiform.Renderer) template.HTML { return r.AsTable() })
}

// AsUL renders every sub-form as list items plus the management input.
func (s *Set) AsUL() template.HTML {
	return s.render(func(r multiform.Renderer) template.HTML { return r.AsUL() })
}

// AsP renders every sub-form as paragraphs plus the management input.
func (s *Set) AsP() template.HTML {
	return s.render(func(r multiform.Renderer) template.HTML { return r.AsP() })
}

func (s *Set) render(one func(multiform.Renderer) template.HTML) template.HTML {
	var sb strings.Builder
	for _, f := range s.forms {
		if r, ok := f.(multiform.Renderer); ok {
			sb.WriteString(string(one(r)))
			sb.WriteString("\n")
		}
	}
	sb.WriteString(fmt.Sprintf(`<input type="hidden" name=%q value="%d">`,
		s.managementKey(), len(s.forms)))
	return template.HTML(sb.String())
}
