package form

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/multiform-dev/multiform"
)

// boundField pairs a field declaration with the form it is bound to, for
// rendering and iteration.
type boundField struct {
	form  *Form
	field Field
}

// Name returns the fully prefixed field name as submitted.
func (b boundField) Name() string { return b.form.AddPrefix(b.field.Name) }

// Label returns the display label.
func (b boundField) Label() string { return b.field.label() }

// IsHidden reports whether the field renders as a hidden input.
func (b boundField) IsHidden() bool { return b.field.widget() == HiddenInput }

// HTML renders the field's widget. All attribute values and texts are
// escaped.
func (b boundField) HTML() template.HTML {
	return template.HTML(b.form.widgetHTML(b.field))
}

// Fields returns the form's fields in declaration order.
func (f *Form) Fields() []multiform.BoundField {
	out := make([]multiform.BoundField, len(f.fields))
	for i, fd := range f.fields {
		out[i] = boundField{form: f, field: fd}
	}
	return out
}

// HiddenFields returns only the fields that render hidden.
func (f *Form) HiddenFields() []multiform.BoundField {
	var out []multiform.BoundField
	for _, fd := range f.fields {
		if (boundField{form: f, field: fd}).IsHidden() {
			out = append(out, boundField{form: f, field: fd})
		}
	}
	return out
}

// VisibleFields returns only the fields that render visibly.
func (f *Form) VisibleFields() []multiform.BoundField {
	var out []multiform.BoundField
	for _, fd := range f.fields {
		if !(boundField{form: f, field: fd}).IsHidden() {
			out = append(out, boundField{form: f, field: fd})
		}
	}
	return out
}

// AsTable renders the form as <tr> rows.
func (f *Form) AsTable() template.HTML {
	return f.renderRows("<tr><th>%s</th><td>%s%s%s</td></tr>")
}

// AsUL renders the form as <li> items.
func (f *Form) AsUL() template.HTML {
	return f.renderRows("<li>%s %s%s%s</li>")
}

// AsP renders the form as <p> paragraphs.
func (f *Form) AsP() template.HTML {
	return f.renderRows("<p>%s %s%s%s</p>")
}

// renderRows formats every visible field into the row template and
// appends the hidden fields as bare inputs. Each row receives the label,
// the error list, the widget, and the help text.
func (f *Form) renderRows(row string) template.HTML {
	errs := map[string][]string{}
	if f.IsBound() {
		errs = f.Errors()
	}

	var sb strings.Builder
	for _, fd := range f.fields {
		if fd.widget() == HiddenInput {
			continue
		}
		label := fmt.Sprintf(`<label for=%q>%s</label>`,
			"id_"+f.AddPrefix(fd.Name), template.HTMLEscapeString(fd.label()))
		help := ""
		if fd.Help != "" {
			help = fmt.Sprintf(`<span class="helptext">%s</span>`,
				template.HTMLEscapeString(fd.Help))
		}
		sb.WriteString(fmt.Sprintf(row, label, errorList(errs[fd.Name]), f.widgetHTML(fd), help))
		sb.WriteString("\n")
	}
	for _, fd := range f.fields {
		if fd.widget() == HiddenInput {
			sb.WriteString(f.widgetHTML(fd))
			sb.WriteString("\n")
		}
	}
	return template.HTML(strings.TrimRight(sb.String(), "\n"))
}

// errorList renders field errors the way bound forms conventionally do.
func errorList(msgs []string) string {
	if len(msgs) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(`<ul class="errorlist">`)
	for _, m := range msgs {
		sb.WriteString("<li>")
		sb.WriteString(template.HTMLEscapeString(m))
		sb.WriteString("</li>")
	}
	sb.WriteString("</ul>")
	return sb.String()
}

// widgetHTML renders one field's control with its current value.
func (f *Form) widgetHTML(fd Field) string {
	name := f.AddPrefix(fd.Name)
	id := "id_" + name
	required := ""
	if fd.Required {
		required = " required"
	}

	switch fd.widget() {
	case Textarea:
		return fmt.Sprintf(`<textarea name=%q id=%q%s>%s</textarea>`,
			name, id, required, template.HTMLEscapeString(f.rawValue(fd)))

	case CheckboxInput:
		checked := ""
		if f.IsBound() {
			if truthy(f.rawValue(fd)) {
				checked = " checked"
			}
		} else if v, ok := fd.Initial.(bool); ok && v {
			checked = " checked"
		}
		return fmt.Sprintf(`<input type="checkbox" name=%q id=%q%s%s>`,
			name, id, checked, required)

	case SelectMultiple:
		selected := map[string]bool{}
		for _, v := range f.rawValues(fd) {
			selected[v] = true
		}
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf(`<select name=%q id=%q multiple%s>`, name, id, required))
		for _, c := range fd.Choices {
			sel := ""
			if selected[c.Value] {
				sel = " selected"
			}
			sb.WriteString(fmt.Sprintf(`<option value=%q%s>%s</option>`,
				template.HTMLEscapeString(c.Value), sel, template.HTMLEscapeString(c.Label)))
		}
		sb.WriteString("</select>")
		return sb.String()

	case FileInput:
		return fmt.Sprintf(`<input type="file" name=%q id=%q%s>`, name, id, required)

	case HiddenInput:
		return fmt.Sprintf(`<input type="hidden" name=%q value=%q>`,
			name, template.HTMLEscapeString(f.rawValue(fd)))

	default:
		return fmt.Sprintf(`<input type=%q name=%q id=%q value=%q%s>`,
			inputType(fd.widget()), name, id, template.HTMLEscapeString(f.rawValue(fd)), required)
	}
}

func inputType(w Widget) string {
	switch w {
	case EmailInput:
		return "email"
	case NumberInput:
		return "number"
	case PasswordInput:
		return "password"
	default:
		return "text"
	}
}
