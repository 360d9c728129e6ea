package multiform

import (
	"context"
	"html/template"
	"mime/multipart"
	"net/url"
)

// Files maps field names to uploaded file headers, in the shape produced
// by net/http multipart parsing.
type Files = map[string][]*multipart.FileHeader

// Args carries the construction inputs the container computes for each
// child: the shared submitted data and files, the child's namespaced
// prefix, the child's slice of the initial-value mapping, and (for model
// aggregates) an optional existing record.
type Args struct {
	// Data is the raw submitted data. A nil Data means the child is
	// unbound.
	Data url.Values

	// Files holds uploaded files keyed by prefixed field name.
	Files Files

	// Prefix is the child's field namespace. The container derives it
	// from the child key and the aggregate's own prefix.
	Prefix string

	// Initial holds default values for the child's fields. May be nil.
	Initial map[string]any

	// Instance is an existing persisted record, set only by
	// ModelMultiForm and only for keys present in Config.Instances.
	// Children that do not persist anything ignore it.
	Instance any
}

// Constructor builds one child form from its computed arguments.
type Constructor func(Args) Form

// ChildSpec names one child and the constructor that builds it.
type ChildSpec struct {
	Key string
	New Constructor
}

// Schema is the ordered child declaration of an aggregate. Keys must be
// unique; declaration order is the iteration order for fields, errors,
// rendering, and saves.
type Schema []ChildSpec

// Form is the contract every child must satisfy.
type Form interface {
	// IsBound reports whether the child was constructed with submitted
	// data.
	IsBound() bool

	// IsValid runs the child's own validation (memoized per instance)
	// and reports the result. Unbound children are never valid.
	IsValid() bool

	// Errors returns field-level errors keyed by bare field name. The
	// container namespaces them with AddPrefix.
	Errors() map[string][]string

	// AddPrefix returns the namespaced name for one of the child's
	// fields.
	AddPrefix(name string) string

	// CleanedData returns the validated values. ok is false until the
	// child has validated successfully.
	CleanedData() (map[string]any, bool)

	// SetCleanedData overwrites the child's cleaned values directly,
	// without re-validation.
	SetCleanedData(map[string]any)
}

// FormSet is the capability of children that are themselves an ordered
// collection of sub-forms. The container reports their errors as one
// sequence per sub-form and their cleaned data as a positional slice.
type FormSet interface {
	Form
	Forms() []Form
}

// NonFieldErrorser is the capability of children that track errors not
// attributable to a single field.
type NonFieldErrorser interface {
	NonFieldErrors() []string
}

// Multiparter is the capability of children that may carry file uploads
// and therefore require a multipart submission.
type Multiparter interface {
	IsMultipart() bool
}

// MediaProvider is the capability of children that declare CSS/JS assets.
type MediaProvider interface {
	Media() Media
}

// Renderer is the capability of children that render themselves to HTML.
type Renderer interface {
	AsTable() template.HTML
	AsUL() template.HTML
	AsP() template.HTML
}

// BoundField is one renderable field of a child, already namespaced.
type BoundField interface {
	// Name is the fully prefixed field name as submitted.
	Name() string
	Label() string
	IsHidden() bool
	HTML() template.HTML
}

// FieldLister is the capability of children that expose their fields for
// iteration in declaration order.
type FieldLister interface {
	Fields() []BoundField
}

// Saver is the capability of children that persist a record. When commit
// is false the record is prepared but not written.
type Saver interface {
	Save(ctx context.Context, commit bool) (any, error)
}

// RelatedSaver is the capability of children with a deferred second save
// phase for relationship data that needs the primary record's identifier.
type RelatedSaver interface {
	SaveRelated(ctx context.Context) error
}
