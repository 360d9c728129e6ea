package form

import (
	"context"
	"fmt"

	"github.com/multiform-dev/multiform"
	"github.com/multiform-dev/multiform/pkg/store"
)

// RecordForm binds a form to a record kind in a store. A form built with
// an existing record updates it on save; otherwise Save inserts a new
// record with a fresh identifier.
//
// Fields named in relations clean to []string target ids. They are left
// out of the record's attributes and written by SaveRelated, after the
// primary save has produced the record's identifier.
type RecordForm struct {
	*Form

	store     store.Store
	kind      string
	instance  *store.Record
	relations []string

	record  *store.Record
	pending map[string][]string
}

// NewRecord constructs a record form. An *store.Record in args.Instance
// makes the save an update; its attributes also seed the initial values
// for fields the caller did not set explicitly.
func NewRecord(args multiform.Args, st store.Store, kind string, fields []Field, relations []string, opts ...Option) *RecordForm {
	instance, _ := args.Instance.(*store.Record)
	if instance != nil && args.Data == nil {
		merged := make(map[string]any, len(instance.Attrs)+len(args.Initial))
		for k, v := range instance.Attrs {
			merged[k] = v
		}
		for k, v := range args.Initial {
			merged[k] = v
		}
		args.Initial = merged
	}
	return &RecordForm{
		Form:      New(args, fields, opts...),
		store:     st,
		kind:      kind,
		instance:  instance,
		relations: relations,
	}
}

// RecordChild returns a multiform constructor for a record form.
func RecordChild(st store.Store, kind string, fields []Field, relations []string, opts ...Option) multiform.Constructor {
	return func(args multiform.Args) multiform.Form {
		return NewRecord(args, st, kind, fields, relations, opts...)
	}
}

// Instance returns the record the form was built around, or nil for a
// create form.
func (r *RecordForm) Instance() *store.Record { return r.instance }

// Record returns the record produced by the last Save, or nil.
func (r *RecordForm) Record() *store.Record { return r.record }

// Save writes the cleaned values as a record. With commit false the
// record is assembled and returned but nothing is written; relation
// values are still captured for a later SaveRelated.
func (r *RecordForm) Save(ctx context.Context, commit bool) (any, error) {
	cleaned, ok := r.CleanedData()
	if !ok {
		return nil, fmt.Errorf("form is not valid, cannot save %s", r.kind)
	}

	r.pending = make(map[string][]string, len(r.relations))
	related := make(map[string]bool, len(r.relations))
	for _, rel := range r.relations {
		related[rel] = true
		if ids, ok := cleaned[rel].([]string); ok {
			r.pending[rel] = ids
		}
	}

	attrs := make(map[string]any, len(cleaned))
	for k, v := range cleaned {
		if related[k] {
			continue
		}
		attrs[k] = v
	}

	rec := &store.Record{Kind: r.kind, Attrs: attrs}
	if r.instance != nil {
		rec.ID = r.instance.ID
		rec.CreatedAt = r.instance.CreatedAt
	} else {
		rec.ID = store.NewID()
	}

	if commit {
		var err error
		if r.instance != nil {
			err = r.store.Update(ctx, rec)
		} else {
			err = r.store.Insert(ctx, rec)
		}
		if err != nil {
			return nil, err
		}
	}

	r.record = rec
	return rec, nil
}

// SaveRelated writes the relation lists captured by the last Save. It
// must run after a committed Save.
func (r *RecordForm) SaveRelated(ctx context.Context) error {
	if r.record == nil {
		return fmt.Errorf("save %s before saving relations", r.kind)
	}
	for _, rel := range r.relations {
		ids := r.pending[rel]
		if err := r.store.SetRelated(ctx, r.kind, r.record.ID, rel, ids); err != nil {
			return fmt.Errorf("relation %q: %w", rel, err)
		}
	}
	return nil
}
