package multiform

import (
	"context"
	"fmt"
)

// DeferredSave writes relationship data that could only be persisted
// after the primary records were committed. It is returned by
// ModelMultiForm.Save only when at least one child has a deferred phase,
// and must be invoked by the caller after all primary saves are done.
type DeferredSave func(ctx context.Context) error

// ModelMultiForm adds create/update semantics on top of MultiForm: each
// child may be associated with an existing record (making its save an
// update instead of a create), and Save coordinates a two-phase write
// across all children.
type ModelMultiForm struct {
	*MultiForm
}

// NewModel constructs a model aggregate. For every key present in
// cfg.Instances the record is forwarded to that child's constructor;
// children without an entry are built exactly as New builds them, so
// persisted and non-persisted child types mix freely in one aggregate.
func NewModel(schema Schema, cfg Config) (*ModelMultiForm, error) {
	mf, err := build(schema, cfg, cfg.Instances)
	if err != nil {
		return nil, err
	}
	return &ModelMultiForm{MultiForm: mf}, nil
}

// Save saves every child in declaration order with the same commit flag
// and returns the saved records keyed by child key. Every child must
// implement Saver; the first failing child aborts the save.
//
// The returned DeferredSave is non-nil only when at least one child
// implements RelatedSaver. Invoking it calls each such child's
// SaveRelated exactly once, in declaration order, skipping children
// without the capability.
func (m *ModelMultiForm) Save(ctx context.Context, commit bool) (map[string]any, DeferredSave, error) {
	objects := make(map[string]any, len(m.keys))
	for _, key := range m.keys {
		s, ok := m.forms[key].(Saver)
		if !ok {
			return nil, nil, fmt.Errorf("multiform: child %q does not support save", key)
		}
		obj, err := s.Save(ctx, commit)
		if err != nil {
			return nil, nil, fmt.Errorf("multiform: save %q: %w", key, err)
		}
		objects[key] = obj
	}

	var related []RelatedSaver
	for _, key := range m.keys {
		if rs, ok := m.forms[key].(RelatedSaver); ok {
			related = append(related, rs)
		}
	}
	var deferred DeferredSave
	if len(related) > 0 {
		deferred = func(ctx context.Context) error {
			for _, rs := range related {
				if err := rs.SaveRelated(ctx); err != nil {
					return err
				}
			}
			return nil
		}
	}
	return objects, deferred, nil
}
