package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vanderheijden86/famtree/pkg/model"
)

// NewID returns a time-ordered identifier, so ids sort in insertion order
// the way push keys do.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// NewMember completes a draft record for insertion. Generation and the
// cached parent name are derived from parent; a nil parent makes a root.
// An empty id is filled from idgen (NewID when nil).
func NewMember(draft model.Member, parent *model.Member, idgen func() string) model.Member {
	m := draft.Clone()
	if m.ID == "" {
		if idgen == nil {
			idgen = NewID
		}
		m.ID = idgen()
	}
	if parent == nil {
		m.ParentID = ""
		m.ParentName = ""
		m.Generation = 0
		return m
	}
	m.ParentID = parent.ID
	m.ParentName = parent.DisplayParentName()
	m.Generation = parent.Generation + 1
	return m
}

// Add inserts draft as a child of parentID (a root when empty).
func Add(ctx context.Context, w Writer, draft model.Member, parentID string) (model.Member, error) {
	var parent *model.Member
	if parentID != "" {
		p, err := w.Get(ctx, parentID)
		if err != nil {
			return model.Member{}, fmt.Errorf("parent: %w", err)
		}
		parent = &p
	}
	m := NewMember(draft, parent, nil)
	if err := w.Put(ctx, m); err != nil {
		return model.Member{}, err
	}
	return m, nil
}

// Update replaces an existing member. The derived parent fields are
// refreshed when the parent reference resolves.
func Update(ctx context.Context, w Writer, m model.Member) (model.Member, error) {
	if _, err := w.Get(ctx, m.ID); err != nil {
		return model.Member{}, err
	}
	if m.ParentID != "" {
		if p, err := w.Get(ctx, m.ParentID); err == nil {
			m = NewMember(m, &p, nil)
		}
	} else {
		m = NewMember(m, nil, nil)
	}
	if err := w.Put(ctx, m); err != nil {
		return model.Member{}, err
	}
	return m, nil
}
