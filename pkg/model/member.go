package model

import (
	"fmt"
	"strings"
)

// Member represents one person in the family tree.
type Member struct {
	ID             string   `json:"id" validate:"required"`
	Generation     int      `json:"generation" validate:"gte=0"`
	ParentID       string   `json:"parentId,omitempty"`
	ParentName     string   `json:"parentName,omitempty"`
	Relation       Relation `json:"relation" validate:"omitempty,oneof=son daughter"`
	Name           string   `json:"name" validate:"required"`
	MiddleName     string   `json:"middleName,omitempty"`
	LastName       string   `json:"lastName" validate:"required"`
	ContactNumber  string   `json:"contactNumber"`
	Address        string   `json:"address"`
	Email          string   `json:"email,omitempty" validate:"omitempty,email"`
	Spouse         string   `json:"spouse,omitempty"`
	BirthDate      Date     `json:"birthDate"`
	DeathDate      *Date    `json:"deathDate,omitempty"`
	ProfilePic     string   `json:"profilePic,omitempty" validate:"omitempty,url"`
	ParentRelation string   `json:"parentRelation,omitempty"`
}

// FullName joins the non-empty name parts with single spaces.
func (m Member) FullName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{m.Name, m.MiddleName, m.LastName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// SearchText is the string search matches against: first, middle and last
// name separated by single spaces. A missing middle name leaves an empty
// slot, so "Ram Adhikari" becomes "Ram  Adhikari".
func (m Member) SearchText() string {
	return m.Name + " " + m.MiddleName + " " + m.LastName
}

// DisplayParentName returns the name used when this member becomes a parent
// of a new record.
func (m Member) DisplayParentName() string {
	return strings.TrimSpace(m.Name + " " + m.LastName)
}

// Lifespan renders "birth - death", with "present" for living members.
func (m Member) Lifespan() string {
	end := "present"
	if m.DeathDate != nil && !m.DeathDate.IsZero() {
		end = m.DeathDate.String()
	}
	start := m.BirthDate.String()
	if start == "" {
		start = "?"
	}
	return start + " - " + end
}

// IsRoot reports whether the member carries no parent reference at all.
// Whether a member with a dangling reference is rendered as a root is a
// tree-building policy, not a property of the record.
func (m Member) IsRoot() bool {
	return m.ParentID == ""
}

// HasProfilePic reports whether an image reference is present.
func (m Member) HasProfilePic() bool {
	return strings.TrimSpace(m.ProfilePic) != ""
}

// Initials returns up to two upper-case initials for image placeholders.
func (m Member) Initials() string {
	var b strings.Builder
	for _, p := range []string{m.Name, m.LastName} {
		for _, r := range strings.TrimSpace(p) {
			b.WriteString(strings.ToUpper(string(r)))
			break
		}
	}
	if b.Len() == 0 {
		return "?"
	}
	return b.String()
}

// Clone creates a deep copy of the member
func (m Member) Clone() Member {
	clone := m
	if m.DeathDate != nil {
		v := *m.DeathDate
		clone.DeathDate = &v
	}
	return clone
}

// Validate checks the record against its field rules.
func (m *Member) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("member %q: %w", m.ID, formatValidationError(err))
	}
	if m.ParentID != "" && m.ParentID == m.ID {
		return fmt.Errorf("member %q: parentId references itself", m.ID)
	}
	if m.DeathDate != nil && !m.DeathDate.IsZero() && !m.BirthDate.IsZero() && m.DeathDate.Before(m.BirthDate) {
		return fmt.Errorf("member %q: deathDate (%s) cannot be before birthDate (%s)", m.ID, m.DeathDate, m.BirthDate)
	}
	return nil
}

// Relation tags a member as a son or daughter of their parent.
type Relation string

const (
	RelationSon      Relation = "son"
	RelationDaughter Relation = "daughter"
)

// IsValid returns true if the relation is a recognized value
func (r Relation) IsValid() bool {
	switch r {
	case RelationSon, RelationDaughter:
		return true
	}
	return false
}

// Relations lists the accepted relation tags in display order.
func Relations() []Relation {
	return []Relation{RelationSon, RelationDaughter}
}
