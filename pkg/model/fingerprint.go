package model

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
)

// Fingerprint generates a deterministic hash of member data.
// Members are sorted by ID so the result does not depend on input order.
func Fingerprint(members []Member) string {
	if len(members) == 0 {
		return "empty"
	}

	sorted := make([]Member, len(members))
	copy(sorted, members)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})

	h := sha256.New()
	for _, m := range sorted {
		for _, field := range []string{
			m.ID, m.ParentID, m.ParentName, string(m.Relation),
			m.Name, m.MiddleName, m.LastName,
			m.ContactNumber, m.Address, m.Email, m.Spouse,
			m.BirthDate.String(), m.ProfilePic, m.ParentRelation,
			strconv.Itoa(m.Generation),
		} {
			h.Write([]byte(field))
			h.Write([]byte{0})
		}
		if m.DeathDate != nil {
			h.Write([]byte(m.DeathDate.String()))
		}
		h.Write([]byte{1})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
