// Package store adapts local member stores to the snapshot feed the tree
// view consumes. Two backends exist: a JSON document holding a keyed
// collection (optionally newline-delimited) and a SQLite database with a
// members table. Every feed firing carries the full collection.
package store

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vanderheijden86/famtree/pkg/loader"
	"github.com/vanderheijden86/famtree/pkg/model"
)

// Common errors.
var (
	ErrNotFound   = errors.New("member not found")
	ErrClosed     = errors.New("store closed")
	ErrSubscribed = errors.New("feed already subscribed")
)

// Snapshot is one complete view of the member collection.
type Snapshot struct {
	Members  []model.Member
	Version  string
	Source   string
	LoadedAt time.Time
}

// NewSnapshot orders members by id and stamps the content version.
func NewSnapshot(members []model.Member, source string, loadedAt time.Time) Snapshot {
	sorted := make([]model.Member, len(members))
	copy(sorted, members)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})
	return Snapshot{
		Members:  sorted,
		Version:  model.Fingerprint(sorted),
		Source:   source,
		LoadedAt: loadedAt,
	}
}

// Len returns the number of members in the snapshot.
func (s Snapshot) Len() int { return len(s.Members) }

// Source produces the current member collection and names the files whose
// changes signal a new one.
type Source interface {
	Load(ctx context.Context) ([]model.Member, error)
	Path() string
	// Companions lists suffixes of sibling files that change alongside Path.
	Companions() []string
}

// Writer persists single members.
type Writer interface {
	Get(ctx context.Context, id string) (model.Member, error)
	Put(ctx context.Context, m model.Member) error
	List(ctx context.Context) ([]model.Member, error)
}

// Store is a readable, writable, watchable member store.
type Store interface {
	Source
	Writer
	Close() error
}

// IsSQLitePath reports whether path names a SQLite database.
func IsSQLitePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// Open selects the backend by extension: .db/.sqlite/.sqlite3 open a
// SQLite store, anything else a document store rooted at docPath.
func Open(path, docPath string) (Store, error) {
	if IsSQLitePath(path) {
		return OpenSQLite(path)
	}
	if docPath == "" {
		docPath = loader.DefaultDocPath
	}
	return NewDocumentStore(path, docPath), nil
}
