// Package datasource discovers the family data files in a data directory,
// validates them, and selects the freshest valid one. SQLite databases,
// keyed JSON documents and JSONL files can all live side by side.
package datasource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/famtree/pkg/loader"
	"github.com/vanderheijden86/famtree/pkg/store"
)

// SourceType identifies the type of data source
type SourceType string

const (
	// SourceTypeSQLite is a SQLite database (family.db)
	SourceTypeSQLite SourceType = "sqlite"
	// SourceTypeDocument is a keyed JSON document (family.json)
	SourceTypeDocument SourceType = "document"
	// SourceTypeLines is a JSONL file (family.jsonl)
	SourceTypeLines SourceType = "jsonl"
)

// Priority values for source types (higher = more authoritative)
const (
	PrioritySQLite   = 100
	PriorityDocument = 80
	PriorityLines    = 50
)

// ErrNoSources is returned when discovery finds nothing usable.
var ErrNoSources = errors.New("no valid family data sources")

// DataSource represents a potential source of family data
type DataSource struct {
	Type     SourceType `json:"type"`
	Path     string     `json:"path"`
	Priority int        `json:"priority"`
	ModTime  time.Time  `json:"mod_time"`
	// Valid indicates whether the source passed validation
	Valid           bool   `json:"valid"`
	ValidationError string `json:"validation_error,omitempty"`
	// MemberCount is set during validation
	MemberCount int   `json:"member_count"`
	Size        int64 `json:"size"`
}

// String returns a human-readable description of the source
func (s DataSource) String() string {
	status := "valid"
	if !s.Valid {
		status = fmt.Sprintf("invalid: %s", s.ValidationError)
	}
	return fmt.Sprintf("%s (%s, priority=%d, mod=%s, members=%d, %s)",
		s.Path, s.Type, s.Priority, s.ModTime.Format(time.RFC3339), s.MemberCount, status)
}

// DiscoveryOptions configures source discovery behavior
type DiscoveryOptions struct {
	// DataDir is the .famtree directory path (auto-detected if empty)
	DataDir string
	// RepoPath is the base for auto-detection (cwd if empty)
	RepoPath string
	// DocPath locates the collection inside JSON documents
	DocPath string
	// ValidateAfterDiscovery runs validation on each discovered source
	ValidateAfterDiscovery bool
	// IncludeInvalid includes sources that failed validation in results
	IncludeInvalid bool
	// Logger receives progress messages when set
	Logger func(msg string)
}

func (o DiscoveryOptions) log(format string, args ...any) {
	if o.Logger != nil {
		o.Logger(fmt.Sprintf(format, args...))
	}
}

// Classify maps a file name to its source type. ok is false for files that
// are not family data, including backups and temp files.
func Classify(name string) (SourceType, int, bool) {
	if strings.HasPrefix(name, ".") ||
		strings.Contains(name, ".backup") ||
		strings.Contains(name, ".orig") ||
		strings.HasSuffix(name, ".tmp") {
		return "", 0, false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".db", ".sqlite", ".sqlite3":
		return SourceTypeSQLite, PrioritySQLite, true
	case ".json":
		return SourceTypeDocument, PriorityDocument, true
	case ".jsonl":
		return SourceTypeLines, PriorityLines, true
	}
	return "", 0, false
}

// DiscoverSources finds data files in the data directory, freshest first.
func DiscoverSources(opts DiscoveryOptions) ([]DataSource, error) {
	dataDir := opts.DataDir
	if dataDir == "" {
		var err error
		dataDir, err = loader.GetDataDir(opts.RepoPath)
		if err != nil {
			return nil, err
		}
	}
	opts.log("Discovering sources in: %s", dataDir)

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}

	var sources []DataSource
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		typ, prio, ok := Classify(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		src := DataSource{
			Type:     typ,
			Path:     filepath.Join(dataDir, e.Name()),
			Priority: prio,
			ModTime:  info.ModTime(),
			Size:     info.Size(),
		}
		opts.log("Found %s: %s (mod=%s)", typ, src.Path, src.ModTime.Format(time.RFC3339))
		sources = append(sources, src)
	}

	if opts.ValidateAfterDiscovery {
		valid := sources[:0]
		for i := range sources {
			if err := ValidateSource(&sources[i], opts.DocPath); err != nil {
				opts.log("Validation failed for %s: %v", sources[i].Path, err)
			}
			if sources[i].Valid || opts.IncludeInvalid {
				valid = append(valid, sources[i])
			}
		}
		sources = valid
	}

	sortSources(sources)
	opts.log("Discovered %d sources", len(sources))
	return sources, nil
}

func sortSources(sources []DataSource) {
	sort.SliceStable(sources, func(i, j int) bool {
		if sources[i].ModTime.Equal(sources[j].ModTime) {
			return sources[i].Priority > sources[j].Priority
		}
		return sources[i].ModTime.After(sources[j].ModTime)
	})
}

// ValidateSource opens the source, counts its members and records the
// outcome on src.
func ValidateSource(src *DataSource, docPath string) error {
	var (
		n   int
		err error
	)
	switch src.Type {
	case SourceTypeSQLite:
		n, err = countSQLite(src.Path)
	case SourceTypeDocument, SourceTypeLines:
		if docPath == "" {
			docPath = loader.DefaultDocPath
		}
		members, lerr := loader.LoadFile(src.Path, docPath, loader.ParseOptions{WarningHandler: func(string) {}})
		n, err = len(members), lerr
	default:
		err = fmt.Errorf("unknown source type: %s", src.Type)
	}

	src.MemberCount = n
	src.Valid = err == nil
	src.ValidationError = ""
	if err != nil {
		src.ValidationError = err.Error()
	}
	return err
}

func countSQLite(path string) (int, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return 0, fmt.Errorf("cannot open database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM members").Scan(&n); err != nil {
		return 0, fmt.Errorf("no members table: %w", err)
	}
	return n, nil
}

// SelectBestSource returns the freshest valid source, preferring higher
// priority on equal modification times.
func SelectBestSource(sources []DataSource) (DataSource, error) {
	candidates := make([]DataSource, 0, len(sources))
	for _, s := range sources {
		if s.Valid {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return DataSource{}, ErrNoSources
	}
	sortSources(candidates)
	return candidates[0], nil
}

// Open returns a store over the source.
func (s DataSource) Open(docPath string) (store.Store, error) {
	return store.Open(s.Path, docPath)
}
