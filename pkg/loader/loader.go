// Package loader decodes family member records from the on-disk formats
// famtree understands: a keyed JSON document ({"family": {id: record}})
// and newline-delimited JSON with one record per line.
package loader

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/famtree/pkg/metrics"
	"github.com/vanderheijden86/famtree/pkg/model"
)

// DataDirEnvVar is the name of the environment variable for a custom data directory.
const DataDirEnvVar = "FAMTREE_DIR"

// DefaultDocPath is where the member collection lives inside a document.
const DefaultDocPath = "family"

// DefaultMaxBufferSize is the default line buffer size for JSONL input (10MB).
const DefaultMaxBufferSize = 1024 * 1024 * 10

// GetDataDir returns the famtree data directory, respecting FAMTREE_DIR.
// Otherwise it falls back to .famtree in repoPath (or cwd if empty).
func GetDataDir(repoPath string) (string, error) {
	if envDir := os.Getenv(DataDirEnvVar); envDir != "" {
		return envDir, nil
	}

	if repoPath == "" {
		var err error
		repoPath, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current working directory: %w", err)
		}
	}

	return filepath.Join(repoPath, ".famtree"), nil
}

// ParseOptions configures decoding.
type ParseOptions struct {
	// WarningHandler is called for records that are skipped.
	// If nil, warnings go through log.Printf.
	WarningHandler func(string)

	// BufferSize caps a single JSONL line. Longer lines are skipped with a
	// warning. If 0, uses DefaultMaxBufferSize.
	BufferSize int

	// Filter optionally drops decoded members. Return true to include.
	Filter func(*model.Member) bool
}

func (o ParseOptions) warn() func(string) {
	if o.WarningHandler != nil {
		return o.WarningHandler
	}
	return func(msg string) {
		log.Printf("warning: %s", msg)
	}
}

// LoadFile reads members from path. Files ending in .jsonl are read line by
// line; anything else is treated as a keyed document with the collection
// at docPath.
func LoadFile(path, docPath string, opts ParseOptions) ([]model.Member, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no family data found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("failed to open family data: %w", err)
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		return ParseLines(file, opts)
	}
	return ParseDocument(file, docPath, opts)
}

// ParseDocument decodes the keyed collection found at docPath, a
// slash-separated path into the document. An empty docPath means the
// document root. A missing path yields no members and no error.
//
// Members come back ordered by key. A record whose body omits its id takes
// the key. A field with the wrong type is ignored with a warning and the
// rest of its record still loads; a record that is not an object is
// skipped with a warning.
func ParseDocument(r io.Reader, docPath string, opts ParseOptions) ([]model.Member, error) {
	defer metrics.Timer(metrics.SnapshotDecode)()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading family document: %w", err)
	}
	data = bytes.TrimSpace(stripBOM(data))
	if len(data) == 0 {
		return []model.Member{}, nil
	}

	node := json.RawMessage(data)
	for _, seg := range splitDocPath(docPath) {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(node, &obj); err != nil {
			return nil, fmt.Errorf("document path %q: %q is not an object: %w", docPath, seg, err)
		}
		next, ok := obj[seg]
		if !ok {
			return []model.Member{}, nil
		}
		node = next
	}
	if isNull(node) {
		return []model.Member{}, nil
	}

	var records map[string]json.RawMessage
	if err := json.Unmarshal(node, &records); err != nil {
		return nil, fmt.Errorf("document path %q does not hold a keyed collection: %w", docPath, err)
	}

	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	warn := opts.warn()
	members := make([]model.Member, 0, len(keys))
	for _, key := range keys {
		raw := records[key]
		if isNull(raw) {
			continue
		}
		m, dropped, err := decodeMember(raw)
		if err != nil {
			warn(fmt.Sprintf("skipping malformed record %q: %v", key, err))
			continue
		}
		if len(dropped) > 0 {
			warn(fmt.Sprintf("record %q: ignoring unreadable fields %s", key, strings.Join(dropped, ", ")))
		}
		switch {
		case m.ID == "":
			m.ID = key
		case m.ID != key:
			warn(fmt.Sprintf("record %q carries id %q; using the key", key, m.ID))
			m.ID = key
		}
		if opts.Filter != nil && !opts.Filter(&m) {
			continue
		}
		members = append(members, m)
	}
	return members, nil
}

// ParseLines decodes newline-delimited JSON records in file order.
// Records without an id are skipped with a warning.
func ParseLines(r io.Reader, opts ParseOptions) ([]model.Member, error) {
	defer metrics.Timer(metrics.SnapshotDecode)()

	maxCapacity := opts.BufferSize
	if maxCapacity <= 0 {
		maxCapacity = DefaultMaxBufferSize
	}
	reader := bufio.NewReaderSize(r, maxCapacity)
	warn := opts.warn()

	var members []model.Member
	lineNum := 0
	for {
		lineNum++
		// ReadLine hands back at most one buffer's worth; isPrefix marks
		// a line that did not fit.
		line, isPrefix, err := reader.ReadLine()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading member stream at line %d: %w", lineNum, err)
		}

		if isPrefix {
			warn(fmt.Sprintf("skipping line %d: line too long (exceeds %d bytes)", lineNum, maxCapacity))
			for isPrefix {
				_, isPrefix, err = reader.ReadLine()
				if err == io.EOF {
					break
				}
				if err != nil {
					return nil, fmt.Errorf("error skipping long line at line %d: %w", lineNum, err)
				}
			}
			continue
		}

		if lineNum == 1 {
			line = stripBOM(line)
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		m, dropped, err := decodeMember(line)
		if err != nil {
			warn(fmt.Sprintf("skipping malformed JSON on line %d: %v", lineNum, err))
			continue
		}
		if len(dropped) > 0 {
			warn(fmt.Sprintf("line %d: ignoring unreadable fields %s", lineNum, strings.Join(dropped, ", ")))
		}
		if m.ID == "" {
			warn(fmt.Sprintf("skipping record without id on line %d", lineNum))
			continue
		}
		if opts.Filter != nil && !opts.Filter(&m) {
			continue
		}
		members = append(members, m)
	}
	if members == nil {
		members = []model.Member{}
	}
	return members, nil
}

func splitDocPath(p string) []string {
	var out []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// stripBOM removes the UTF-8 Byte Order Mark if present
func stripBOM(b []byte) []byte {
	if bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		return b[3:]
	}
	return b
}
