package store

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/famtree/pkg/debug"
	"github.com/vanderheijden86/famtree/pkg/loader"
	"github.com/vanderheijden86/famtree/pkg/model"
)

// DocumentStore keeps members in a JSON file. A .jsonl file holds one
// record per line; any other file is a document whose collection sits at
// DocPath. Writes rewrite the whole file through a temp file and rename,
// leaving unrelated parts of the document untouched.
type DocumentStore struct {
	path    string
	docPath string
	opts    loader.ParseOptions
	mu      sync.Mutex
}

// NewDocumentStore creates a store over path. The file need not exist yet.
func NewDocumentStore(path, docPath string) *DocumentStore {
	return &DocumentStore{path: path, docPath: docPath}
}

// SetParseOptions sets the decode options used by Load.
func (s *DocumentStore) SetParseOptions(opts loader.ParseOptions) {
	s.mu.Lock()
	s.opts = opts
	s.mu.Unlock()
}

// Path returns the backing file.
func (s *DocumentStore) Path() string { return s.path }

// DocPath returns the collection path inside the document.
func (s *DocumentStore) DocPath() string { return s.docPath }

// Companions is empty: documents are written in one piece.
func (s *DocumentStore) Companions() []string { return nil }

func (s *DocumentStore) lines() bool {
	return strings.EqualFold(filepath.Ext(s.path), ".jsonl")
}

// Load reads the collection. A missing file is an empty collection.
func (s *DocumentStore) Load(ctx context.Context) ([]model.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *DocumentStore) load() ([]model.Member, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return []model.Member{}, nil
	}
	return loader.LoadFile(s.path, s.docPath, s.opts)
}

// List is Load.
func (s *DocumentStore) List(ctx context.Context) ([]model.Member, error) {
	return s.Load(ctx)
}

// Get returns the member with id or ErrNotFound.
func (s *DocumentStore) Get(ctx context.Context, id string) (model.Member, error) {
	members, err := s.Load(ctx)
	if err != nil {
		return model.Member{}, err
	}
	for _, m := range members {
		if m.ID == id {
			return m, nil
		}
	}
	return model.Member{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Put validates m and inserts or replaces it.
func (s *DocumentStore) Put(ctx context.Context, m model.Member) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode member %s: %w", m.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var data []byte
	if s.lines() {
		data, err = s.putLine(m)
	} else {
		data, err = s.putDocument(m.ID, body)
	}
	if err != nil {
		return err
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return err
	}
	debug.Log("store: wrote member %s to %s", m.ID, s.path)
	return nil
}

func (s *DocumentStore) putLine(m model.Member) ([]byte, error) {
	members, err := s.load()
	if err != nil {
		return nil, err
	}
	replaced := false
	for i := range members {
		if members[i].ID == m.ID {
			members[i] = m
			replaced = true
		}
	}
	if !replaced {
		members = append(members, m)
	}
	sort.SliceStable(members, func(i, j int) bool { return members[i].ID < members[j].ID })

	var buf bytes.Buffer
	for _, rec := range members {
		line, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("encode member %s: %w", rec.ID, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func (s *DocumentStore) putDocument(id string, body []byte) ([]byte, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read document: %w", err)
	}
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})

	var segs []string
	for _, seg := range strings.Split(s.docPath, "/") {
		if seg != "" {
			segs = append(segs, seg)
		}
	}
	doc, err := setIn(bytes.TrimSpace(raw), segs, id, body)
	if err != nil {
		return nil, fmt.Errorf("update document %s: %w", s.path, err)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, doc, "", "  "); err != nil {
		return nil, fmt.Errorf("format document: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// setIn stores val under key in the object reached by segs, creating
// objects along the way.
func setIn(raw json.RawMessage, segs []string, key string, val json.RawMessage) (json.RawMessage, error) {
	obj := make(map[string]json.RawMessage)
	if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("not an object: %w", err)
		}
	}
	if len(segs) == 0 {
		obj[key] = val
	} else {
		child, err := setIn(bytes.TrimSpace(obj[segs[0]]), segs[1:], key, val)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", segs[0], err)
		}
		obj[segs[0]] = child
	}
	return json.Marshal(obj)
}

// Close is a no-op.
func (s *DocumentStore) Close() error { return nil }

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
