package datasource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/famtree/pkg/loader"
	"github.com/vanderheijden86/famtree/pkg/model"
)

// DefaultFileName is used when the data directory holds no data yet.
const DefaultFileName = "family.json"

// Resolve picks the data file. An explicit path is used as given (it may
// not exist yet). Otherwise the data directory is searched and the
// freshest valid source wins; an empty directory resolves to
// DefaultFileName inside it so the first write creates it.
func Resolve(explicit, repoPath, docPath string) (DataSource, error) {
	if explicit != "" {
		src := DataSource{Path: explicit}
		if typ, prio, ok := Classify(filepath.Base(explicit)); ok {
			src.Type, src.Priority = typ, prio
		} else {
			src.Type, src.Priority = SourceTypeDocument, PriorityDocument
		}
		if info, err := os.Stat(explicit); err == nil {
			src.ModTime, src.Size = info.ModTime(), info.Size()
		}
		src.Valid = true
		return src, nil
	}

	opts := DiscoveryOptions{
		RepoPath:               repoPath,
		DocPath:                docPath,
		ValidateAfterDiscovery: true,
	}
	sources, err := DiscoverSources(opts)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return DataSource{}, err
	}
	if best, err := SelectBestSource(sources); err == nil {
		return best, nil
	}

	dir, err := loader.GetDataDir(repoPath)
	if err != nil {
		return DataSource{}, err
	}
	return DataSource{
		Type:     SourceTypeDocument,
		Path:     filepath.Join(dir, DefaultFileName),
		Priority: PriorityDocument,
		Valid:    true,
	}, nil
}

// LoadMembers resolves the source and reads it once.
func LoadMembers(ctx context.Context, explicit, repoPath, docPath string) ([]model.Member, DataSource, error) {
	src, err := Resolve(explicit, repoPath, docPath)
	if err != nil {
		return nil, DataSource{}, err
	}
	members, err := LoadFromSource(ctx, src, docPath)
	if err != nil {
		return nil, src, err
	}
	return members, src, nil
}

// LoadFromSource reads all members of one source.
func LoadFromSource(ctx context.Context, src DataSource, docPath string) ([]model.Member, error) {
	s, err := src.Open(docPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s source %s: %w", src.Type, src.Path, err)
	}
	defer s.Close()
	return s.Load(ctx)
}
