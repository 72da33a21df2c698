package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yourorg/netsnap/pkg/types"
)

const fileExt = ".json"

// FileStore keeps one JSON file per snapshot at <dir>/<name>.json.
type FileStore struct {
	dir string
}

// NewFileStore creates the base directory if missing.
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("snapshot dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// file is the on-disk document shape. The name lives in the filename,
// not the document, so renaming a snapshot is a file rename.
type file struct {
	Records []record `json:"records"`
}

type record struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
	Body    string            `json:"body,omitempty"`
}

func (s *FileStore) Save(snap types.Snapshot) error {
	if err := validateName(snap.Name); err != nil {
		return err
	}
	doc := file{Records: make([]record, 0, len(snap.Records))}
	for _, r := range snap.Records {
		doc.Records = append(doc.Records, record(r))
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot %q: %w", snap.Name, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(s.path(snap.Name), data, 0o644); err != nil {
		return fmt.Errorf("write snapshot %q: %w", snap.Name, err)
	}
	return nil
}

func (s *FileStore) Load(name string) (types.Snapshot, error) {
	if err := validateName(name); err != nil {
		return types.Snapshot{}, err
	}
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return types.Snapshot{}, fmt.Errorf("snapshot %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("read snapshot %q: %w", name, err)
	}
	var doc file
	if err := json.Unmarshal(data, &doc); err != nil {
		return types.Snapshot{}, fmt.Errorf("decode snapshot %q: %w", name, err)
	}
	snap := types.Snapshot{Name: name, Records: make([]types.Record, 0, len(doc.Records))}
	for i, r := range doc.Records {
		if r.Method == "" || r.URL == "" {
			return types.Snapshot{}, fmt.Errorf("decode snapshot %q: record %d missing method or url", name, i)
		}
		snap.Records = append(snap.Records, types.Record(r))
	}
	return snap, nil
}

func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), fileExt))
	}
	sort.Strings(names)
	return names, nil
}

func (s *FileStore) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	err := os.Remove(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("snapshot %q: %w", name, ErrNotFound)
	}
	return err
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+fileExt)
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("snapshot name is empty")
	}
	if strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return fmt.Errorf("invalid snapshot name %q", name)
	}
	return nil
}
