package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/micromouse/mouse/service"
)

const fileExt = ".json"

// FileStore writes one JSON document per session into a directory
type FileStore struct {
	dir string
}

// NewFileStore creates dir when it does not exist yet
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create sessions directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (st *FileStore) file(id string) string {
	return filepath.Join(st.dir, id+fileExt)
}

func (st *FileStore) Put(s *service.Session) error {
	data, err := marshalSession(s)
	if err != nil {
		return err
	}

	// rename over the old document so readers never see a partial write
	tmp := st.file(s.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write session %s: %w", s.ID, err)
	}
	if err := os.Rename(tmp, st.file(s.ID)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write session %s: %w", s.ID, err)
	}
	return nil
}

func (st *FileStore) Fetch(id string) (*service.Session, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(st.file(id))
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, ErrSessionNotFound
	case err != nil:
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}
	return unmarshalSession(data)
}

func (st *FileStore) Remove(id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	err := os.Remove(st.file(id))
	if errors.Is(err, os.ErrNotExist) {
		return ErrSessionNotFound
	}
	return err
}

func (st *FileStore) IDs() ([]string, error) {
	var ids []string
	err := filepath.WalkDir(st.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != st.dir {
				return filepath.SkipDir
			}
			return nil
		}
		if name := d.Name(); strings.HasSuffix(name, fileExt) {
			ids = append(ids, strings.TrimSuffix(name, fileExt))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return ids, nil
}

func (st *FileStore) Has(id string) bool {
	if checkID(id) != nil {
		return false
	}
	info, err := os.Stat(st.file(id))
	return err == nil && info.Mode().IsRegular()
}
