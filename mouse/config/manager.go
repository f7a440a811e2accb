package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/micromouse/mouse/engine"
	"github.com/wricardo/micromouse/mouse/service"
)

var (
	ErrConfigNotFound = service.ErrConfigNotFound
	ErrInvalidConfig  = engine.ErrInvalidConfig
)

// DefaultName is the maze used when a session does not ask for one
const DefaultName = "classic"

const ext = ".json"

// Manager serves the maze files of one directory. Valid mazes are cached
// by id, the file name without .json.
type Manager struct {
	dir string

	mu       sync.RWMutex
	cache    map[string]*engine.MazeConfig
	fallback *engine.MazeConfig
}

// NewManager scans dir and picks the default maze. A directory without any
// valid maze still works; its default is engine.DefaultMazeConfig.
func NewManager(dir string) (*Manager, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("config directory does not exist: %s", dir)
	}

	m := &Manager{dir: dir}
	m.RefreshCache()
	return m, nil
}

// mazeID strips an optional .json suffix and rejects ids that would leave dir
func mazeID(name string) (string, bool) {
	id := strings.TrimSuffix(name, ext)
	if id == "" || strings.HasPrefix(id, ".") || strings.ContainsAny(id, `/\`) {
		return "", false
	}
	return id, true
}

func (m *Manager) file(id string) string {
	return filepath.Join(m.dir, id+ext)
}

func (m *Manager) cached(id string) (*engine.MazeConfig, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.cache[id]
	return c, ok
}

// LoadConfig returns the maze with the given id, reading it from disk on a
// cache miss
func (m *Manager) LoadConfig(name string) (*engine.MazeConfig, error) {
	id, ok := mazeID(name)
	if !ok {
		return nil, ErrConfigNotFound
	}
	if c, ok := m.cached(id); ok {
		return c, nil
	}

	c, err := engine.LoadMazeConfig(m.file(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrConfigNotFound
	}
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.cache[id]; ok {
		return existing, nil
	}
	m.cache[id] = c
	return c, nil
}

// ids lists the maze files in the directory, sorted
func (m *Manager) ids() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		if id, ok := mazeID(e.Name()); ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// ListConfigs summarizes every valid maze, sorted by id. Invalid files are
// logged and left out.
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	ids, err := m.ids()
	if err != nil {
		return nil, err
	}

	infos := make([]*service.ConfigInfo, 0, len(ids))
	for _, id := range ids {
		c, err := m.LoadConfig(id)
		if err != nil {
			log.Printf("Warning: skipping maze %s%s: %v", id, ext, err)
			continue
		}
		infos = append(infos, describe(id, c))
	}
	return infos, nil
}

func describe(id string, c *engine.MazeConfig) *service.ConfigInfo {
	target := c.Target
	if target == "" {
		target = "center"
	}
	info := &service.ConfigInfo{
		Filename:    id + ext,
		ConfigID:    id,
		Name:        c.Name,
		Description: c.Description,
		Target:      target,
		ReturnHome:  c.ReturnHome,
	}
	if layout, err := engine.ParseLayout(c.Layout); err == nil {
		info.InteriorWalls = layout.InteriorWalls()
	}
	return info
}

// GetDefault returns the maze sessions get when they name none
func (m *Manager) GetDefault() *engine.MazeConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fallback
}

// SetDefault makes the maze with the given id the default
func (m *Manager) SetDefault(name string) error {
	c, err := m.LoadConfig(name)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.fallback = c
	m.mu.Unlock()
	return nil
}

// RefreshCache forgets every cached maze, rereads the directory and picks
// the default again: classic, else the first valid maze by id, else the
// built-in open field.
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.cache = map[string]*engine.MazeConfig{}
	m.mu.Unlock()

	infos, err := m.ListConfigs()
	if err != nil {
		log.Printf("Warning: %v", err)
	}

	def, err := m.LoadConfig(DefaultName)
	if err != nil && len(infos) > 0 {
		def, err = m.LoadConfig(infos[0].ConfigID)
	}
	if err != nil {
		def = engine.DefaultMazeConfig()
	}

	m.mu.Lock()
	m.fallback = def
	m.mu.Unlock()
}

// SaveConfig validates c and writes it as <name>.json
func (m *Manager) SaveConfig(name string, c *engine.MazeConfig) error {
	id, ok := mazeID(name)
	if !ok {
		return fmt.Errorf("%w: invalid config name %q", ErrInvalidConfig, name)
	}
	if err := engine.ValidateMazeConfig(c); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(m.file(id), append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.cache[id] = c
	m.mu.Unlock()
	return nil
}

// Count returns the number of cached mazes
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cache)
}
