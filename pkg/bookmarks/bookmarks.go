package bookmarks

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Package bookmarks loads named URLs (YAML/JSON) that can be submitted by id.

// Bookmark is a named URL declared in the bookmarks file.
type Bookmark struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// configFile represents the structure of the bookmarks file.
type configFile struct {
	Bookmarks []Bookmark `json:"bookmarks" yaml:"bookmarks"`
}

// Registry holds the loaded bookmarks in file order.
type Registry struct {
	mu        sync.RWMutex
	bookmarks []Bookmark
	idx       map[string]Bookmark
}

// LoadRegistry loads bookmarks from a YAML/JSON file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("bookmarks file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bookmarks file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read bookmarks file: %w", err)
	}

	parsed, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return NewRegistry(parsed.Bookmarks)
}

// NewRegistry validates entries and indexes them by id.
func NewRegistry(entries []Bookmark) (*Registry, error) {
	reg := &Registry{
		bookmarks: make([]Bookmark, 0, len(entries)),
		idx:       make(map[string]Bookmark, len(entries)),
	}
	for i := range entries {
		bm := sanitizeBookmark(entries[i])
		if err := validateBookmark(bm); err != nil {
			return nil, fmt.Errorf("bookmarks[%d]: %w", i, err)
		}
		key := strings.ToLower(bm.ID)
		if _, exists := reg.idx[key]; exists {
			return nil, fmt.Errorf("duplicate bookmark id %q", bm.ID)
		}
		reg.bookmarks = append(reg.bookmarks, bm)
		reg.idx[key] = bm
	}
	return reg, nil
}

type unmarshalFn func([]byte, any) error

// parseRegistry attempts to decode the bookmarks file content.
func parseRegistry(data []byte, ext string) (configFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var cfg configFile
		if err := d.fn(data, &cfg); err == nil {
			return cfg, nil
		}
	}

	return configFile{}, errors.New("bookmarks file format not recognized (expected YAML or JSON)")
}

func sanitizeBookmark(bm Bookmark) Bookmark {
	bm.ID = strings.TrimPrefix(strings.TrimSpace(bm.ID), "@")
	bm.Name = strings.TrimSpace(bm.Name)
	bm.URL = strings.TrimSpace(bm.URL)
	if bm.Name == "" {
		bm.Name = bm.ID
	}
	return bm
}

func validateBookmark(bm Bookmark) error {
	if bm.ID == "" {
		return errors.New("id is required")
	}
	if strings.ContainsAny(bm.ID, " \t") {
		return fmt.Errorf("id %q must not contain whitespace", bm.ID)
	}
	if bm.URL == "" {
		return fmt.Errorf("url is required for bookmark %q", bm.ID)
	}
	return nil
}

// ByID returns the bookmark with the given id (case-insensitive).
func (r *Registry) ByID(id string) (Bookmark, bool) {
	if r == nil {
		return Bookmark{}, false
	}
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return Bookmark{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	bm, ok := r.idx[id]
	return bm, ok
}

// All returns a copy of every bookmark in file order.
func (r *Registry) All() []Bookmark {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Bookmark, len(r.bookmarks))
	copy(out, r.bookmarks)
	return out
}
