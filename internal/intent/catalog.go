/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package intent reads a free-text set description and infers the genres,
// energy arc and duration the DJ is asking for.
package intent

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/friendsincode/deepcrate/internal/scoring"
)

//go:embed genres.yaml
var defaultTable []byte

// ErrInvalidCatalog is returned when a genre table fails validation.
var ErrInvalidCatalog = errors.New("invalid genre catalog")

// BPMRange is a closed tempo interval.
type BPMRange struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Contains reports whether bpm, or its double or half, falls in the range.
func (r BPMRange) Contains(bpm float64) bool {
	return scoring.InRange(bpm, r.Min, r.Max)
}

func (r BPMRange) covers(inner BPMRange) bool {
	return r.Min <= inner.Min && r.Max >= inner.Max
}

// Profile describes one genre.
type Profile struct {
	Name    string   `yaml:"name" json:"name"`
	Family  string   `yaml:"family" json:"family"`
	Aliases []string `yaml:"aliases" json:"aliases,omitempty"`
	Strict  BPMRange `yaml:"strict" json:"strict"`
	Relaxed BPMRange `yaml:"relaxed" json:"relaxed"`
}

// JargonEntry maps DJ shorthand to the phrase it stands for.
type JargonEntry struct {
	Term      string `yaml:"term" json:"term"`
	ExpandsTo string `yaml:"expands_to" json:"expands_to"`
}

type catalogFile struct {
	Jargon []JargonEntry `yaml:"jargon"`
	Genres []Profile     `yaml:"genres"`
}

// Catalog is an immutable genre table. It is safe for concurrent use.
type Catalog struct {
	profiles []Profile
	jargon   []JargonEntry
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// DefaultCatalog returns the built-in genre table, parsed on first use.
func DefaultCatalog() *Catalog {
	defaultOnce.Do(func() {
		c, err := LoadCatalog(bytes.NewReader(defaultTable))
		if err != nil {
			panic(fmt.Sprintf("intent: built-in genre table: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// LoadCatalog parses and validates a YAML genre table.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var file catalogFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidCatalog, err)
	}

	c := &Catalog{}
	seen := make(map[string]bool, len(file.Genres))
	for i, p := range file.Genres {
		p.Name = Normalize(p.Name)
		if p.Name == "" {
			return nil, fmt.Errorf("%w: genre %d has no name", ErrInvalidCatalog, i)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("%w: duplicate genre %q", ErrInvalidCatalog, p.Name)
		}
		seen[p.Name] = true
		if p.Strict.Min <= 0 || p.Strict.Min > p.Strict.Max {
			return nil, fmt.Errorf("%w: %s: bad strict range %v-%v", ErrInvalidCatalog, p.Name, p.Strict.Min, p.Strict.Max)
		}
		if p.Relaxed.Min > p.Relaxed.Max || !p.Relaxed.covers(p.Strict) {
			return nil, fmt.Errorf("%w: %s: relaxed range must contain strict range", ErrInvalidCatalog, p.Name)
		}

		aliases := make([]string, 0, len(p.Aliases))
		for _, a := range p.Aliases {
			if a = Normalize(a); a != "" && a != p.Name {
				aliases = append(aliases, a)
			}
		}
		p.Aliases = aliases
		c.profiles = append(c.profiles, p)
	}

	for i, j := range file.Jargon {
		j.Term = Normalize(j.Term)
		j.ExpandsTo = Normalize(j.ExpandsTo)
		if j.Term == "" || j.ExpandsTo == "" {
			return nil, fmt.Errorf("%w: jargon entry %d is incomplete", ErrInvalidCatalog, i)
		}
		c.jargon = append(c.jargon, j)
	}

	return c, nil
}

// LoadCatalogFile reads a genre table from path. An empty path yields the
// built-in table.
func LoadCatalogFile(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open genre catalog: %w", err)
	}
	defer f.Close()
	return LoadCatalog(f)
}

// Profiles returns a copy of the table in file order.
func (c *Catalog) Profiles() []Profile {
	out := make([]Profile, len(c.profiles))
	copy(out, c.profiles)
	return out
}

// Profile looks a genre up by name or alias.
func (c *Catalog) Profile(name string) (Profile, bool) {
	name = Normalize(name)
	for _, p := range c.profiles {
		if p.Name == name {
			return p, true
		}
	}
	for _, p := range c.profiles {
		for _, a := range p.Aliases {
			if a == name {
				return p, true
			}
		}
	}
	return Profile{}, false
}
