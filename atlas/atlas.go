// Package atlas resolves brain-region ids to structure acronyms and names.
//
// A Table is loaded from an Allen structure file. Both the nested
// structure-graph layout ({"msg":[{"id":..,"children":[..]}]}) and a flat list
// of structures are accepted, as JSON or YAML.
package atlas

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/nmcp/codec"
)

// NotFound is the acronym and name reported for unresolvable regions.
const NotFound = "none"

// Structure is one atlas structure.
type Structure struct {
	ID       int64       `json:"id" yaml:"id"`
	Acronym  string      `json:"acronym" yaml:"acronym"`
	Name     string      `json:"name" yaml:"name"`
	Children []Structure `json:"children,omitempty" yaml:"children,omitempty"`
}

// Unresolved is the structure used for absent or unknown region ids.
var Unresolved = Structure{Acronym: NotFound, Name: NotFound}

// Resolver looks up a region id.
type Resolver interface {
	Resolve(id int64) (Structure, bool)
}

// Lookup resolves id with r, falling back to Unresolved. A nil resolver
// resolves nothing.
func Lookup(r Resolver, id int64) Structure {
	if r == nil {
		return Unresolved
	}
	if s, ok := r.Resolve(id); ok {
		return s
	}
	return Unresolved
}

// Table is an in-memory Resolver. It is safe for concurrent reads.
type Table struct {
	byID map[int64]Structure
}

// NewTable creates a table from structures. Children are flattened.
func NewTable(structures ...Structure) *Table {
	t := &Table{byID: make(map[int64]Structure, len(structures))}
	for _, s := range structures {
		t.add(s)
	}
	return t
}

func (t *Table) add(s Structure) {
	for _, c := range s.Children {
		t.add(c)
	}
	s.Children = nil
	t.byID[s.ID] = s
}

// Resolve implements Resolver.
func (t *Table) Resolve(id int64) (Structure, bool) {
	if t == nil {
		return Structure{}, false
	}
	s, ok := t.byID[id]
	return s, ok
}

// Len returns the number of structures.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byID)
}

type graphFile struct {
	Msg []Structure `json:"msg" yaml:"msg"`
}

// Parse decodes a structure file. format is "json" or "yaml".
func Parse(data []byte, format string) (*Table, error) {
	var unmarshal func([]byte, any) error
	switch format {
	case "json":
		unmarshal = codec.Default.Unmarshal
	case "yaml":
		unmarshal = yaml.Unmarshal
	default:
		return nil, fmt.Errorf("atlas: unsupported format %q", format)
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "-") {
		var list []Structure
		if err := unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("atlas: decode structure list: %w", err)
		}
		return NewTable(list...), nil
	}

	var g graphFile
	if err := unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("atlas: decode structure graph: %w", err)
	}
	return NewTable(g.Msg...), nil
}

// Load reads a structure file, choosing the format by extension.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("atlas: %w", err)
	}

	format := "json"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}

	return Parse(data, format)
}
