package fixture

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"go.yaml.in/yaml/v3"

	"github.com/kbukum/modelfixture/errors"
)

// Source produces the entries a fixture loads, in load order.
type Source interface {
	Entries(ctx context.Context) ([]Entry, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]Entry, error)

// Entries calls f.
func (f SourceFunc) Entries(ctx context.Context) ([]Entry, error) {
	return f(ctx)
}

// StaticSource is an in-memory list of entries.
type StaticSource []Entry

// Entries returns a copy of the entries; rows are cloned so loading never
// mutates the declaration.
func (s StaticSource) Entries(_ context.Context) ([]Entry, error) {
	out := make([]Entry, len(s))
	for i, e := range s {
		out[i] = Entry{Alias: e.Alias, Row: e.Row.Clone()}
	}
	return out, nil
}

// Rows declares aliased rows in load order.
func Rows(entries ...Entry) StaticSource {
	return StaticSource(entries)
}

// Sequence declares rows aliased by their index: "0", "1", ...
func Sequence(rows ...Row) StaticSource {
	out := make(StaticSource, len(rows))
	for i, row := range rows {
		out[i] = Entry{Alias: strconv.Itoa(i), Row: row}
	}
	return out
}

// FileSource reads entries from a YAML or JSON file. A top-level mapping
// yields its keys as aliases in document order; a top-level sequence yields
// index aliases.
//
//	admin:
//	  name: Alice
//	guest:
//	  name: Bob
type FileSource struct {
	Path string
}

// NewFileSource returns a source reading path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Entries reads and decodes the file.
func (s *FileSource) Entries(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, errors.InvalidConfigurationf("cannot read fixture file %s", s.Path).WithCause(err)
	}
	entries, err := DecodeEntries(content)
	if err != nil {
		return nil, fmt.Errorf("fixture file %s: %w", s.Path, err)
	}
	return entries, nil
}

// DecodeEntries decodes YAML (or JSON, which is valid YAML) fixture data.
func DecodeEntries(content []byte) ([]Entry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, errors.InvalidInput("content", "not valid YAML or JSON").WithCause(err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.MappingNode:
		entries := make([]Entry, 0, len(root.Content)/2)
		for i := 0; i+1 < len(root.Content); i += 2 {
			alias := root.Content[i].Value
			row, err := decodeRow(root.Content[i+1], alias)
			if err != nil {
				return nil, err
			}
			entries = append(entries, Entry{Alias: alias, Row: row})
		}
		return entries, nil
	case yaml.SequenceNode:
		entries := make([]Entry, 0, len(root.Content))
		for i, node := range root.Content {
			alias := strconv.Itoa(i)
			row, err := decodeRow(node, alias)
			if err != nil {
				return nil, err
			}
			entries = append(entries, Entry{Alias: alias, Row: row})
		}
		return entries, nil
	case yaml.ScalarNode:
		if root.Tag == "!!null" {
			return nil, nil
		}
	}
	return nil, errors.InvalidInput("content", fmt.Sprintf("line %d: expected a mapping or a sequence of rows", root.Line))
}

func decodeRow(node *yaml.Node, alias string) (Row, error) {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	row := Row{}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return row, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, errors.InvalidInput(alias, fmt.Sprintf("line %d: row must be a mapping", node.Line))
	}
	if err := node.Decode(&row); err != nil {
		return nil, errors.InvalidInput(alias, "cannot decode row").WithCause(err)
	}
	return row, nil
}
