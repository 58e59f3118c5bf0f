package taxonomy

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/forgo/mediacms/api/internal/model"
)

// Format is a seed document encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var (
	// ErrUnsupportedFormat indicates a seed file extension we cannot decode.
	ErrUnsupportedFormat = errors.New("unsupported seed format")

	// ErrMissingID indicates a seed node without an id.
	ErrMissingID = errors.New("seed node has no id")

	// ErrDuplicateID indicates two seed nodes with the same id.
	ErrDuplicateID = errors.New("duplicate seed node id")
)

// Document is a technique seed document. Node ids become technique slugs.
type Document struct {
	Version int         `json:"version" yaml:"version"`
	Tree    []*SeedNode `json:"tree" yaml:"tree"`
}

// SeedNode is one technique in a seed document. Status, Notes and Resources
// may be null in the source and decode to empty values.
type SeedNode struct {
	ID        string           `json:"id" yaml:"id"`
	Title     string           `json:"title" yaml:"title"`
	Status    *string          `json:"status" yaml:"status"`
	Notes     *string          `json:"notes" yaml:"notes"`
	Resources []model.Resource `json:"resources" yaml:"resources"`
	Children  []*SeedNode      `json:"children" yaml:"children"`
}

// FlatNode is a seed node with its parent slug resolved, ready to be stored
type FlatNode struct {
	Slug       string
	ParentSlug string
	Title      string
	Status     string
	Notes      string
	Resources  []model.Resource
}

// FormatForPath picks the decoder for a file by extension
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// LoadFile reads and decodes a seed document from disk
func LoadFile(path string) (*Document, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	doc, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Decode reads a seed document in the given format
func Decode(r io.Reader, format Format) (*Document, error) {
	doc := &Document{}
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(doc); err != nil {
			return nil, fmt.Errorf("failed to decode seed json: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode seed yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return doc, nil
}

// Flatten walks the document in preorder and returns every node with its
// parent slug. Sibling order is preserved.
func Flatten(doc *Document) ([]FlatNode, error) {
	if doc == nil {
		return nil, nil
	}

	var out []FlatNode
	seen := make(map[string]bool)

	var walk func(nodes []*SeedNode, parent string) error
	walk = func(nodes []*SeedNode, parent string) error {
		for _, n := range nodes {
			if n == nil {
				continue
			}
			if n.ID == "" {
				return fmt.Errorf("%w (title %q)", ErrMissingID, n.Title)
			}
			if seen[n.ID] {
				return fmt.Errorf("%w: %s", ErrDuplicateID, n.ID)
			}
			seen[n.ID] = true

			resources := n.Resources
			if resources == nil {
				resources = []model.Resource{}
			}
			out = append(out, FlatNode{
				Slug:       n.ID,
				ParentSlug: parent,
				Title:      n.Title,
				Status:     deref(n.Status),
				Notes:      deref(n.Notes),
				Resources:  resources,
			})
			if err := walk(n.Children, n.ID); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(doc.Tree, ""); err != nil {
		return nil, err
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Encode writes a document in the given format. JSON output is indented.
func Encode(w io.Writer, doc *Document, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// FromTree converts API nodes back into a seed document, dropping media
func FromTree(version int, tree []*model.TechniqueNode) *Document {
	var convert func(nodes []*model.TechniqueNode) []*SeedNode
	convert = func(nodes []*model.TechniqueNode) []*SeedNode {
		out := make([]*SeedNode, 0, len(nodes))
		for _, n := range nodes {
			status, notes := n.Status, n.Notes
			out = append(out, &SeedNode{
				ID:        n.ID,
				Title:     n.Title,
				Status:    &status,
				Notes:     &notes,
				Resources: n.Resources,
				Children:  convert(n.Children),
			})
		}
		return out
	}
	return &Document{Version: version, Tree: convert(tree)}
}
