package model

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotSequence is returned when a record document is not a sequence of
// mappings at the top level.
var ErrNotSequence = errors.New("document is not a sequence")

// MarshalRecordsYAML encodes records as a YAML sequence of mappings.
// Columns are emitted in schema order.
// Empty optional fields are omitted.
// Multi-line strings use block scalar style.
func MarshalRecordsYAML(s *Schema, records []Record) ([]byte, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, r := range records {
		seq.Content = append(seq.Content, buildRecordNode(s, r))
	}

	data, err := yaml.Marshal(seq)
	if err != nil {
		return nil, fmt.Errorf("failed to encode records: %w", err)
	}
	return data, nil
}

// UnmarshalRecordsYAML decodes a sequence of mappings into rows.
// A document that is empty yields no rows. Entries that are not flat
// mappings are reported through skip and left out.
func UnmarshalRecordsYAML(data []byte, skip func(index int, err error)) ([]Row, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse records: %w", err)
	}
	if doc.Kind == 0 {
		return nil, nil
	}

	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil, nil
		}
		root = root.Content[0]
	}
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return nil, nil
	}
	if root.Kind != yaml.SequenceNode {
		return nil, ErrNotSequence
	}

	rows := make([]Row, 0, len(root.Content))
	for i, item := range root.Content {
		row, err := rowFromNode(item)
		if err != nil {
			if skip != nil {
				skip(i, err)
			}
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func rowFromNode(n *yaml.Node) (Row, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping", n.Line)
	}
	row := make(Row, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: field %q is not a scalar", v.Line, k.Value)
		}
		if v.Tag == "!!null" {
			continue
		}
		row[k.Value] = v.Value
	}
	return row, nil
}

// buildRecordNode creates a yaml.Node for a Record.
func buildRecordNode(s *Schema, r Record) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}

	addStringField(node, ColumnID, r.ID)
	for _, f := range s.Fields {
		v := r.Fields[f.Name]
		if v == "" && !f.NotNull() {
			continue
		}
		if f.Kind == KindText {
			addMultilineStringField(node, f.Name, v)
		} else {
			addStringField(node, f.Name, v)
		}
	}
	addStringField(node, ColumnCreatedAt, FormatTime(r.Created))
	addStringField(node, ColumnUpdatedAt, FormatTime(r.Updated))

	return node
}

// Helper functions for building yaml.Node

func addStringField(node *yaml.Node, key, value string) {
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Value: value, Tag: "!!str"},
	)
}

func addMultilineStringField(node *yaml.Node, key, value string) {
	// Use literal block scalar style for multi-line strings
	var style yaml.Style
	if containsNewline(value) {
		style = yaml.LiteralStyle
	}
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Value: value, Style: style, Tag: "!!str"},
	)
}

func containsNewline(s string) bool {
	return strings.Contains(s, "\n")
}
