package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/jacksmith/rk/internal/model"
	"gopkg.in/yaml.v3"
)

// EditInEditor opens content in $EDITOR and returns modified content.
// The suffix is used for the temporary file (e.g., ".yaml" for syntax highlighting).
// Returns error if EDITOR/VISUAL not set or editor exits non-zero.
func EditInEditor(content []byte, suffix string) ([]byte, error) {
	editor := getEditor()
	if editor == "" {
		return nil, fmt.Errorf("EDITOR not set. Set it or use field=value arguments instead of -i")
	}

	// Create temp file with suffix for syntax highlighting
	tmpFile, err := os.CreateTemp("", "rk-*"+suffix)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	// Write content to temp file
	if _, err := tmpFile.Write(content); err != nil {
		tmpFile.Close()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	// Run editor
	if err := runEditor(editor, tmpPath); err != nil {
		return nil, err
	}

	// Read modified content
	result, err := os.ReadFile(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read edited file: %w", err)
	}

	return result, nil
}

// getEditor returns the editor command from environment.
// Checks VISUAL first (for graphical editors), then EDITOR.
func getEditor() string {
	if editor := os.Getenv("VISUAL"); editor != "" {
		return editor
	}
	return os.Getenv("EDITOR")
}

// runEditor executes the editor with the given file path.
func runEditor(editor, path string) error {
	// Split editor into command and args (e.g., "code --wait")
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("empty editor command")
	}

	args := append(parts[1:], path)
	cmd := exec.Command(parts[0], args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return fmt.Errorf("editor exited with status %d", exitErr.ExitCode())
		}
		return fmt.Errorf("failed to run editor: %w", err)
	}

	return nil
}

// RecordDocument renders the editable fields of r as a YAML mapping in schema
// order, preceded by a comment header. Every field is present so empty ones
// can be filled in.
func RecordDocument(s *model.Schema, r model.Record) ([]byte, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range s.Fields {
		v := r.Get(f.Name)
		val := &yaml.Node{Kind: yaml.ScalarNode, Value: v, Tag: "!!str"}
		if strings.Contains(v, "\n") {
			val.Style = yaml.LiteralStyle
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: f.Name}, val)
	}

	body, err := yaml.Marshal(node)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", s.Kind, err)
	}

	header := fmt.Sprintf("# Editing %s %s\n# Save and close editor to apply changes. Exit without saving to cancel.\n\n", s.Kind, r.ID)
	return append([]byte(header), body...), nil
}

// ParseRecordDocument reads an edited document back into a field map.
// Null values become "". Keys the schema does not declare are rejected.
func ParseRecordDocument(s *model.Schema, data []byte) (map[string]string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, errors.New("document is empty")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("invalid YAML: expected a mapping of field names to values")
	}

	fields := make(map[string]string, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("invalid YAML: line %d: field %q is not a scalar", v.Line, k.Value)
		}
		if v.Tag == "!!null" {
			fields[k.Value] = ""
			continue
		}
		fields[k.Value] = v.Value
	}
	if err := s.CheckNames(fields); err != nil {
		return nil, err
	}
	return fields, nil
}
