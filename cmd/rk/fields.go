package main

import (
	"fmt"
	"strings"

	"github.com/jacksmith/rk/internal/cli"
	"github.com/jacksmith/rk/internal/model"
)

// parseAssignments turns field=value arguments into a field map. When
// allowBare is set, a first argument without "=" is a value for the
// schema's first field, so `rk add "Buy milk"` works.
func parseAssignments(s *model.Schema, args []string, allowBare bool) (map[string]string, error) {
	fields := make(map[string]string, len(args))
	for i, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			if !allowBare || i > 0 || len(s.Fields) == 0 {
				return nil, fmt.Errorf("expected field=value, got %q", arg)
			}
			name, value = s.Fields[0].Name, arg
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			return nil, fmt.Errorf("missing field name in %q", arg)
		}
		if _, dup := fields[name]; dup {
			return nil, fmt.Errorf("field %s given more than once", name)
		}
		fields[name] = value
	}
	return fields, nil
}

// resolveID expands a unique ID prefix against the session's records.
func (s *session) resolveID(prefix string) (string, error) {
	return cli.ResolveID(s.kind(), prefix, s.repo.IDs())
}

// changedFields returns the entries of edited that differ from before.
func changedFields(before, edited map[string]string) map[string]string {
	changes := make(map[string]string)
	for name, v := range edited {
		if strings.TrimSpace(v) != before[name] {
			changes[name] = v
		}
	}
	return changes
}

// fieldLabel renders a field name for display, e.g. "due_date" as "Due date".
func fieldLabel(name string) string {
	label := strings.ReplaceAll(name, "_", " ")
	if label == "" {
		return label
	}
	return strings.ToUpper(label[:1]) + label[1:]
}
