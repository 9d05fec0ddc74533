package registry

import (
	"bufio"
	"strings"

	"prodclass/pkg/types"
)

// ParseList parses the table printed by the runtime's list command:
//
//	NAME                            ID              SIZE     MODIFIED
//	t-pro-it-2.0-optimized:latest   5a8c1f2d9e01    12 GB    2 days ago
//
// Lines that do not carry at least a name are skipped.
func ParseList(out string) []types.Model {
	var models []types.Model
	s := bufio.NewScanner(strings.NewReader(out))
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		f := strings.Fields(line)
		if strings.EqualFold(f[0], "NAME") {
			continue
		}
		m := types.Model{Name: f[0]}
		if len(f) > 1 {
			m.ID = f[1]
		}
		if len(f) > 3 {
			m.Size = f[2] + " " + f[3]
		}
		if len(f) > 4 {
			m.Modified = strings.Join(f[4:], " ")
		}
		models = append(models, m)
	}
	return models
}

// Contains reports whether name is registered, either exactly or with any tag
// ("name" matches "name:latest").
func Contains(models []types.Model, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	for _, m := range models {
		if m.Name == name {
			return true
		}
		if !strings.Contains(name, ":") {
			if base, _, ok := strings.Cut(m.Name, ":"); ok && base == name {
				return true
			}
		}
	}
	return false
}
