// Package paths expands user-supplied file locations. A leading ~ is
// replaced with the home directory, and named prefixes such as "data:"
// map onto configured directories.
package paths

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ExpandHome replaces a leading ~ with the user's home directory. Paths
// without one, or "~user" forms, are returned unchanged.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") || strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return filepath.Join(home, path[2:])
	}
	return path
}

// Resolver maps named prefixes to directories. A nil *Resolver only
// expands ~.
type Resolver struct {
	dirs   map[string]string // "data:" -> "/var/lib/promptdesk"
	sorted []string          // longest first
}

// New builds a Resolver from prefix names (without the colon) to
// directories. Directories have ~ expanded. Returns nil for an empty
// map.
func New(dirs map[string]string) *Resolver {
	if len(dirs) == 0 {
		return nil
	}
	r := &Resolver{dirs: make(map[string]string, len(dirs))}
	for name, dir := range dirs {
		key := strings.TrimSuffix(name, ":") + ":"
		r.dirs[key] = ExpandHome(dir)
		r.sorted = append(r.sorted, key)
	}
	sort.Slice(r.sorted, func(i, j int) bool {
		return len(r.sorted[i]) > len(r.sorted[j])
	})
	return r
}

// Resolve returns path with a matching prefix replaced by its directory
// and any leading ~ expanded. A bare prefix resolves to the directory
// itself.
func (r *Resolver) Resolve(path string) string {
	if r != nil {
		for _, prefix := range r.sorted {
			if rel, ok := strings.CutPrefix(path, prefix); ok {
				if rel == "" {
					return r.dirs[prefix]
				}
				return filepath.Join(r.dirs[prefix], rel)
			}
		}
	}
	return ExpandHome(path)
}
