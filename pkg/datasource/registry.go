package datasource

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Registry resolves opaque data source references for the engine.
//
// Resolution runs in two stages. A reference that matches a registered
// named source (usually wired up from configuration) wins outright.
// Anything else is treated as a file path, rooted at the registry's data
// directory when relative, and mapped to a reader by extension:
//
//	.csv            comma-separated, header row required
//	.tsv            tab-separated, header row required
//	.json           top-level array of objects
//	.jsonl .ndjson  one JSON object per line
//	.db .sqlite .sqlite3
//	                SQLite file; the table is selected with a URL-style
//	                fragment, e.g. "audit.db#logins"
//
// Registry is safe for concurrent use once built; Register calls during
// concurrent Resolve calls are serialized by an internal lock.
type Registry struct {
	mu      sync.RWMutex
	baseDir string
	named   map[string]Source
	logger  *slog.Logger
}

// NewRegistry creates a registry that roots relative file references at
// baseDir. An empty baseDir leaves relative references relative to the
// working directory.
func NewRegistry(baseDir string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		baseDir: baseDir,
		named:   make(map[string]Source),
		logger:  logger.With(slog.String("component", "datasource")),
	}
}

// Register adds a named source. Named sources shadow file resolution, so
// a rule can say `data_source: hr_users` and stay portable across
// environments. Registering the same name twice replaces the earlier
// source; the replacement is logged.
func (r *Registry) Register(name string, src Source) error {
	if name == "" {
		return fmt.Errorf("source name cannot be empty")
	}
	if src == nil {
		return fmt.Errorf("source %q cannot be nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.named[name]; exists {
		r.logger.Warn("replacing registered data source", slog.String("name", name))
	}
	r.named[name] = src
	return nil
}

// Names returns the registered source names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.named))
	for name := range r.named {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve maps a reference to a source. All failures are *ResolutionError
// so the engine can report the rule as unevaluable without inspecting the
// cause.
func (r *Registry) Resolve(ctx context.Context, ref string) (Source, error) {
	if ref == "" {
		return nil, NewResolutionError(ref, fmt.Errorf("empty data source reference"))
	}

	r.mu.RLock()
	src, ok := r.named[ref]
	r.mu.RUnlock()
	if ok {
		return src, nil
	}

	// Connection strings never resolve as paths. They have to come in as
	// named sources so credentials stay in configuration, not in rules.
	if strings.Contains(ref, "://") {
		return nil, NewResolutionError(ref, fmt.Errorf("connection strings must be registered as named sources"))
	}

	path, fragment := splitFragment(ref)
	if !filepath.IsAbs(path) && r.baseDir != "" {
		path = filepath.Join(r.baseDir, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, NewResolutionError(ref, err)
	}
	if info.IsDir() {
		return nil, NewResolutionError(ref, fmt.Errorf("%s is a directory, not a data file", path))
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv":
		if fragment != "" {
			return nil, NewResolutionError(ref, fmt.Errorf("fragment %q is only valid for sqlite references", fragment))
		}
		return NewCSVFile(path, ','), nil
	case ".tsv":
		if fragment != "" {
			return nil, NewResolutionError(ref, fmt.Errorf("fragment %q is only valid for sqlite references", fragment))
		}
		return NewCSVFile(path, '\t'), nil
	case ".json":
		if fragment != "" {
			return nil, NewResolutionError(ref, fmt.Errorf("fragment %q is only valid for sqlite references", fragment))
		}
		return NewJSONFile(path), nil
	case ".jsonl", ".ndjson":
		if fragment != "" {
			return nil, NewResolutionError(ref, fmt.Errorf("fragment %q is only valid for sqlite references", fragment))
		}
		return NewJSONLines(path), nil
	case ".db", ".sqlite", ".sqlite3":
		if fragment == "" {
			return nil, NewResolutionError(ref, fmt.Errorf("sqlite reference needs a table fragment, e.g. %s#tablename", filepath.Base(path)))
		}
		src, err := NewSQLiteTable(path, fragment)
		if err != nil {
			return nil, NewResolutionError(ref, err)
		}
		return src, nil
	default:
		return nil, NewResolutionError(ref, fmt.Errorf("unsupported data source extension %q", ext))
	}
}

// splitFragment splits "path#fragment" at the last '#'. SQLite file names
// containing '#' are not supported; the fragment always wins.
func splitFragment(ref string) (path, fragment string) {
	if i := strings.LastIndex(ref, "#"); i >= 0 {
		return ref[:i], ref[i+1:]
	}
	return ref, ""
}
