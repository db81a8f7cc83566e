package rules

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"corvid-labs/vigil/pkg/vex"
)

// Set is the outcome of loading a path: the rules in definition order
// plus any inline tests the files carried.
type Set struct {
	Rules []*Rule
	Tests []*Test
}

// yamlRule is the intermediate structure rule mappings decode into.
type yamlRule struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Severity    string   `yaml:"severity"`
	Condition   string   `yaml:"condition"`
	Filter      string   `yaml:"filter"`
	DataSource  string   `yaml:"data_source"`
	Enabled     *bool    `yaml:"enabled"` // pointer to distinguish unset vs false
	Tags        []string `yaml:"tags"`
}

// yamlFile is the wrapper shape: rules plus optional file-level tests.
// Rules stay as raw nodes so each keeps its line number.
type yamlFile struct {
	Rules []yaml.Node `yaml:"rules"`
	Tests []yamlTest  `yaml:"tests"`
}

type yamlTest struct {
	Name string                 `yaml:"name"`
	Rule string                 `yaml:"rule"`
	Row  map[string]interface{} `yaml:"row"`
	Want string                 `yaml:"want"`
}

// Loader reads YAML rule files.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a rule loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger.With(slog.String("component", "rules"))}
}

// LoadPath loads rules from a file or from every .yaml/.yml file in a
// directory.
func (l *Loader) LoadPath(path string) (*Set, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("rule source: %w", err)
	}
	if info.IsDir() {
		return l.LoadDir(path)
	}
	return l.LoadFile(path)
}

// LoadFile loads one rule file. Malformed YAML is an error; individual
// rules that fail to parse still load with LoadErr set.
func (l *Loader) LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule file: %w", err)
	}

	set, err := parseRuleBytes(data, path)
	if err != nil {
		return nil, err
	}

	l.logger.Debug("loaded rule file",
		slog.String("path", path),
		slog.Int("rules", len(set.Rules)),
		slog.Int("tests", len(set.Tests)),
	)
	return set, nil
}

// LoadDir loads every rule file in a directory, in lexical file order so
// definition order is stable. Files that fail to parse are logged and
// skipped; the remaining files still load.
func (l *Loader) LoadDir(dir string) (*Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read rule directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	combined := &Set{}
	for _, name := range names {
		path := filepath.Join(dir, name)
		set, err := l.LoadFile(path)
		if err != nil {
			l.logger.Warn("skipping unparseable rule file",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			continue
		}
		combined.Rules = append(combined.Rules, set.Rules...)
		combined.Tests = append(combined.Tests, set.Tests...)
	}

	l.logger.Info("loaded rules",
		slog.String("dir", dir),
		slog.Int("files", len(names)),
		slog.Int("rules", len(combined.Rules)),
	)
	return combined, nil
}

// parseRuleBytes handles the three accepted file shapes: a mapping with a
// rules list, a bare list, or a single rule mapping.
func parseRuleBytes(data []byte, path string) (*Set, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return &Set{}, nil
	}

	doc := root.Content[0]
	switch doc.Kind {
	case yaml.SequenceNode:
		set := &Set{}
		for i := range doc.Content {
			set.Rules = append(set.Rules, decodeRule(doc.Content[i], path))
		}
		return set, nil

	case yaml.MappingNode:
		if !hasMappingKey(doc, "rules") {
			// A single rule written at the top level.
			return &Set{Rules: []*Rule{decodeRule(doc, path)}}, nil
		}

		var file yamlFile
		if err := doc.Decode(&file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}

		set := &Set{}
		for i := range file.Rules {
			set.Rules = append(set.Rules, decodeRule(&file.Rules[i], path))
		}
		for _, yt := range file.Tests {
			set.Tests = append(set.Tests, decodeTest(yt, path))
		}
		return set, nil

	default:
		return nil, fmt.Errorf("parse %s: top-level value must be a mapping or a list", path)
	}
}

// decodeRule turns one YAML node into a Rule. Problems with the rule are
// recorded in LoadErr rather than failing the file.
func decodeRule(node *yaml.Node, path string) *Rule {
	rule := &Rule{
		Severity:   SeverityMedium,
		Enabled:    true,
		SourceFile: path,
		Line:       node.Line,
		CreatedAt:  time.Now().UTC(),
	}

	var yr yamlRule
	if err := node.Decode(&yr); err != nil {
		rule.LoadErr = err
		return rule
	}

	rule.ID = yr.ID
	rule.Name = yr.Name
	rule.Description = yr.Description
	rule.Condition = yr.Condition
	rule.Filter = yr.Filter
	rule.DataSource = yr.DataSource
	rule.Tags = yr.Tags
	if yr.Enabled != nil {
		rule.Enabled = *yr.Enabled
	}

	if yr.Severity != "" {
		sev, err := ParseSeverity(yr.Severity)
		if err != nil {
			rule.LoadErr = err
			return rule
		}
		rule.Severity = sev
	}

	if errs := rule.Validate(); len(errs) > 0 {
		rule.LoadErr = fmt.Errorf("%s", strings.Join(errs, "; "))
		return rule
	}

	cond, err := vex.Parse(yr.Condition)
	if err != nil {
		rule.LoadErr = fmt.Errorf("condition: %w", err)
		return rule
	}
	rule.CondExpr = cond

	if yr.Filter != "" {
		filter, err := vex.Parse(yr.Filter)
		if err != nil {
			rule.LoadErr = fmt.Errorf("filter: %w", err)
			return rule
		}
		rule.FilterExpr = filter
	}

	return rule
}

func decodeTest(yt yamlTest, path string) *Test {
	return &Test{
		Name:       yt.Name,
		Rule:       yt.Rule,
		Row:        yt.Row,
		Want:       Expectation(strings.ToLower(strings.TrimSpace(yt.Want))),
		SourceFile: path,
	}
}

// hasMappingKey reports whether a mapping node has the given top-level key.
func hasMappingKey(node *yaml.Node, key string) bool {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return true
		}
	}
	return false
}
