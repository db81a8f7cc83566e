package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"corvid-labs/vigil/pkg/config"
)

// initRuleRepo creates a local Git repository with one committed rule
// file, usable as a clone source.
func initRuleRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}

	commitFile(t, repo, dir, "access.yaml", "- {id: r1, name: R1, condition: a == 1, data_source: d.csv}\n")
	return dir
}

func commitFile(t *testing.T, repo *gogit.Repository, dir, name, content string) {
	t.Helper()

	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	if _, err := worktree.Add(name); err != nil {
		t.Fatalf("failed to add %s: %v", name, err)
	}
	_, err = worktree.Commit("add "+name, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test User",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
}

func testGitConfig(t *testing.T, sourceDir string) *config.GitRulesConfig {
	t.Helper()

	return &config.GitRulesConfig{
		Enabled:    true,
		Repository: sourceDir,
		Branch:     "master",
		Auth:       config.GitAuthConfig{Type: "none"},
		Poll: config.GitPollConfig{
			Interval: 30 * time.Second,
			Timeout:  10 * time.Second,
		},
		Clone: config.GitCloneConfig{
			LocalPath: filepath.Join(t.TempDir(), "clone"),
		},
	}
}

func TestNewRepository(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.GitRulesConfig
		wantErr bool
	}{
		{
			name:    "nil config",
			cfg:     nil,
			wantErr: true,
		},
		{
			name:    "empty repository URL",
			cfg:     &config.GitRulesConfig{Branch: "main"},
			wantErr: true,
		},
		{
			name:    "empty branch",
			cfg:     &config.GitRulesConfig{Repository: "https://example.com/rules.git"},
			wantErr: true,
		},
		{
			name: "bad auth",
			cfg: &config.GitRulesConfig{
				Repository: "https://example.com/rules.git",
				Branch:     "main",
				Auth:       config.GitAuthConfig{Type: "token"},
			},
			wantErr: true,
		},
		{
			name: "valid config",
			cfg: &config.GitRulesConfig{
				Repository: "https://example.com/rules.git",
				Branch:     "main",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, err := NewRepository(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewRepository() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && repo == nil {
				t.Fatal("NewRepository() returned nil repository")
			}
		})
	}
}

func TestCloneAndRuleFiles(t *testing.T) {
	source := initRuleRepo(t)
	repo, err := NewRepository(testGitConfig(t, source))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}

	if err := repo.Clone(context.Background()); err != nil {
		t.Fatalf("Clone() error = %v", err)
	}

	files, err := repo.RuleFiles()
	if err != nil {
		t.Fatalf("RuleFiles() error = %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("RuleFiles() returned %d files, want 1: %v", len(files), files)
	}
	if filepath.Base(files[0]) != "access.yaml" {
		t.Errorf("RuleFiles()[0] = %s, want access.yaml", files[0])
	}

	commit, err := repo.CurrentCommit()
	if err != nil {
		t.Fatalf("CurrentCommit() error = %v", err)
	}
	if commit.Author != "Test User" {
		t.Errorf("commit author = %q, want %q", commit.Author, "Test User")
	}
	if commit.SHA == "" {
		t.Error("commit SHA is empty")
	}
}

func TestCloneReusesExisting(t *testing.T) {
	source := initRuleRepo(t)
	cfg := testGitConfig(t, source)

	repo, err := NewRepository(cfg)
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	if err := repo.Clone(context.Background()); err != nil {
		t.Fatalf("first Clone() error = %v", err)
	}

	repo2, err := NewRepository(cfg)
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	if err := repo2.Clone(context.Background()); err != nil {
		t.Fatalf("second Clone() error = %v", err)
	}
}

func TestPullNoChanges(t *testing.T) {
	source := initRuleRepo(t)
	repo, err := NewRepository(testGitConfig(t, source))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	if err := repo.Clone(context.Background()); err != nil {
		t.Fatalf("Clone() error = %v", err)
	}

	result, err := repo.Pull(context.Background())
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if result.HadChanges {
		t.Error("Pull() reported changes on an up-to-date clone")
	}
	if result.FromSHA != result.ToSHA {
		t.Errorf("FromSHA %s != ToSHA %s without changes", result.FromSHA, result.ToSHA)
	}
}

func TestPullBeforeClone(t *testing.T) {
	repo, err := NewRepository(testGitConfig(t, t.TempDir()))
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	if _, err := repo.Pull(context.Background()); err == nil {
		t.Error("Pull() before Clone() returned nil error")
	}
}

func TestHasRuleFileChanges(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  bool
	}{
		{"rule file", []string{"rules/access.yaml"}, true},
		{"yml extension", []string{"a.yml"}, true},
		{"mixed", []string{"README.md", "rules/a.yaml"}, true},
		{"no rule files", []string{"README.md", "Makefile"}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasRuleFileChanges(tt.files); got != tt.want {
				t.Errorf("hasRuleFileChanges(%v) = %v, want %v", tt.files, got, tt.want)
			}
		})
	}
}
