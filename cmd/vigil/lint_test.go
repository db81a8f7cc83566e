package main

import (
	"os"
	"path/filepath"
	"testing"
)

const validRuleFile = `rules:
  - id: mfa-required
    name: MFA required
    severity: HIGH
    condition: mfa_enabled == True
    filter: status == "active"
    data_source: users.csv

tests:
  - name: compliant user passes
    rule: mfa-required
    row: {status: active, mfa_enabled: true}
    want: pass
`

const invalidRuleFile = `rules:
  - id: broken
    name: Broken condition
    condition: "amount >"
    data_source: users.csv
`

func writeRuleFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func setLintFlags(file, dir string) {
	lintFlags.file = file
	lintFlags.dir = dir
	lintFlags.strict = false
	lintFlags.format = "text"
}

func TestLintValidFile(t *testing.T) {
	setLintFlags(writeRuleFile(t, "valid.yaml", validRuleFile), "")

	if err := lintRules(nil, nil); err != nil {
		t.Errorf("lintRules() with valid file returned error: %v", err)
	}
}

func TestLintInvalidFile(t *testing.T) {
	setLintFlags(writeRuleFile(t, "invalid.yaml", invalidRuleFile), "")

	if err := lintRules(nil, nil); err == nil {
		t.Error("lintRules() with invalid file should return error")
	}
}

func TestLintNonexistentFile(t *testing.T) {
	setLintFlags(filepath.Join(t.TempDir(), "missing.yaml"), "")

	if err := lintRules(nil, nil); err == nil {
		t.Error("lintRules() with nonexistent file should return error")
	}
}

func TestLintNoFileOrDir(t *testing.T) {
	setLintFlags("", "")

	if err := lintRules(nil, nil); err == nil {
		t.Error("lintRules() without file or dir should return error")
	}
}

func TestLintJSONFormat(t *testing.T) {
	setLintFlags(writeRuleFile(t, "valid.yaml", validRuleFile), "")
	lintFlags.format = "json"

	if err := lintRules(nil, nil); err != nil {
		t.Errorf("lintRules() with JSON format returned error: %v", err)
	}
}

func TestLintDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "valid.yaml"), []byte(validRuleFile), 0644); err != nil {
		t.Fatal(err)
	}
	setLintFlags("", dir)

	if err := lintRules(nil, nil); err != nil {
		t.Errorf("lintRules() with valid directory returned error: %v", err)
	}
}

func TestRuleTestsPass(t *testing.T) {
	path := writeRuleFile(t, "valid.yaml", validRuleFile)
	testFlags.path = path
	testFlags.verbose = false

	if err := runRuleTests(nil, nil); err != nil {
		t.Errorf("runRuleTests() with passing tests returned error: %v", err)
	}
}

func TestRuleTestsFail(t *testing.T) {
	failing := `rules:
  - id: mfa-required
    name: MFA required
    condition: mfa_enabled == True
    data_source: users.csv

tests:
  - name: wrong expectation
    rule: mfa-required
    row: {mfa_enabled: true}
    want: violation
`
	testFlags.path = writeRuleFile(t, "failing.yaml", failing)
	testFlags.verbose = false

	if err := runRuleTests(nil, nil); err == nil {
		t.Error("runRuleTests() with failing test should return error")
	}
}
