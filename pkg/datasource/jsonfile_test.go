package datasource

import (
	"context"
	"strings"
	"testing"

	"corvid-labs/vigil/pkg/vex/ast"
)

func TestJSONFile_TypedRows(t *testing.T) {
	path := writeFixture(t, "users.json", `[
		{"name": "alice", "age": 31, "mfa": true, "expires": "2025-06-01", "meta": {"team": "sre"}},
		{"name": "bob", "age": null, "mfa": false, "expires": "2023-01-15", "meta": [1, 2]}
	]`)

	rows := drain(t, NewJSONFile(path))
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	if got := rows[0]["age"]; !got.Equal(ast.NumberValue(31)) {
		t.Errorf("age = %v, want 31", got)
	}
	if got := rows[0]["expires"]; got.Kind != ast.KindDate {
		t.Errorf("expires kind = %v, want date", got.Kind)
	}
	if got := rows[0]["meta"]; !got.Equal(ast.StringValue(`{"team":"sre"}`)) {
		t.Errorf("nested object = %v, want compact JSON text", got)
	}
	if !rows[1]["age"].IsNull() {
		t.Errorf("JSON null = %v, want null value", rows[1]["age"])
	}
	if got := rows[1]["meta"]; !got.Equal(ast.StringValue(`[1,2]`)) {
		t.Errorf("nested array = %v, want compact JSON text", got)
	}
}

func TestJSONFile_NotAnArray(t *testing.T) {
	path := writeFixture(t, "obj.json", `{"name": "alice"}`)
	_, err := NewJSONFile(path).Open(context.Background())
	if err == nil {
		t.Fatal("Open() on a non-array document succeeded, want error")
	}
	if !strings.Contains(err.Error(), "array") {
		t.Errorf("error %q does not mention the array requirement", err)
	}
}

func TestJSONFile_EmptyArray(t *testing.T) {
	path := writeFixture(t, "empty.json", `[]`)
	rows := drain(t, NewJSONFile(path))
	if len(rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rows))
	}
}

func TestJSONFile_NullElement(t *testing.T) {
	path := writeFixture(t, "bad.json", `[{"a": 1}, null]`)
	it, err := NewJSONFile(path).Open(context.Background())
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer it.Close()

	if _, err := it.Next(context.Background()); err != nil {
		t.Fatalf("first Next() failed: %v", err)
	}
	if _, err := it.Next(context.Background()); err == nil {
		t.Fatal("null element accepted, want error")
	}
}

func TestJSONLines_Rows(t *testing.T) {
	path := writeFixture(t, "events.jsonl",
		`{"event": "login", "ok": true}`+"\n"+
			"\n"+ // blank lines are skipped
			`{"event": "logout", "ok": false}`+"\n")

	rows := drain(t, NewJSONLines(path))
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if got := rows[1]["event"]; !got.Equal(ast.StringValue("logout")) {
		t.Errorf("event = %v, want logout", got)
	}
}

func TestJSONLines_BadLine(t *testing.T) {
	path := writeFixture(t, "bad.jsonl", `{"a": 1}`+"\n"+`{broken`+"\n")

	it, err := NewJSONLines(path).Open(context.Background())
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer it.Close()

	if _, err := it.Next(context.Background()); err != nil {
		t.Fatalf("first Next() failed: %v", err)
	}
	_, err = it.Next(context.Background())
	if err == nil {
		t.Fatal("malformed line accepted, want error")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error %q does not name the failing line", err)
	}
}
