package specfile

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	spec, err := Parse([]byte(`{
		"teams": [{"prefix": "qa"}],
		"users": [
			{"prefix": "user", "count": 3, "teams": ["qa"]},
			{"prefix": "admin", "admin": true}
		]
	}`))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(spec.Teams) != 1 || spec.Teams[0].Prefix != "qa" {
		t.Fatalf("Unexpected teams: %+v", spec.Teams)
	}
	if len(spec.Users) != 2 {
		t.Fatalf("Expected 2 user specs, got %d", len(spec.Users))
	}
	if spec.Users[0].Count != 3 {
		t.Fatalf("Expected count 3, got %d", spec.Users[0].Count)
	}
	if spec.Users[1].Count != 1 {
		t.Fatal("Count should default to 1")
	}
	if !spec.Users[1].Admin {
		t.Fatal("Admin flag should decode")
	}
}

func TestParseResolvesEnvReferences(t *testing.T) {
	t.Setenv("FIXTURE_PASSWORD", "secret12345")

	spec, err := Parse([]byte(`{
		"users": [{"prefix": "user", "password": "${env:FIXTURE_PASSWORD}"}]
	}`))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if spec.Users[0].Password != "secret12345" {
		t.Fatalf("Env reference was not resolved: %s", spec.Users[0].Password)
	}
}

func TestParseEnvReferenceFallback(t *testing.T) {
	spec, err := Parse([]byte(`{
		"users": [{"prefix": "user", "password": "${env:MISSING_FIXTURE_VAR:fallback123}"}]
	}`))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if spec.Users[0].Password != "fallback123" {
		t.Fatalf("Fallback was not applied: %s", spec.Users[0].Password)
	}
}

func TestParseUnresolvedEnvReference(t *testing.T) {
	_, err := Parse([]byte(`{
		"users": [{"prefix": "user", "password": "${env:MISSING_FIXTURE_VAR}"}]
	}`))
	if !errors.Is(err, ErrEnvVarRef) {
		t.Fatalf("Expected ErrEnvVarRef, got: %v", err)
	}
}

func TestParseRejectsSchemaViolations(t *testing.T) {
	cases := []string{
		`{"users": [{"count": 2}]}`,
		`{"users": [{"prefix": ""}]}`,
		`{"users": [{"prefix": "user", "count": 0}]}`,
		`{"unknown_key": true}`,
	}

	for _, c := range cases {
		if _, err := Parse([]byte(c)); !errors.Is(err, ErrSchema) {
			t.Fatalf("Expected ErrSchema for %s, got: %v", c, err)
		}
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("Garbage input should fail")
	}
}
