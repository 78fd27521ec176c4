// Package specfile loads the JSON document e2ectl provisions fixtures
// from. Values may reference environment variables with ${env:NAME} or
// ${env:NAME:fallback}; the document is schema-validated before use.
package specfile

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonschema"
	"github.com/trebent/zerologr"
)

type (
	// Spec describes the fixtures a provisioning run creates.
	Spec struct {
		Teams []TeamSpec `json:"teams"`
		Users []UserSpec `json:"users"`
	}
	TeamSpec struct {
		Prefix string `json:"prefix"`
	}
	UserSpec struct {
		Prefix   string   `json:"prefix"`
		Password string   `json:"password"`
		Admin    bool     `json:"admin"`
		Count    int      `json:"count"`
		Teams    []string `json:"teams"`
	}
)

var (
	ErrEnvVarRef = errors.New("could not find an environment variable")
	ErrUnmarshal = errors.New("failed to decode fixture spec")
	ErrSchema    = errors.New("fixture spec failed schema validation")

	envRe        = regexp.MustCompile(`\$\{env:([a-zA-Z0-9_:]+)\}`)
	unresolvedRe = regexp.MustCompile(`\$\{UNRESOLVED:([a-zA-Z0-9_]+)\}`)

	//go:embed spec_schema.json
	schemaBytes []byte
)

// Load reads, resolves and validates the fixture spec at path.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse resolves env references in data, validates the result against the
// spec schema and decodes it.
func Parse(data []byte) (*Spec, error) {
	data, err := resolveEnvironmentVariables(data)
	if err != nil {
		return nil, err
	}

	if err := validateSchema(data); err != nil {
		return nil, err
	}

	spec := &Spec{}
	if err := json.Unmarshal(data, spec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnmarshal, err)
	}

	// Count defaults to one account per user entry.
	for i := range spec.Users {
		if spec.Users[i].Count == 0 {
			spec.Users[i].Count = 1
		}
	}

	return spec, nil
}

func resolveEnvironmentVariables(data []byte) ([]byte, error) {
	data = envRe.ReplaceAllFunc(data, func(match []byte) []byte {
		groups := envRe.FindSubmatch(match)

		parts := strings.Split(string(groups[1]), ":")
		val, ok := os.LookupEnv(parts[0])
		if !ok && len(parts) > 1 {
			val = parts[1]
		} else if !ok {
			return fmt.Appendf([]byte{}, "${UNRESOLVED:%s}", parts[0])
		}

		return []byte(val)
	})

	matches := unresolvedRe.FindAll(data, -1)
	if len(matches) > 0 {
		zerologr.Error(ErrEnvVarRef, "Failed to find some environment variable(s)")

		var builder strings.Builder
		for _, match := range matches {
			groups := unresolvedRe.FindSubmatch(match)
			builder.WriteString(string(groups[1]) + ", ")
		}
		errMsg := strings.TrimSuffix(builder.String(), ", ")

		return nil, fmt.Errorf("%w: %s", ErrEnvVarRef, errMsg)
	}

	return data, nil
}

func validateSchema(data []byte) error {
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(schemaBytes)
	if err != nil {
		// The schema is embedded, failing to compile it is a
		// programming error.
		panic(err)
	}

	instance := map[string]any{}
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("%w: %w", ErrUnmarshal, err)
	}

	result := schema.Validate(instance)
	if !result.IsValid() {
		details, _ := json.Marshal(result.ToList())
		return fmt.Errorf("%w: %s", ErrSchema, string(details))
	}

	return nil
}
