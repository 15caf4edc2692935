package ledger

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadError records a file that could not be loaded as a YAML mapping:
// I/O failure, syntax error, empty document, or a non-mapping top level.
// Load errors are accumulated by callers, never raised as hard failures.
type LoadError struct {
	Path    string
	Message string
}

func (e *LoadError) Error() string {
	return e.Path + ": " + e.Message
}

// LoadMapping parses one file's contents as YAML and returns the top-level
// mapping. Any failure is reported as a *LoadError so callers can collect it
// and continue with the remaining ledgers.
func LoadMapping(path string) (map[string]any, *LoadError) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: err.Error()}
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Path: path, Message: err.Error()}
	}
	if doc == nil {
		return nil, &LoadError{Path: path, Message: "YAML document is empty"}
	}

	payload, ok := doc.(map[string]any)
	if !ok {
		return nil, &LoadError{
			Path:    path,
			Message: fmt.Sprintf("expected YAML mapping at top level, found %T", doc),
		}
	}
	return payload, nil
}
