package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmptyDocument is returned by DecodeFile for input with no document.
var ErrEmptyDocument = errors.New("cli: empty document")

// DecodeFile decodes a YAML or JSON document chosen by the extension of
// name, trying YAML then JSON for other extensions. Unknown fields are
// rejected so that misspelled keys in hand-written files surface as errors.
func DecodeFile(data []byte, name string, v any) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return decodeYAML(data, v)
	case ".json":
		return decodeJSON(data, v)
	default:
		yerr := decodeYAML(data, v)
		if yerr == nil || errors.Is(yerr, ErrEmptyDocument) {
			return yerr
		}
		if jerr := decodeJSON(data, v); jerr != nil {
			return fmt.Errorf("%s: not YAML (%v) or JSON (%v)", name, yerr, jerr)
		}
		return nil
	}
}

func decodeYAML(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return ErrEmptyDocument
		}
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return ErrEmptyDocument
		}
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}
