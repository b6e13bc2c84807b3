package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/louisbranch/skirmish/internal/combat"
	apperrors "github.com/louisbranch/skirmish/internal/platform/errors"
	"gopkg.in/yaml.v3"
)

// ParseYAML decodes a YAML document. Unknown fields are rejected.
func ParseYAML(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.New(apperrors.CodeSerializationError, "scenario file is empty")
		}
		return nil, apperrors.Wrap(apperrors.CodeSerializationError, "decode scenario yaml", err)
	}
	return &doc, nil
}

// LoadYAML reads and builds the scenario at path.
func LoadYAML(path string) (*combat.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	doc, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if doc.Name == "" {
		doc.Name = baseName(path)
	}
	s, err := doc.Build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Marshal encodes the document as YAML.
func (d *Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeSerializationError, "encode scenario yaml", err)
	}
	if err := enc.Close(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeSerializationError, "encode scenario yaml", err)
	}
	return buf.Bytes(), nil
}
