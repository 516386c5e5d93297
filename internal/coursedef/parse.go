package coursedef

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmptyDocument is returned for a document with no YAML content.
var ErrEmptyDocument = errors.New("course document is empty")

// Parse reads a course document, checks its structure against the course
// schema and decodes it. Semantic checks are left to Validate.
func Parse(r io.Reader) (*Definition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read course document: %w", err)
	}
	return parseBytes(data)
}

// ParseFile parses the course document at path. Only .yaml and .yml files
// are accepted.
func ParseFile(path string) (*Definition, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("%s is not a YAML file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read course file: %w", err)
	}
	def, err := parseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Hash returns the hex sha256 of a course document, used to recognise a
// course that has already been loaded.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func parseBytes(data []byte) (*Definition, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("YAML parsing error: %w", err)
	}
	if doc == nil {
		return nil, ErrEmptyDocument
	}
	if err := checkSchema(doc); err != nil {
		return nil, err
	}

	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("decode course document: %w", err)
	}
	def.Hash = Hash(data)
	return &def, nil
}
