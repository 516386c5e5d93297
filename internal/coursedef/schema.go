package coursedef

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaURL = "schema://course.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func str() map[string]any { return map[string]any{"type": "string"} }
func num() map[string]any { return map[string]any{"type": "number"} }

func object(required []string, props map[string]any) map[string]any {
	return map[string]any{
		"type":                 "object",
		"required":             required,
		"properties":           props,
		"additionalProperties": false,
	}
}

func array(items any) map[string]any {
	return map[string]any{"type": "array", "items": items}
}

// courseSchema describes the structure of both document shapes. Field
// rules that need cross references live in Validate.
func courseSchema() map[string]any {
	node := object([]string{"id"}, map[string]any{
		"id":         map[string]any{"type": "string", "minLength": 1},
		"kind":       map[string]any{"enum": []any{"topic", "exercise"}},
		"difficulty": num(),
		"effort":     num(),
		"content":    str(),
		"label":      str(),
		"lesson":     str(),
		"half_life":  str(),
	})
	edge := object([]string{"from", "to"}, map[string]any{
		"from": str(),
		"to":   str(),
	})
	choice := object([]string{"text"}, map[string]any{
		"text":    str(),
		"correct": map[string]any{"type": "boolean"},
	})
	question := object([]string{"prompt", "explanation", "choices"}, map[string]any{
		"prompt":      str(),
		"explanation": str(),
		"choices":     array(choice),
	})
	kp := object([]string{"name", "description", "contents", "questions", "prerequisites"}, map[string]any{
		"name":          map[string]any{"type": "string", "minLength": 1},
		"description":   str(),
		"prerequisites": array(str()),
		"contents":      array(str()),
		"questions":     array(question),
		"difficulty":    num(),
		"effort":        num(),
	})
	lesson := object([]string{"title", "knowledge_points"}, map[string]any{
		"title":            str(),
		"knowledge_points": array(kp),
	})

	doc := object([]string{"title"}, map[string]any{
		"title":   map[string]any{"type": "string", "minLength": 1},
		"version": str(),
		"nodes":   array(node),
		"edges":   array(edge),
		"lessons": array(lesson),
	})
	doc["anyOf"] = []any{
		map[string]any{"required": []any{"nodes"}},
		map[string]any{"required": []any{"lessons"}},
	}
	return doc
}

func getCompiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		// The compiler wants a decoded JSON value, so round-trip the Go map.
		raw, err := json.Marshal(courseSchema())
		if err != nil {
			schemaErr = fmt.Errorf("marshal course schema: %w", err)
			return
		}
		def, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			schemaErr = fmt.Errorf("parse course schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, def); err != nil {
			schemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// checkSchema validates a decoded YAML document against the course schema.
func checkSchema(doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("course document is not JSON-compatible: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("decode course document: %w", err)
	}
	sch, err := getCompiledSchema()
	if err != nil {
		return err
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
