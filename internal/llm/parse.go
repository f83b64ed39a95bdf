package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/joseph-ayodele/docextract/internal/entity"
)

var fenceStripper = strings.NewReplacer("```json", "", "```", "")

// StripCodeFences removes every "```json" and "```" marker and trims surrounding whitespace.
func StripCodeFences(text string) string {
	return strings.TrimSpace(fenceStripper.Replace(text))
}

// ParseFields cleans model text and decodes it as exactly one JSON object.
// The cleaned text is returned alongside so callers can log what was parsed.
func ParseFields(op, text string) (entity.Fields, []byte, error) {
	cleaned := StripCodeFences(text)
	raw := []byte(cleaned)
	if cleaned == "" {
		return nil, raw, MalformedResponseError(op, errors.New("empty response text"))
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, raw, MalformedResponseError(op, fmt.Errorf("decode json: %w", err))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, raw, MalformedResponseError(op, errors.New("unexpected data after json object"))
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, raw, MalformedResponseError(op, fmt.Errorf("expected json object, got %s", jsonKind(v)))
	}
	return entity.Fields(obj), raw, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	}
	return fmt.Sprintf("%T", v)
}
