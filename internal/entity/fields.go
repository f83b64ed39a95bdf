package entity

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/docextract/constants"
)

// Fields is the free-form extraction result: a JSON object whose values are
// strings, numbers, booleans, null, nested objects or arrays of these.
// A Fields value is never mutated once it is attached to a completed record.
type Fields map[string]any

// FlatField is one leaf of a Fields tree addressed by a dotted path.
type FlatField struct {
	Key   string
	Value string
}

// DocumentType returns the reserved "documentType" key when it is a non-empty string.
func (f Fields) DocumentType() (string, bool) {
	s, ok := f[constants.FieldDocumentType].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// ConfidenceScore returns the reserved "confidenceScore" key when it is numeric.
func (f Fields) ConfidenceScore() (float64, bool) {
	switch v := f[constants.FieldConfidenceScore].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// Keys returns the top-level keys in sorted order.
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks that every value belongs to the JSON value union.
func (f Fields) Validate() error {
	if f == nil {
		return fmt.Errorf("fields: nil object")
	}
	if _, err := structpb.NewStruct(f); err != nil {
		return fmt.Errorf("fields: %w", err)
	}
	return nil
}

// ToStruct converts the fields into a protobuf Struct.
func (f Fields) ToStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(f)
}

// Flatten walks the tree and returns one entry per scalar leaf, ordered by path.
// Empty objects and arrays are kept as "{}" and "[]" so no key disappears.
func (f Fields) Flatten() []FlatField {
	var out []FlatField
	flattenValue("", map[string]any(f), &out)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func flattenValue(prefix string, v any, out *[]FlatField) {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 && prefix != "" {
			*out = append(*out, FlatField{Key: prefix, Value: "{}"})
			return
		}
		for k, child := range t {
			flattenValue(joinPath(prefix, k), child, out)
		}
	case Fields:
		flattenValue(prefix, map[string]any(t), out)
	case []any:
		if len(t) == 0 {
			*out = append(*out, FlatField{Key: prefix, Value: "[]"})
			return
		}
		for i, child := range t {
			flattenValue(joinPath(prefix, strconv.Itoa(i)), child, out)
		}
	default:
		*out = append(*out, FlatField{Key: prefix, Value: FormatScalar(t)})
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// FormatScalar renders a JSON scalar for display.
func FormatScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
