package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFences(t *testing.T) {
	cases := []struct{ in, want string }{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
		{"```\n{}\n```", `{}`},
		{"   \n\t ", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StripCodeFences(tc.in), "input %q", tc.in)
	}
}

func TestParseFieldsFencedInvoice(t *testing.T) {
	text := "```json\n{\"documentType\":\"Invoice\",\"total\":120.5,\"confidenceScore\":0.92}\n```"

	fields, raw, err := ParseFields("test", text)
	require.NoError(t, err)
	assert.Equal(t, `{"documentType":"Invoice","total":120.5,"confidenceScore":0.92}`, string(raw))
	assert.Equal(t, "Invoice", fields["documentType"])
	assert.Equal(t, 120.5, fields["total"])
	assert.Equal(t, 0.92, fields["confidenceScore"])
}

func TestParseFieldsNestedValues(t *testing.T) {
	fields, _, err := ParseFields("test", `{"grades":[{"course":"Math","score":91}],"holder":{"name":"A"},"valid":true,"middleName":null}`)
	require.NoError(t, err)

	grades, ok := fields["grades"].([]any)
	require.True(t, ok)
	require.Len(t, grades, 1)
	assert.Equal(t, map[string]any{"course": "Math", "score": float64(91)}, grades[0])
	assert.Nil(t, fields["middleName"])
	assert.Contains(t, fields, "middleName")
}

func TestParseFieldsMalformed(t *testing.T) {
	for _, text := range []string{
		"",
		"   \n ",
		"```json\n```",
		"not json",
		`[{"a":1}]`,
		`"just a string"`,
		`42`,
		`null`,
		`{"a":1} {"b":2}`,
		`{"a":1} trailing`,
		`{"a":`,
	} {
		_, _, err := ParseFields("test", text)
		require.Error(t, err, "input %q", text)
		assert.True(t, errors.Is(err, ErrMalformedResponse), "input %q: %v", text, err)
		assert.False(t, errors.Is(err, ErrTransport))
		assert.Equal(t, KindMalformedResponse, KindOf(err))
	}
}
