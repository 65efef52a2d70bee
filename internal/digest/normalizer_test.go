package digest

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homepulse/homepulse/internal/model"
)

const validDigest = `{"summary":"All good","attention_items":[{"title":"Low battery","description":"d","severity":"warning"}],"observations":[],"positives":[{"text":"ok","status":"good"}]}`

func TestNormalizeValidJSON(t *testing.T) {
	content, err := Normalize(validDigest)
	require.NoError(t, err)
	assert.Equal(t, "All good", content.Summary)
	require.Len(t, content.AttentionItems, 1)
	assert.Equal(t, "Low battery", content.AttentionItems[0].Title)
}

func TestNormalizeCodeFenced(t *testing.T) {
	for _, raw := range []string{
		"```json\n" + validDigest + "\n```",
		"```\n" + validDigest + "\n```",
		"Here you go:\n```json\n" + validDigest, // missing closing fence
	} {
		content, err := Normalize(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, "All good", content.Summary)
	}
}

func TestNormalizeLeadingTrailingFiller(t *testing.T) {
	raw := "Sure! Here is the digest: " + validDigest + " Let me know if you need anything else."
	content, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "All good", content.Summary)
}

func TestExtractDoesNotCutNestedBraces(t *testing.T) {
	// The last } belongs to a nested object inside a truncated outer one;
	// the invalid candidate must be kept whole for repair.
	raw := `{"summary":"s","tip":{"title":"x","action":"y"},"observations":[{"title":"a"`
	extracted := Extract(raw)
	assert.Equal(t, raw, extracted)
}

func TestRepairTruncatedShapes(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"open string", `{"summary":"All go`},
		{"dangling key", `{"summary":"ok","attention_items":`},
		{"trailing comma", `{"summary":"ok",`},
		{"open array", `{"summary":"ok","observations":[{"title":"a","description":"b"}`},
		{"deep truncation", `{"summary":"ok","attention_items":[{"title":"x","detailed_info":{"explanation":"e`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repaired := Repair(tc.in)
			assert.True(t, json.Valid([]byte(repaired)), "repaired: %s", repaired)
		})
	}
}

func TestRepairPreservesEscapedQuotes(t *testing.T) {
	in := `{"summary":"said \"hi\" and then`
	repaired := Repair(in)
	require.True(t, json.Valid([]byte(repaired)), repaired)

	var out map[string]string
	require.NoError(t, json.Unmarshal([]byte(repaired), &out))
	assert.Contains(t, out["summary"], `said "hi"`)
}

func TestNormalizeTruncatedEndToEnd(t *testing.T) {
	raw := `{"summary":"Battery low on 3 sensors","attention_items":[{"title":"Low battery","description":"Replace soon","severity":"warning"},{"title":"Trunc`
	content, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "Battery low on 3 sensors", content.Summary)
	// First complete item survives; truncated tail closed safely.
	require.NotEmpty(t, content.AttentionItems)
	assert.Equal(t, "Low battery", content.AttentionItems[0].Title)
}

func TestNormalizeRepairNeverTouchesValidJSON(t *testing.T) {
	// Valid JSON with trailing commentary: the last-brace candidate must
	// parse and be used verbatim, skipping repair.
	raw := validDigest + "\nHope this helps!"
	content, err := Normalize(raw)
	require.NoError(t, err)

	reparsed, _ := json.Marshal(content)
	var direct model.DigestContent
	require.NoError(t, json.Unmarshal([]byte(validDigest), &direct))
	directJSON, _ := json.Marshal(&direct)
	assert.JSONEq(t, string(directJSON), string(reparsed))
}

func TestNormalizeDefaultsSummary(t *testing.T) {
	content, err := Normalize(`{"observations":[]}`)
	require.NoError(t, err)
	assert.Equal(t, fallbackSummary, content.Summary)
}

func TestNormalizeMalformedIsTerminal(t *testing.T) {
	_, err := Normalize("I could not produce a digest today, sorry.")
	var malformed *model.MalformedResponseError
	require.True(t, errors.As(err, &malformed))
	assert.NotEmpty(t, malformed.Preview)
}
