package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "json fence", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", in: "```\n[1,2]\n```", want: "[1,2]"},
		{name: "fence on same line", in: "```{\"a\":1}```", want: `{"a":1}`},
		{name: "no fence", in: "  plain text ", want: "plain text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFences(tt.in))
		})
	}
}

func TestExtractRecords_ContainerObject(t *testing.T) {
	raw := "```json\n{\"questions\": [{\"q\": 1}, {\"q\": 2}], \"note\": \"x\"}\n```"
	set, err := ExtractRecords(raw, "questions")
	require.NoError(t, err)
	assert.Len(t, set.Records, 2)
	assert.False(t, set.Truncated)
	assert.JSONEq(t, `"x"`, string(set.Fields["note"]))
}

func TestExtractRecords_FieldsAfterArray(t *testing.T) {
	set, err := ExtractRecords(`{"steps": ["a", "b"], "final_answer": "x = 2"}`, "steps")
	require.NoError(t, err)
	assert.Len(t, set.Records, 2)
	assert.JSONEq(t, `"x = 2"`, string(set.Fields["final_answer"]))
}

func TestExtractRecords_BareArray(t *testing.T) {
	set, err := ExtractRecords(`[{"q": 1}, {"q": 2}, {"q": 3}]`, "questions")
	require.NoError(t, err)
	assert.Len(t, set.Records, 3)
}

func TestExtractRecords_TruncatedArrayKeepsPrefix(t *testing.T) {
	raw := `{"questions": [{"q": 1}, {"q": 2}, {"q": 3, "text": "cut off`
	set, err := ExtractRecords(raw, "questions")
	require.NoError(t, err)
	assert.True(t, set.Truncated)
	assert.Len(t, set.Records, 2)
}

func TestExtractRecords_JSONLines(t *testing.T) {
	raw := "Here are the questions:\n{\"q\": 1}\n{\"q\": 2},\nnot a record\n{\"q\": broken}\n"
	set, err := ExtractRecords(raw, "questions")
	require.NoError(t, err)
	// 语法错误的行仍作为候选记录返回，由校验器丢弃
	assert.Len(t, set.Records, 3)
}

func TestExtractRecords_BracketedPreamble(t *testing.T) {
	for _, prefix := range []string{
		"Here are the questions [JSON]:\n",
		"Note [1]: see below\n",
		"[Draft] questions follow: ",
	} {
		raw := prefix + `{"questions": [{"q": 1, "tags": ["a"]}, {"q": 2}]}`
		set, err := ExtractRecords(raw, "questions")
		require.NoError(t, err, prefix)
		assert.Len(t, set.Records, 2, prefix)
		assert.False(t, set.Truncated, prefix)
	}
}

func TestExtractRecords_BareArrayAfterBracketedPreamble(t *testing.T) {
	raw := "Answer [v2]:\n[{\"q\": 1}, {\"q\": 2}]"
	set, err := ExtractRecords(raw, "questions")
	require.NoError(t, err)
	assert.Len(t, set.Records, 2)
	assert.JSONEq(t, `{"q": 1}`, string(set.Records[0]))
}

func TestExtractRecords_JSONLinesNestedArraysStayInRecord(t *testing.T) {
	raw := "{\"q\": 1, \"options\": [{\"k\": \"A\"}]}\n{\"q\": 2, \"options\": [{\"k\": \"B\"}]}"
	set, err := ExtractRecords(raw, "questions")
	require.NoError(t, err)
	require.Len(t, set.Records, 2)
	assert.JSONEq(t, `{"q": 2, "options": [{"k": "B"}]}`, string(set.Records[1]))
}

func TestExtractRecords_Unrecoverable(t *testing.T) {
	for _, raw := range []string{"", "   ", "I cannot help with that.", "Sorry:\n{\n  \"answer\": \"none\"\n}"} {
		_, err := ExtractRecords(raw, "questions")
		assert.ErrorIs(t, err, ErrNoRecords, raw)
	}
}

func TestTruncateByRunes(t *testing.T) {
	assert.Equal(t, "导数", TruncateByRunes("导数的定义", 2))
	assert.Equal(t, "abc", TruncateByRunes("abc", 5))
	assert.Equal(t, "", TruncateByRunes("abc", 0))
	assert.Equal(t, "a b c", CollapseSpace(" a \n b\tc "))
}
