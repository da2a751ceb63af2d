package assistant

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edu-ai-api/internal/domain/entity"
	"edu-ai-api/internal/workflow/model"
)

func mcqRecord(text string) string {
	return fmt.Sprintf(`{"question_text":%q,"question_type":"mcq","options":["Alpha","Beta","Gamma","Delta"],"correct_answer":"Beta","explanation":"because","difficulty":"medium","bloom_level":"apply","estimated_time":2}`, text)
}

func questionsJSON(records ...string) string {
	return `{"questions":[` + strings.Join(records, ",") + `]}`
}

func mcqSchema(count int) model.TaskSchema {
	return model.TaskSchema{
		Kind:         model.TaskGenerateQuestions,
		Shape:        model.ShapeQuestions,
		Format:       model.RecordFormatJSON,
		Count:        count,
		QuestionType: entity.QuestionTypeMCQ,
	}
}

func TestValidator_QuestionsDiscardInvalidRecords(t *testing.T) {
	v := NewValidator()
	raw := questionsJSON(
		mcqRecord("Q1"),
		mcqRecord("Q2"),
		`{"question_text":"Q3","question_type":"mcq","options":["A","B","C"],"correct_answer":"A","difficulty":"easy","bloom_level":"remember","estimated_time":1}`,
		`{"question_text":"Q4","question_type":"mcq","options":["A","B","C","D"],"correct_answer":"E","difficulty":"easy","bloom_level":"remember","estimated_time":1}`,
		`{"question_text":"","question_type":"mcq","options":["A","B","C","D"],"correct_answer":"A","difficulty":"easy","bloom_level":"remember","estimated_time":1}`,
	)

	out, err := v.Validate(raw, mcqSchema(5))
	require.NoError(t, err)
	set, ok := out.(*QuestionSet)
	require.True(t, ok)

	require.Len(t, set.Questions, 2)
	assert.Equal(t, "Q1", set.Questions[0].QuestionText)
	assert.Equal(t, "Beta", set.Questions[0].CorrectAnswer)
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma", "Delta"}, set.Questions[0].Options)

	require.Len(t, set.Rejected, 3)
	assert.Contains(t, set.Rejected[0], "questions[2]")
	assert.Contains(t, set.Rejected[0], "exactly 4 options")
	assert.Contains(t, set.Rejected[1], "not one of the options")
	assert.Contains(t, set.Rejected[2], "question_text is required")
}

func TestParseQuestion(t *testing.T) {
	base := func(overrides string) string {
		return `{"question_text":"What is 2+2?","difficulty":"easy","bloom_level":"remember","estimated_time":1,` + overrides + `}`
	}

	cases := []struct {
		name   string
		want   entity.QuestionType
		record string
		answer string
		issue  string
	}{
		{
			name:   "mcq answer by index",
			want:   entity.QuestionTypeMCQ,
			record: base(`"question_type":"mcq","options":["1","2","3","4"],"correct_answer":3`),
			answer: "4",
		},
		{
			name:   "mcq answer case insensitive",
			want:   entity.QuestionTypeMCQ,
			record: base(`"question_type":"MCQ","options":["Four","Five","Six","Seven"],"correct_answer":"four"`),
			answer: "Four",
		},
		{
			name:   "mcq letter rejected",
			want:   entity.QuestionTypeMCQ,
			record: base(`"question_type":"mcq","options":["1","2","3","4"],"correct_answer":"D"`),
			issue:  "not one of the options",
		},
		{
			name:   "mcq index out of range",
			want:   entity.QuestionTypeMCQ,
			record: base(`"question_type":"mcq","options":["1","2","3","4"],"correct_answer":4`),
			issue:  "index out of range",
		},
		{
			name:   "mcq duplicated options",
			want:   entity.QuestionTypeMCQ,
			record: base(`"question_type":"mcq","options":["1","1","3","4"],"correct_answer":"3"`),
			issue:  "options[1] duplicated",
		},
		{
			name:   "true_false bool",
			want:   entity.QuestionTypeTrueFalse,
			record: base(`"question_type":"true_false","correct_answer":false`),
			answer: "false",
		},
		{
			name:   "true_false string",
			want:   entity.QuestionTypeTrueFalse,
			record: base(`"question_type":"true_false","correct_answer":"TRUE"`),
			answer: "true",
		},
		{
			name:   "true_false other value",
			want:   entity.QuestionTypeTrueFalse,
			record: base(`"question_type":"true_false","correct_answer":"maybe"`),
			issue:  "must be true or false",
		},
		{
			name:   "short with aliases",
			want:   entity.QuestionTypeShort,
			record: `{"question":"Define inertia","type":"short","answer":"Resistance to change in motion","difficulty":"medium","bloom":"understand","estimated_time":3}`,
			answer: "Resistance to change in motion",
		},
		{
			name:   "short with options",
			want:   entity.QuestionTypeShort,
			record: base(`"question_type":"short","options":["a"],"correct_answer":"4"`),
			issue:  "options must be omitted",
		},
		{
			name:   "type mismatch",
			want:   entity.QuestionTypeMCQ,
			record: base(`"question_type":"short","correct_answer":"4"`),
			issue:  "does not match requested mcq",
		},
		{
			name:   "estimated_time as string",
			want:   entity.QuestionTypeShort,
			record: `{"question_text":"Q","question_type":"short","correct_answer":"A","difficulty":"easy","bloom_level":"apply","estimated_time":"5"}`,
			issue:  "estimated_time",
		},
		{
			name:   "estimated_time as float",
			want:   entity.QuestionTypeShort,
			record: `{"question_text":"Q","question_type":"short","correct_answer":"A","difficulty":"easy","bloom_level":"apply","estimated_time":2.5}`,
			issue:  "estimated_time",
		},
		{
			name:   "unknown bloom level",
			want:   entity.QuestionTypeShort,
			record: base(`"question_type":"short","correct_answer":"4","bloom_level":"memorize"`),
			issue:  "bloom_level invalid",
		},
		{
			name:   "missing answer",
			want:   entity.QuestionTypeLong,
			record: base(`"question_type":"long"`),
			issue:  "correct_answer is required",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, issues := parseQuestion([]byte(tc.record), tc.want)
			if tc.issue == "" {
				require.Empty(t, issues)
				assert.Equal(t, tc.answer, q.CorrectAnswer)
				return
			}
			require.NotEmpty(t, issues)
			assert.Contains(t, strings.Join(issues, "; "), tc.issue)
		})
	}
}

func TestValidator_QuestionsDeduplicateWithinResponse(t *testing.T) {
	v := NewValidator()
	out, err := v.Validate(questionsJSON(mcqRecord("Same  question"), mcqRecord("same question")), mcqSchema(2))
	require.NoError(t, err)

	set := out.(*QuestionSet)
	assert.Len(t, set.Questions, 1)
	require.Len(t, set.Rejected, 1)
	assert.Contains(t, set.Rejected[0], "duplicated")
}

func TestValidator_QuestionsJSONLWithFences(t *testing.T) {
	v := NewValidator()
	raw := "```jsonl\n" + mcqRecord("L1") + "\n" + mcqRecord("L2") + "\n```"

	schema := mcqSchema(2)
	schema.Format = model.RecordFormatJSONL
	out, err := v.Validate(raw, schema)
	require.NoError(t, err)
	assert.Len(t, out.(*QuestionSet).Questions, 2)
}

func TestValidator_QuestionsBracketedPreamble(t *testing.T) {
	v := NewValidator()
	for _, prefix := range []string{"Here are the questions [JSON]:\n", "Note [1]: see below\n"} {
		out, err := v.Validate(prefix+questionsJSON(mcqRecord("P1"), mcqRecord("P2")), mcqSchema(2))
		require.NoError(t, err, prefix)

		set := out.(*QuestionSet)
		assert.Len(t, set.Questions, 2, prefix)
		assert.Empty(t, set.Rejected, prefix)
	}
}

func TestValidator_QuestionsUnparseable(t *testing.T) {
	v := NewValidator()
	_, err := v.Validate("I am sorry, I cannot help with that.", mcqSchema(3))
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestValidator_QuestionsAllInvalidIsNotAnError(t *testing.T) {
	v := NewValidator()
	out, err := v.Validate(questionsJSON(`{"question_text":"x"}`), mcqSchema(1))
	require.NoError(t, err)

	set := out.(*QuestionSet)
	assert.Empty(t, set.Questions)
	assert.Len(t, set.Rejected, 1)
}

func TestValidator_Text(t *testing.T) {
	v := NewValidator()
	schema := model.TaskSchema{Kind: model.TaskAskTutor, Shape: model.ShapeText}

	out, err := v.Validate("  Photosynthesis converts light into chemical energy.  \n", schema)
	require.NoError(t, err)
	assert.Equal(t, "Photosynthesis converts light into chemical energy.", out.(*TextPayload).Content)

	_, err = v.Validate(" \n\t ", schema)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestValidator_StepsJSON(t *testing.T) {
	v := NewValidator()
	schema := model.TaskSchema{Kind: model.TaskSolveMath, Shape: model.ShapeSteps}
	raw := `{"steps":["Subtract 3 from both sides: 2x = 4",{"explanation":"Divide by 2"},""],"final_answer":"x = 2","concepts":["linear equations"],"tips":"Check by substitution"}`

	out, err := v.Validate(raw, schema)
	require.NoError(t, err)

	sol := out.(*MathSolution)
	assert.Equal(t, []string{"Subtract 3 from both sides: 2x = 4", "Divide by 2"}, sol.Steps)
	assert.Equal(t, "x = 2", sol.FinalAnswer)
	assert.Equal(t, []string{"linear equations"}, sol.Concepts)
	assert.Equal(t, "Check by substitution", sol.Tips)
	assert.Len(t, sol.Rejected, 1)
}

func TestValidator_StepsNumericFinalAnswer(t *testing.T) {
	v := NewValidator()
	schema := model.TaskSchema{Kind: model.TaskSolveMath, Shape: model.ShapeSteps}

	out, err := v.Validate(`{"steps":["2 + 2"],"final_answer":4}`, schema)
	require.NoError(t, err)
	assert.Equal(t, "4", out.(*MathSolution).FinalAnswer)
}

func TestValidator_StepsLabelled(t *testing.T) {
	v := NewValidator()
	schema := model.TaskSchema{Kind: model.TaskSolveMath, Shape: model.ShapeSteps}
	raw := strings.Join([]string{
		"Let's solve it.",
		"**Step 1:** Subtract 3 from both sides.",
		"This gives 2x = 4.",
		"Step 2: Divide both sides by 2.",
		"",
		"## Final Answer: x = 2",
	}, "\n")

	out, err := v.Validate(raw, schema)
	require.NoError(t, err)

	sol := out.(*MathSolution)
	assert.Equal(t, []string{
		"Subtract 3 from both sides. This gives 2x = 4.",
		"Divide both sides by 2.",
	}, sol.Steps)
	assert.Equal(t, "x = 2", sol.FinalAnswer)
}

func TestValidator_StepsIncomplete(t *testing.T) {
	v := NewValidator()
	schema := model.TaskSchema{Kind: model.TaskSolveMath, Shape: model.ShapeSteps}

	cases := map[string]string{
		"no final answer": "Step 1: Add the numbers.\nStep 2: Simplify.",
		"no steps":        `{"steps":[],"final_answer":"7"}`,
		"prose":           "The answer depends on the context of the problem.",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Validate(raw, schema)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
		})
	}
}
