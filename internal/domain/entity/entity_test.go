package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumsValid(t *testing.T) {
	assert.True(t, QuestionTypeTrueFalse.Valid())
	assert.False(t, QuestionType("essay").Valid())
	assert.True(t, DifficultyHard.Valid())
	assert.False(t, Difficulty("mixed").Valid())
	assert.True(t, BloomCreate.Valid())
	assert.False(t, BloomLevel("synthesis").Valid())
	assert.True(t, LearningStyleMixed.Valid())
	assert.False(t, LearningStyle("visual").Valid())
}

func TestNewAIQuestionBankEntry(t *testing.T) {
	q := Question{
		QuestionText:  "What is  the derivative of x^2?",
		QuestionType:  QuestionTypeMCQ,
		Options:       []string{"x", "2x", "x^2", "2"},
		CorrectAnswer: "2x",
		Difficulty:    DifficultyMedium,
		BloomLevel:    BloomApply,
		EstimatedTime: 3,
	}
	entry := NewAIQuestionBankEntry("math-101", "Calculus", q)

	assert.True(t, entry.AIGenerated)
	assert.Equal(t, QuestionBankChapterAI, entry.Chapter)
	assert.Equal(t, "Calculus", entry.Topic)
	assert.Len(t, entry.TextDigest, 64)
	assert.Equal(t, []string{"x", "2x", "x^2", "2"}, []string(entry.Options))

	same := q
	same.QuestionText = "what is the   DERIVATIVE of x^2?"
	assert.Equal(t, entry.TextDigest, NewAIQuestionBankEntry("math-101", "Calculus", same).TextDigest)
}

func TestNewAIStudyPlans(t *testing.T) {
	plans := NewAIStudyPlans("stu-1", []string{"Physics", "Chemistry"}, 3, "plan body")
	require.Len(t, plans, 2)
	assert.Equal(t, "AI Study Plan for Physics", plans[0].PlanTitle)
	assert.Equal(t, 90, plans[0].EstimatedHours)
	assert.Equal(t, StudyPlanStatusActive, plans[1].Status)
	assert.True(t, plans[1].AIGenerated)
	assert.NotEqual(t, plans[0].ID, plans[1].ID)

	general := NewAIStudyPlans("stu-1", nil, 2, "plan body")
	require.Len(t, general, 1)
	assert.Equal(t, "AI Study Plan", general[0].PlanTitle)
	assert.Equal(t, 60, general[0].EstimatedHours)
}
