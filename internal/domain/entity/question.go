// Package entity 定义领域实体
package entity

import "strings"

// QuestionType 题型
type QuestionType string

const (
	QuestionTypeMCQ       QuestionType = "mcq"
	QuestionTypeShort     QuestionType = "short"
	QuestionTypeLong      QuestionType = "long"
	QuestionTypeTrueFalse QuestionType = "true_false"
)

// Valid 判断题型是否在取值域内
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeMCQ, QuestionTypeShort, QuestionTypeLong, QuestionTypeTrueFalse:
		return true
	}
	return false
}

// Difficulty 难度
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid 判断难度是否在取值域内
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// BloomLevel 布鲁姆认知层级
type BloomLevel string

const (
	BloomRemember   BloomLevel = "remember"
	BloomUnderstand BloomLevel = "understand"
	BloomApply      BloomLevel = "apply"
	BloomAnalyze    BloomLevel = "analyze"
	BloomEvaluate   BloomLevel = "evaluate"
	BloomCreate     BloomLevel = "create"
)

// BloomLevels 按认知复杂度升序排列
var BloomLevels = []BloomLevel{BloomRemember, BloomUnderstand, BloomApply, BloomAnalyze, BloomEvaluate, BloomCreate}

// Valid 判断层级是否在取值域内
func (b BloomLevel) Valid() bool {
	for _, l := range BloomLevels {
		if b == l {
			return true
		}
	}
	return false
}

// Question 通过结构校验的题目
type Question struct {
	QuestionText  string       `json:"question_text"`
	QuestionType  QuestionType `json:"question_type"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer"`
	Explanation   string       `json:"explanation,omitempty"`
	Difficulty    Difficulty   `json:"difficulty"`
	BloomLevel    BloomLevel   `json:"bloom_level"`
	// EstimatedTime 预计作答时间（分钟）
	EstimatedTime int `json:"estimated_time"`
}

// NormalizedText 用于同批次去重的题干归一化形式
func (q *Question) NormalizedText() string {
	return strings.ToLower(strings.Join(strings.Fields(q.QuestionText), " "))
}
