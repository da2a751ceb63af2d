package dto

import (
	"time"

	"edu-ai-api/internal/application/assistant"
	"edu-ai-api/internal/domain/entity"
	"edu-ai-api/internal/workflow/model"
)

// GenerateQuestionsRequest 出题请求
type GenerateQuestionsRequest struct {
	Subject      string `json:"subject" binding:"required"`
	Topic        string `json:"topic" binding:"required"`
	Difficulty   string `json:"difficulty" binding:"required"`
	QuestionType string `json:"question_type" binding:"required"`
	Count        int    `json:"count"`
	// SaveToBank 为 true 时将通过校验的题目写入题库
	SaveToBank bool   `json:"save_to_bank"`
	SubjectID  string `json:"subject_id"`
}

func (r *GenerateQuestionsRequest) ToTask() model.QuestionRequest {
	return model.QuestionRequest{
		Subject:      r.Subject,
		Topic:        r.Topic,
		Difficulty:   entity.Difficulty(r.Difficulty),
		QuestionType: entity.QuestionType(r.QuestionType),
		Count:        r.Count,
	}
}

// GenerateQuestionsResponse 出题响应
type GenerateQuestionsResponse struct {
	*assistant.QuestionResult
	// SavedToBank 实际写入题库的条数（不含重复）
	SavedToBank *int64 `json:"saved_to_bank,omitempty"`
}

// QuestionPaperRequest 组卷请求
type QuestionPaperRequest struct {
	Subject    string `json:"subject" binding:"required"`
	Difficulty string `json:"difficulty" binding:"required"`
	MCQCount   int    `json:"mcq_count"`
	ShortCount int    `json:"short_count"`
	LongCount  int    `json:"long_count"`
}

func (r *QuestionPaperRequest) ToPaper() assistant.PaperRequest {
	return assistant.PaperRequest{
		Subject:    r.Subject,
		Difficulty: entity.Difficulty(r.Difficulty),
		MCQCount:   r.MCQCount,
		ShortCount: r.ShortCount,
		LongCount:  r.LongCount,
	}
}

// TestScoreRequest 一次测验成绩
type TestScoreRequest struct {
	Subject  string  `json:"subject"`
	Score    float64 `json:"score"`
	TestDate string  `json:"test_date"`
}

// StudentProfileRequest 学生画像
type StudentProfileRequest struct {
	StudentID        string             `json:"student_id"`
	Name             string             `json:"name"`
	Scores           []TestScoreRequest `json:"scores"`
	StudyHoursPerDay int                `json:"study_hours_per_day"`
	LearningStyle    string             `json:"learning_style"`
	Goals            string             `json:"goals"`
	UpcomingExams    []string           `json:"upcoming_exams"`
}

// ToProfile 日期支持 RFC3339 与 2006-01-02，无法解析时按未标注日期处理
func (r *StudentProfileRequest) ToProfile() entity.StudentProfile {
	p := entity.StudentProfile{
		StudentID:        r.StudentID,
		Name:             r.Name,
		StudyHoursPerDay: r.StudyHoursPerDay,
		LearningStyle:    entity.LearningStyle(r.LearningStyle),
		Goals:            r.Goals,
		UpcomingExams:    r.UpcomingExams,
	}
	for _, s := range r.Scores {
		p.Scores = append(p.Scores, entity.TestScore{
			Subject:  s.Subject,
			Score:    s.Score,
			TestDate: parseDate(s.TestDate),
		})
	}
	return p
}

func parseDate(s string) time.Time {
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// AnalyzePerformanceRequest 成绩分析请求
type AnalyzePerformanceRequest struct {
	Profile StudentProfileRequest `json:"profile"`
}

// StudyPlanRequest 学习计划请求
type StudyPlanRequest struct {
	Profile StudentProfileRequest `json:"profile"`
	// SavePlan 为 true 时按薄弱科目写入学习计划（需要 profile.student_id）
	SavePlan bool `json:"save_plan"`
}

// StudyPlanResponse 学习计划响应
type StudyPlanResponse struct {
	*assistant.StudyPlanResult
	SavedPlans []*entity.StudyPlan `json:"saved_plans,omitempty"`
}

// SolveMathRequest 解题请求
type SolveMathRequest struct {
	Problem string `json:"problem" binding:"required"`
}

// ExplainConceptRequest 概念讲解请求
type ExplainConceptRequest struct {
	Subject string `json:"subject"`
	Concept string `json:"concept" binding:"required"`
	Level   string `json:"level"`
}

func (r *ExplainConceptRequest) ToTask() model.ConceptRequest {
	return model.ConceptRequest{
		Subject: r.Subject,
		Concept: r.Concept,
		Level:   model.ExplanationLevel(r.Level),
	}
}

// AskTutorRequest 答疑请求
type AskTutorRequest struct {
	Subject  string `json:"subject"`
	Question string `json:"question" binding:"required"`
}

// ListQuestionBankQuery 题库查询参数
type ListQuestionBankQuery struct {
	SubjectID string `form:"subject_id" binding:"required"`
	AIOnly    bool   `form:"ai_only"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// ListStudyPlansQuery 学习计划查询参数
type ListStudyPlansQuery struct {
	StudentID string `form:"student_id" binding:"required"`
}

// ListResponse 列表响应
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// NewListResponse nil 切片按空列表输出
func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Total: len(items)}
}
