package assistant

import (
	"edu-ai-api/internal/domain/entity"
	"edu-ai-api/internal/domain/service"
)

// Usage 本次调用的用量，与写入的交互记录一致
type Usage struct {
	InteractionID   string `json:"interaction_id"`
	TokensUsed      int    `json:"tokens_used"`
	TokensEstimated bool   `json:"tokens_estimated,omitempty"`
	ResponseTimeMs  int64  `json:"response_time_ms"`
	Attempts        int    `json:"attempts"`
}

// QuestionResult 出题结果。Partial 为 true 时 Shortfall 为缺少的题数。
type QuestionResult struct {
	Questions []entity.Question `json:"questions"`
	Requested int               `json:"requested"`
	Partial   bool              `json:"partial"`
	Shortfall int               `json:"shortfall"`
	// Rejected 被丢弃的候选记录数（含补充请求）
	Rejected int   `json:"rejected"`
	Usage    Usage `json:"usage"`
}

// PerformanceResult 成绩分析结果
type PerformanceResult struct {
	Summary  service.PerformanceSummary `json:"summary"`
	Analysis string                     `json:"analysis"`
	Usage    Usage                      `json:"usage"`
}

// StudyPlanResult 学习计划结果
type StudyPlanResult struct {
	Plan         string   `json:"plan"`
	WeakSubjects []string `json:"weak_subjects"`
	HoursPerDay  int      `json:"hours_per_day"`
	Usage        Usage    `json:"usage"`
}

// MathResult 解题结果
type MathResult struct {
	Steps       []string `json:"steps"`
	FinalAnswer string   `json:"final_answer"`
	Concepts    []string `json:"concepts,omitempty"`
	Tips        string   `json:"tips,omitempty"`
	Usage       Usage    `json:"usage"`
}

// TextResult 概念讲解与答疑结果
type TextResult struct {
	Content string `json:"content"`
	Usage   Usage  `json:"usage"`
}

// PaperRequest 组卷请求，每个非零题型各生成一节
type PaperRequest struct {
	Subject    string
	Difficulty entity.Difficulty
	MCQCount   int
	ShortCount int
	LongCount  int
}

// PaperSection 试卷的一节
type PaperSection struct {
	QuestionType entity.QuestionType `json:"question_type"`
	QuestionResult
}

// QuestionPaperResult 组卷结果
type QuestionPaperResult struct {
	Subject        string            `json:"subject"`
	Difficulty     entity.Difficulty `json:"difficulty"`
	Sections       []PaperSection    `json:"sections"`
	TotalQuestions int               `json:"total_questions"`
	Partial        bool              `json:"partial"`
	Shortfall      int               `json:"shortfall"`
}
