package entity

import (
	"time"

	"github.com/google/uuid"
)

// InteractionType 交互类型，与任务类型一一对应
type InteractionType string

const (
	InteractionQuestionGeneration  InteractionType = "question_generation"
	InteractionPerformanceAnalysis InteractionType = "performance_analysis"
	InteractionStudyPlan           InteractionType = "study_plan"
	InteractionMathSolver          InteractionType = "math_solver"
	InteractionConceptExplanation  InteractionType = "concept_explanation"
	InteractionTutorQuestion       InteractionType = "tutor_question"
)

// InteractionRecord 一次编排调用的使用记录，只追加不修改
type InteractionRecord struct {
	ID              string          `json:"id" gorm:"type:uuid;primaryKey"`
	UserID          string          `json:"user_id,omitempty" gorm:"type:varchar(64);index"`
	InteractionType InteractionType `json:"interaction_type" gorm:"type:varchar(32);index;not null"`
	InputDigest     string          `json:"input_digest" gorm:"type:char(64);not null"`
	OutputDigest    string          `json:"output_digest" gorm:"type:varchar(64)"`
	TokensUsed      int             `json:"tokens_used" gorm:"not null;default:0"`
	ResponseTimeMs  int64           `json:"response_time_ms" gorm:"not null;default:0"`
	Succeeded       bool            `json:"succeeded" gorm:"not null"`
	// FailureKind 失败时的错误类别，成功时为空
	FailureKind string `json:"failure_kind,omitempty" gorm:"type:varchar(32)"`
	// FailureStage 失败发生时所处的编排阶段
	FailureStage string `json:"failure_stage,omitempty" gorm:"type:varchar(16)"`
	// Attempts 本次调用发出的推理请求数（含重试与补充请求）
	Attempts int  `json:"attempts" gorm:"not null;default:0"`
	Partial  bool `json:"partial" gorm:"not null;default:false"`
	// Shortfall 出题数量缺口，仅出题任务非零
	Shortfall int       `json:"shortfall" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"index;not null"`
}

// TableName 指定表名
func (InteractionRecord) TableName() string {
	return "ai_interactions"
}

// NewInteractionRecord 创建交互记录
func NewInteractionRecord(userID string, kind InteractionType, inputDigest string, createdAt time.Time) *InteractionRecord {
	return &InteractionRecord{
		ID:              uuid.NewString(),
		UserID:          userID,
		InteractionType: kind,
		InputDigest:     inputDigest,
		CreatedAt:       createdAt,
	}
}
