package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// QuestionBankChapterAI AI 生成题目入库时使用的章节名
const QuestionBankChapterAI = "AI Generated"

// QuestionBankEntry 题库条目
type QuestionBankEntry struct {
	ID        string `json:"id" gorm:"type:uuid;primaryKey"`
	SubjectID string `json:"subject_id" gorm:"type:varchar(64);not null;uniqueIndex:uk_question_bank_subject_digest,priority:1"`
	// TextDigest 归一化题干摘要，题库按 (subject_id, text_digest) 去重
	TextDigest    string         `json:"-" gorm:"type:char(64);not null;uniqueIndex:uk_question_bank_subject_digest,priority:2"`
	QuestionText  string         `json:"question_text" gorm:"type:text;not null"`
	QuestionType  QuestionType   `json:"question_type" gorm:"type:varchar(16);not null"`
	Options       pq.StringArray `json:"options,omitempty" gorm:"type:text[]"`
	CorrectAnswer string         `json:"correct_answer" gorm:"type:text;not null"`
	Explanation   string         `json:"explanation,omitempty" gorm:"type:text"`
	Difficulty    Difficulty     `json:"difficulty" gorm:"type:varchar(16);not null"`
	Chapter       string         `json:"chapter" gorm:"type:varchar(128)"`
	Topic         string         `json:"topic" gorm:"type:varchar(255);index"`
	BloomLevel    BloomLevel     `json:"bloom_level" gorm:"type:varchar(16)"`
	EstimatedTime int            `json:"estimated_time" gorm:"not null;default:5"`
	AIGenerated   bool           `json:"ai_generated" gorm:"not null;default:false"`
	CreatedAt     time.Time      `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (QuestionBankEntry) TableName() string {
	return "question_bank"
}

// NewAIQuestionBankEntry 由校验通过的题目构造题库条目，标记 ai_generated
func NewAIQuestionBankEntry(subjectID, topic string, q Question) *QuestionBankEntry {
	sum := sha256.Sum256([]byte(q.NormalizedText()))
	var options pq.StringArray
	if len(q.Options) > 0 {
		options = append(options, q.Options...)
	}
	return &QuestionBankEntry{
		ID:            uuid.NewString(),
		SubjectID:     subjectID,
		TextDigest:    hex.EncodeToString(sum[:]),
		QuestionText:  q.QuestionText,
		QuestionType:  q.QuestionType,
		Options:       options,
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
		Difficulty:    q.Difficulty,
		Chapter:       QuestionBankChapterAI,
		Topic:         topic,
		BloomLevel:    q.BloomLevel,
		EstimatedTime: q.EstimatedTime,
		AIGenerated:   true,
	}
}
