package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StudyPlanStatus 学习计划状态
type StudyPlanStatus string

const (
	StudyPlanStatusActive    StudyPlanStatus = "active"
	StudyPlanStatusCompleted StudyPlanStatus = "completed"
	StudyPlanStatusArchived  StudyPlanStatus = "archived"
)

// studyPlanDays AI 学习计划覆盖的天数
const studyPlanDays = 30

// StudyPlan 学习计划
type StudyPlan struct {
	ID              string          `json:"id" gorm:"type:uuid;primaryKey"`
	StudentID       string          `json:"student_id" gorm:"type:varchar(64);index;not null"`
	Subject         string          `json:"subject,omitempty" gorm:"type:varchar(128)"`
	PlanTitle       string          `json:"plan_title" gorm:"type:varchar(255);not null"`
	PlanContent     string          `json:"plan_content" gorm:"type:text;not null"`
	DifficultyLevel Difficulty      `json:"difficulty_level" gorm:"type:varchar(16)"`
	EstimatedHours  int             `json:"estimated_hours" gorm:"not null;default:0"`
	Status          StudyPlanStatus `json:"status" gorm:"type:varchar(16);not null;default:'active'"`
	AIGenerated     bool            `json:"ai_generated" gorm:"not null;default:false"`
	CreatedAt       time.Time       `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (StudyPlan) TableName() string {
	return "study_plans"
}

// NewAIStudyPlans 为每个薄弱科目生成一条计划；无薄弱科目时生成一条综合计划
func NewAIStudyPlans(studentID string, weakSubjects []string, hoursPerDay int, content string) []*StudyPlan {
	newPlan := func(subject, title string) *StudyPlan {
		return &StudyPlan{
			ID:              uuid.NewString(),
			StudentID:       studentID,
			Subject:         subject,
			PlanTitle:       title,
			PlanContent:     content,
			DifficultyLevel: DifficultyMedium,
			EstimatedHours:  hoursPerDay * studyPlanDays,
			Status:          StudyPlanStatusActive,
			AIGenerated:     true,
		}
	}

	if len(weakSubjects) == 0 {
		return []*StudyPlan{newPlan("", "AI Study Plan")}
	}
	plans := make([]*StudyPlan, 0, len(weakSubjects))
	for _, s := range weakSubjects {
		plans = append(plans, newPlan(s, fmt.Sprintf("AI Study Plan for %s", s)))
	}
	return plans
}
