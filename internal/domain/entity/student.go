package entity

import "time"

// LearningStyle 学习风格
type LearningStyle string

const (
	LearningStyleVisual      LearningStyle = "Visual"
	LearningStyleAuditory    LearningStyle = "Auditory"
	LearningStyleKinesthetic LearningStyle = "Kinesthetic"
	LearningStyleMixed       LearningStyle = "Mixed"
)

// Valid 判断学习风格是否在取值域内
func (s LearningStyle) Valid() bool {
	switch s {
	case LearningStyleVisual, LearningStyleAuditory, LearningStyleKinesthetic, LearningStyleMixed:
		return true
	}
	return false
}

// TestScore 一次测验成绩（百分制）
type TestScore struct {
	Subject  string    `json:"subject"`
	Score    float64   `json:"score"`
	TestDate time.Time `json:"test_date"`
}

// StudentProfile 学生画像，成绩分析与学习计划共用
type StudentProfile struct {
	StudentID string      `json:"student_id,omitempty"`
	Name      string      `json:"name,omitempty"`
	Scores    []TestScore `json:"scores,omitempty"`

	// 以下字段仅用于学习计划
	StudyHoursPerDay int           `json:"study_hours_per_day,omitempty"`
	LearningStyle    LearningStyle `json:"learning_style,omitempty"`
	Goals            string        `json:"goals,omitempty"`
	UpcomingExams    []string      `json:"upcoming_exams,omitempty"`
}
