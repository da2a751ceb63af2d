// Package model 定义工作流层的任务请求与输出契约
package model

import (
	"fmt"

	"edu-ai-api/internal/domain/entity"
)

// TaskKind 任务类型
type TaskKind string

const (
	TaskGenerateQuestions  TaskKind = "generate_questions"
	TaskAnalyzePerformance TaskKind = "analyze_performance"
	TaskCreateStudyPlan    TaskKind = "create_study_plan"
	TaskSolveMath          TaskKind = "solve_math"
	TaskExplainConcept     TaskKind = "explain_concept"
	TaskAskTutor           TaskKind = "ask_tutor"
)

// InteractionType 任务类型对应的交互记录类型
func (k TaskKind) InteractionType() entity.InteractionType {
	switch k {
	case TaskGenerateQuestions:
		return entity.InteractionQuestionGeneration
	case TaskAnalyzePerformance:
		return entity.InteractionPerformanceAnalysis
	case TaskCreateStudyPlan:
		return entity.InteractionStudyPlan
	case TaskSolveMath:
		return entity.InteractionMathSolver
	case TaskExplainConcept:
		return entity.InteractionConceptExplanation
	case TaskAskTutor:
		return entity.InteractionTutorQuestion
	default:
		return entity.InteractionType(k)
	}
}

// ExplanationLevel 概念讲解的目标水平
type ExplanationLevel string

const (
	LevelBeginner     ExplanationLevel = "beginner"
	LevelIntermediate ExplanationLevel = "intermediate"
	LevelAdvanced     ExplanationLevel = "advanced"
)

// Valid 判断讲解水平是否在取值域内
func (l ExplanationLevel) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// TaskRequest 任务请求。各实现均为值类型，构造后不可变。
type TaskRequest interface {
	Kind() TaskKind
}

// QuestionRequest 出题请求
type QuestionRequest struct {
	Subject      string
	Topic        string
	Difficulty   entity.Difficulty
	QuestionType entity.QuestionType
	Count        int
}

func (QuestionRequest) Kind() TaskKind { return TaskGenerateQuestions }

// PerformanceRequest 成绩分析请求
type PerformanceRequest struct {
	Profile entity.StudentProfile
}

func (PerformanceRequest) Kind() TaskKind { return TaskAnalyzePerformance }

// StudyPlanRequest 学习计划请求
type StudyPlanRequest struct {
	Profile entity.StudentProfile
}

func (StudyPlanRequest) Kind() TaskKind { return TaskCreateStudyPlan }

// MathRequest 数学解题请求
type MathRequest struct {
	Problem string
}

func (MathRequest) Kind() TaskKind { return TaskSolveMath }

// ConceptRequest 概念讲解请求
type ConceptRequest struct {
	Subject string
	Concept string
	Level   ExplanationLevel
}

func (ConceptRequest) Kind() TaskKind { return TaskExplainConcept }

// TutorRequest 自由提问请求
type TutorRequest struct {
	Subject  string
	Question string
}

func (TutorRequest) Kind() TaskKind { return TaskAskTutor }

// InvalidRequestError 调用方输入缺失或超出取值域
type InvalidRequestError struct {
	Task   TaskKind
	Field  string
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid %s request: %s %s", e.Task, e.Field, e.Reason)
}
