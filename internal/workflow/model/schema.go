package model

import "edu-ai-api/internal/domain/entity"

// SchemaShape 期望输出的结构形态
type SchemaShape string

const (
	// ShapeQuestions 多记录：题目序列
	ShapeQuestions SchemaShape = "questions"
	// ShapeSteps 多记录：解题步骤序列 + 最终答案
	ShapeSteps SchemaShape = "steps"
	// ShapeText 单一文本载荷
	ShapeText SchemaShape = "text"
)

// RecordFormat 多记录输出格式
type RecordFormat string

const (
	// RecordFormatJSON 单个 JSON 对象包裹记录数组
	RecordFormatJSON RecordFormat = "json"
	// RecordFormatJSONL 每行一个 JSON 对象（解题步骤为 "Step N:" 标注行）
	RecordFormatJSONL RecordFormat = "jsonl"
)

// TaskSchema 某任务成功响应的结构契约
type TaskSchema struct {
	Kind  TaskKind
	Shape SchemaShape
	// Format 仅多记录形态使用
	Format RecordFormat
	// Count 仅 ShapeQuestions 使用：本次请求期望的题目数
	Count int
	// QuestionType 仅 ShapeQuestions 使用：每条记录必须匹配的题型
	QuestionType entity.QuestionType
}

// MultiRecord 是否为多记录形态
func (s TaskSchema) MultiRecord() bool {
	return s.Shape == ShapeQuestions || s.Shape == ShapeSteps
}

var schemas = map[TaskKind]TaskSchema{
	TaskGenerateQuestions:  {Kind: TaskGenerateQuestions, Shape: ShapeQuestions},
	TaskSolveMath:          {Kind: TaskSolveMath, Shape: ShapeSteps},
	TaskAnalyzePerformance: {Kind: TaskAnalyzePerformance, Shape: ShapeText},
	TaskCreateStudyPlan:    {Kind: TaskCreateStudyPlan, Shape: ShapeText},
	TaskExplainConcept:     {Kind: TaskExplainConcept, Shape: ShapeText},
	TaskAskTutor:           {Kind: TaskAskTutor, Shape: ShapeText},
}

// SchemaFor 返回任务的静态结构契约副本
func SchemaFor(kind TaskKind) (TaskSchema, bool) {
	s, ok := schemas[kind]
	return s, ok
}
