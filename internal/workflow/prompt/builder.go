// Package prompt 将任务请求渲染为模型消息，并给出该任务的输出结构契约
package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"edu-ai-api/internal/domain/entity"
	"edu-ai-api/internal/domain/service"
	"edu-ai-api/internal/workflow/model"
	"edu-ai-api/internal/workflow/node"
)

const (
	minStudyHours = 1
	maxStudyHours = 8

	defaultGoals         = "Improve overall academic performance"
	defaultTutorSubject  = "General"
	defaultMaxQuestions  = 20
	defaultMaxProblemLen = 2000
)

// Options 构建器策略，启动时由配置注入
type Options struct {
	MaxQuestionCount int
	MaxProblemLength int
	RecordFormat     model.RecordFormat
	// DefaultMaxTokens 未按任务覆盖时的 max_tokens
	DefaultMaxTokens int
	TaskMaxTokens    map[model.TaskKind]int
}

// Prompt 渲染后的模型输入
type Prompt struct {
	Kind      model.TaskKind
	ID        PromptID
	Messages  []*schema.Message
	MaxTokens int
}

// Text 以 "role: content" 的形式拼接全部消息，用于摘要与 Token 估算
func (p *Prompt) Text() string {
	var sb strings.Builder
	for i, m := range p.Messages {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(string(m.Role))
		sb.WriteString(": ")
		sb.WriteString(m.Content)
	}
	return sb.String()
}

// Builder 无副作用、确定性的 PromptBuilder
type Builder struct {
	registry *Registry
	opts     Options
}

func NewBuilder(registry *Registry, opts Options) *Builder {
	if registry == nil {
		registry = NewRegistry()
	}
	if opts.MaxQuestionCount <= 0 {
		opts.MaxQuestionCount = defaultMaxQuestions
	}
	if opts.MaxProblemLength <= 0 {
		opts.MaxProblemLength = defaultMaxProblemLen
	}
	if opts.RecordFormat == "" {
		opts.RecordFormat = model.RecordFormatJSON
	}
	return &Builder{registry: registry, opts: opts}
}

// Build 校验请求参数并渲染 prompt；参数缺失或越界时返回 *model.InvalidRequestError
func (b *Builder) Build(req model.TaskRequest) (*Prompt, model.TaskSchema, error) {
	switch r := req.(type) {
	case model.QuestionRequest:
		return b.buildQuestions(r, r.Count, nil)
	case model.PerformanceRequest:
		return b.buildPerformance(r)
	case model.StudyPlanRequest:
		return b.buildStudyPlan(r)
	case model.MathRequest:
		return b.buildMath(r)
	case model.ConceptRequest:
		return b.buildConcept(r)
	case model.TutorRequest:
		return b.buildTutor(r)
	case nil:
		return nil, model.TaskSchema{}, &model.InvalidRequestError{Field: "request", Reason: "is required"}
	default:
		return nil, model.TaskSchema{}, &model.InvalidRequestError{Task: req.Kind(), Field: "task_kind", Reason: "is not supported"}
	}
}

// BuildShortfall 为题目缺口构建补充请求：只要求 missing 道，并列出已接受的题干以避免重复
func (b *Builder) BuildShortfall(req model.QuestionRequest, missing int, avoid []string) (*Prompt, model.TaskSchema, error) {
	return b.buildQuestions(req, missing, avoid)
}

func (b *Builder) buildQuestions(r model.QuestionRequest, count int, avoid []string) (*Prompt, model.TaskSchema, error) {
	kind := r.Kind()
	subject := node.CollapseSpace(r.Subject)
	topic := node.CollapseSpace(r.Topic)

	switch {
	case subject == "":
		return nil, model.TaskSchema{}, invalid(kind, "subject", "is required")
	case topic == "":
		return nil, model.TaskSchema{}, invalid(kind, "topic", "is required")
	case !r.Difficulty.Valid():
		return nil, model.TaskSchema{}, invalid(kind, "difficulty", "must be one of easy, medium, hard")
	case !r.QuestionType.Valid():
		return nil, model.TaskSchema{}, invalid(kind, "question_type", "must be one of mcq, short, long, true_false")
	case r.Count < 1 || r.Count > b.opts.MaxQuestionCount:
		return nil, model.TaskSchema{}, invalid(kind, "count", fmt.Sprintf("must be between 1 and %d", b.opts.MaxQuestionCount))
	case count < 1 || count > r.Count:
		return nil, model.TaskSchema{}, invalid(kind, "count", fmt.Sprintf("shortfall must be between 1 and %d", r.Count))
	}

	vars := map[string]any{
		"count":         count,
		"difficulty":    string(r.Difficulty),
		"question_type": string(r.QuestionType),
		"subject":       subject,
		"topic":         topic,
		"type_rules":    questionTypeRules(r.QuestionType),
		"avoid_block":   avoidBlock(avoid),
		"format_block":  questionFormatBlock(b.opts.RecordFormat, r.QuestionType, r.Difficulty, count),
	}

	schema := b.schema(kind)
	schema.Count = count
	schema.QuestionType = r.QuestionType
	p, err := b.render(kind, PromptQuestionGenV1, vars)
	if err != nil {
		return nil, model.TaskSchema{}, err
	}
	return p, schema, nil
}

func (b *Builder) buildPerformance(r model.PerformanceRequest) (*Prompt, model.TaskSchema, error) {
	kind := r.Kind()
	if err := validateScores(kind, r.Profile.Scores, true); err != nil {
		return nil, model.TaskSchema{}, err
	}

	summary := service.SummarizePerformance(r.Profile.Scores)
	name := node.CollapseSpace(r.Profile.Name)
	if name == "" {
		name = "Student"
	}

	vars := map[string]any{
		"name":             name,
		"subjects":         joinOrNone(subjectNames(summary)),
		"recent_scores":    recentScores(r.Profile.Scores),
		"average":          fmt.Sprintf("%.1f", summary.Average),
		"subject_averages": subjectAverages(summary),
		"weak_areas":       joinOrNone(summary.WeakAreas),
		"strong_areas":     joinOrNone(summary.StrongAreas),
		"improvement":      fmt.Sprintf("%+.1f", summary.Improvement),
		"test_history":     testHistory(r.Profile.Scores),
	}
	p, err := b.render(kind, PromptPerformanceAnalysisV1, vars)
	if err != nil {
		return nil, model.TaskSchema{}, err
	}
	return p, b.schema(kind), nil
}

func (b *Builder) buildStudyPlan(r model.StudyPlanRequest) (*Prompt, model.TaskSchema, error) {
	kind := r.Kind()
	profile := r.Profile
	if profile.StudyHoursPerDay < minStudyHours || profile.StudyHoursPerDay > maxStudyHours {
		return nil, model.TaskSchema{}, invalid(kind, "study_hours_per_day", fmt.Sprintf("must be between %d and %d", minStudyHours, maxStudyHours))
	}
	style := profile.LearningStyle
	if style == "" {
		style = entity.LearningStyleMixed
	}
	if !style.Valid() {
		return nil, model.TaskSchema{}, invalid(kind, "learning_style", "must be one of Visual, Auditory, Kinesthetic, Mixed")
	}
	if err := validateScores(kind, profile.Scores, false); err != nil {
		return nil, model.TaskSchema{}, err
	}

	summary := service.SummarizePerformance(profile.Scores)
	goals := node.CollapseSpace(profile.Goals)
	if goals == "" {
		goals = defaultGoals
	}

	vars := map[string]any{
		"performance":    subjectAverages(summary),
		"weak_subjects":  joinOrNone(summary.WeakAreas),
		"study_hours":    profile.StudyHoursPerDay,
		"learning_style": string(style),
		"goals":          goals,
		"exams":          joinOrNone(trimAll(profile.UpcomingExams)),
	}
	p, err := b.render(kind, PromptStudyPlanV1, vars)
	if err != nil {
		return nil, model.TaskSchema{}, err
	}
	return p, b.schema(kind), nil
}

func (b *Builder) buildMath(r model.MathRequest) (*Prompt, model.TaskSchema, error) {
	kind := r.Kind()
	problem := strings.TrimSpace(r.Problem)
	if problem == "" {
		return nil, model.TaskSchema{}, invalid(kind, "problem", "is required")
	}
	if len([]rune(problem)) > b.opts.MaxProblemLength {
		return nil, model.TaskSchema{}, invalid(kind, "problem", fmt.Sprintf("must be at most %d characters", b.opts.MaxProblemLength))
	}

	vars := map[string]any{
		"problem":      problem,
		"format_block": stepsFormatBlock(b.opts.RecordFormat),
	}
	p, err := b.render(kind, PromptMathSolverV1, vars)
	if err != nil {
		return nil, model.TaskSchema{}, err
	}
	return p, b.schema(kind), nil
}

func (b *Builder) buildConcept(r model.ConceptRequest) (*Prompt, model.TaskSchema, error) {
	kind := r.Kind()
	subject := node.CollapseSpace(r.Subject)
	concept := node.CollapseSpace(r.Concept)
	level := r.Level
	if level == "" {
		level = model.LevelIntermediate
	}

	switch {
	case subject == "":
		return nil, model.TaskSchema{}, invalid(kind, "subject", "is required")
	case concept == "":
		return nil, model.TaskSchema{}, invalid(kind, "concept", "is required")
	case !level.Valid():
		return nil, model.TaskSchema{}, invalid(kind, "level", "must be one of beginner, intermediate, advanced")
	}

	vars := map[string]any{
		"subject": subject,
		"concept": concept,
		"level":   string(level),
	}
	p, err := b.render(kind, PromptConceptExplainV1, vars)
	if err != nil {
		return nil, model.TaskSchema{}, err
	}
	return p, b.schema(kind), nil
}

func (b *Builder) buildTutor(r model.TutorRequest) (*Prompt, model.TaskSchema, error) {
	kind := r.Kind()
	question := strings.TrimSpace(r.Question)
	if question == "" {
		return nil, model.TaskSchema{}, invalid(kind, "question", "is required")
	}
	if len([]rune(question)) > b.opts.MaxProblemLength {
		return nil, model.TaskSchema{}, invalid(kind, "question", fmt.Sprintf("must be at most %d characters", b.opts.MaxProblemLength))
	}
	subject := node.CollapseSpace(r.Subject)
	if subject == "" {
		subject = defaultTutorSubject
	}

	vars := map[string]any{
		"subject":  subject,
		"question": question,
	}
	p, err := b.render(kind, PromptTutorAnswerV1, vars)
	if err != nil {
		return nil, model.TaskSchema{}, err
	}
	return p, b.schema(kind), nil
}

func (b *Builder) schema(kind model.TaskKind) model.TaskSchema {
	s, _ := model.SchemaFor(kind)
	if s.MultiRecord() {
		s.Format = b.opts.RecordFormat
	}
	return s
}

func (b *Builder) render(kind model.TaskKind, id PromptID, vars map[string]any) (*Prompt, error) {
	tpl, err := b.registry.ChatTemplate(id)
	if err != nil {
		return nil, fmt.Errorf("load prompt %s: %w", id, err)
	}
	// 模板渲染为纯函数，不涉及 I/O
	msgs, err := tpl.Format(context.Background(), vars)
	if err != nil {
		return nil, fmt.Errorf("render prompt %s: %w", id, err)
	}

	maxTokens := b.opts.DefaultMaxTokens
	if n, ok := b.opts.TaskMaxTokens[kind]; ok && n > 0 {
		maxTokens = n
	}
	return &Prompt{Kind: kind, ID: id, Messages: msgs, MaxTokens: maxTokens}, nil
}

func invalid(kind model.TaskKind, field, reason string) error {
	return &model.InvalidRequestError{Task: kind, Field: field, Reason: reason}
}

func validateScores(kind model.TaskKind, scores []entity.TestScore, required bool) error {
	if required && len(scores) == 0 {
		return invalid(kind, "profile.scores", "must contain at least one score")
	}
	for i, s := range scores {
		if strings.TrimSpace(s.Subject) == "" {
			return invalid(kind, fmt.Sprintf("profile.scores[%d].subject", i), "is required")
		}
		if s.Score < 0 || s.Score > 100 {
			return invalid(kind, fmt.Sprintf("profile.scores[%d].score", i), "must be between 0 and 100")
		}
	}
	return nil
}
