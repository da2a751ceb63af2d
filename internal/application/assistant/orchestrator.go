// Package assistant 编排 AI 任务：构建 prompt、调用推理端点、校验结构化输出并记录交互
package assistant

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"edu-ai-api/internal/config"
	"edu-ai-api/internal/domain/entity"
	"edu-ai-api/internal/domain/service"
	"edu-ai-api/internal/workflow/model"
	"edu-ai-api/internal/workflow/port"
	"edu-ai-api/internal/workflow/prompt"
	"edu-ai-api/pkg/logger"
	"edu-ai-api/pkg/metrics"
	"edu-ai-api/pkg/tracer"
)

const (
	defaultCallTimeout   = 120 * time.Second
	defaultRecordTimeout = 5 * time.Second

	paperTopic  = "general concepts"
	paperSource = "question_paper"
)

// Options 编排策略
type Options struct {
	// CallTimeout 单次编排调用的整体截止时间
	CallTimeout time.Duration
	// RequestTimeout 交给 InferenceClient 的单次调用超时
	RequestTimeout time.Duration
	// RecordTimeout 写交互记录的宽限时间，不受调用截止时间影响
	RecordTimeout time.Duration
	// ShortfallRetries 题目不足时最多补充请求的次数
	ShortfallRetries int
}

// OptionsFromConfig 从 ai 配置段读取编排策略
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		CallTimeout:      cfg.AI.CallTimeout,
		RequestTimeout:   cfg.AI.RequestTimeout,
		RecordTimeout:    cfg.AI.RecordTimeout,
		ShortfallRetries: cfg.AI.ShortfallRetries,
	}
}

// Orchestrator 每个任务操作的唯一入口。调用之间无共享可变状态，可并发使用。
type Orchestrator struct {
	builder   *prompt.Builder
	client    port.InferenceClient
	validator *Validator
	recorder  service.UsageRecorder
	opts      Options
	now       func() time.Time
}

func NewOrchestrator(builder *prompt.Builder, client port.InferenceClient, recorder service.UsageRecorder, opts Options) *Orchestrator {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}
	if opts.RecordTimeout <= 0 {
		opts.RecordTimeout = defaultRecordTimeout
	}
	if opts.ShortfallRetries < 0 {
		opts.ShortfallRetries = 0
	}
	return &Orchestrator{
		builder:   builder,
		client:    client,
		validator: NewValidator(),
		recorder:  recorder,
		opts:      opts,
		now:       time.Now,
	}
}

// outcome 校验通过的输出及其用量
type outcome struct {
	output    Output
	partial   bool
	shortfall int
	rejected  int
	usage     Usage
	// rounds / stopErr 仅出题任务填写，用于结束日志
	rounds  int
	stopErr error
}

type taskBody func(ctx context.Context, c *call, p *prompt.Prompt, schema model.TaskSchema) (*outcome, error)

// GenerateQuestions 生成 count 道题目；补充请求后仍不足时返回 Partial 结果
func (o *Orchestrator) GenerateQuestions(ctx context.Context, req model.QuestionRequest) (*QuestionResult, error) {
	out, err := o.run(ctx, req, o.questionBody(req))
	if err != nil {
		return nil, err
	}
	set, _ := out.output.(*QuestionSet)
	questions := set.Questions
	if questions == nil {
		questions = []entity.Question{}
	}
	return &QuestionResult{
		Questions: questions,
		Requested: req.Count,
		Partial:   out.partial,
		Shortfall: out.shortfall,
		Rejected:  out.rejected,
		Usage:     out.usage,
	}, nil
}

// AnalyzePerformance 分析学生成绩
func (o *Orchestrator) AnalyzePerformance(ctx context.Context, req model.PerformanceRequest) (*PerformanceResult, error) {
	out, err := o.run(ctx, req, o.singleBody)
	if err != nil {
		return nil, err
	}
	text, _ := out.output.(*TextPayload)
	return &PerformanceResult{
		Summary:  service.SummarizePerformance(req.Profile.Scores),
		Analysis: text.Content,
		Usage:    out.usage,
	}, nil
}

// CreateStudyPlan 生成个性化学习计划
func (o *Orchestrator) CreateStudyPlan(ctx context.Context, req model.StudyPlanRequest) (*StudyPlanResult, error) {
	out, err := o.run(ctx, req, o.singleBody)
	if err != nil {
		return nil, err
	}
	text, _ := out.output.(*TextPayload)
	return &StudyPlanResult{
		Plan:         text.Content,
		WeakSubjects: service.SummarizePerformance(req.Profile.Scores).WeakAreas,
		HoursPerDay:  req.Profile.StudyHoursPerDay,
		Usage:        out.usage,
	}, nil
}

// SolveMath 逐步求解数学题
func (o *Orchestrator) SolveMath(ctx context.Context, req model.MathRequest) (*MathResult, error) {
	out, err := o.run(ctx, req, o.singleBody)
	if err != nil {
		return nil, err
	}
	sol, _ := out.output.(*MathSolution)
	return &MathResult{
		Steps:       sol.Steps,
		FinalAnswer: sol.FinalAnswer,
		Concepts:    sol.Concepts,
		Tips:        sol.Tips,
		Usage:       out.usage,
	}, nil
}

// ExplainConcept 按目标水平讲解概念
func (o *Orchestrator) ExplainConcept(ctx context.Context, req model.ConceptRequest) (*TextResult, error) {
	return o.text(ctx, req)
}

// AskTutor 回答学科问题
func (o *Orchestrator) AskTutor(ctx context.Context, req model.TutorRequest) (*TextResult, error) {
	return o.text(ctx, req)
}

// GenerateQuestionPaper 每个非零题型独立调用一次 GenerateQuestions，任一节失败则整卷失败
func (o *Orchestrator) GenerateQuestionPaper(ctx context.Context, req PaperRequest) (*QuestionPaperResult, error) {
	if err := validatePaper(req); err != nil {
		metrics.InteractionsTotal.WithLabelValues(string(model.TaskGenerateQuestions), "rejected").Inc()
		return nil, err
	}

	ctx = service.WithSource(ctx, paperSource)
	sections := []struct {
		typ   entity.QuestionType
		count int
	}{
		{entity.QuestionTypeMCQ, req.MCQCount},
		{entity.QuestionTypeShort, req.ShortCount},
		{entity.QuestionTypeLong, req.LongCount},
	}

	paper := &QuestionPaperResult{Subject: req.Subject, Difficulty: req.Difficulty}
	for _, s := range sections {
		if s.count == 0 {
			continue
		}
		res, err := o.GenerateQuestions(ctx, model.QuestionRequest{
			Subject:      req.Subject,
			Topic:        paperTopic,
			Difficulty:   req.Difficulty,
			QuestionType: s.typ,
			Count:        s.count,
		})
		if err != nil {
			return nil, err
		}
		paper.Sections = append(paper.Sections, PaperSection{QuestionType: s.typ, QuestionResult: *res})
		paper.TotalQuestions += len(res.Questions)
		paper.Shortfall += res.Shortfall
	}
	paper.Partial = paper.Shortfall > 0
	return paper, nil
}

func validatePaper(req PaperRequest) error {
	field, reason := "", ""
	switch {
	case req.MCQCount < 0 || req.ShortCount < 0 || req.LongCount < 0:
		field, reason = "count", "must not be negative"
	case req.MCQCount+req.ShortCount+req.LongCount == 0:
		field, reason = "count", "at least one section must request questions"
	}
	if field == "" {
		return nil
	}
	return invalidRequest(model.TaskGenerateQuestions, &model.InvalidRequestError{
		Task:   model.TaskGenerateQuestions,
		Field:  field,
		Reason: reason,
	})
}

func (o *Orchestrator) text(ctx context.Context, req model.TaskRequest) (*TextResult, error) {
	out, err := o.run(ctx, req, o.singleBody)
	if err != nil {
		return nil, err
	}
	text, _ := out.output.(*TextPayload)
	return &TextResult{Content: text.Content, Usage: out.usage}, nil
}

// run 执行状态机 BUILDING -> DISPATCHING -> VALIDATING -> (RETRYING <-> DISPATCHING) -> RECORDING -> DONE。
// BUILDING 失败不写记录；到达 DISPATCHING 之后无论成败恰好写一条记录。
func (o *Orchestrator) run(ctx context.Context, req model.TaskRequest, body taskBody) (out *outcome, err error) {
	if req == nil {
		return nil, invalidRequest("", &model.InvalidRequestError{Field: "request", Reason: "is required"})
	}
	kind := req.Kind()
	ctx = logger.WithContext(ctx, logger.TaskKindKey, string(kind))
	ctx, span := tracer.Start(ctx, "assistant."+string(kind))
	defer span.End()

	dispatched := false
	defer func() {
		if r := recover(); r != nil && !dispatched {
			logger.Error(ctx, "ai task panicked before dispatch", fmt.Errorf("panic: %v", r))
			out, err = nil, newTaskError(KindUnavailable, kind, StageBuilding, fmt.Errorf("panic: %v", r))
		}
	}()

	p, schema, buildErr := o.builder.Build(req)
	if buildErr != nil {
		te := invalidRequest(kind, buildErr)
		metrics.InteractionsTotal.WithLabelValues(string(kind), "rejected").Inc()
		logger.Warn(ctx, "ai task request rejected", "reason", te.Message)
		tracer.RecordError(span, te)
		return nil, te
	}
	dispatched = true

	c := newCall(kind, p.Text())
	callCtx, cancel := context.WithTimeout(ctx, o.opts.CallTimeout)
	defer cancel()

	out, err = o.guard(callCtx, c, func() (*outcome, error) {
		return body(callCtx, c, p, schema)
	})

	rec := o.record(ctx, c, out, err)
	o.finish(ctx, c, rec, out, err)

	span.SetAttributes(
		attribute.String("ai.interaction_id", rec.ID),
		attribute.Int("ai.attempts", rec.Attempts),
		attribute.Int("ai.tokens", rec.TokensUsed),
		attribute.Bool("ai.partial", rec.Partial),
	)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}

	out.usage = Usage{
		InteractionID:   rec.ID,
		TokensUsed:      rec.TokensUsed,
		TokensEstimated: c.tokensEstimated,
		ResponseTimeMs:  rec.ResponseTimeMs,
		Attempts:        rec.Attempts,
	}
	return out, nil
}

// guard 将协作方的 panic 转为失败结果，保证仍会写入记录
func (o *Orchestrator) guard(ctx context.Context, c *call, fn func() (*outcome, error)) (out *outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "ai interaction panicked", fmt.Errorf("panic: %v", r), "stage", string(c.stage))
			out, err = nil, newTaskError(KindUnavailable, c.kind, c.stage, fmt.Errorf("panic: %v", r))
		}
	}()
	return fn()
}

func (o *Orchestrator) dispatch(ctx context.Context, c *call, p *prompt.Prompt) (*port.InferenceResult, error) {
	c.stage = StageDispatching
	start := time.Now()
	res, err := o.client.Send(ctx, port.InferenceRequest{
		Messages:  p.Messages,
		MaxTokens: p.MaxTokens,
		Timeout:   o.opts.RequestTimeout,
	})
	c.observe(time.Since(start), res, err)

	if err != nil {
		return nil, dispatchFailure(ctx, c.kind, StageDispatching, err)
	}
	if res == nil {
		return nil, newTaskError(KindUnavailable, c.kind, StageDispatching, fmt.Errorf("inference client returned no result"))
	}
	return res, nil
}

func (o *Orchestrator) validate(c *call, raw string, schema model.TaskSchema) (Output, error) {
	c.stage = StageValidating
	output, err := o.validator.Validate(raw, schema)
	if err != nil {
		return nil, newTaskError(KindValidation, c.kind, StageValidating, err)
	}
	return output, nil
}

func (o *Orchestrator) singleBody(ctx context.Context, c *call, p *prompt.Prompt, schema model.TaskSchema) (*outcome, error) {
	res, err := o.dispatch(ctx, c, p)
	if err != nil {
		return nil, err
	}
	output, err := o.validate(c, res.Text, schema)
	if err != nil {
		return nil, err
	}
	return &outcome{output: output}, nil
}

func (o *Orchestrator) questionBody(req model.QuestionRequest) taskBody {
	return func(ctx context.Context, c *call, p *prompt.Prompt, schema model.TaskSchema) (*outcome, error) {
		res, err := o.dispatch(ctx, c, p)
		if err != nil {
			return nil, err
		}
		set, err := o.validateQuestions(c, res.Text, schema)
		if err != nil {
			return nil, err
		}

		state := newRetryState()
		state.Rounds = 1
		state.Rejected += len(set.Rejected)
		state.Merge(set.Questions, req.Count)

		for retry := 0; len(state.Accepted) < req.Count && retry < o.opts.ShortfallRetries; retry++ {
			c.stage = StageRetrying
			missing := req.Count - len(state.Accepted)
			sp, sschema, err := o.builder.BuildShortfall(req, missing, state.AcceptedTexts())
			if err != nil {
				state.StopErr = err
				break
			}

			state.Rounds++
			res, err := o.dispatch(ctx, c, sp)
			if err != nil {
				state.StopErr = err
				// 调用截止或被取消时整体失败；其它失败保留已校验的子集
				if ctx.Err() != nil {
					return nil, err
				}
				logger.Warn(ctx, "shortfall re-request failed, keeping partial result",
					"missing", missing,
					"error", err.Error(),
				)
				break
			}
			more, err := o.validateQuestions(c, res.Text, sschema)
			if err != nil {
				state.StopErr = err
				break
			}
			state.Rejected += len(more.Rejected)
			if state.Merge(more.Questions, missing) == 0 {
				break
			}
		}

		shortfall := req.Count - len(state.Accepted)
		metrics.QuestionShortfall.WithLabelValues(string(req.QuestionType)).Observe(float64(shortfall))
		return &outcome{
			output:    &QuestionSet{Questions: state.Accepted},
			partial:   shortfall > 0,
			shortfall: shortfall,
			rejected:  state.Rejected,
			rounds:    state.Rounds,
			stopErr:   state.StopErr,
		}, nil
	}
}

func (o *Orchestrator) validateQuestions(c *call, raw string, schema model.TaskSchema) (*QuestionSet, error) {
	output, err := o.validate(c, raw, schema)
	if err != nil {
		return nil, err
	}
	set, ok := output.(*QuestionSet)
	if !ok {
		return nil, newTaskError(KindValidation, c.kind, StageValidating, fmt.Errorf("unexpected output shape %s", output.shape()))
	}
	return set, nil
}

// record 写入唯一的交互记录。写入使用独立于调用截止时间的 context。
func (o *Orchestrator) record(ctx context.Context, c *call, out *outcome, err error) *entity.InteractionRecord {
	c.stage = StageRecording
	rec := entity.NewInteractionRecord(service.UserFromContext(ctx), c.kind.InteractionType(), c.inputDigest, o.now())
	rec.OutputDigest = c.outputDigest()
	rec.TokensUsed = c.tokens
	rec.ResponseTimeMs = c.latency.Milliseconds()
	rec.Attempts = c.attempts
	rec.Succeeded = err == nil
	if te, ok := AsTaskError(err); ok {
		rec.FailureKind = string(te.Kind)
		rec.FailureStage = string(te.Stage)
	} else if err != nil {
		rec.FailureKind = string(KindUnavailable)
		rec.FailureStage = string(c.stage)
	}
	if out != nil {
		rec.Partial = out.partial
		rec.Shortfall = out.shortfall
	}

	if o.recorder == nil {
		return rec
	}
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opts.RecordTimeout)
	defer cancel()
	func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(ctx, "usage recorder panicked", fmt.Errorf("panic: %v", r), "interaction_id", rec.ID)
			}
		}()
		o.recorder.Record(writeCtx, rec)
	}()
	return rec
}

func (o *Orchestrator) finish(ctx context.Context, c *call, rec *entity.InteractionRecord, out *outcome, err error) {
	metrics.TokensUsed.WithLabelValues(string(c.kind)).Add(float64(rec.TokensUsed))

	if err != nil {
		c.stage = StageFailed
		metrics.InteractionsTotal.WithLabelValues(string(c.kind), "failed").Inc()
		stage := StageFailed
		if te, ok := AsTaskError(err); ok {
			stage = te.Stage
		}
		logger.Warn(ctx, "ai interaction failed",
			"interaction_id", rec.ID,
			"failure_kind", rec.FailureKind,
			"stage", string(stage),
			"dispatches", c.dispatches,
			"attempts", rec.Attempts,
			"tokens", rec.TokensUsed,
			"latency_ms", rec.ResponseTimeMs,
			"error", err.Error(),
		)
		return
	}

	c.stage = StageDone
	outcomeLabel := "done"
	if out.partial {
		outcomeLabel = "partial"
	}
	metrics.InteractionsTotal.WithLabelValues(string(c.kind), outcomeLabel).Inc()
	args := []any{
		"interaction_id", rec.ID,
		"dispatches", c.dispatches,
		"attempts", rec.Attempts,
		"tokens", rec.TokensUsed,
		"latency_ms", rec.ResponseTimeMs,
		"partial", out.partial,
		"shortfall", out.shortfall,
		"output_digest", rec.OutputDigest,
	}
	if out.rounds > 0 {
		args = append(args, "question_rounds", out.rounds)
	}
	if out.stopErr != nil {
		args = append(args, "shortfall_stop", out.stopErr.Error())
	}
	logger.Info(ctx, "ai interaction completed", args...)
}
