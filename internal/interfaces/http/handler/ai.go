package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"edu-ai-api/internal/application/assistant"
	"edu-ai-api/internal/domain/entity"
	"edu-ai-api/internal/domain/repository"
	"edu-ai-api/internal/interfaces/http/dto"
	"edu-ai-api/internal/workflow/model"
	apperrors "edu-ai-api/pkg/errors"
	"edu-ai-api/pkg/logger"
)

// Assistant AI 任务操作，由 assistant.Orchestrator 实现
type Assistant interface {
	GenerateQuestions(ctx context.Context, req model.QuestionRequest) (*assistant.QuestionResult, error)
	GenerateQuestionPaper(ctx context.Context, req assistant.PaperRequest) (*assistant.QuestionPaperResult, error)
	AnalyzePerformance(ctx context.Context, req model.PerformanceRequest) (*assistant.PerformanceResult, error)
	CreateStudyPlan(ctx context.Context, req model.StudyPlanRequest) (*assistant.StudyPlanResult, error)
	SolveMath(ctx context.Context, req model.MathRequest) (*assistant.MathResult, error)
	ExplainConcept(ctx context.Context, req model.ConceptRequest) (*assistant.TextResult, error)
	AskTutor(ctx context.Context, req model.TutorRequest) (*assistant.TextResult, error)
}

// AIHandler AI 任务处理器
type AIHandler struct {
	assistant Assistant
	txMgr     repository.Transactor
	bankRepo  repository.QuestionBankRepository
	planRepo  repository.StudyPlanRepository
}

// NewAIHandler 创建 AI 任务处理器
func NewAIHandler(
	a Assistant,
	txMgr repository.Transactor,
	bankRepo repository.QuestionBankRepository,
	planRepo repository.StudyPlanRepository,
) *AIHandler {
	return &AIHandler{
		assistant: a,
		txMgr:     txMgr,
		bankRepo:  bankRepo,
		planRepo:  planRepo,
	}
}

// GenerateQuestions 生成题目
// @Summary 生成题目
// @Description 生成指定数量的题目；数量不足时返回 partial=true 与 shortfall
// @Tags AI
// @Accept json
// @Produce json
// @Param body body dto.GenerateQuestionsRequest true "出题参数"
// @Success 200 {object} dto.Response[dto.GenerateQuestionsResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/ai/questions/generate [post]
func (h *AIHandler) GenerateQuestions(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.GenerateQuestionsRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.assistant.GenerateQuestions(ctx, req.ToTask())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := dto.GenerateQuestionsResponse{QuestionResult: res}
	if req.SaveToBank && len(res.Questions) > 0 {
		subjectID := strings.TrimSpace(req.SubjectID)
		if subjectID == "" {
			subjectID = strings.TrimSpace(req.Subject)
		}
		saved, err := h.saveToBank(ctx, subjectID, strings.TrimSpace(req.Topic), res.Questions)
		if err != nil {
			// 题目已生成并记录，入库失败不影响本次响应
			logger.Error(ctx, "failed to save questions to bank", err, "subject_id", subjectID)
		} else {
			resp.SavedToBank = &saved
		}
	}
	dto.Success(c, resp)
}

func (h *AIHandler) saveToBank(ctx context.Context, subjectID, topic string, questions []entity.Question) (int64, error) {
	entries := make([]*entity.QuestionBankEntry, 0, len(questions))
	for _, q := range questions {
		entries = append(entries, entity.NewAIQuestionBankEntry(subjectID, topic, q))
	}
	return h.bankRepo.CreateBatch(ctx, entries)
}

// GenerateQuestionPaper 组卷
// @Summary 生成试卷
// @Description 按题型分节生成试卷，每节独立调用一次出题
// @Tags AI
// @Accept json
// @Produce json
// @Param body body dto.QuestionPaperRequest true "组卷参数"
// @Success 200 {object} dto.Response[assistant.QuestionPaperResult]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/ai/questions/paper [post]
func (h *AIHandler) GenerateQuestionPaper(c *gin.Context) {
	var req dto.QuestionPaperRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.assistant.GenerateQuestionPaper(c.Request.Context(), req.ToPaper())
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, res)
}

// AnalyzePerformance 成绩分析
// @Summary 分析学生成绩
// @Tags AI
// @Accept json
// @Produce json
// @Param body body dto.AnalyzePerformanceRequest true "学生画像"
// @Success 200 {object} dto.Response[assistant.PerformanceResult]
// @Router /v1/ai/performance/analyze [post]
func (h *AIHandler) AnalyzePerformance(c *gin.Context) {
	var req dto.AnalyzePerformanceRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.assistant.AnalyzePerformance(c.Request.Context(), model.PerformanceRequest{Profile: req.Profile.ToProfile()})
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, res)
}

// CreateStudyPlan 生成学习计划
// @Summary 生成学习计划
// @Description save_plan=true 时按薄弱科目写入学习计划
// @Tags AI
// @Accept json
// @Produce json
// @Param body body dto.StudyPlanRequest true "学生画像"
// @Success 200 {object} dto.Response[dto.StudyPlanResponse]
// @Router /v1/ai/study-plans [post]
func (h *AIHandler) CreateStudyPlan(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.StudyPlanRequest
	if !bindJSON(c, &req) {
		return
	}
	studentID := strings.TrimSpace(req.Profile.StudentID)
	if req.SavePlan && studentID == "" {
		dto.BadRequest(c, "profile.student_id is required when save_plan is true")
		return
	}

	res, err := h.assistant.CreateStudyPlan(ctx, model.StudyPlanRequest{Profile: req.Profile.ToProfile()})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := dto.StudyPlanResponse{StudyPlanResult: res}
	if req.SavePlan {
		plans := entity.NewAIStudyPlans(studentID, res.WeakSubjects, res.HoursPerDay, res.Plan)
		err := h.txMgr.WithTransaction(ctx, func(txCtx context.Context) error {
			return h.planRepo.CreateBatch(txCtx, plans)
		})
		if err != nil {
			logger.Error(ctx, "failed to save study plans", err, "student_id", studentID)
		} else {
			resp.SavedPlans = plans
		}
	}
	dto.Success(c, resp)
}

// SolveMath 数学解题
// @Summary 逐步求解数学题
// @Tags AI
// @Accept json
// @Produce json
// @Param body body dto.SolveMathRequest true "题目"
// @Success 200 {object} dto.Response[assistant.MathResult]
// @Router /v1/ai/math/solve [post]
func (h *AIHandler) SolveMath(c *gin.Context) {
	var req dto.SolveMathRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.assistant.SolveMath(c.Request.Context(), model.MathRequest{Problem: req.Problem})
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, res)
}

// ExplainConcept 概念讲解
// @Summary 讲解概念
// @Tags AI
// @Accept json
// @Produce json
// @Param body body dto.ExplainConceptRequest true "概念"
// @Success 200 {object} dto.Response[assistant.TextResult]
// @Router /v1/ai/concepts/explain [post]
func (h *AIHandler) ExplainConcept(c *gin.Context) {
	var req dto.ExplainConceptRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.assistant.ExplainConcept(c.Request.Context(), req.ToTask())
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, res)
}

// AskTutor 学科答疑
// @Summary 向 AI 导师提问
// @Tags AI
// @Accept json
// @Produce json
// @Param body body dto.AskTutorRequest true "问题"
// @Success 200 {object} dto.Response[assistant.TextResult]
// @Router /v1/ai/tutor/ask [post]
func (h *AIHandler) AskTutor(c *gin.Context) {
	var req dto.AskTutorRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.assistant.AskTutor(c.Request.Context(), model.TutorRequest{Subject: req.Subject, Question: req.Question})
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, res)
}

// ListQuestionBank 查询题库
// @Summary 按科目查询题库
// @Tags AI
// @Produce json
// @Param subject_id query string true "科目 ID"
// @Param ai_only query bool false "仅 AI 生成"
// @Param limit query int false "条数上限 (1-100)"
// @Success 200 {object} dto.Response[dto.ListResponse[entity.QuestionBankEntry]]
// @Router /v1/ai/question-bank [get]
func (h *AIHandler) ListQuestionBank(c *gin.Context) {
	var q dto.ListQuestionBankQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		dto.BadRequest(c, "invalid query: "+err.Error())
		return
	}

	entries, err := h.bankRepo.ListBySubject(c.Request.Context(), strings.TrimSpace(q.SubjectID), q.AIOnly, q.Limit)
	if err != nil {
		respondError(c, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list question bank"))
		return
	}
	dto.Success(c, dto.NewListResponse(entries))
}

// ListStudyPlans 查询学生进行中的学习计划
// @Summary 查询学习计划
// @Tags AI
// @Produce json
// @Param student_id query string true "学生 ID"
// @Success 200 {object} dto.Response[dto.ListResponse[entity.StudyPlan]]
// @Router /v1/ai/study-plans [get]
func (h *AIHandler) ListStudyPlans(c *gin.Context) {
	var q dto.ListStudyPlansQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		dto.BadRequest(c, "invalid query: "+err.Error())
		return
	}

	plans, err := h.planRepo.ListActiveByStudent(c.Request.Context(), strings.TrimSpace(q.StudentID))
	if err != nil {
		respondError(c, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list study plans"))
		return
	}
	dto.Success(c, dto.NewListResponse(plans))
}
