package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edu-ai-api/internal/application/assistant"
	"edu-ai-api/internal/domain/entity"
	"edu-ai-api/internal/workflow/model"
	"edu-ai-api/internal/workflow/port"
)

type fakeAssistant struct {
	questions func(ctx context.Context, req model.QuestionRequest) (*assistant.QuestionResult, error)
	plan      func(ctx context.Context, req model.StudyPlanRequest) (*assistant.StudyPlanResult, error)
	math      func(ctx context.Context, req model.MathRequest) (*assistant.MathResult, error)
}

func (f *fakeAssistant) GenerateQuestions(ctx context.Context, req model.QuestionRequest) (*assistant.QuestionResult, error) {
	return f.questions(ctx, req)
}

func (f *fakeAssistant) GenerateQuestionPaper(context.Context, assistant.PaperRequest) (*assistant.QuestionPaperResult, error) {
	return &assistant.QuestionPaperResult{}, nil
}

func (f *fakeAssistant) AnalyzePerformance(context.Context, model.PerformanceRequest) (*assistant.PerformanceResult, error) {
	return &assistant.PerformanceResult{}, nil
}

func (f *fakeAssistant) CreateStudyPlan(ctx context.Context, req model.StudyPlanRequest) (*assistant.StudyPlanResult, error) {
	return f.plan(ctx, req)
}

func (f *fakeAssistant) SolveMath(ctx context.Context, req model.MathRequest) (*assistant.MathResult, error) {
	return f.math(ctx, req)
}

func (f *fakeAssistant) ExplainConcept(context.Context, model.ConceptRequest) (*assistant.TextResult, error) {
	return &assistant.TextResult{Content: "concept"}, nil
}

func (f *fakeAssistant) AskTutor(context.Context, model.TutorRequest) (*assistant.TextResult, error) {
	return &assistant.TextResult{Content: "answer"}, nil
}

type fakeBankRepo struct {
	entries []*entity.QuestionBankEntry
	err     error
	listed  string
	aiOnly  bool
	limit   int
}

func (r *fakeBankRepo) CreateBatch(_ context.Context, entries []*entity.QuestionBankEntry) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	r.entries = append(r.entries, entries...)
	return int64(len(entries)), nil
}

func (r *fakeBankRepo) ListBySubject(_ context.Context, subjectID string, aiOnly bool, limit int) ([]*entity.QuestionBankEntry, error) {
	r.listed, r.aiOnly, r.limit = subjectID, aiOnly, limit
	return r.entries, r.err
}

type fakePlanRepo struct {
	plans []*entity.StudyPlan
	inTx  bool
}

func (r *fakePlanRepo) CreateBatch(ctx context.Context, plans []*entity.StudyPlan) error {
	r.inTx = ctx.Value(txMarker{}) != nil
	r.plans = append(r.plans, plans...)
	return nil
}

func (r *fakePlanRepo) ListActiveByStudent(context.Context, string) ([]*entity.StudyPlan, error) {
	return r.plans, nil
}

type txMarker struct{}

type fakeTx struct{}

func (fakeTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(context.WithValue(ctx, txMarker{}, true))
}

func newTestEngine(h *AIHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/v1/ai")
	g.POST("/questions/generate", h.GenerateQuestions)
	g.POST("/study-plans", h.CreateStudyPlan)
	g.POST("/math/solve", h.SolveMath)
	g.POST("/tutor/ask", h.AskTutor)
	g.GET("/question-bank", h.ListQuestionBank)
	g.GET("/study-plans", h.ListStudyPlans)
	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestAIHandler_GenerateQuestionsSavesToBank(t *testing.T) {
	fa := &fakeAssistant{
		questions: func(_ context.Context, req model.QuestionRequest) (*assistant.QuestionResult, error) {
			assert.Equal(t, entity.QuestionTypeShort, req.QuestionType)
			assert.Equal(t, 2, req.Count)
			return &assistant.QuestionResult{
				Questions: []entity.Question{
					{QuestionText: "Define force", QuestionType: entity.QuestionTypeShort, CorrectAnswer: "mass times acceleration"},
				},
				Requested: 2,
				Partial:   true,
				Shortfall: 1,
			}, nil
		},
	}
	bank := &fakeBankRepo{}
	r := newTestEngine(NewAIHandler(fa, fakeTx{}, bank, &fakePlanRepo{}))

	w := postJSON(r, "/v1/ai/questions/generate",
		`{"subject":"Physics","topic":"Forces","difficulty":"easy","question_type":"short","count":2,"save_to_bank":true,"subject_id":"phy-101"}`)
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, true, data["partial"])
	assert.EqualValues(t, 1, data["shortfall"])
	assert.EqualValues(t, 1, data["saved_to_bank"])

	require.Len(t, bank.entries, 1)
	assert.Equal(t, "phy-101", bank.entries[0].SubjectID)
}

func TestAIHandler_GenerateQuestionsBankFailureStillSucceeds(t *testing.T) {
	fa := &fakeAssistant{
		questions: func(context.Context, model.QuestionRequest) (*assistant.QuestionResult, error) {
			return &assistant.QuestionResult{
				Questions: []entity.Question{{QuestionText: "Q", QuestionType: entity.QuestionTypeLong, CorrectAnswer: "A"}},
				Requested: 1,
			}, nil
		},
	}
	r := newTestEngine(NewAIHandler(fa, fakeTx{}, &fakeBankRepo{err: errors.New("db down")}, &fakePlanRepo{}))

	w := postJSON(r, "/v1/ai/questions/generate",
		`{"subject":"History","topic":"Rome","difficulty":"hard","question_type":"long","count":1,"save_to_bank":true}`)
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].(map[string]any)
	_, saved := data["saved_to_bank"]
	assert.False(t, saved)
}

func TestAIHandler_BindFailure(t *testing.T) {
	r := newTestEngine(NewAIHandler(&fakeAssistant{}, fakeTx{}, &fakeBankRepo{}, &fakePlanRepo{}))

	w := postJSON(r, "/v1/ai/math/solve", `{"problem":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(r, "/v1/ai/tutor/ask", `{"subject":"Biology"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAIHandler_TaskErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		status     int
		code       string
		retryAfter string
	}{
		{
			name:   "invalid request",
			err:    &assistant.TaskError{Kind: assistant.KindInvalidRequest, Task: model.TaskSolveMath, Stage: assistant.StageBuilding, Message: "problem is required"},
			status: http.StatusBadRequest,
			code:   "4001",
		},
		{
			name:   "timeout",
			err:    &assistant.TaskError{Kind: assistant.KindTimeout, Task: model.TaskSolveMath, Stage: assistant.StageDispatching, Message: "timeout"},
			status: http.StatusGatewayTimeout,
			code:   "4002",
		},
		{
			name:   "validation",
			err:    &assistant.TaskError{Kind: assistant.KindValidation, Task: model.TaskSolveMath, Stage: assistant.StageValidating, Message: "bad output"},
			status: http.StatusUnprocessableEntity,
			code:   "4007",
		},
		{
			name: "rate limit with retry-after",
			err: &assistant.TaskError{
				Kind:    assistant.KindRateLimit,
				Task:    model.TaskSolveMath,
				Stage:   assistant.StageDispatching,
				Message: "slow down",
				Err:     &port.InferenceError{Class: port.FailureRateLimited, StatusCode: 429, RetryAfter: 2500 * time.Millisecond},
			},
			status:     http.StatusTooManyRequests,
			code:       "4005",
			retryAfter: "3",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fa := &fakeAssistant{
				math: func(context.Context, model.MathRequest) (*assistant.MathResult, error) {
					return nil, tc.err
				},
			}
			r := newTestEngine(NewAIHandler(fa, fakeTx{}, &fakeBankRepo{}, &fakePlanRepo{}))

			w := postJSON(r, "/v1/ai/math/solve", `{"problem":"2x + 3 = 7"}`)
			require.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.retryAfter, w.Header().Get("Retry-After"))

			body := decode(t, w)
			detail := body["error"].(map[string]any)
			assert.Equal(t, tc.code, detail["error_code"])
		})
	}
}

func TestAIHandler_StudyPlanSaveRequiresStudent(t *testing.T) {
	called := false
	fa := &fakeAssistant{
		plan: func(context.Context, model.StudyPlanRequest) (*assistant.StudyPlanResult, error) {
			called = true
			return &assistant.StudyPlanResult{}, nil
		},
	}
	r := newTestEngine(NewAIHandler(fa, fakeTx{}, &fakeBankRepo{}, &fakePlanRepo{}))

	w := postJSON(r, "/v1/ai/study-plans", `{"profile":{"name":"Ana","scores":[{"subject":"Math","score":55}]},"save_plan":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, called)
}

func TestAIHandler_StudyPlanSavedInTransaction(t *testing.T) {
	fa := &fakeAssistant{
		plan: func(_ context.Context, req model.StudyPlanRequest) (*assistant.StudyPlanResult, error) {
			require.Len(t, req.Profile.Scores, 2)
			assert.Equal(t, 2024, req.Profile.Scores[0].TestDate.Year())
			return &assistant.StudyPlanResult{
				Plan:         "Week 1: fractions",
				WeakSubjects: []string{"Math", "Chemistry"},
				HoursPerDay:  2,
			}, nil
		},
	}
	plans := &fakePlanRepo{}
	r := newTestEngine(NewAIHandler(fa, fakeTx{}, &fakeBankRepo{}, plans))

	w := postJSON(r, "/v1/ai/study-plans", `{
		"profile":{
			"student_id":"stu-1",
			"name":"Ana",
			"study_hours_per_day":2,
			"scores":[
				{"subject":"Math","score":55,"test_date":"2024-03-01"},
				{"subject":"Chemistry","score":60,"test_date":"2024-03-08T10:00:00Z"}
			]
		},
		"save_plan":true
	}`)
	require.Equal(t, http.StatusOK, w.Code)

	assert.True(t, plans.inTx)
	require.Len(t, plans.plans, 2)
	assert.Equal(t, "stu-1", plans.plans[0].StudentID)

	data := decode(t, w)["data"].(map[string]any)
	assert.Len(t, data["saved_plans"], 2)
}

func getPath(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestAIHandler_ListQuestionBank(t *testing.T) {
	bank := &fakeBankRepo{entries: []*entity.QuestionBankEntry{
		entity.NewAIQuestionBankEntry("phy-101", "Forces", entity.Question{QuestionText: "Define force", QuestionType: entity.QuestionTypeShort, CorrectAnswer: "F = ma"}),
	}}
	r := newTestEngine(NewAIHandler(&fakeAssistant{}, fakeTx{}, bank, &fakePlanRepo{}))

	w := getPath(r, "/v1/ai/question-bank?subject_id=phy-101&ai_only=true&limit=10")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "phy-101", bank.listed)
	assert.True(t, bank.aiOnly)
	assert.Equal(t, 10, bank.limit)

	data := decode(t, w)["data"].(map[string]any)
	assert.EqualValues(t, 1, data["total"])

	assert.Equal(t, http.StatusBadRequest, getPath(r, "/v1/ai/question-bank").Code)
	assert.Equal(t, http.StatusBadRequest, getPath(r, "/v1/ai/question-bank?subject_id=x&limit=500").Code)
}

func TestAIHandler_ListQuestionBankStoreError(t *testing.T) {
	r := newTestEngine(NewAIHandler(&fakeAssistant{}, fakeTx{}, &fakeBankRepo{err: errors.New("db down")}, &fakePlanRepo{}))

	w := getPath(r, "/v1/ai/question-bank?subject_id=phy-101")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	detail := decode(t, w)["error"].(map[string]any)
	assert.Equal(t, "5001", detail["error_code"])
}

func TestAIHandler_ListStudyPlansEmpty(t *testing.T) {
	r := newTestEngine(NewAIHandler(&fakeAssistant{}, fakeTx{}, &fakeBankRepo{}, &fakePlanRepo{}))

	w := getPath(r, "/v1/ai/study-plans?student_id=stu-1")
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, []any{}, data["items"])
}
