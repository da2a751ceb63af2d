package prompt

import (
	"embed"
	"fmt"
	"strings"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed templates/*.txt
var templatesFS embed.FS

type PromptID string

const (
	PromptQuestionGenV1         PromptID = "question_gen_v1"
	PromptPerformanceAnalysisV1 PromptID = "performance_analysis_v1"
	PromptStudyPlanV1           PromptID = "study_plan_v1"
	PromptMathSolverV1          PromptID = "math_solver_v1"
	PromptConceptExplainV1      PromptID = "concept_explain_v1"
	PromptTutorAnswerV1         PromptID = "tutor_answer_v1"
)

var knownPrompts = []PromptID{
	PromptQuestionGenV1,
	PromptPerformanceAnalysisV1,
	PromptStudyPlanV1,
	PromptMathSolverV1,
	PromptConceptExplainV1,
	PromptTutorAnswerV1,
}

// Registry 持有全部已解析的对话模板。构造后只读，可被并发调用共享。
type Registry struct {
	templates map[PromptID]einoprompt.ChatTemplate
}

// NewRegistry 一次性解析全部嵌入模板；模板缺失属于构建错误，直接 panic
func NewRegistry() *Registry {
	r := &Registry{templates: make(map[PromptID]einoprompt.ChatTemplate, len(knownPrompts))}
	for _, id := range knownPrompts {
		tpl, err := loadTemplate(id)
		if err != nil {
			panic(err)
		}
		r.templates[id] = tpl
	}
	return r
}

func (r *Registry) ChatTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	if r == nil {
		return nil, fmt.Errorf("prompt registry is nil")
	}
	tpl, ok := r.templates[id]
	if !ok {
		return nil, fmt.Errorf("unknown prompt id %s", id)
	}
	return tpl, nil
}

// loadTemplate 每个模板由 <id>.system.txt 与 <id>.user.txt 两条消息组成
func loadTemplate(id PromptID) (einoprompt.ChatTemplate, error) {
	parts := make([]string, 0, 2)
	for _, role := range []string{"system", "user"} {
		b, err := templatesFS.ReadFile(fmt.Sprintf("templates/%s.%s.txt", id, role))
		if err != nil {
			return nil, fmt.Errorf("prompt %s: missing %s template: %w", id, role, err)
		}
		parts = append(parts, strings.TrimSpace(string(b)))
	}
	return einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(parts[0]),
		schema.UserMessage(parts[1]),
	), nil
}
