package assistant

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"edu-ai-api/internal/domain/entity"
	"edu-ai-api/internal/workflow/model"
	"edu-ai-api/internal/workflow/node"
	"edu-ai-api/pkg/metrics"
)

const (
	mcqOptionCount = 4
	maxIssueRunes  = 120
)

var (
	reStepLine   = regexp.MustCompile(`(?i)^\s*(?:[*#]+\s*)?step\s*(\d+)\s*(?:\*\*)?\s*[:.)\-]\s*(?:\*\*)?\s*(.*)$`)
	reFinalLine  = regexp.MustCompile(`(?i)^\s*(?:[*#]+\s*)?final\s+answer\s*(?:\*\*)?\s*[:：]\s*(?:\*\*)?\s*(.*)$`)
	stepTextKeys = []string{"step", "explanation", "description", "text", "content"}
)

// Output 校验通过的输出，取值为 *QuestionSet、*MathSolution 或 *TextPayload
type Output interface {
	shape() model.SchemaShape
}

// QuestionSet 通过逐字段校验的题目；Rejected 记录被丢弃候选的原因
type QuestionSet struct {
	Questions []entity.Question
	Rejected  []string
}

func (*QuestionSet) shape() model.SchemaShape { return model.ShapeQuestions }

// MathSolution 解题步骤与最终答案
type MathSolution struct {
	Steps       []string
	FinalAnswer string
	Concepts    []string
	Tips        string
	Rejected    []string
}

func (*MathSolution) shape() model.SchemaShape { return model.ShapeSteps }

// TextPayload 单一文本载荷
type TextPayload struct {
	Content string
}

func (*TextPayload) shape() model.SchemaShape { return model.ShapeText }

// ValidationError 整个响应在结构上无法恢复
type ValidationError struct {
	Shape  model.SchemaShape
	Reason string
	Issues []string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s response invalid: %s", e.Shape, e.Reason)
	if len(e.Issues) > 0 {
		msg += " (" + strings.Join(e.Issues, "; ") + ")"
	}
	return msg
}

// Validator 按任务结构契约解析并校验模型输出。无状态，可并发使用。
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Validate 单条记录不合格时丢弃并记录原因，只有整体无法解析时返回 *ValidationError
func (v *Validator) Validate(raw string, schema model.TaskSchema) (Output, error) {
	switch schema.Shape {
	case model.ShapeQuestions:
		return v.validateQuestions(raw, schema)
	case model.ShapeSteps:
		return v.validateSteps(raw, schema)
	case model.ShapeText:
		content := strings.TrimSpace(raw)
		if content == "" {
			return nil, &ValidationError{Shape: model.ShapeText, Reason: "empty content"}
		}
		return &TextPayload{Content: content}, nil
	default:
		return nil, &ValidationError{Shape: schema.Shape, Reason: "unknown schema shape"}
	}
}

func (v *Validator) validateQuestions(raw string, schema model.TaskSchema) (*QuestionSet, error) {
	set, err := node.ExtractRecords(raw, "questions")
	if err != nil {
		return nil, &ValidationError{Shape: model.ShapeQuestions, Reason: err.Error()}
	}

	out := &QuestionSet{}
	seen := make(map[string]struct{}, len(set.Records))
	for i, rec := range set.Records {
		path := fmt.Sprintf("questions[%d]", i)
		q, issues := parseQuestion(rec, schema.QuestionType)
		if len(issues) > 0 {
			out.Rejected = append(out.Rejected, path+": "+strings.Join(issues, ", "))
			continue
		}
		key := q.NormalizedText()
		if _, ok := seen[key]; ok {
			out.Rejected = append(out.Rejected, path+": duplicated question_text")
			continue
		}
		seen[key] = struct{}{}
		out.Questions = append(out.Questions, q)
	}
	if set.Truncated {
		out.Rejected = append(out.Rejected, "questions: output truncated after last complete record")
	}

	metrics.RecordsValidated.WithLabelValues(string(schema.Kind), "accepted").Add(float64(len(out.Questions)))
	metrics.RecordsValidated.WithLabelValues(string(schema.Kind), "rejected").Add(float64(len(set.Records) - len(out.Questions)))
	return out, nil
}

// parseQuestion 逐字段校验一条候选记录，不做任何语义修补
func parseQuestion(rec json.RawMessage, want entity.QuestionType) (entity.Question, []string) {
	var q entity.Question
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(rec, &fields); err != nil || fields == nil {
		return q, []string{"not a JSON object"}
	}

	var issues []string

	text, ok := stringField(fields, "question_text", "question")
	q.QuestionText = strings.TrimSpace(text)
	if !ok || q.QuestionText == "" {
		issues = append(issues, "question_text is required")
	}

	typ, _ := stringField(fields, "question_type", "type")
	q.QuestionType = entity.QuestionType(strings.ToLower(strings.TrimSpace(typ)))
	switch {
	case q.QuestionType == "":
		issues = append(issues, "question_type is required")
	case !q.QuestionType.Valid():
		issues = append(issues, "question_type invalid: "+clip(typ))
	case want != "" && q.QuestionType != want:
		issues = append(issues, fmt.Sprintf("question_type %s does not match requested %s", q.QuestionType, want))
	}

	options, optIssue := optionsField(fields)
	if optIssue != "" {
		issues = append(issues, optIssue)
	}
	if q.QuestionType == entity.QuestionTypeMCQ {
		issues = append(issues, checkOptions(options)...)
		q.Options = options
	} else if len(options) > 0 {
		issues = append(issues, "options must be omitted for "+string(q.QuestionType))
	}

	answer, answerIssue := correctAnswer(fields, q.QuestionType, q.Options)
	if answerIssue != "" {
		issues = append(issues, answerIssue)
	}
	q.CorrectAnswer = answer

	if exp, ok := stringField(fields, "explanation"); ok {
		q.Explanation = strings.TrimSpace(exp)
	}

	diff, _ := stringField(fields, "difficulty")
	q.Difficulty = entity.Difficulty(strings.ToLower(strings.TrimSpace(diff)))
	if !q.Difficulty.Valid() {
		issues = append(issues, "difficulty invalid: "+clip(diff))
	}

	bloom, _ := stringField(fields, "bloom_level", "bloom")
	q.BloomLevel = entity.BloomLevel(strings.ToLower(strings.TrimSpace(bloom)))
	if !q.BloomLevel.Valid() {
		issues = append(issues, "bloom_level invalid: "+clip(bloom))
	}

	minutes, ok := positiveInt(fields["estimated_time"])
	if !ok {
		issues = append(issues, "estimated_time must be a positive integer")
	}
	q.EstimatedTime = minutes

	return q, issues
}

func checkOptions(options []string) []string {
	var issues []string
	if len(options) != mcqOptionCount {
		issues = append(issues, fmt.Sprintf("mcq requires exactly %d options, got %d", mcqOptionCount, len(options)))
	}
	seen := make(map[string]struct{}, len(options))
	for i, opt := range options {
		if opt == "" {
			issues = append(issues, fmt.Sprintf("options[%d] is empty", i))
			continue
		}
		key := strings.ToLower(opt)
		if _, ok := seen[key]; ok {
			issues = append(issues, fmt.Sprintf("options[%d] duplicated", i))
		}
		seen[key] = struct{}{}
	}
	return issues
}

// correctAnswer 校验答案与题型一致，并返回规范化后的答案
func correctAnswer(fields map[string]json.RawMessage, typ entity.QuestionType, options []string) (string, string) {
	raw, ok := firstField(fields, "correct_answer", "answer")
	if !ok || isNull(raw) {
		return "", "correct_answer is required"
	}

	switch typ {
	case entity.QuestionTypeMCQ:
		if idx, isInt := jsonInt(raw); isInt {
			if idx >= 0 && idx < len(options) {
				return options[idx], ""
			}
			return "", "correct_answer index out of range"
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", "correct_answer must be an option"
		}
		s = strings.TrimSpace(s)
		for _, opt := range options {
			if strings.EqualFold(opt, s) {
				return opt, ""
			}
		}
		return "", "correct_answer is not one of the options"

	case entity.QuestionTypeTrueFalse:
		var b bool
		if err := json.Unmarshal(raw, &b); err == nil {
			return strconv.FormatBool(b), ""
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			switch strings.ToLower(strings.TrimSpace(s)) {
			case "true":
				return "true", ""
			case "false":
				return "false", ""
			}
		}
		return "", "correct_answer must be true or false"

	default:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || strings.TrimSpace(s) == "" {
			return "", "correct_answer must be a non-empty string"
		}
		return strings.TrimSpace(s), ""
	}
}

func optionsField(fields map[string]json.RawMessage) ([]string, string) {
	raw, ok := fields["options"]
	if !ok || isNull(raw) {
		return nil, ""
	}
	var opts []string
	if err := json.Unmarshal(raw, &opts); err != nil {
		return nil, "options must be an array of strings"
	}
	for i := range opts {
		opts[i] = strings.TrimSpace(opts[i])
	}
	return opts, ""
}

func (v *Validator) validateSteps(raw string, schema model.TaskSchema) (*MathSolution, error) {
	sol, ok := stepsFromJSON(raw)
	if !ok || len(sol.Steps) == 0 {
		if labelled, lok := stepsFromLabels(raw); lok {
			sol = labelled
		}
	}
	if sol == nil {
		return nil, &ValidationError{Shape: model.ShapeSteps, Reason: node.ErrNoRecords.Error()}
	}

	var issues []string
	if len(sol.Steps) == 0 {
		issues = append(issues, "no valid step")
	}
	if sol.FinalAnswer == "" {
		issues = append(issues, "final_answer is required")
	}

	metrics.RecordsValidated.WithLabelValues(string(schema.Kind), "accepted").Add(float64(len(sol.Steps)))
	metrics.RecordsValidated.WithLabelValues(string(schema.Kind), "rejected").Add(float64(len(sol.Rejected)))

	if len(issues) > 0 {
		return nil, &ValidationError{Shape: model.ShapeSteps, Reason: "incomplete solution", Issues: issues}
	}
	return sol, nil
}

func stepsFromJSON(raw string) (*MathSolution, bool) {
	set, err := node.ExtractRecords(raw, "steps")
	if err != nil {
		return nil, false
	}

	sol := &MathSolution{}
	for i, rec := range set.Records {
		text, ok := stepText(rec)
		if !ok {
			sol.Rejected = append(sol.Rejected, fmt.Sprintf("steps[%d]: empty or not text", i))
			continue
		}
		sol.Steps = append(sol.Steps, text)
	}

	if fa, ok := set.Fields["final_answer"]; ok {
		sol.FinalAnswer = scalarText(fa)
	} else if fa, ok := set.Fields["answer"]; ok {
		sol.FinalAnswer = scalarText(fa)
	}
	if c, ok := set.Fields["concepts"]; ok {
		var concepts []string
		if json.Unmarshal(c, &concepts) == nil {
			for _, s := range concepts {
				if s = strings.TrimSpace(s); s != "" {
					sol.Concepts = append(sol.Concepts, s)
				}
			}
		}
	}
	if t, ok := set.Fields["tips"]; ok {
		sol.Tips = scalarText(t)
	}
	return sol, true
}

// stepsFromLabels 解析 "Step N: ..." / "Final Answer: ..." 标注格式，未标注的续行并入上一步
func stepsFromLabels(raw string) (*MathSolution, bool) {
	sol := &MathSolution{}
	current := -1
	inFinal := false
	for _, line := range strings.Split(node.StripCodeFences(raw), "\n") {
		if m := reFinalLine.FindStringSubmatch(line); m != nil {
			sol.FinalAnswer = strings.TrimSpace(m[1])
			inFinal = true
			continue
		}
		if m := reStepLine.FindStringSubmatch(line); m != nil {
			inFinal = false
			text := strings.TrimSpace(m[2])
			if text == "" {
				// 步骤内容可能在下一行
				sol.Steps = append(sol.Steps, "")
			} else {
				sol.Steps = append(sol.Steps, text)
			}
			current = len(sol.Steps) - 1
			continue
		}
		text := strings.TrimSpace(line)
		switch {
		case text == "":
		case inFinal && sol.FinalAnswer == "":
			sol.FinalAnswer = text
		case !inFinal && current >= 0:
			sol.Steps[current] = strings.TrimSpace(sol.Steps[current] + " " + text)
		}
	}

	steps := sol.Steps[:0]
	for i, s := range sol.Steps {
		if s == "" {
			sol.Rejected = append(sol.Rejected, fmt.Sprintf("steps[%d]: empty", i))
			continue
		}
		steps = append(steps, s)
	}
	sol.Steps = steps
	if len(sol.Steps) == 0 && sol.FinalAnswer == "" {
		return nil, false
	}
	return sol, true
}

func stepText(rec json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(rec, &s); err == nil {
		s = strings.TrimSpace(s)
		return s, s != ""
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(rec, &fields); err != nil {
		return "", false
	}
	if text, ok := stringField(fields, stepTextKeys...); ok {
		text = strings.TrimSpace(text)
		return text, text != ""
	}
	return "", false
}

func firstField(fields map[string]json.RawMessage, keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		if raw, ok := fields[k]; ok {
			return raw, true
		}
	}
	return nil, false
}

// stringField 返回第一个存在且为字符串的字段
func stringField(fields map[string]json.RawMessage, keys ...string) (string, bool) {
	for _, k := range keys {
		raw, ok := fields[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s, true
		}
	}
	return "", false
}

func scalarText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || isNull(trimmed) || trimmed[0] == '{' || trimmed[0] == '[' {
		return ""
	}
	// 数字或布尔答案保留其字面量
	return string(trimmed)
}

// positiveInt 只接受 JSON 整数字面量 > 0，字符串与小数均拒绝
func positiveInt(raw json.RawMessage) (int, bool) {
	n, ok := jsonInt(raw)
	if !ok || n <= 0 {
		return 0, false
	}
	return n, true
}

func jsonInt(raw json.RawMessage) (int, bool) {
	s := string(bytes.TrimSpace(raw))
	if s == "" || strings.ContainsAny(s, `".eE`) {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

func clip(s string) string {
	s = node.CollapseSpace(s)
	if s == "" {
		return "(empty)"
	}
	return node.TruncateByRunes(s, maxIssueRunes)
}

// IsValidationError 判断错误是否为整体结构校验失败
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
