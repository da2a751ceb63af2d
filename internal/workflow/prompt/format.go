package prompt

import (
	"fmt"
	"sort"
	"strings"

	"edu-ai-api/internal/domain/entity"
	"edu-ai-api/internal/domain/service"
	"edu-ai-api/internal/workflow/model"
	"edu-ai-api/internal/workflow/node"
)

const (
	maxAvoidItems = 20
	maxAvoidRunes = 160
	recentWindow  = 5
	historyWindow = 20
)

func questionTypeRules(t entity.QuestionType) string {
	switch t {
	case entity.QuestionTypeMCQ:
		return "- Each question has exactly 4 distinct options.\n" +
			"- \"correct_answer\" is copied verbatim from one of the 4 options."
	case entity.QuestionTypeTrueFalse:
		return "- Each question is a statement that is either true or false.\n" +
			"- \"correct_answer\" is exactly \"true\" or \"false\" and \"options\" is omitted."
	case entity.QuestionTypeShort:
		return "- Each question can be answered in one to three sentences.\n" +
			"- \"correct_answer\" is a concise model answer and \"options\" is omitted."
	default:
		return "- Each question requires an extended, structured answer.\n" +
			"- \"correct_answer\" outlines the key points of a full answer and \"options\" is omitted."
	}
}

func avoidBlock(avoid []string) string {
	if len(avoid) == 0 {
		return ""
	}
	if len(avoid) > maxAvoidItems {
		avoid = avoid[len(avoid)-maxAvoidItems:]
	}
	var sb strings.Builder
	sb.WriteString("\nDo not repeat any of these existing questions:\n")
	for _, q := range avoid {
		sb.WriteString("- ")
		sb.WriteString(node.TruncateByRunes(node.CollapseSpace(q), maxAvoidRunes))
		sb.WriteString("\n")
	}
	return sb.String()
}

func questionExample(t entity.QuestionType, d entity.Difficulty) string {
	switch t {
	case entity.QuestionTypeMCQ:
		return fmt.Sprintf(`{"question_text": "...", "question_type": "mcq", "options": ["...", "...", "...", "..."], "correct_answer": "...", "explanation": "...", "difficulty": "%s", "bloom_level": "apply", "estimated_time": 2}`, d)
	case entity.QuestionTypeTrueFalse:
		return fmt.Sprintf(`{"question_text": "...", "question_type": "true_false", "correct_answer": "true", "explanation": "...", "difficulty": "%s", "bloom_level": "understand", "estimated_time": 1}`, d)
	default:
		return fmt.Sprintf(`{"question_text": "...", "question_type": "%s", "correct_answer": "...", "explanation": "...", "difficulty": "%s", "bloom_level": "analyze", "estimated_time": 5}`, t, d)
	}
}

func questionFormatBlock(f model.RecordFormat, t entity.QuestionType, d entity.Difficulty, count int) string {
	example := questionExample(t, d)
	if f == model.RecordFormatJSONL {
		return fmt.Sprintf("Output format:\nReturn exactly %d lines. Each line is one complete JSON object describing one question, for example:\n%s\nDo not wrap the lines in an array and do not add any other text.", count, example)
	}
	return fmt.Sprintf("Output format:\nReturn a single JSON object with a \"questions\" array containing exactly %d items, for example:\n{\"questions\": [%s]}\nDo not add any text before or after the JSON.", count, example)
}

func stepsFormatBlock(f model.RecordFormat) string {
	if f == model.RecordFormatJSONL {
		return "Output format:\nWrite one line per step, each starting with \"Step N:\" where N counts from 1.\nEnd with a single line starting with \"Final Answer:\" followed by the answer."
	}
	return "Output format:\nReturn a single JSON object, for example:\n" +
		`{"steps": ["Step 1 ...", "Step 2 ..."], "final_answer": "...", "concepts": ["..."], "tips": "..."}` +
		"\nDo not add any text before or after the JSON."
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}

func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = node.CollapseSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func subjectNames(summary service.PerformanceSummary) []string {
	names := make([]string, 0, len(summary.SubjectAverages))
	for _, sa := range summary.SubjectAverages {
		names = append(names, sa.Subject)
	}
	return names
}

func subjectAverages(summary service.PerformanceSummary) string {
	if len(summary.SubjectAverages) == 0 {
		return "No test scores recorded"
	}
	parts := make([]string, 0, len(summary.SubjectAverages))
	for _, sa := range summary.SubjectAverages {
		parts = append(parts, fmt.Sprintf("%s: %.1f%% (%d tests)", sa.Subject, sa.Average, sa.Tests))
	}
	return strings.Join(parts, "; ")
}

// sortedByDate 按测验日期升序，日期相同保持输入顺序
func sortedByDate(scores []entity.TestScore) []entity.TestScore {
	ordered := make([]entity.TestScore, len(scores))
	copy(ordered, scores)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].TestDate.Before(ordered[j].TestDate)
	})
	return ordered
}

func recentScores(scores []entity.TestScore) string {
	ordered := sortedByDate(scores)
	if len(ordered) > recentWindow {
		ordered = ordered[len(ordered)-recentWindow:]
	}
	parts := make([]string, 0, len(ordered))
	for _, s := range ordered {
		parts = append(parts, fmt.Sprintf("%s %.0f", s.Subject, s.Score))
	}
	return strings.Join(parts, ", ")
}

func testHistory(scores []entity.TestScore) string {
	ordered := sortedByDate(scores)
	if len(ordered) > historyWindow {
		ordered = ordered[len(ordered)-historyWindow:]
	}
	lines := make([]string, 0, len(ordered))
	for _, s := range ordered {
		date := "undated"
		if !s.TestDate.IsZero() {
			date = s.TestDate.Format("2006-01-02")
		}
		lines = append(lines, fmt.Sprintf("- %s: %s %.1f", date, s.Subject, s.Score))
	}
	return strings.Join(lines, "\n")
}
