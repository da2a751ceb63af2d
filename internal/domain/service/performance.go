package service

import (
	"sort"

	"edu-ai-api/internal/domain/entity"
)

const (
	// areaMargin 薄弱/优势科目相对科目均分的阈值（百分点）
	areaMargin = 10.0
	// trendWindow 计算进步幅度时首尾各取的测验数
	trendWindow = 5
)

// SubjectAverage 科目平均分
type SubjectAverage struct {
	Subject string  `json:"subject"`
	Average float64 `json:"average"`
	Tests   int     `json:"tests"`
}

// PerformanceSummary 由成绩历史确定性推导出的画像摘要
type PerformanceSummary struct {
	TestCount       int              `json:"test_count"`
	Average         float64          `json:"average"`
	SubjectAverages []SubjectAverage `json:"subject_averages"`
	WeakAreas       []string         `json:"weak_areas"`
	StrongAreas     []string         `json:"strong_areas"`
	// Improvement 最近五次均分减最早五次均分，不足两次测验时为 0
	Improvement float64 `json:"improvement"`
}

// SummarizePerformance 计算总体均分、科目均分、薄弱/优势科目与进步幅度
func SummarizePerformance(scores []entity.TestScore) PerformanceSummary {
	summary := PerformanceSummary{
		TestCount:       len(scores),
		SubjectAverages: []SubjectAverage{},
		WeakAreas:       []string{},
		StrongAreas:     []string{},
	}
	if len(scores) == 0 {
		return summary
	}

	var total float64
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, s := range scores {
		total += s.Score
		sums[s.Subject] += s.Score
		counts[s.Subject]++
	}
	summary.Average = total / float64(len(scores))

	var meanOfSubjects float64
	for subject, sum := range sums {
		avg := sum / float64(counts[subject])
		summary.SubjectAverages = append(summary.SubjectAverages, SubjectAverage{Subject: subject, Average: avg, Tests: counts[subject]})
		meanOfSubjects += avg
	}
	sort.Slice(summary.SubjectAverages, func(i, j int) bool {
		return summary.SubjectAverages[i].Subject < summary.SubjectAverages[j].Subject
	})
	meanOfSubjects /= float64(len(sums))

	for _, sa := range summary.SubjectAverages {
		switch {
		case sa.Average < meanOfSubjects-areaMargin:
			summary.WeakAreas = append(summary.WeakAreas, sa.Subject)
		case sa.Average > meanOfSubjects+areaMargin:
			summary.StrongAreas = append(summary.StrongAreas, sa.Subject)
		}
	}

	summary.Improvement = improvement(scores)
	return summary
}

func improvement(scores []entity.TestScore) float64 {
	if len(scores) < 2 {
		return 0
	}
	ordered := make([]entity.TestScore, len(scores))
	copy(ordered, scores)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].TestDate.Before(ordered[j].TestDate)
	})

	n := min(trendWindow, len(ordered))
	return mean(ordered[len(ordered)-n:]) - mean(ordered[:n])
}

func mean(scores []entity.TestScore) float64 {
	var sum float64
	for _, s := range scores {
		sum += s.Score
	}
	return sum / float64(len(scores))
}
