package model

import "math"

// DefaultFeedback is injected for any score the model returned without feedback.
const DefaultFeedback = "No specific feedback provided for this category."

// CategoryScore is the evaluation of one accessibility category.
type CategoryScore struct {
	// Category is the display label, one of the five fixed categories.
	Category string `json:"category"`

	// Score is an integer in [0,100].
	Score int `json:"score"`

	// Feedback is the model's explanation for the score. Never empty.
	Feedback string `json:"feedback"`
}

// Grade returns the grade band of the score.
func (s CategoryScore) Grade() Grade {
	return GradeOf(s.Score)
}

// AnalysisReport is the terminal output of one pipeline run.
// Its JSON form is exactly {"scores": [...], "implementation_plan": "..."}.
type AnalysisReport struct {
	// Scores holds one entry per category in canonical order.
	Scores []CategoryScore `json:"scores"`

	// ImplementationPlan is the prioritized remediation plan. Never empty.
	ImplementationPlan string `json:"implementation_plan"`
}

// OverallScore returns the rounded mean of all category scores, or 0 when
// the report has no scores.
func (r *AnalysisReport) OverallScore() int {
	if r == nil || len(r.Scores) == 0 {
		return 0
	}
	total := 0
	for _, s := range r.Scores {
		total += s.Score
	}
	return int(math.Round(float64(total) / float64(len(r.Scores))))
}

// Score returns the entry for a category.
func (r *AnalysisReport) Score(c Category) (CategoryScore, bool) {
	if r == nil {
		return CategoryScore{}, false
	}
	for _, s := range r.Scores {
		if s.Category == string(c) {
			return s, true
		}
	}
	return CategoryScore{}, false
}

// Lowest returns the weakest category. Ties resolve to the earliest entry.
func (r *AnalysisReport) Lowest() (CategoryScore, bool) {
	if r == nil || len(r.Scores) == 0 {
		return CategoryScore{}, false
	}
	lowest := r.Scores[0]
	for _, s := range r.Scores[1:] {
		if s.Score < lowest.Score {
			lowest = s
		}
	}
	return lowest, true
}

// GradeCounts returns how many categories fall into each grade band.
func (r *AnalysisReport) GradeCounts() map[Grade]int {
	counts := make(map[Grade]int)
	if r == nil {
		return counts
	}
	for _, s := range r.Scores {
		counts[s.Grade()]++
	}
	return counts
}
