package model

// Grade is the qualitative band a category score falls into.
// The bands follow the report viewer: 90 and above is excellent, 70 and above
// is good, 50 and above needs improvement and anything lower is poor.
type Grade int

const (
	// GradePoor indicates a score below 50.
	GradePoor Grade = iota
	// GradeNeedsImprovement indicates a score from 50 to 69.
	GradeNeedsImprovement
	// GradeGood indicates a score from 70 to 89.
	GradeGood
	// GradeExcellent indicates a score of 90 or more.
	GradeExcellent
)

// GradeOf returns the grade band for a score.
func GradeOf(score int) Grade {
	switch {
	case score >= 90:
		return GradeExcellent
	case score >= 70:
		return GradeGood
	case score >= 50:
		return GradeNeedsImprovement
	default:
		return GradePoor
	}
}

// String returns the machine-friendly name of the grade.
func (g Grade) String() string {
	switch g {
	case GradeExcellent:
		return "excellent"
	case GradeGood:
		return "good"
	case GradeNeedsImprovement:
		return "needs-improvement"
	case GradePoor:
		return "poor"
	default:
		return "unknown"
	}
}

// Label returns the human-readable name of the grade.
func (g Grade) Label() string {
	switch g {
	case GradeExcellent:
		return "Excellent"
	case GradeGood:
		return "Good"
	case GradeNeedsImprovement:
		return "Needs Improvement"
	case GradePoor:
		return "Poor"
	default:
		return "Unknown"
	}
}

// Emoji returns the badge shown next to a score in text reports.
func (g Grade) Emoji() string {
	switch g {
	case GradeExcellent:
		return "✅"
	case GradeGood:
		return "👍"
	case GradeNeedsImprovement:
		return "⚠️"
	default:
		return "❌"
	}
}
