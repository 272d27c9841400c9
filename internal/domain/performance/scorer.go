package performance

import (
	"fmt"
	"math"

	"hrms/internal/platform/apperr"
)

// ScoreItems turns per-item inputs into weighted scores, their total, the
// weighted average on a 0-100 scale, and a letter grade.
func ScoreItems(items []ScoreInput) (Summary, error) {
	out := Summary{Scores: make([]Score, 0, len(items))}
	var totalWeight float64
	for i, item := range items {
		if item.MaxScore <= 0 {
			return Summary{}, apperr.Validation(fmt.Sprintf("scores[%d].maxScore", i), "must be greater than zero")
		}
		weighted := item.Score / item.MaxScore * item.Weight
		out.Scores = append(out.Scores, Score{
			CriteriaItem:  item.CriteriaItem,
			Weight:        item.Weight,
			MaxScore:      item.MaxScore,
			Score:         item.Score,
			WeightedScore: weighted,
			Comments:      item.Comments,
		})
		out.TotalScore += weighted
		totalWeight += item.Weight
	}
	if totalWeight > 0 {
		out.WeightedAverage = out.TotalScore / totalWeight * 100
	}
	out.Grade = Grade(out.WeightedAverage)
	return out, nil
}

// Grade maps a 0-100 score to S/A/B/C/D with inclusive lower bounds.
func Grade(score float64) string {
	switch {
	case score >= 90:
		return "S"
	case score >= 80:
		return "A"
	case score >= 70:
		return "B"
	case score >= 60:
		return "C"
	default:
		return "D"
	}
}

// ValidateItemWeights requires a non-empty item list to total 100.
func ValidateItemWeights(items []ItemInput) error {
	if len(items) == 0 {
		return nil
	}
	var sum float64
	for _, it := range items {
		sum += it.Weight
	}
	if math.Abs(sum-100) > itemWeightTolerance {
		return apperr.Validation("items", fmt.Sprintf("item weights must total 100, got %.2f", sum))
	}
	return nil
}
