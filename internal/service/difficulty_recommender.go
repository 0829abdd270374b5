package service

import (
	"adaptive_learning_backend/internal/model"
	"fmt"
)

const (
	ReasonRespectPreference = "respecting user preference"
	ReasonConsolidate       = "maintain current level to consolidate"
)

// RecommendDifficulty 按规则顺序给出难度建议，第一条命中的规则生效
func RecommendDifficulty(profile *model.LearnerProfile, eval model.Evaluation, activityType model.SkillTag) model.DifficultyRecommendation {
	level := profile.Level(activityType)
	current := profile.PreferredDifficulty

	rec := model.DifficultyRecommendation{
		ActivityType:         activityType,
		CurrentDifficulty:    current,
		NewDifficulty:        current,
		Reason:               ReasonConsolidate,
		AdjustmentMagnitude:  model.MagnitudeSlight,
		Focus:                focusFor(eval, level),
		RecommendedResources: resourcesFor(level),
	}

	switch {
	case !profile.AdaptiveMode:
		rec.Reason = ReasonRespectPreference

	case eval.ReadinessForNextLevel && level > 75:
		rec.NewDifficulty = model.DifficultyAdvanced
		if level > 90 {
			rec.NewDifficulty = model.DifficultyExpert
		}
		rec.AdjustmentMagnitude = model.MagnitudeModerate
		rec.Reason = fmt.Sprintf("consistently high accuracy (%.0f%%) at skill level %.1f, ready for harder material", eval.OverallScore, level)

	case len(eval.Weaknesses) > len(eval.Strengths) && level < 50:
		rec.NewDifficulty = model.DifficultyIntermediate
		if level < 30 {
			rec.NewDifficulty = model.DifficultyBeginner
		}
		rec.AdjustmentMagnitude = model.MagnitudeModerate
		rec.Reason = fmt.Sprintf("more weaknesses than strengths at skill level %.1f, easing difficulty", level)

	case eval.OverallScore < 60:
		rec.NewDifficulty = model.DifficultyBeginner
		rec.Reason = fmt.Sprintf("recent accuracy %.0f%% is below 60%%, rebuilding fundamentals", eval.OverallScore)

	case eval.OverallScore > 90 && current != model.DifficultyExpert:
		rec.NewDifficulty = current.Next()
		rec.AdjustmentMagnitude = model.MagnitudeSignificant
		rec.Reason = fmt.Sprintf("recent accuracy %.0f%% exceeds 90%%, moving up one tier", eval.OverallScore)
	}

	return rec
}

func focusFor(eval model.Evaluation, level float64) []string {
	if len(eval.ImprovementAreas) > 0 {
		return append([]string{}, eval.ImprovementAreas...)
	}
	switch {
	case level < 40:
		return []string{"core fundamentals", "guided practice"}
	case level < 70:
		return []string{"applied practice", "consistency across sessions"}
	default:
		return []string{"advanced challenges", "fluency and nuance"}
	}
}

func resourcesFor(level float64) []string {
	switch {
	case level < 40:
		return []string{"beginner video lessons", "illustrated flashcards", "step-by-step exercises"}
	case level < 70:
		return []string{"interactive exercises", "graded readers", "short audio dialogues"}
	default:
		return []string{"authentic materials", "timed challenges", "open-ended writing prompts"}
	}
}
