package service

import (
	"adaptive_learning_backend/internal/model"
	"math"
	"sort"
)

// EvaluationWindow 评估时取最近的表现条数
const EvaluationWindow = 5

// 技能较低时额外补充的提升方向
var domainImprovementAreas = map[model.SkillTag]string{
	model.SkillGrammar:    "basic grammar structures",
	model.SkillListening:  "listening comprehension",
	model.SkillVocabulary: "core vocabulary",
	model.SkillSpeaking:   "pronunciation",
}

const domainImprovementThreshold = 60

// RecentFor 返回该技能最近的表现，按时间倒序，最多 limit 条
func RecentFor(profile *model.LearnerProfile, activityType model.SkillTag, limit int) []model.PerformanceMetrics {
	var selected []model.PerformanceMetrics
	for _, m := range profile.RecentPerformance {
		if m.ActivityType == activityType {
			selected = append(selected, m)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Timestamp.After(selected[j].Timestamp)
	})
	if len(selected) > limit {
		selected = selected[:limit]
	}
	return selected
}

// Evaluate 汇总某技能最近的表现，不修改画像
func Evaluate(profile *model.LearnerProfile, activityType model.SkillTag) model.Evaluation {
	eval := model.Evaluation{
		ActivityType:     activityType,
		Weaknesses:       []string{},
		Strengths:        []string{},
		ImprovementAreas: []string{},
	}

	recent := RecentFor(profile, activityType, EvaluationWindow)
	if len(recent) == 0 {
		return eval
	}

	var accuracy, speed, hints float64
	for _, m := range recent {
		accuracy += m.AccuracyRate
		speed += m.CompletionTime / m.ExpectedTime
		hints += float64(m.HintUsage)
	}
	n := float64(len(recent))
	accuracy /= n
	speed /= n
	hints /= n

	eval.SampleSize = len(recent)
	eval.OverallScore = math.Round(accuracy)
	eval.ReadinessForNextLevel = accuracy > 85 && len(recent) >= 3

	if accuracy < 70 {
		eval.Weaknesses = append(eval.Weaknesses, "accuracy")
	} else {
		eval.Strengths = append(eval.Strengths, "accuracy")
	}

	if speed > 1.2 {
		eval.Weaknesses = append(eval.Weaknesses, "reaction speed")
	} else if speed < 0.9 {
		eval.Strengths = append(eval.Strengths, "reaction speed")
	}

	if hints > 2 {
		eval.Weaknesses = append(eval.Weaknesses, "independent problem solving")
	} else {
		eval.Strengths = append(eval.Strengths, "independent thinking")
	}

	eval.ImprovementAreas = append(eval.ImprovementAreas, eval.Weaknesses...)
	if area, ok := domainImprovementAreas[activityType]; ok && profile.Level(activityType) < domainImprovementThreshold {
		eval.ImprovementAreas = append(eval.ImprovementAreas, area)
	}
	return eval
}
