package service

import (
	"adaptive_learning_backend/internal/model"
	"math"
	"sort"
)

// 薄弱技能对应的强化练习
var reinforcementFor = map[model.SkillTag]model.SkillTag{
	model.SkillGrammar:   model.SkillChineseToEnglish,
	model.SkillListening: model.SkillEnglishToChinese,
}

const (
	priorityWeakest       = 10
	priorityReinforcement = 8
	priorityMaintain      = 5
)

// SkillsByLevel 按熟练度升序排列，相同熟练度按枚举顺序
func SkillsByLevel(profile *model.LearnerProfile) []model.SkillTag {
	skills := model.AllSkills()
	sort.SliceStable(skills, func(i, j int) bool {
		return profile.Level(skills[i]) < profile.Level(skills[j])
	})
	return skills
}

func pathDifficulty(level float64) model.Difficulty {
	switch {
	case level < 30:
		return model.DifficultyBeginner
	case level < 60:
		return model.DifficultyIntermediate
	default:
		return model.DifficultyAdvanced
	}
}

// SuggestPath 以最薄弱的技能为起点生成下一步学习队列
func SuggestPath(profile *model.LearnerProfile) model.LearningPathSuggestion {
	weakest := SkillsByLevel(profile)[0]
	level := profile.Level(weakest)

	queue := []model.SuggestedActivity{{
		ActivityType: weakest,
		Priority:     priorityWeakest,
		Reason:       "lowest proficiency, focus here first",
	}}
	queued := map[model.SkillTag]bool{weakest: true}

	if next, ok := reinforcementFor[weakest]; ok {
		queue = append(queue, model.SuggestedActivity{
			ActivityType: next,
			Priority:     priorityReinforcement,
			Reason:       "reinforces " + string(weakest) + " through translation practice",
		})
		queued[next] = true
	}

	for _, m := range profile.RecentPerformance {
		if m.AccuracyRate > 85 && !queued[m.ActivityType] {
			queue = append(queue, model.SuggestedActivity{
				ActivityType: m.ActivityType,
				Priority:     priorityMaintain,
				Reason:       "maintain this skill",
			})
			break
		}
	}

	return model.LearningPathSuggestion{
		CurrentActivityType:     weakest,
		SuggestedNextActivities: queue,
		RecommendedDifficulty:   pathDifficulty(level),
		FocusAreas:              append([]string{}, profile.StrugglingAreas...),
		EstimatedTimeToMastery:  int(math.Round(math.Max(30, 120-level))),
	}
}
