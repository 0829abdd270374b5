package service

import (
	"adaptive_learning_backend/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestPathDefaultProfile(t *testing.T) {
	p := model.NewLearnerProfile("u1")

	path := SuggestPath(p)

	assert.Equal(t, model.SkillSpeaking, path.CurrentActivityType)
	require.Len(t, path.SuggestedNextActivities, 1)
	assert.Equal(t, 10, path.SuggestedNextActivities[0].Priority)
	assert.Equal(t, model.DifficultyIntermediate, path.RecommendedDifficulty)
	assert.Equal(t, 80, path.EstimatedTimeToMastery)
	assert.NotNil(t, path.FocusAreas)
}

func TestSuggestPathAddsReinforcementAndMaintenance(t *testing.T) {
	p := model.NewLearnerProfile("u1")
	p.SkillLevels[model.SkillGrammar] = 10
	p.StrugglingAreas = []string{"tenses"}
	p.RecentPerformance = append(runs(model.SkillGrammar, 1, 95), runs(model.SkillVocabulary, 2, 90)...)

	path := SuggestPath(p)

	assert.Equal(t, model.SkillGrammar, path.CurrentActivityType)
	require.Len(t, path.SuggestedNextActivities, 3)
	assert.Equal(t, model.SkillGrammar, path.SuggestedNextActivities[0].ActivityType)
	assert.Equal(t, model.SkillChineseToEnglish, path.SuggestedNextActivities[1].ActivityType)
	assert.Equal(t, 8, path.SuggestedNextActivities[1].Priority)
	assert.Equal(t, model.SkillVocabulary, path.SuggestedNextActivities[2].ActivityType)
	assert.Equal(t, 5, path.SuggestedNextActivities[2].Priority)
	assert.Equal(t, model.DifficultyBeginner, path.RecommendedDifficulty)
	assert.Equal(t, 110, path.EstimatedTimeToMastery)
	assert.Equal(t, []string{"tenses"}, path.FocusAreas)

	// 返回值与画像互不影响
	path.FocusAreas[0] = "changed"
	assert.Equal(t, "tenses", p.StrugglingAreas[0])
}

func TestSuggestPathMaintenanceSkipsQueuedActivities(t *testing.T) {
	p := model.NewLearnerProfile("u1")
	p.SkillLevels[model.SkillGrammar] = 10
	// 最早的高正确率记录分别是最薄弱技能和强化练习，二者都已在队列中
	p.RecentPerformance = append(runs(model.SkillGrammar, 2, 95), runs(model.SkillChineseToEnglish, 1, 90)...)

	path := SuggestPath(p)
	require.Len(t, path.SuggestedNextActivities, 2)
	assert.Equal(t, model.SkillGrammar, path.SuggestedNextActivities[0].ActivityType)
	assert.Equal(t, model.SkillChineseToEnglish, path.SuggestedNextActivities[1].ActivityType)
	assert.Equal(t, 8, path.SuggestedNextActivities[1].Priority)

	p.RecentPerformance = append(p.RecentPerformance, runs(model.SkillReading, 1, 88)...)
	path = SuggestPath(p)
	require.Len(t, path.SuggestedNextActivities, 3)
	assert.Equal(t, model.SkillReading, path.SuggestedNextActivities[2].ActivityType)
	assert.Equal(t, 5, path.SuggestedNextActivities[2].Priority)
}

func TestSuggestPathListeningReinforcement(t *testing.T) {
	p := model.NewLearnerProfile("u1")
	p.SkillLevels[model.SkillListening] = 20

	path := SuggestPath(p)
	require.Len(t, path.SuggestedNextActivities, 2)
	assert.Equal(t, model.SkillEnglishToChinese, path.SuggestedNextActivities[1].ActivityType)
}

func TestSuggestPathTiesUseSkillOrder(t *testing.T) {
	p := model.NewLearnerProfile("u1")
	for _, s := range model.AllSkills() {
		p.SkillLevels[s] = 95
	}

	path := SuggestPath(p)
	assert.Equal(t, model.SkillChineseToEnglish, path.CurrentActivityType)
	assert.Equal(t, model.DifficultyAdvanced, path.RecommendedDifficulty)
	assert.Equal(t, 30, path.EstimatedTimeToMastery)
}

func TestSkillsByLevel(t *testing.T) {
	p := model.NewLearnerProfile("u1")

	skills := SkillsByLevel(p)
	require.Len(t, skills, len(model.AllSkills()))
	assert.Equal(t, model.SkillSpeaking, skills[0])
	assert.Equal(t, model.SkillListening, skills[1])
	assert.Equal(t, model.SkillWriting, skills[2])
	assert.Equal(t, model.SkillVocabulary, skills[len(skills)-1])
}
