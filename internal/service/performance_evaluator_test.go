package service

import (
	"adaptive_learning_backend/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateEmptyHistory(t *testing.T) {
	p := model.NewLearnerProfile("u1")

	eval := Evaluate(p, model.SkillGrammar)

	assert.Equal(t, model.SkillGrammar, eval.ActivityType)
	assert.Zero(t, eval.SampleSize)
	assert.Zero(t, eval.OverallScore)
	assert.False(t, eval.ReadinessForNextLevel)
	assert.NotNil(t, eval.Weaknesses)
	assert.Empty(t, eval.Weaknesses)
	assert.Empty(t, eval.Strengths)
	assert.Empty(t, eval.ImprovementAreas)
}

func TestEvaluateStrongRecentHistory(t *testing.T) {
	p := model.NewLearnerProfile("u1")
	p.SkillLevels[model.SkillGrammar] = 80
	p.RecentPerformance = runs(model.SkillGrammar, 3, 95)

	eval := Evaluate(p, model.SkillGrammar)

	assert.Equal(t, 3, eval.SampleSize)
	assert.Equal(t, 95.0, eval.OverallScore)
	assert.True(t, eval.ReadinessForNextLevel)
	assert.Empty(t, eval.Weaknesses)
	assert.Equal(t, []string{"accuracy", "reaction speed", "independent thinking"}, eval.Strengths)
	assert.Empty(t, eval.ImprovementAreas)
}

func TestEvaluateNeedsThreeSamplesForReadiness(t *testing.T) {
	p := model.NewLearnerProfile("u1")
	p.RecentPerformance = runs(model.SkillGrammar, 2, 99)

	eval := Evaluate(p, model.SkillGrammar)
	assert.Equal(t, 99.0, eval.OverallScore)
	assert.False(t, eval.ReadinessForNextLevel)
}

func TestEvaluateWeaknessesAndDomainAreas(t *testing.T) {
	p := model.NewLearnerProfile("u1")
	for i := 0; i < 3; i++ {
		p.RecentPerformance = append(p.RecentPerformance, model.PerformanceMetrics{
			ActivityType:   model.SkillGrammar,
			Timestamp:      baseTime.Add(time.Duration(i) * time.Minute),
			AccuracyRate:   50,
			CompletionTime: 120,
			ExpectedTime:   60,
			HintUsage:      3,
			AttemptCount:   1,
		})
	}

	eval := Evaluate(p, model.SkillGrammar)

	assert.Equal(t, []string{"accuracy", "reaction speed", "independent problem solving"}, eval.Weaknesses)
	assert.Empty(t, eval.Strengths)
	assert.Equal(t, []string{"accuracy", "reaction speed", "independent problem solving", "basic grammar structures"}, eval.ImprovementAreas)
}

func TestEvaluateUsesOnlyRecentWindow(t *testing.T) {
	p := model.NewLearnerProfile("u1")
	old := runs(model.SkillListening, 2, 0)
	recent := runs(model.SkillListening, EvaluationWindow, 90)
	for i := range recent {
		recent[i].Timestamp = baseTime.Add(time.Hour + time.Duration(i)*time.Minute)
	}
	// 时间顺序和切片顺序无关
	p.RecentPerformance = append(append([]model.PerformanceMetrics{}, recent...), old...)
	p.RecentPerformance = append(p.RecentPerformance, runs(model.SkillGrammar, 4, 10)...)

	eval := Evaluate(p, model.SkillListening)

	assert.Equal(t, EvaluationWindow, eval.SampleSize)
	assert.Equal(t, 90.0, eval.OverallScore)
}

func TestRecentForOrdersNewestFirst(t *testing.T) {
	p := model.NewLearnerProfile("u1")
	p.RecentPerformance = runs(model.SkillWriting, 4, 70)

	recent := RecentFor(p, model.SkillWriting, 2)
	require.Len(t, recent, 2)
	assert.True(t, recent[0].Timestamp.After(recent[1].Timestamp))
	assert.Equal(t, baseTime.Add(3*time.Minute), recent[0].Timestamp)
}

func TestEvaluateDoesNotMutateProfile(t *testing.T) {
	p := model.NewLearnerProfile("u1")
	p.RecentPerformance = runs(model.SkillGrammar, 5, 80)
	before := p.Clone()

	Evaluate(p, model.SkillGrammar)
	assert.Equal(t, before, p)
}
