package service

import (
	"adaptive_learning_backend/internal/model"
	"time"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// goodRun 高正确率、较快完成的一次练习
func goodRun(skill model.SkillTag, at time.Time) model.PerformanceMetrics {
	return model.PerformanceMetrics{
		ActivityType:   skill,
		Timestamp:      at,
		AccuracyRate:   92,
		CompletionTime: 40,
		ExpectedTime:   60,
		MistakeCount:   0,
		HintUsage:      0,
		AttemptCount:   1,
	}
}

func runs(skill model.SkillTag, n int, accuracy float64) []model.PerformanceMetrics {
	out := make([]model.PerformanceMetrics, 0, n)
	for i := 0; i < n; i++ {
		m := goodRun(skill, baseTime.Add(time.Duration(i)*time.Minute))
		m.AccuracyRate = accuracy
		out = append(out, m)
	}
	return out
}
