package model

// Evaluation 某技能最近表现的定性评估
// swagger:model Evaluation
type Evaluation struct {
	ActivityType          SkillTag `json:"activityType"`
	SampleSize            int      `json:"sampleSize"`
	OverallScore          float64  `json:"overallScore"`
	ReadinessForNextLevel bool     `json:"readinessForNextLevel"`
	Weaknesses            []string `json:"weaknesses"`
	Strengths             []string `json:"strengths"`
	ImprovementAreas      []string `json:"improvementAreas"`
}

// DifficultyRecommendation 难度调整建议
// swagger:model DifficultyRecommendation
type DifficultyRecommendation struct {
	ActivityType         SkillTag            `json:"activityType"`
	CurrentDifficulty    Difficulty          `json:"currentDifficulty"`
	NewDifficulty        Difficulty          `json:"newDifficulty"`
	Reason               string              `json:"reason"`
	AdjustmentMagnitude  AdjustmentMagnitude `json:"adjustmentMagnitude"`
	Focus                []string            `json:"focus"`
	RecommendedResources []string            `json:"recommendedResources"`
}

// SuggestedActivity 学习路径中的下一步活动
type SuggestedActivity struct {
	ActivityType SkillTag `json:"activityType"`
	Priority     int      `json:"priority"`
	Reason       string   `json:"reason"`
}

// LearningPathSuggestion 学习路径建议
// swagger:model LearningPathSuggestion
type LearningPathSuggestion struct {
	CurrentActivityType     SkillTag            `json:"currentActivityType"`
	SuggestedNextActivities []SuggestedActivity `json:"suggestedNextActivities"`
	RecommendedDifficulty   Difficulty          `json:"recommendedDifficulty"`
	FocusAreas              []string            `json:"focusAreas"`
	// 单位：分钟
	EstimatedTimeToMastery int `json:"estimatedTimeToMastery"`
}
