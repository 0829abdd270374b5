package service

import (
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/util"
	"adaptive_learning_backend/pkg/logger"
	"adaptive_learning_backend/pkg/monitoring"
	"context"
	"fmt"

	"go.uber.org/zap"
)

// AdaptiveService 画像读写、评估、难度建议和学习路径
type AdaptiveService struct {
	Profiles *ProfileStore
}

func NewAdaptiveService(profiles *ProfileStore) *AdaptiveService {
	return &AdaptiveService{Profiles: profiles}
}

func (s *AdaptiveService) GetProfile(ctx context.Context, userID string) *model.LearnerProfile {
	return s.Profiles.GetOrCreate(ctx, userID)
}

// ObservationResult 一次表现记录后的结果
type ObservationResult struct {
	ActivityType  model.SkillTag        `json:"activityType"`
	PreviousLevel float64               `json:"previousLevel"`
	NewLevel      float64               `json:"newLevel"`
	Factors       AdjustmentFactors     `json:"factors"`
	Profile       *model.LearnerProfile `json:"profile"`
}

// RecordObservation 校验并应用一次表现，校验失败时画像不变
func (s *AdaptiveService) RecordObservation(ctx context.Context, userID string, m model.PerformanceMetrics) (*ObservationResult, error) {
	activity := m.ActivityType
	if err := ValidateMetrics(activity, m); err != nil {
		monitoring.ObservationRejected.Inc()
		return nil, err
	}

	result := &ObservationResult{ActivityType: activity, Factors: ComputeFactors(m)}
	profile, err := s.Profiles.Update(ctx, userID, func(p *model.LearnerProfile) error {
		result.PreviousLevel = p.Level(activity)
		level, err := UpdateSkillLevel(p, activity, m)
		if err != nil {
			return err
		}
		result.NewLevel = level
		return nil
	})
	if err != nil {
		monitoring.ObservationRejected.Inc()
		return nil, err
	}

	monitoring.ObservationCounter.WithLabelValues(string(activity)).Inc()
	logger.Log.Debug("Observation applied",
		zap.String("user_id", userID),
		zap.String("skill", string(activity)),
		zap.Float64("previous", result.PreviousLevel),
		zap.Float64("level", result.NewLevel))

	result.Profile = profile
	return result, nil
}

func (s *AdaptiveService) Evaluate(ctx context.Context, userID string, skill model.SkillTag) (model.Evaluation, error) {
	if !skill.Valid() {
		return model.Evaluation{}, fmt.Errorf("%w: %q", util.ErrUnknownSkill, skill)
	}
	return Evaluate(s.Profiles.GetOrCreate(ctx, userID), skill), nil
}

func (s *AdaptiveService) RecommendDifficulty(ctx context.Context, userID string, skill model.SkillTag) (model.DifficultyRecommendation, error) {
	if !skill.Valid() {
		return model.DifficultyRecommendation{}, fmt.Errorf("%w: %q", util.ErrUnknownSkill, skill)
	}
	profile := s.Profiles.GetOrCreate(ctx, userID)
	return RecommendDifficulty(profile, Evaluate(profile, skill), skill), nil
}

func (s *AdaptiveService) SuggestPath(ctx context.Context, userID string) model.LearningPathSuggestion {
	return SuggestPath(s.Profiles.GetOrCreate(ctx, userID))
}

// PreferencesRequest 为 nil 的字段保持不变
type PreferencesRequest struct {
	PreferredDifficulty *model.Difficulty    `json:"preferredDifficulty"`
	AdaptiveMode        *bool                `json:"adaptiveMode"`
	LearningSpeed       *model.LearningSpeed `json:"learningSpeed"`
	StrugglingAreas     []string             `json:"strugglingAreas"`
	StrengthAreas       []string             `json:"strengthAreas"`
}

func (r PreferencesRequest) validate() error {
	if r.PreferredDifficulty != nil && !r.PreferredDifficulty.Valid() {
		return fmt.Errorf("%w: preferredDifficulty %q", util.ErrInvalidPreferences, *r.PreferredDifficulty)
	}
	if r.LearningSpeed != nil && !r.LearningSpeed.Valid() {
		return fmt.Errorf("%w: learningSpeed %q", util.ErrInvalidPreferences, *r.LearningSpeed)
	}
	return nil
}

func dedupe(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}

func (s *AdaptiveService) UpdatePreferences(ctx context.Context, userID string, req PreferencesRequest) (*model.LearnerProfile, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	return s.Profiles.Update(ctx, userID, func(p *model.LearnerProfile) error {
		if req.PreferredDifficulty != nil {
			p.PreferredDifficulty = *req.PreferredDifficulty
		}
		if req.AdaptiveMode != nil {
			p.AdaptiveMode = *req.AdaptiveMode
		}
		if req.LearningSpeed != nil {
			p.LearningSpeed = *req.LearningSpeed
		}
		if req.StrugglingAreas != nil {
			p.StrugglingAreas = dedupe(req.StrugglingAreas)
		}
		if req.StrengthAreas != nil {
			p.StrengthAreas = dedupe(req.StrengthAreas)
		}
		return nil
	})
}
