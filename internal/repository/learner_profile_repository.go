package repository

import (
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/util"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileStorage 学习画像的持久化后端
type ProfileStorage interface {
	// Load 不存在时返回 util.ErrProfileNotFound
	Load(ctx context.Context, userID string) (*model.LearnerProfile, error)
	Save(ctx context.Context, profile *model.LearnerProfile) error
}

type LearnerProfileRepository struct {
	DB *gorm.DB
}

func NewLearnerProfileRepository(db *gorm.DB) *LearnerProfileRepository {
	return &LearnerProfileRepository{DB: db}
}

func (r *LearnerProfileRepository) Load(ctx context.Context, userID string) (*model.LearnerProfile, error) {
	var record model.LearnerProfileRecord
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return recordToProfile(&record)
}

func (r *LearnerProfileRepository) Save(ctx context.Context, profile *model.LearnerProfile) error {
	record, err := profileToRecord(profile)
	if err != nil {
		return err
	}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"skill_levels",
			"preferred_difficulty",
			"adaptive_mode",
			"learning_speed",
			"recent_performance",
			"struggling_areas",
			"strength_areas",
			"updated_at",
		}),
	}).Create(record).Error
}

func profileToRecord(p *model.LearnerProfile) (*model.LearnerProfileRecord, error) {
	record := &model.LearnerProfileRecord{
		UserID:              p.UserID,
		PreferredDifficulty: string(p.PreferredDifficulty),
		AdaptiveMode:        p.AdaptiveMode,
		LearningSpeed:       string(p.LearningSpeed),
		UpdatedAt:           p.UpdatedAt,
	}

	fields := []struct {
		dst *datatypes.JSON
		src interface{}
	}{
		{&record.SkillLevels, p.SkillLevels},
		{&record.RecentPerformance, p.RecentPerformance},
		{&record.StrugglingAreas, p.StrugglingAreas},
		{&record.StrengthAreas, p.StrengthAreas},
	}
	for _, f := range fields {
		raw, err := json.Marshal(f.src)
		if err != nil {
			return nil, fmt.Errorf("encode profile %s: %w", p.UserID, err)
		}
		*f.dst = datatypes.JSON(raw)
	}
	return record, nil
}

func recordToProfile(r *model.LearnerProfileRecord) (*model.LearnerProfile, error) {
	p := model.NewLearnerProfile(r.UserID)
	p.PreferredDifficulty = model.Difficulty(r.PreferredDifficulty)
	p.AdaptiveMode = r.AdaptiveMode
	p.LearningSpeed = model.LearningSpeed(r.LearningSpeed)
	p.UpdatedAt = r.UpdatedAt

	fields := []struct {
		src datatypes.JSON
		dst interface{}
	}{
		{r.SkillLevels, &p.SkillLevels},
		{r.RecentPerformance, &p.RecentPerformance},
		{r.StrugglingAreas, &p.StrugglingAreas},
		{r.StrengthAreas, &p.StrengthAreas},
	}
	for _, f := range fields {
		if len(f.src) == 0 {
			continue
		}
		if err := json.Unmarshal(f.src, f.dst); err != nil {
			return nil, fmt.Errorf("decode profile %s: %w", r.UserID, err)
		}
	}

	// 旧数据可能缺少新增技能
	if p.SkillLevels == nil {
		p.SkillLevels = make(map[model.SkillTag]float64)
	}
	for tag, level := range model.DefaultSkillLevels {
		if _, ok := p.SkillLevels[tag]; !ok {
			p.SkillLevels[tag] = level
		}
	}
	if !p.PreferredDifficulty.Valid() {
		p.PreferredDifficulty = model.DifficultyIntermediate
	}
	if !p.LearningSpeed.Valid() {
		p.LearningSpeed = model.SpeedNormal
	}
	return p, nil
}

// MemoryProfileRepository 进程内实现，用于测试和 engine.profile_storage=memory
type MemoryProfileRepository struct {
	mu       sync.RWMutex
	profiles map[string]*model.LearnerProfile
}

func NewMemoryProfileRepository() *MemoryProfileRepository {
	return &MemoryProfileRepository{profiles: make(map[string]*model.LearnerProfile)}
}

func (r *MemoryProfileRepository) Load(_ context.Context, userID string) (*model.LearnerProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, util.ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (r *MemoryProfileRepository) Save(_ context.Context, profile *model.LearnerProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[profile.UserID] = profile.Clone()
	return nil
}
