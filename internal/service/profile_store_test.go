package service

import (
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/repository"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStorage struct {
	saves int
	mu    sync.Mutex
}

func (s *brokenStorage) Load(context.Context, string) (*model.LearnerProfile, error) {
	return nil, errors.New("connection refused")
}

func (s *brokenStorage) Save(context.Context, *model.LearnerProfile) error {
	s.mu.Lock()
	s.saves++
	s.mu.Unlock()
	return errors.New("connection refused")
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	store := NewProfileStore(repository.NewMemoryProfileRepository())
	ctx := context.Background()

	first := store.GetOrCreate(ctx, "u1")
	second := store.GetOrCreate(ctx, "u1")

	assert.Equal(t, first, second)
	assert.Equal(t, model.DefaultSkillLevels[model.SkillGrammar], first.Level(model.SkillGrammar))

	// 返回的是副本
	first.SkillLevels[model.SkillGrammar] = 1
	assert.Equal(t, 50.0, store.GetOrCreate(ctx, "u1").Level(model.SkillGrammar))
}

func TestGetOrCreatePersistsDefault(t *testing.T) {
	repo := repository.NewMemoryProfileRepository()
	store := NewProfileStore(repo)

	store.GetOrCreate(context.Background(), "u1")

	stored, err := repo.Load(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", stored.UserID)
}

func TestProfileStoreSurvivesStorageErrors(t *testing.T) {
	storage := &brokenStorage{}
	store := NewProfileStore(storage)
	ctx := context.Background()

	p := store.GetOrCreate(ctx, "u1")
	assert.Equal(t, "u1", p.UserID)

	updated, err := store.Update(ctx, "u1", func(p *model.LearnerProfile) error {
		p.AdaptiveMode = false
		return nil
	})
	require.NoError(t, err)
	assert.False(t, updated.AdaptiveMode)
	assert.False(t, store.GetOrCreate(ctx, "u1").AdaptiveMode)
	assert.Equal(t, 2, storage.saves)
}

func TestUpdateLeavesProfileUnchangedOnError(t *testing.T) {
	store := NewProfileStore(nil)
	ctx := context.Background()
	before := store.GetOrCreate(ctx, "u1")

	_, err := store.Update(ctx, "u1", func(p *model.LearnerProfile) error {
		p.SkillLevels[model.SkillGrammar] = 99
		return errors.New("abort")
	})

	require.Error(t, err)
	assert.Equal(t, before, store.GetOrCreate(ctx, "u1"))
}

func TestUpdateSetsUpdatedAt(t *testing.T) {
	store := NewProfileStore(nil)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	p, err := store.Update(context.Background(), "u1", func(*model.LearnerProfile) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, fixed, p.UpdatedAt)
}

func TestUsersAreIsolated(t *testing.T) {
	store := NewProfileStore(repository.NewMemoryProfileRepository())
	ctx := context.Background()

	_, err := store.Update(ctx, "u1", func(p *model.LearnerProfile) error {
		_, err := UpdateSkillLevel(p, model.SkillGrammar, goodRun(model.SkillGrammar, baseTime))
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, 56.0, store.GetOrCreate(ctx, "u1").Level(model.SkillGrammar))
	assert.Equal(t, 50.0, store.GetOrCreate(ctx, "u2").Level(model.SkillGrammar))
	assert.Empty(t, store.GetOrCreate(ctx, "u2").RecentPerformance)
}

func TestConcurrentUpdatesAreSerialised(t *testing.T) {
	store := NewProfileStore(repository.NewMemoryProfileRepository())
	ctx := context.Background()

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Update(ctx, "u1", func(p *model.LearnerProfile) error {
				p.StrengthAreas = append(p.StrengthAreas, "x")
				_, err := UpdateSkillLevel(p, model.SkillListening, goodRun(model.SkillListening, baseTime.Add(time.Duration(i)*time.Second)))
				return err
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	p := store.GetOrCreate(ctx, "u1")
	assert.Len(t, p.StrengthAreas, workers)
	assert.Len(t, p.RecentPerformance, model.MaxRecentPerformance)
	assert.Equal(t, 100.0, p.Level(model.SkillListening))
}

func TestEvictReloadsFromStorage(t *testing.T) {
	repo := repository.NewMemoryProfileRepository()
	store := NewProfileStore(repo)
	ctx := context.Background()
	store.GetOrCreate(ctx, "u1")

	stored := model.NewLearnerProfile("u1")
	stored.LearningSpeed = model.SpeedFast
	require.NoError(t, repo.Save(ctx, stored))

	assert.Equal(t, model.SpeedNormal, store.GetOrCreate(ctx, "u1").LearningSpeed)
	store.Evict("u1")
	assert.Equal(t, model.SpeedFast, store.GetOrCreate(ctx, "u1").LearningSpeed)
}
