package service

import (
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/repository"
	"adaptive_learning_backend/internal/util"
	"adaptive_learning_backend/pkg/logger"
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ProfileStore 学习画像仓库：进程内缓存 + 可替换的持久化后端。
// 同一用户的修改串行执行，不同用户之间互不阻塞。
type ProfileStore struct {
	Storage repository.ProfileStorage

	mu       sync.Mutex
	profiles map[string]*model.LearnerProfile
	locks    map[string]*sync.Mutex
	now      func() time.Time
}

func NewProfileStore(storage repository.ProfileStorage) *ProfileStore {
	return &ProfileStore{
		Storage:  storage,
		profiles: make(map[string]*model.LearnerProfile),
		locks:    make(map[string]*sync.Mutex),
		now:      time.Now,
	}
}

func (s *ProfileStore) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// load 调用方必须持有该用户的锁
func (s *ProfileStore) load(ctx context.Context, userID string) *model.LearnerProfile {
	s.mu.Lock()
	p, ok := s.profiles[userID]
	s.mu.Unlock()
	if ok {
		return p
	}

	if s.Storage != nil {
		stored, err := s.Storage.Load(ctx, userID)
		switch {
		case err == nil:
			p = stored
		case errors.Is(err, util.ErrProfileNotFound):
		default:
			logger.Log.Error("Failed to load learner profile, using defaults", zap.String("user_id", userID), zap.Error(err))
		}
	}

	if p == nil {
		p = model.NewLearnerProfile(userID)
		p.UpdatedAt = s.now()
		logger.Log.Debug("Created default learner profile", zap.String("user_id", userID))
		s.persist(ctx, p)
	}

	s.mu.Lock()
	s.profiles[userID] = p
	s.mu.Unlock()
	return p
}

func (s *ProfileStore) persist(ctx context.Context, p *model.LearnerProfile) {
	if s.Storage == nil {
		return
	}
	if err := s.Storage.Save(ctx, p); err != nil {
		logger.Log.Error("Failed to persist learner profile", zap.String("user_id", p.UserID), zap.Error(err))
	}
}

// GetOrCreate 返回画像快照，不存在时按默认值创建。该操作不会失败。
func (s *ProfileStore) GetOrCreate(ctx context.Context, userID string) *model.LearnerProfile {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()
	return s.load(ctx, userID).Clone()
}

// Update 在用户锁内修改画像，fn 返回错误时不做任何修改
func (s *ProfileStore) Update(ctx context.Context, userID string, fn func(p *model.LearnerProfile) error) (*model.LearnerProfile, error) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	current := s.load(ctx, userID)
	draft := current.Clone()
	if err := fn(draft); err != nil {
		return nil, err
	}
	draft.UpdatedAt = s.now()

	s.mu.Lock()
	s.profiles[userID] = draft
	s.mu.Unlock()

	s.persist(ctx, draft)
	return draft.Clone(), nil
}

// Evict 从缓存中移除，下次访问时重新从存储加载
func (s *ProfileStore) Evict(userID string) {
	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	s.mu.Lock()
	delete(s.profiles, userID)
	s.mu.Unlock()
}
