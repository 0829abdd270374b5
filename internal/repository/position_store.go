package repository

import (
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/util"
	"adaptive_learning_backend/pkg/logger"
	"adaptive_learning_backend/pkg/monitoring"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PositionStore 学习位置存储
type PositionStore interface {
	// Save 按 (userID, courseID, lessonID) 覆盖写入
	Save(ctx context.Context, pos *model.LearningPosition) error
	// Find lessonID 为空时返回该课程最近的位置，找不到返回 util.ErrPositionNotFound
	Find(ctx context.Context, userID, courseID, lessonID string) (*model.LearningPosition, error)
	ListByUser(ctx context.Context, userID string) ([]model.LearningPosition, error)
}

var keyEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

// PositionKey 位置在本地存储中的键，各段中的 ":" 会被转义
func PositionKey(prefix, userID, courseID, lessonID string) string {
	return prefix + keyEscaper.Replace(userID) + ":" + keyEscaper.Replace(courseID) + ":" + keyEscaper.Replace(lessonID)
}

func userKeyPrefix(prefix, userID string) string {
	return prefix + keyEscaper.Replace(userID) + ":"
}

// PositionID 同一个键始终得到相同的 ID，远程和本地记录可以互相覆盖
func PositionID(userID, courseID, lessonID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(PositionKey("", userID, courseID, lessonID))).String()
}

// RemotePositionStore 基于 gorm 的主存储，每次调用有独立超时
type RemotePositionStore struct {
	DB      *gorm.DB
	Timeout time.Duration
}

func NewRemotePositionStore(db *gorm.DB, timeout time.Duration) *RemotePositionStore {
	return &RemotePositionStore{DB: db, Timeout: timeout}
}

func (s *RemotePositionStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.Timeout)
}

func (s *RemotePositionStore) Save(ctx context.Context, pos *model.LearningPosition) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"mode", "position", "timestamp", "context_data"}),
	}).Create(pos).Error
}

func (s *RemotePositionStore) Find(ctx context.Context, userID, courseID, lessonID string) (*model.LearningPosition, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := s.DB.WithContext(ctx).Where("user_id = ? AND course_id = ?", userID, courseID)
	if lessonID != "" {
		query = query.Where("lesson_id = ?", lessonID)
	}

	var pos model.LearningPosition
	err := query.Order("timestamp DESC").First(&pos).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrPositionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pos, nil
}

func (s *RemotePositionStore) ListByUser(ctx context.Context, userID string) ([]model.LearningPosition, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var positions []model.LearningPosition
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Find(&positions).Error
	return positions, err
}

// LocalPositionStore 以 JSON 形式保存在 KVStore 中
type LocalPositionStore struct {
	KV     KVStore
	Prefix string
}

func NewLocalPositionStore(kv KVStore, prefix string) *LocalPositionStore {
	return &LocalPositionStore{KV: kv, Prefix: prefix}
}

func (s *LocalPositionStore) Save(ctx context.Context, pos *model.LearningPosition) error {
	raw, err := json.Marshal(pos)
	if err != nil {
		return fmt.Errorf("encode position: %w", err)
	}
	return s.KV.Set(ctx, PositionKey(s.Prefix, pos.UserID, pos.CourseID, pos.LessonID), string(raw), 0)
}

func (s *LocalPositionStore) Find(ctx context.Context, userID, courseID, lessonID string) (*model.LearningPosition, error) {
	if lessonID != "" {
		raw, err := s.KV.Get(ctx, PositionKey(s.Prefix, userID, courseID, lessonID))
		if errors.Is(err, util.ErrCacheMiss) {
			return nil, util.ErrPositionNotFound
		}
		if err != nil {
			return nil, err
		}
		var pos model.LearningPosition
		if err := json.Unmarshal([]byte(raw), &pos); err != nil {
			return nil, fmt.Errorf("decode position: %w", err)
		}
		return &pos, nil
	}

	positions, err := s.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range positions {
		if positions[i].CourseID == courseID {
			return &positions[i], nil
		}
	}
	return nil, util.ErrPositionNotFound
}

// ListByUser 按时间倒序返回
func (s *LocalPositionStore) ListByUser(ctx context.Context, userID string) ([]model.LearningPosition, error) {
	keys, err := s.KV.Keys(ctx, userKeyPrefix(s.Prefix, userID))
	if err != nil {
		return nil, err
	}

	positions := make([]model.LearningPosition, 0, len(keys))
	for _, key := range keys {
		raw, err := s.KV.Get(ctx, key)
		if err != nil {
			continue
		}
		var pos model.LearningPosition
		if err := json.Unmarshal([]byte(raw), &pos); err != nil {
			logger.Log.Warn("Skipping malformed local position", zap.String("key", key), zap.Error(err))
			continue
		}
		// SCAN 的通配符可能多匹配，读出后再校验一次
		if pos.UserID != userID {
			continue
		}
		positions = append(positions, pos)
	}
	sortByRecency(positions)
	return positions, nil
}

func sortByRecency(positions []model.LearningPosition) {
	sort.SliceStable(positions, func(i, j int) bool {
		if !positions[i].Timestamp.Equal(positions[j].Timestamp) {
			return positions[i].Timestamp.After(positions[j].Timestamp)
		}
		return positions[i].ID < positions[j].ID
	})
}

// FallbackPositionStore 主存储失败时转用本地存储，调用方不会看到后端错误
type FallbackPositionStore struct {
	Primary PositionStore
	Local   PositionStore
}

func NewFallbackPositionStore(primary, local PositionStore) *FallbackPositionStore {
	return &FallbackPositionStore{Primary: primary, Local: local}
}

func (s *FallbackPositionStore) fallback(op string, err error) {
	logger.Log.Warn("Position backend unavailable, using local store", zap.String("op", op), zap.Error(err))
	monitoring.BackendFallbackCounter.WithLabelValues(op).Inc()
}

func (s *FallbackPositionStore) Save(ctx context.Context, pos *model.LearningPosition) error {
	localErr := s.Local.Save(ctx, pos)
	if localErr != nil {
		logger.Log.Error("Failed to mirror position locally", zap.String("user_id", pos.UserID), zap.Error(localErr))
	}
	if err := s.Primary.Save(ctx, pos); err != nil {
		s.fallback("save", err)
		return localErr
	}
	return nil
}

func (s *FallbackPositionStore) Find(ctx context.Context, userID, courseID, lessonID string) (*model.LearningPosition, error) {
	pos, err := s.Primary.Find(ctx, userID, courseID, lessonID)
	if err != nil {
		if !errors.Is(err, util.ErrPositionNotFound) {
			s.fallback("find", err)
		}
		// 主存储找不到时，本地可能有主存储故障期间写入的记录
		return s.Local.Find(ctx, userID, courseID, lessonID)
	}

	// 故障期间写入本地的记录可能比主存储新
	local, err := s.Local.Find(ctx, userID, courseID, lessonID)
	if err != nil {
		if !errors.Is(err, util.ErrPositionNotFound) {
			logger.Log.Error("Failed to read local position", zap.String("user_id", userID), zap.Error(err))
		}
		return pos, nil
	}
	if local.Timestamp.After(pos.Timestamp) {
		return local, nil
	}
	return pos, nil
}

func (s *FallbackPositionStore) ListByUser(ctx context.Context, userID string) ([]model.LearningPosition, error) {
	remote, err := s.Primary.ListByUser(ctx, userID)
	if err != nil {
		s.fallback("list", err)
		return s.Local.ListByUser(ctx, userID)
	}

	local, err := s.Local.ListByUser(ctx, userID)
	if err != nil {
		logger.Log.Error("Failed to read local positions", zap.String("user_id", userID), zap.Error(err))
		return remote, nil
	}
	return mergePositions(remote, local), nil
}

// mergePositions 同一个键保留时间较新的一条
func mergePositions(remote, local []model.LearningPosition) []model.LearningPosition {
	byKey := make(map[string]model.LearningPosition, len(remote)+len(local))
	for _, list := range [][]model.LearningPosition{remote, local} {
		for _, pos := range list {
			key := PositionKey("", pos.UserID, pos.CourseID, pos.LessonID)
			if existing, ok := byKey[key]; ok && !pos.Timestamp.After(existing.Timestamp) {
				continue
			}
			byKey[key] = pos
		}
	}

	merged := make([]model.LearningPosition, 0, len(byKey))
	for _, pos := range byKey {
		merged = append(merged, pos)
	}
	sortByRecency(merged)
	return merged
}
