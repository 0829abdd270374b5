package service

import (
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/repository"
	"adaptive_learning_backend/internal/util"
	"adaptive_learning_backend/pkg/logger"
	"adaptive_learning_backend/pkg/tracing"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	recommendationCachePrefix = "resume:rec:"
	inProgressCachePrefix     = "resume:inprogress:"

	DefaultContinueLimit = 5
)

type recencyBucket struct {
	within   time.Duration
	priority int
	reason   string
}

var recencyBuckets = []recencyBucket{
	{24 * time.Hour, 10, "continue where you left off today"},
	{72 * time.Hour, 8, "studied in the last few days"},
	{168 * time.Hour, 6, "studied earlier this week"},
	{336 * time.Hour, 4, "last studied over a week ago, resume before you forget"},
}

const (
	stalePriority = 2
	staleReason   = "revisit a course you started earlier"
)

// RecencyPriority 按距离上次学习的时间分档
func RecencyPriority(age time.Duration) (int, string) {
	for _, b := range recencyBuckets {
		if age < b.within {
			return b.priority, b.reason
		}
	}
	return stalePriority, staleReason
}

type ResumeService struct {
	Store repository.PositionStore
	Cache repository.KVStore

	mu                sync.RWMutex
	recommendationTTL time.Duration
	inProgressTTL     time.Duration
	now               func() time.Time
}

func NewResumeService(store repository.PositionStore, cache repository.KVStore, recommendationTTL, inProgressTTL time.Duration) *ResumeService {
	return &ResumeService{
		Store:             store,
		Cache:             cache,
		recommendationTTL: recommendationTTL,
		inProgressTTL:     inProgressTTL,
		now:               time.Now,
	}
}

// SetTTLs 配置热更新时调用
func (s *ResumeService) SetTTLs(recommendation, inProgress time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recommendationTTL = recommendation
	s.inProgressTTL = inProgress
}

func (s *ResumeService) TTLs() (time.Duration, time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recommendationTTL, s.inProgressTTL
}

// SavePositionRequest 保存学习位置
// swagger:model SavePositionRequest
type SavePositionRequest struct {
	UserID      string          `json:"userId" binding:"required"`
	CourseID    string          `json:"courseId" binding:"required"`
	LessonID    string          `json:"lessonId"`
	Mode        string          `json:"mode"`
	Position    float64         `json:"position"`
	ContextData json.RawMessage `json:"contextData,omitempty" swaggertype:"object"`
}

// SavePosition 覆盖同一 (user, course, lesson) 的旧位置，时间戳取服务端当前时间
func (s *ResumeService) SavePosition(ctx context.Context, req SavePositionRequest) (*model.LearningPosition, error) {
	ctx, span := tracing.Start(ctx, "resume.SavePosition", attribute.String("user_id", req.UserID))
	defer span.End()

	if req.UserID == "" || req.CourseID == "" {
		return nil, fmt.Errorf("%w: userId and courseId are required", util.ErrInvalidPosition)
	}
	if math.IsNaN(req.Position) || math.IsInf(req.Position, 0) || req.Position < 0 {
		return nil, fmt.Errorf("%w: position must be a non-negative number", util.ErrInvalidPosition)
	}
	if len(req.ContextData) > 0 && !json.Valid(req.ContextData) {
		return nil, fmt.Errorf("%w: contextData must be valid JSON", util.ErrInvalidPosition)
	}

	pos := &model.LearningPosition{
		ID:          repository.PositionID(req.UserID, req.CourseID, req.LessonID),
		UserID:      req.UserID,
		CourseID:    req.CourseID,
		LessonID:    req.LessonID,
		Mode:        req.Mode,
		Position:    req.Position,
		Timestamp:   s.now(),
		ContextData: []byte(req.ContextData),
	}
	if err := s.Store.Save(ctx, pos); err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.invalidate(ctx, req.UserID)
	return pos, nil
}

func (s *ResumeService) invalidate(ctx context.Context, userID string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Delete(ctx, recommendationCachePrefix+userID, inProgressCachePrefix+userID); err != nil {
		logger.Log.Warn("Failed to invalidate resume cache", zap.String("user_id", userID), zap.Error(err))
	}
}

// GetLastPosition lessonID 为空时返回该课程最近的位置
func (s *ResumeService) GetLastPosition(ctx context.Context, userID, courseID, lessonID string) (*model.LearningPosition, error) {
	ctx, span := tracing.Start(ctx, "resume.GetLastPosition", attribute.String("user_id", userID))
	defer span.End()

	if userID == "" || courseID == "" {
		return nil, fmt.Errorf("%w: userId and courseId are required", util.ErrInvalidPosition)
	}
	return s.Store.Find(ctx, userID, courseID, lessonID)
}

// latestPerCourse 每门课程取最近的一条，positions 需按时间倒序
func latestPerCourse(positions []model.LearningPosition) []model.LearningPosition {
	seen := make(map[string]bool)
	var out []model.LearningPosition
	for _, p := range positions {
		if seen[p.CourseID] {
			continue
		}
		seen[p.CourseID] = true
		out = append(out, p)
	}
	return out
}

func (s *ResumeService) cached(ctx context.Context, key string, dst interface{}) bool {
	if s.Cache == nil {
		return false
	}
	raw, err := s.Cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, util.ErrCacheMiss) {
			logger.Log.Warn("Resume cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false
	}
	return true
}

func (s *ResumeService) store(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if s.Cache == nil || ttl <= 0 {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.Cache.Set(ctx, key, string(raw), ttl); err != nil {
		logger.Log.Warn("Resume cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// GetRecommendations 每门课程一条"继续学习"建议，按优先级、最近访问时间排序
func (s *ResumeService) GetRecommendations(ctx context.Context, userID string, limit int) ([]model.ContinueRecommendation, error) {
	ctx, span := tracing.Start(ctx, "resume.GetRecommendations", attribute.String("user_id", userID))
	defer span.End()

	if limit <= 0 {
		limit = DefaultContinueLimit
	}

	key := recommendationCachePrefix + userID
	var recs []model.ContinueRecommendation
	if !s.cached(ctx, key, &recs) {
		positions, err := s.Store.ListByUser(ctx, userID)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}

		now := s.now()
		recs = make([]model.ContinueRecommendation, 0, len(positions))
		for _, p := range latestPerCourse(positions) {
			priority, reason := RecencyPriority(now.Sub(p.Timestamp))
			recs = append(recs, model.ContinueRecommendation{
				CourseID:     p.CourseID,
				LessonID:     p.LessonID,
				Mode:         p.Mode,
				Position:     p.Position,
				LastAccessed: p.Timestamp,
				Priority:     priority,
				Reason:       reason,
			})
		}
		sort.SliceStable(recs, func(i, j int) bool {
			if recs[i].Priority != recs[j].Priority {
				return recs[i].Priority > recs[j].Priority
			}
			if !recs[i].LastAccessed.Equal(recs[j].LastAccessed) {
				return recs[i].LastAccessed.After(recs[j].LastAccessed)
			}
			return recs[i].CourseID < recs[j].CourseID
		})

		ttl, _ := s.TTLs()
		s.store(ctx, key, recs, ttl)
	}

	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// GetInProgressCourses 每门课程的最后课时、最后访问时间和访问过的课时数
func (s *ResumeService) GetInProgressCourses(ctx context.Context, userID string) ([]model.InProgressCourse, error) {
	ctx, span := tracing.Start(ctx, "resume.GetInProgressCourses", attribute.String("user_id", userID))
	defer span.End()

	key := inProgressCachePrefix + userID
	var courses []model.InProgressCourse
	if s.cached(ctx, key, &courses) {
		return courses, nil
	}

	positions, err := s.Store.ListByUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	index := make(map[string]int)
	lessons := make(map[string]map[string]bool)
	courses = make([]model.InProgressCourse, 0)
	for _, p := range positions {
		i, ok := index[p.CourseID]
		if !ok {
			index[p.CourseID] = len(courses)
			lessons[p.CourseID] = make(map[string]bool)
			courses = append(courses, model.InProgressCourse{
				CourseID:     p.CourseID,
				LastLessonID: p.LessonID,
				LastAccessed: p.Timestamp,
			})
			i = len(courses) - 1
		}
		if p.LessonID != "" && !lessons[p.CourseID][p.LessonID] {
			lessons[p.CourseID][p.LessonID] = true
			courses[i].LessonsVisited++
		}
	}

	_, ttl := s.TTLs()
	s.store(ctx, key, courses, ttl)
	return courses, nil
}

// RecentCourseIDs 最近学习过的课程，按时间倒序
func (s *ResumeService) RecentCourseIDs(ctx context.Context, userID string, limit int) []string {
	positions, err := s.Store.ListByUser(ctx, userID)
	if err != nil {
		logger.Log.Warn("Failed to list recent positions", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	var ids []string
	for _, p := range latestPerCourse(positions) {
		if limit > 0 && len(ids) >= limit {
			break
		}
		ids = append(ids, p.CourseID)
	}
	return ids
}
