package service

import (
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/util"
	"adaptive_learning_backend/pkg/monitoring"
	"adaptive_learning_backend/pkg/tracing"
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// recentCourseWindow 计算相似度时参考的最近课程数
const recentCourseWindow = 5

type RecommendRequest struct {
	Settings model.RecommendationSettings `json:"settings"`
	Count    int                          `json:"count" binding:"omitempty,min=1,max=50"`
}

// MixedRecommendRequest Kinds 为空时三类内容都推荐
type MixedRecommendRequest struct {
	Settings model.RecommendationSettings `json:"settings"`
	Kinds    []model.ContentKind          `json:"kinds"`
	Total    int                          `json:"total" binding:"omitempty,min=1,max=50"`
}

type RecommendationService struct {
	Profiles *ProfileStore
	Catalog  *CatalogService
	// Resume 为 nil 时不计算与最近学习内容的相似度
	Resume *ResumeService
}

func NewRecommendationService(profiles *ProfileStore, catalog *CatalogService, resume *ResumeService) *RecommendationService {
	return &RecommendationService{Profiles: profiles, Catalog: catalog, Resume: resume}
}

func normalizeCount(count int) int {
	if count <= 0 {
		return util.DefaultRecommendationCount
	}
	if count > util.MaxRecommendationCount {
		return util.MaxRecommendationCount
	}
	return count
}

// scoringContext 在画像快照上构建评分上下文
func (s *RecommendationService) scoringContext(ctx context.Context, userID string, settings model.RecommendationSettings) (*ScoringContext, *model.Catalog, error) {
	catalog, err := s.Catalog.Get(ctx)
	if err != nil {
		return nil, nil, err
	}
	profile := s.Profiles.GetOrCreate(ctx, userID)

	var recent []model.Course
	if settings.PreferSimilarToRecentlyStudied && s.Resume != nil {
		for _, id := range s.Resume.RecentCourseIDs(ctx, userID, recentCourseWindow) {
			if c, ok := catalog.CourseByID(id); ok {
				recent = append(recent, c)
			}
		}
	}

	var maxPopularity float64
	for _, c := range catalog.Courses {
		if c.Popularity > maxPopularity {
			maxPopularity = c.Popularity
		}
	}
	return NewScoringContext(profile, settings, recent, maxPopularity), catalog, nil
}

func observe(kind model.ContentKind, start time.Time) {
	monitoring.RecommendationCounter.WithLabelValues(string(kind)).Inc()
	monitoring.RecommendationDuration.Observe(time.Since(start).Seconds())
}

func (s *RecommendationService) RecommendCourses(ctx context.Context, userID string, req RecommendRequest) ([]model.CourseRecommendation, error) {
	ctx, span := tracing.Start(ctx, "recommend.courses", attribute.String("user_id", userID))
	defer span.End()
	start := time.Now()

	sc, catalog, err := s.scoringContext(ctx, userID, req.Settings)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer observe(model.ContentCourse, start)
	return sc.RankCourses(catalog.Courses, normalizeCount(req.Count)), nil
}

func (s *RecommendationService) RecommendLessons(ctx context.Context, userID string, req RecommendRequest) ([]model.LessonRecommendation, error) {
	ctx, span := tracing.Start(ctx, "recommend.lessons", attribute.String("user_id", userID))
	defer span.End()
	start := time.Now()

	sc, catalog, err := s.scoringContext(ctx, userID, req.Settings)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer observe(model.ContentLesson, start)
	return sc.RankLessons(catalog.Lessons, normalizeCount(req.Count)), nil
}

func (s *RecommendationService) RecommendPractices(ctx context.Context, userID string, req RecommendRequest) ([]model.PracticeRecommendation, error) {
	ctx, span := tracing.Start(ctx, "recommend.practices", attribute.String("user_id", userID))
	defer span.End()
	start := time.Now()

	sc, catalog, err := s.scoringContext(ctx, userID, req.Settings)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer observe(model.ContentPractice, start)
	return sc.RankPractices(catalog.Practices, normalizeCount(req.Count)), nil
}

// RecommendMixed 按比例把 Total 分给各类内容后分别排序
func (s *RecommendationService) RecommendMixed(ctx context.Context, userID string, req MixedRecommendRequest) (*model.MixedRecommendations, error) {
	ctx, span := tracing.Start(ctx, "recommend.mixed", attribute.String("user_id", userID))
	defer span.End()
	start := time.Now()

	kinds := req.Kinds
	if len(kinds) == 0 {
		kinds = model.AllContentKinds()
	}
	for _, k := range kinds {
		if !k.Valid() {
			return nil, fmt.Errorf("%w: %q", util.ErrUnknownContentKind, k)
		}
	}

	sc, catalog, err := s.scoringContext(ctx, userID, req.Settings)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	alloc := Allocate(kinds, normalizeCount(req.Total))
	span.SetAttributes(
		attribute.Int("alloc.course", alloc[model.ContentCourse]),
		attribute.Int("alloc.lesson", alloc[model.ContentLesson]),
		attribute.Int("alloc.practice", alloc[model.ContentPractice]),
	)

	out := &model.MixedRecommendations{
		Courses:   sc.RankCourses(catalog.Courses, alloc[model.ContentCourse]),
		Lessons:   sc.RankLessons(catalog.Lessons, alloc[model.ContentLesson]),
		Practices: sc.RankPractices(catalog.Practices, alloc[model.ContentPractice]),
	}
	for k := range alloc {
		observe(k, start)
	}
	return out, nil
}
