package controller

import (
	"adaptive_learning_backend/internal/config"
	"adaptive_learning_backend/internal/middleware"
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/repository"
	"adaptive_learning_backend/internal/service"
	"adaptive_learning_backend/internal/util"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256"

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func testCatalog() model.Catalog {
	tag := model.ContentTag{ID: "t-listen", Name: "Listening", Category: "listening"}
	return model.Catalog{
		Courses:   []model.Course{{ID: "c1", Title: "Listening 101", Tags: []model.ContentTag{tag}, Difficulty: 2, Popularity: 10}},
		Lessons:   []model.Lesson{{ID: "l1", CourseID: "c1", Tags: []model.ContentTag{tag}, Difficulty: 2, EstimatedTimeMinutes: 10}},
		Practices: []model.Practice{{ID: "p1", Tags: []model.ContentTag{tag}, Difficulty: 2, EstimatedTimeMinutes: 10}},
	}
}

func newTestRouter(jwtEnabled bool) *gin.Engine {
	gin.SetMode(gin.TestMode)

	profiles := service.NewProfileStore(repository.NewMemoryProfileRepository())
	resume := service.NewResumeService(
		repository.NewLocalPositionStore(repository.NewMemoryKVStore(), "pos:"),
		repository.NewMemoryKVStore(), time.Minute, time.Minute)
	catalog := service.NewCatalogService(&service.StaticCatalogSource{Catalog: testCatalog()}, 0)

	learner := NewLearnerController(service.NewAdaptiveService(profiles))
	recommendation := NewRecommendationController(service.NewRecommendationService(profiles, catalog, resume))
	position := NewPositionController(resume)

	r := gin.New()
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(&config.JWTConfig{Enabled: jwtEnabled, Secret: testSecret}))

	learners := api.Group("/learners/:userId")
	learners.Use(middleware.SelfOnly("userId"))
	learners.GET("/profile", learner.GetProfile)
	learners.PUT("/preferences", learner.UpdatePreferences)
	learners.POST("/observations", learner.RecordObservation)
	learners.GET("/skills/:skill/evaluation", learner.Evaluate)
	learners.GET("/skills/:skill/difficulty", learner.RecommendDifficulty)
	learners.GET("/path", learner.SuggestPath)
	learners.POST("/recommendations", recommendation.RecommendMixed)
	learners.POST("/recommendations/:kind", recommendation.RecommendKind)
	learners.GET("/continue", position.GetRecommendations)
	learners.GET("/in-progress", position.GetInProgressCourses)

	api.POST("/positions", position.SavePosition)
	api.GET("/positions/last", position.GetLastPosition)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func observation(skill model.SkillTag, accuracy float64) map[string]interface{} {
	return map[string]interface{}{
		"activityType":   skill,
		"timestamp":      time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		"accuracyRate":   accuracy,
		"completionTime": 40,
		"expectedTime":   60,
		"mistakeCount":   0,
		"hintUsage":      0,
		"attemptCount":   1,
	}
}

func TestGetProfileCreatesDefault(t *testing.T) {
	r := newTestRouter(false)

	w, env := do(t, r, http.MethodGet, "/api/learners/u1/profile", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var p model.LearnerProfile
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, 40.0, p.SkillLevels[model.SkillSpeaking])
}

func TestRecordObservationEndpoint(t *testing.T) {
	r := newTestRouter(false)

	w, env := do(t, r, http.MethodPost, "/api/learners/u1/observations", observation(model.SkillGrammar, 92), "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result service.ObservationResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 50.0, result.PreviousLevel)
	assert.Equal(t, 56.0, result.NewLevel)

	w, _ = do(t, r, http.MethodPost, "/api/learners/u1/observations", observation(model.SkillGrammar, 150), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodPost, "/api/learners/u1/observations", observation("cooking", 80), "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 被拒绝的请求不影响画像
	_, env = do(t, r, http.MethodGet, "/api/learners/u1/profile", nil, "")
	var p model.LearnerProfile
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, 56.0, p.SkillLevels[model.SkillGrammar])
	assert.Len(t, p.RecentPerformance, 1)
}

func TestRecordObservationRejectsMissingFields(t *testing.T) {
	r := newTestRouter(false)
	fields := []string{
		"activityType", "timestamp", "accuracyRate", "completionTime",
		"expectedTime", "mistakeCount", "hintUsage", "attemptCount",
	}
	for _, field := range fields {
		t.Run(field, func(t *testing.T) {
			body := observation(model.SkillGrammar, 92)
			delete(body, field)
			w, _ := do(t, r, http.MethodPost, "/api/learners/u1/observations", body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)

			body[field] = nil
			w, _ = do(t, r, http.MethodPost, "/api/learners/u1/observations", body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	body := observation(model.SkillGrammar, 92)
	body["expectedTime"] = 0
	w, _ := do(t, r, http.MethodPost, "/api/learners/u1/observations", body, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, env := do(t, r, http.MethodGet, "/api/learners/u1/profile", nil, "")
	var p model.LearnerProfile
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, 50.0, p.SkillLevels[model.SkillGrammar])
	assert.Empty(t, p.RecentPerformance)
}

func TestEvaluationAndDifficultyEndpoints(t *testing.T) {
	r := newTestRouter(false)
	for i := 0; i < 3; i++ {
		w, _ := do(t, r, http.MethodPost, "/api/learners/u1/observations", observation(model.SkillGrammar, 95), "")
		require.Equal(t, http.StatusOK, w.Code)
	}

	w, env := do(t, r, http.MethodGet, "/api/learners/u1/skills/grammar/evaluation", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var eval model.Evaluation
	require.NoError(t, json.Unmarshal(env.Data, &eval))
	assert.True(t, eval.ReadinessForNextLevel)
	assert.Equal(t, 95.0, eval.OverallScore)

	w, env = do(t, r, http.MethodGet, "/api/learners/u1/skills/grammar/difficulty", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var rec model.DifficultyRecommendation
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	assert.Equal(t, model.DifficultyIntermediate, rec.CurrentDifficulty)

	w, _ = do(t, r, http.MethodGet, "/api/learners/u1/skills/cooking/evaluation", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdatePreferencesEndpoint(t *testing.T) {
	r := newTestRouter(false)

	w, env := do(t, r, http.MethodPut, "/api/learners/u1/preferences", map[string]interface{}{
		"adaptiveMode":  false,
		"learningSpeed": "fast",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var p model.LearnerProfile
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.False(t, p.AdaptiveMode)
	assert.Equal(t, model.SpeedFast, p.LearningSpeed)

	w, _ = do(t, r, http.MethodPut, "/api/learners/u1/preferences", map[string]interface{}{"preferredDifficulty": "impossible"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSuggestPathEndpoint(t *testing.T) {
	r := newTestRouter(false)

	w, env := do(t, r, http.MethodGet, "/api/learners/u1/path", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var path model.LearningPathSuggestion
	require.NoError(t, json.Unmarshal(env.Data, &path))
	assert.Equal(t, model.SkillSpeaking, path.CurrentActivityType)
}

func TestRecommendationEndpoints(t *testing.T) {
	r := newTestRouter(false)

	w, env := do(t, r, http.MethodPost, "/api/learners/u1/recommendations", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var mixed model.MixedRecommendations
	require.NoError(t, json.Unmarshal(env.Data, &mixed))
	require.Len(t, mixed.Courses, 1)
	assert.Equal(t, "c1", mixed.Courses[0].CourseID)

	w, env = do(t, r, http.MethodPost, "/api/learners/u1/recommendations/lesson", map[string]interface{}{"count": 3}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var lessons []model.LessonRecommendation
	require.NoError(t, json.Unmarshal(env.Data, &lessons))
	require.Len(t, lessons, 1)
	assert.Equal(t, 80, lessons[0].MatchScore)

	w, _ = do(t, r, http.MethodPost, "/api/learners/u1/recommendations/podcast", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodPost, "/api/learners/u1/recommendations/course", map[string]interface{}{"count": 500}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPositionEndpoints(t *testing.T) {
	r := newTestRouter(false)

	w, _ := do(t, r, http.MethodPost, "/api/positions", map[string]interface{}{
		"userId": "u1", "courseId": "c1", "lessonId": "l1", "mode": "video", "position": 12.5,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env := do(t, r, http.MethodGet, "/api/positions/last?userId=u1&courseId=c1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var pos model.LearningPosition
	require.NoError(t, json.Unmarshal(env.Data, &pos))
	assert.Equal(t, 12.5, pos.Position)
	assert.Equal(t, "l1", pos.LessonID)

	w, _ = do(t, r, http.MethodGet, "/api/positions/last?userId=u1&courseId=c404", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, r, http.MethodPost, "/api/positions", map[string]interface{}{"userId": "u1"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = do(t, r, http.MethodGet, "/api/learners/u1/continue", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var recs []model.ContinueRecommendation
	require.NoError(t, json.Unmarshal(env.Data, &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, 10, recs[0].Priority)

	w, env = do(t, r, http.MethodGet, "/api/learners/u1/in-progress", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var courses []model.InProgressCourse
	require.NoError(t, json.Unmarshal(env.Data, &courses))
	require.Len(t, courses, 1)
	assert.Equal(t, 1, courses[0].LessonsVisited)
}

func TestAuthRestrictsToOwnData(t *testing.T) {
	r := newTestRouter(true)
	token, err := util.GenerateJWT("u1", testSecret, time.Hour)
	require.NoError(t, err)

	w, _ := do(t, r, http.MethodGet, "/api/learners/u1/profile", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = do(t, r, http.MethodGet, "/api/learners/u1/profile", nil, token)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, r, http.MethodGet, "/api/learners/u2/profile", nil, token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = do(t, r, http.MethodPost, "/api/positions", map[string]interface{}{"userId": "u2", "courseId": "c1"}, token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = do(t, r, http.MethodGet, "/api/positions/last?userId=u2&courseId=c1", nil, token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = do(t, r, http.MethodGet, "/api/learners/u1/profile", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
