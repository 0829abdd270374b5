package service

import (
	"adaptive_learning_backend/internal/config"
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/util"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakySource struct {
	calls   int
	fail    bool
	catalog model.Catalog
}

func (s *flakySource) Load(context.Context) (*model.Catalog, error) {
	s.calls++
	if s.fail {
		return nil, errors.New("object not found")
	}
	c := s.catalog
	return &c, nil
}

const catalogYAML = `
courses:
  - id: c1
    title: Everyday Grammar
    difficulty: 2
    popularity: 120
    tags:
      - {id: t-grammar, name: Grammar, category: grammar}
lessons:
  - id: l1
    course_id: c1
    title: Present tense
    difficulty: 2
    estimated_time_minutes: 15
practices:
  - id: p1
    title: Tense drill
    difficulty: 1
    estimated_time_minutes: 5
`

func TestFileCatalogSourceYAMLAndJSON(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(catalogYAML), 0o644))

	catalog, err := (&FileCatalogSource{Path: yamlPath}).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, catalog.Courses, 1)
	assert.Equal(t, "grammar", catalog.Courses[0].Tags[0].Category)
	assert.Equal(t, "c1", catalog.Lessons[0].CourseID)
	assert.Equal(t, 5, catalog.Practices[0].EstimatedTimeMinutes)

	jsonPath := filepath.Join(dir, "catalog.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"lessons":[{"id":"l9","courseId":"c9","estimatedTimeMinutes":12}]}`), 0o644))
	catalog, err = (&FileCatalogSource{Path: jsonPath}).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "c9", catalog.Lessons[0].CourseID)
	assert.Equal(t, 12, catalog.Lessons[0].EstimatedTimeMinutes)

	_, err = (&FileCatalogSource{Path: filepath.Join(dir, "missing.yaml")}).Load(context.Background())
	assert.Error(t, err)
}

func TestNewCatalogSourceRejectsUnknown(t *testing.T) {
	_, err := NewCatalogSource(&config.CatalogConfig{Source: "ftp"})
	assert.ErrorIs(t, err, util.ErrUnsupportedBackend)

	src, err := NewCatalogSource(&config.CatalogConfig{Source: util.CatalogSourceFile, Path: "x.yaml"})
	require.NoError(t, err)
	assert.IsType(t, &FileCatalogSource{}, src)
}

func TestCatalogServiceCachesAndReloads(t *testing.T) {
	src := &flakySource{catalog: model.Catalog{Courses: []model.Course{{ID: "c1"}}}}
	svc := NewCatalogService(src, time.Minute)
	now := baseTime
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := svc.Get(ctx)
	require.NoError(t, err)
	_, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)

	now = now.Add(2 * time.Minute)
	src.catalog.Courses = append(src.catalog.Courses, model.Course{ID: "c2"})
	catalog, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, catalog.Courses, 2)
	assert.Equal(t, 2, src.calls)

	svc.Invalidate()
	_, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, src.calls)
}

func TestCatalogServiceServesStaleCopyOnError(t *testing.T) {
	src := &flakySource{catalog: model.Catalog{Lessons: []model.Lesson{{ID: "l1"}}}}
	svc := NewCatalogService(src, 0)
	ctx := context.Background()

	_, err := svc.Get(ctx)
	require.NoError(t, err)

	src.fail = true
	svc.Invalidate()
	catalog, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, catalog.Lessons, 1)
}

func TestCatalogServiceUnavailable(t *testing.T) {
	svc := NewCatalogService(&flakySource{fail: true}, time.Minute)

	_, err := svc.Get(context.Background())
	assert.ErrorIs(t, err, util.ErrCatalogUnavailable)
}
