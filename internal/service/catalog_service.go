package service

import (
	"adaptive_learning_backend/internal/config"
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/util"
	"adaptive_learning_backend/pkg/logger"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// CatalogSource 内容目录来源
type CatalogSource interface {
	Load(ctx context.Context) (*model.Catalog, error)
}

// FileCatalogSource 本地 YAML/JSON 文件
type FileCatalogSource struct {
	Path string
}

func (s *FileCatalogSource) Load(_ context.Context) (*model.Catalog, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}

	var catalog model.Catalog
	if strings.EqualFold(filepath.Ext(s.Path), ".json") {
		err = json.Unmarshal(data, &catalog)
	} else {
		err = yaml.Unmarshal(data, &catalog)
	}
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", s.Path, err)
	}
	return &catalog, nil
}

// MinioCatalogSource 存放在 MinIO 中的 JSON 目录
type MinioCatalogSource struct {
	Client *minio.Client
	Bucket string
	Object string
}

func NewMinioCatalogSource(cfg *config.CatalogConfig) (*MinioCatalogSource, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioCatalogSource{Client: client, Bucket: cfg.MinioBucket, Object: cfg.MinioObject}, nil
}

func (s *MinioCatalogSource) Load(ctx context.Context) (*model.Catalog, error) {
	obj, err := s.Client.GetObject(ctx, s.Bucket, s.Object, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	var catalog model.Catalog
	if err := json.NewDecoder(obj).Decode(&catalog); err != nil {
		return nil, fmt.Errorf("decode catalog %s/%s: %w", s.Bucket, s.Object, err)
	}
	return &catalog, nil
}

// StaticCatalogSource 固定目录
type StaticCatalogSource struct {
	Catalog model.Catalog
}

func (s *StaticCatalogSource) Load(_ context.Context) (*model.Catalog, error) {
	c := s.Catalog
	return &c, nil
}

// NewCatalogSource 按配置选择目录来源
func NewCatalogSource(cfg *config.CatalogConfig) (CatalogSource, error) {
	switch cfg.Source {
	case util.CatalogSourceFile:
		return &FileCatalogSource{Path: cfg.Path}, nil
	case util.CatalogSourceMinio:
		return NewMinioCatalogSource(cfg)
	default:
		return nil, fmt.Errorf("%w: catalog source %q", util.ErrUnsupportedBackend, cfg.Source)
	}
}

// CatalogService 缓存目录，超过刷新间隔后重新加载；加载失败时继续使用旧数据
type CatalogService struct {
	Source         CatalogSource
	ReloadInterval time.Duration

	mu       sync.RWMutex
	catalog  *model.Catalog
	loadedAt time.Time
	stale    bool
	now      func() time.Time
}

func NewCatalogService(source CatalogSource, reloadInterval time.Duration) *CatalogService {
	return &CatalogService{Source: source, ReloadInterval: reloadInterval, now: time.Now}
}

func (s *CatalogService) fresh() bool {
	return s.catalog != nil && !s.stale && (s.ReloadInterval <= 0 || s.now().Sub(s.loadedAt) < s.ReloadInterval)
}

// Get 返回目录快照，调用方不得修改
func (s *CatalogService) Get(ctx context.Context) (*model.Catalog, error) {
	s.mu.RLock()
	if s.fresh() {
		c := s.catalog
		s.mu.RUnlock()
		return c, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fresh() {
		return s.catalog, nil
	}

	catalog, err := s.Source.Load(ctx)
	if err != nil {
		if s.catalog != nil {
			logger.Log.Warn("Failed to reload catalog, serving cached copy", zap.Error(err))
			return s.catalog, nil
		}
		return nil, fmt.Errorf("%w: %v", util.ErrCatalogUnavailable, err)
	}

	s.catalog = catalog
	s.loadedAt = s.now()
	s.stale = false
	logger.Log.Info("Catalog loaded",
		zap.Int("courses", len(catalog.Courses)),
		zap.Int("lessons", len(catalog.Lessons)),
		zap.Int("practices", len(catalog.Practices)))
	return catalog, nil
}

// Invalidate 下次 Get 时强制重新加载
func (s *CatalogService) Invalidate() {
	s.mu.Lock()
	s.stale = true
	s.mu.Unlock()
}

// SetReloadInterval 配置热更新时调用
func (s *CatalogService) SetReloadInterval(d time.Duration) {
	s.mu.Lock()
	s.ReloadInterval = d
	s.mu.Unlock()
}
