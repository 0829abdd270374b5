package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

// 存储后端
const (
	BackendMySQL  = "mysql"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// 内容目录来源
const (
	CatalogSourceFile  = "file"
	CatalogSourceMinio = "minio"
)

const (
	DefaultRecommendationCount = 8
	MaxRecommendationCount     = 50
)
