package model

import (
	"time"

	"gorm.io/datatypes"
)

// MaxRecentPerformance 画像中保留的最近表现条数
const MaxRecentPerformance = 20

// PerformanceMetrics 单次练习的表现数据，创建后不可修改
// swagger:model PerformanceMetrics
type PerformanceMetrics struct {
	ActivityType   SkillTag  `json:"activityType" binding:"required"`
	Timestamp      time.Time `json:"timestamp"`
	AccuracyRate   float64   `json:"accuracyRate" validate:"gte=0,lte=100"`
	CompletionTime float64   `json:"completionTime" validate:"gte=0"`
	ExpectedTime   float64   `json:"expectedTime" validate:"gt=0"`
	MistakeCount   int       `json:"mistakeCount" validate:"gte=0"`
	HintUsage      int       `json:"hintUsage" validate:"gte=0"`
	AttemptCount   int       `json:"attemptCount" validate:"gte=1"`
}

// LearnerProfile 用户学习画像
// swagger:model LearnerProfile
type LearnerProfile struct {
	UserID              string               `json:"userId"`
	SkillLevels         map[SkillTag]float64 `json:"skillLevels"`
	PreferredDifficulty Difficulty           `json:"preferredDifficulty"`
	AdaptiveMode        bool                 `json:"adaptiveMode"`
	LearningSpeed       LearningSpeed        `json:"learningSpeed"`
	RecentPerformance   []PerformanceMetrics `json:"recentPerformance"`
	StrugglingAreas     []string             `json:"strugglingAreas"`
	StrengthAreas       []string             `json:"strengthAreas"`
	UpdatedAt           time.Time            `json:"updatedAt"`
}

// NewLearnerProfile 构造默认画像
func NewLearnerProfile(userID string) *LearnerProfile {
	levels := make(map[SkillTag]float64, len(DefaultSkillLevels))
	for tag, level := range DefaultSkillLevels {
		levels[tag] = level
	}
	return &LearnerProfile{
		UserID:              userID,
		SkillLevels:         levels,
		PreferredDifficulty: DifficultyIntermediate,
		AdaptiveMode:        true,
		LearningSpeed:       SpeedNormal,
		RecentPerformance:   []PerformanceMetrics{},
		StrugglingAreas:     []string{},
		StrengthAreas:       []string{},
	}
}

// Level 返回技能熟练度，未记录的技能取默认值
func (p *LearnerProfile) Level(tag SkillTag) float64 {
	if level, ok := p.SkillLevels[tag]; ok {
		return level
	}
	return DefaultSkillLevels[tag]
}

// AppendPerformance 追加一条表现记录，超过上限时淘汰最旧的记录
func (p *LearnerProfile) AppendPerformance(m PerformanceMetrics) {
	p.RecentPerformance = append(p.RecentPerformance, m)
	if over := len(p.RecentPerformance) - MaxRecentPerformance; over > 0 {
		kept := make([]PerformanceMetrics, MaxRecentPerformance)
		copy(kept, p.RecentPerformance[over:])
		p.RecentPerformance = kept
	}
}

// Clone 深拷贝，推荐计算在副本上进行
func (p *LearnerProfile) Clone() *LearnerProfile {
	c := *p
	c.SkillLevels = make(map[SkillTag]float64, len(p.SkillLevels))
	for k, v := range p.SkillLevels {
		c.SkillLevels[k] = v
	}
	c.RecentPerformance = append([]PerformanceMetrics{}, p.RecentPerformance...)
	c.StrugglingAreas = append([]string{}, p.StrugglingAreas...)
	c.StrengthAreas = append([]string{}, p.StrengthAreas...)
	return &c
}

// LearnerProfileRecord learner_profiles 表的持久化结构
type LearnerProfileRecord struct {
	UserID              string         `gorm:"primaryKey;type:varchar(64)"`
	SkillLevels         datatypes.JSON `gorm:"type:json"`
	PreferredDifficulty string         `gorm:"size:20;default:'intermediate'"`
	AdaptiveMode        bool           `gorm:"not null"`
	LearningSpeed       string         `gorm:"size:20;default:'normal'"`
	RecentPerformance   datatypes.JSON `gorm:"type:json"`
	StrugglingAreas     datatypes.JSON `gorm:"type:json"`
	StrengthAreas       datatypes.JSON `gorm:"type:json"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (LearnerProfileRecord) TableName() string {
	return "learner_profiles"
}
