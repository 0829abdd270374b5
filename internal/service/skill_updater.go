package service

import (
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/util"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
)

var metricsValidator = validator.New()

// AdjustmentFactors 单次表现对熟练度的各项加减分
type AdjustmentFactors struct {
	Accuracy float64 `json:"accuracy"`
	Speed    float64 `json:"speed"`
	Mistakes float64 `json:"mistakes"`
	Hints    float64 `json:"hints"`
	Attempts float64 `json:"attempts"`
}

// Raw 未按学习速度缩放的总调整量
func (f AdjustmentFactors) Raw() float64 {
	return f.Accuracy + f.Speed + f.Mistakes + f.Hints + f.Attempts
}

func accuracyBonus(accuracy float64) float64 {
	switch {
	case accuracy >= 90:
		return 3
	case accuracy >= 75:
		return 1.5
	case accuracy < 60:
		return -1
	default:
		return 0
	}
}

func speedBonus(completion, expected float64) float64 {
	ratio := expected / math.Max(1, completion)
	switch {
	case ratio > 1.2:
		return 2
	case ratio > 1.0:
		return 1
	case ratio < 0.7:
		return -0.5
	default:
		return 0
	}
}

func mistakeBonus(mistakes int) float64 {
	factor := math.Max(0, 1-0.1*float64(mistakes))
	switch {
	case factor > 0.9:
		return 1
	case factor < 0.6:
		return -1
	default:
		return 0
	}
}

func hintBonus(hints int) float64 {
	if math.Max(0, 1-0.05*float64(hints)) < 0.8 {
		return -1
	}
	return 0
}

func attemptBonus(attempts int) float64 {
	if attempts > 2 {
		return -0.5 * float64(attempts-1)
	}
	return 0
}

// ComputeFactors 计算各项调整，调用前 metrics 需已通过校验
func ComputeFactors(m model.PerformanceMetrics) AdjustmentFactors {
	return AdjustmentFactors{
		Accuracy: accuracyBonus(m.AccuracyRate),
		Speed:    speedBonus(m.CompletionTime, m.ExpectedTime),
		Mistakes: mistakeBonus(m.MistakeCount),
		Hints:    hintBonus(m.HintUsage),
		Attempts: attemptBonus(m.AttemptCount),
	}
}

// ClampLevel 限制在 [0,100] 后四舍五入到一位小数
func ClampLevel(level float64) float64 {
	level = math.Max(0, math.Min(100, level))
	return math.Round(level*10) / 10
}

// ObservationRequest 提交的表现数据，指针字段用来区分缺失和零值
// swagger:model ObservationRequest
type ObservationRequest struct {
	ActivityType   model.SkillTag `json:"activityType" binding:"required" validate:"required"`
	Timestamp      *time.Time     `json:"timestamp" binding:"required" validate:"required"`
	AccuracyRate   *float64       `json:"accuracyRate" binding:"required" validate:"required"`
	CompletionTime *float64       `json:"completionTime" binding:"required" validate:"required"`
	ExpectedTime   *float64       `json:"expectedTime" binding:"required" validate:"required"`
	MistakeCount   *int           `json:"mistakeCount" binding:"required" validate:"required"`
	HintUsage      *int           `json:"hintUsage" binding:"required" validate:"required"`
	AttemptCount   *int           `json:"attemptCount" binding:"required" validate:"required"`
}

// Metrics 任一字段缺失时返回 util.ErrInvalidObservation，取值范围由 ValidateMetrics 检查
func (r ObservationRequest) Metrics() (model.PerformanceMetrics, error) {
	if err := metricsValidator.Struct(r); err != nil {
		return model.PerformanceMetrics{}, fmt.Errorf("%w: %v", util.ErrInvalidObservation, err)
	}
	return model.PerformanceMetrics{
		ActivityType:   r.ActivityType,
		Timestamp:      *r.Timestamp,
		AccuracyRate:   *r.AccuracyRate,
		CompletionTime: *r.CompletionTime,
		ExpectedTime:   *r.ExpectedTime,
		MistakeCount:   *r.MistakeCount,
		HintUsage:      *r.HintUsage,
		AttemptCount:   *r.AttemptCount,
	}, nil
}

// ValidateMetrics 拒绝超出范围或非有限的数值
func ValidateMetrics(activityType model.SkillTag, m model.PerformanceMetrics) error {
	if !activityType.Valid() {
		return fmt.Errorf("%w: %w %q", util.ErrInvalidObservation, util.ErrUnknownSkill, activityType)
	}
	if m.ActivityType != "" && m.ActivityType != activityType {
		return fmt.Errorf("%w: activity type %q does not match %q", util.ErrInvalidObservation, m.ActivityType, activityType)
	}
	if m.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is required", util.ErrInvalidObservation)
	}
	numbers := []struct {
		name  string
		value float64
	}{
		{"accuracyRate", m.AccuracyRate},
		{"completionTime", m.CompletionTime},
		{"expectedTime", m.ExpectedTime},
	}
	for _, n := range numbers {
		if math.IsNaN(n.value) || math.IsInf(n.value, 0) {
			return fmt.Errorf("%w: %s must be a finite number", util.ErrInvalidObservation, n.name)
		}
	}
	if err := metricsValidator.Struct(m); err != nil {
		return fmt.Errorf("%w: %v", util.ErrInvalidObservation, err)
	}
	return nil
}

// UpdateSkillLevel 将一次表现应用到画像上，返回新的熟练度。
// 校验失败时画像保持不变。
func UpdateSkillLevel(profile *model.LearnerProfile, activityType model.SkillTag, m model.PerformanceMetrics) (float64, error) {
	if err := ValidateMetrics(activityType, m); err != nil {
		return 0, err
	}
	m.ActivityType = activityType

	scaled := ComputeFactors(m).Raw() * profile.LearningSpeed.Multiplier()
	newLevel := ClampLevel(profile.Level(activityType) + scaled)

	if profile.SkillLevels == nil {
		profile.SkillLevels = make(map[model.SkillTag]float64)
	}
	profile.SkillLevels[activityType] = newLevel
	profile.AppendPerformance(m)
	return newLevel, nil
}
