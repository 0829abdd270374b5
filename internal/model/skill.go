package model

// SkillTag 技能标签（固定枚举）
type SkillTag string

const (
	SkillChineseToEnglish SkillTag = "chineseToEnglish"
	SkillEnglishToChinese SkillTag = "englishToChinese"
	SkillGrammar          SkillTag = "grammar"
	SkillListening        SkillTag = "listening"
	SkillVocabulary       SkillTag = "vocabulary"
	SkillSpeaking         SkillTag = "speaking"
	SkillReading          SkillTag = "reading"
	SkillWriting          SkillTag = "writing"
)

// AllSkills 按固定顺序返回全部技能，该顺序也用于排序时打破平局
func AllSkills() []SkillTag {
	return []SkillTag{
		SkillChineseToEnglish,
		SkillEnglishToChinese,
		SkillGrammar,
		SkillListening,
		SkillVocabulary,
		SkillSpeaking,
		SkillReading,
		SkillWriting,
	}
}

// DefaultSkillLevels 新建画像时各技能的初始熟练度
var DefaultSkillLevels = map[SkillTag]float64{
	SkillChineseToEnglish: 55,
	SkillEnglishToChinese: 60,
	SkillGrammar:          50,
	SkillListening:        45,
	SkillVocabulary:       65,
	SkillSpeaking:         40,
	SkillReading:          60,
	SkillWriting:          45,
}

func (s SkillTag) Valid() bool {
	_, ok := DefaultSkillLevels[s]
	return ok
}

// SkillOrder 返回技能在枚举中的位置，未知技能排在最后
func SkillOrder(s SkillTag) int {
	for i, tag := range AllSkills() {
		if tag == s {
			return i
		}
	}
	return len(DefaultSkillLevels)
}

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
	DifficultyExpert       Difficulty = "expert"
)

var difficultyRanks = map[Difficulty]int{
	DifficultyBeginner:     1,
	DifficultyIntermediate: 2,
	DifficultyAdvanced:     3,
	DifficultyExpert:       4,
}

// Rank 难度等级数值 1..4，非法值返回 0
func (d Difficulty) Rank() int {
	return difficultyRanks[d]
}

func (d Difficulty) Valid() bool {
	return d.Rank() > 0
}

// Next 提升一档，expert 保持不变
func (d Difficulty) Next() Difficulty {
	switch d {
	case DifficultyBeginner:
		return DifficultyIntermediate
	case DifficultyIntermediate:
		return DifficultyAdvanced
	default:
		if d.Valid() {
			return DifficultyExpert
		}
		return DifficultyIntermediate
	}
}

type LearningSpeed string

const (
	SpeedSlow   LearningSpeed = "slow"
	SpeedNormal LearningSpeed = "normal"
	SpeedFast   LearningSpeed = "fast"
)

func (s LearningSpeed) Valid() bool {
	return s == SpeedSlow || s == SpeedNormal || s == SpeedFast
}

// Multiplier 学习速度对技能调整幅度的缩放系数
func (s LearningSpeed) Multiplier() float64 {
	switch s {
	case SpeedFast:
		return 1.2
	case SpeedSlow:
		return 0.8
	default:
		return 1.0
	}
}

type AdjustmentMagnitude string

const (
	MagnitudeSlight      AdjustmentMagnitude = "slight"
	MagnitudeModerate    AdjustmentMagnitude = "moderate"
	MagnitudeSignificant AdjustmentMagnitude = "significant"
)
