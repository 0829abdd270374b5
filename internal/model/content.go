package model

// ContentTag 内容标签，Category 为技能标签或内容类型标签（如 pronunciation、culture）
// swagger:model ContentTag
type ContentTag struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Category string `json:"category" yaml:"category"`
}

type ContentKind string

const (
	ContentCourse   ContentKind = "course"
	ContentLesson   ContentKind = "lesson"
	ContentPractice ContentKind = "practice"
)

// AllContentKinds 混合推荐时的分配顺序
func AllContentKinds() []ContentKind {
	return []ContentKind{ContentCourse, ContentLesson, ContentPractice}
}

func (k ContentKind) Valid() bool {
	return k == ContentCourse || k == ContentLesson || k == ContentPractice
}

// 内容难度取值 1..5
const (
	MinContentDifficulty = 1
	MaxContentDifficulty = 5
)

// swagger:model Course
type Course struct {
	ID          string       `json:"id" yaml:"id"`
	Title       string       `json:"title" yaml:"title"`
	Description string       `json:"description" yaml:"description"`
	Tags        []ContentTag `json:"tags" yaml:"tags"`
	Difficulty  int          `json:"difficulty" yaml:"difficulty"`
	Popularity  float64      `json:"popularity" yaml:"popularity"`
}

// swagger:model Lesson
type Lesson struct {
	ID                   string       `json:"id" yaml:"id"`
	CourseID             string       `json:"courseId" yaml:"course_id"`
	Title                string       `json:"title" yaml:"title"`
	Description          string       `json:"description" yaml:"description"`
	Tags                 []ContentTag `json:"tags" yaml:"tags"`
	Difficulty           int          `json:"difficulty" yaml:"difficulty"`
	EstimatedTimeMinutes int          `json:"estimatedTimeMinutes" yaml:"estimated_time_minutes"`
}

// swagger:model Practice
type Practice struct {
	ID                   string       `json:"id" yaml:"id"`
	Title                string       `json:"title" yaml:"title"`
	Description          string       `json:"description" yaml:"description"`
	Tags                 []ContentTag `json:"tags" yaml:"tags"`
	Difficulty           int          `json:"difficulty" yaml:"difficulty"`
	EstimatedTimeMinutes int          `json:"estimatedTimeMinutes" yaml:"estimated_time_minutes"`
}

// Catalog 外部内容目录的只读快照
type Catalog struct {
	Courses   []Course   `json:"courses" yaml:"courses"`
	Lessons   []Lesson   `json:"lessons" yaml:"lessons"`
	Practices []Practice `json:"practices" yaml:"practices"`
}

// CourseByID 按 ID 查找课程
func (c *Catalog) CourseByID(id string) (Course, bool) {
	for _, course := range c.Courses {
		if course.ID == id {
			return course, true
		}
	}
	return Course{}, false
}

// RecommendationSettings 推荐请求的可选项
// swagger:model RecommendationSettings
type RecommendationSettings struct {
	PreferTargetWeakAreas          bool     `json:"preferTargetWeakAreas"`
	PreferSimilarToRecentlyStudied bool     `json:"preferSimilarToRecentlyStudied"`
	PreferredTags                  []string `json:"preferredTags"`
	ExcludeTags                    []string `json:"excludeTags"`
	TargetDifficulty               int      `json:"targetDifficulty" binding:"omitempty,min=1,max=5"`
}

// swagger:model CourseRecommendation
type CourseRecommendation struct {
	CourseID   string       `json:"courseId"`
	Title      string       `json:"title"`
	MatchScore int          `json:"matchScore"`
	Tags       []ContentTag `json:"tags"`
	Difficulty int          `json:"difficulty"`
	Reasons    []string     `json:"reasons"`
}

// swagger:model LessonRecommendation
type LessonRecommendation struct {
	LessonID   string       `json:"lessonId"`
	CourseID   string       `json:"courseId"`
	Title      string       `json:"title"`
	MatchScore int          `json:"matchScore"`
	Tags       []ContentTag `json:"tags"`
	Difficulty int          `json:"difficulty"`
	Reasons    []string     `json:"reasons"`
}

// swagger:model PracticeRecommendation
type PracticeRecommendation struct {
	PracticeID string       `json:"practiceId"`
	Title      string       `json:"title"`
	MatchScore int          `json:"matchScore"`
	Tags       []ContentTag `json:"tags"`
	Difficulty int          `json:"difficulty"`
	Reasons    []string     `json:"reasons"`
}

// MixedRecommendations 混合推荐结果
// swagger:model MixedRecommendations
type MixedRecommendations struct {
	Courses   []CourseRecommendation   `json:"courses"`
	Lessons   []LessonRecommendation   `json:"lessons"`
	Practices []PracticeRecommendation `json:"practices"`
}
