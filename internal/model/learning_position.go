package model

import (
	"time"

	"gorm.io/datatypes"
)

// LearningPosition 用户在某课程/课时中最后停留的位置
// swagger:model LearningPosition
type LearningPosition struct {
	ID          string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string         `gorm:"type:varchar(64);not null;uniqueIndex:idx_position_key,priority:1" json:"userId"`
	CourseID    string         `gorm:"type:varchar(64);not null;uniqueIndex:idx_position_key,priority:2" json:"courseId"`
	LessonID    string         `gorm:"type:varchar(64);not null;default:'';uniqueIndex:idx_position_key,priority:3" json:"lessonId"`
	Mode        string         `gorm:"size:32" json:"mode"`
	Position    float64        `gorm:"default:0" json:"position"`
	Timestamp   time.Time      `gorm:"index" json:"timestamp"`
	ContextData datatypes.JSON `gorm:"type:json" json:"contextData,omitempty" swaggertype:"object"`
}

func (LearningPosition) TableName() string {
	return "learning_positions"
}

// ContinueRecommendation "继续学习"建议
// swagger:model ContinueRecommendation
type ContinueRecommendation struct {
	CourseID     string    `json:"courseId"`
	LessonID     string    `json:"lessonId"`
	Mode         string    `json:"mode"`
	Position     float64   `json:"position"`
	LastAccessed time.Time `json:"lastAccessed"`
	Priority     int       `json:"priority"`
	Reason       string    `json:"reason"`
}

// InProgressCourse 进行中的课程
// swagger:model InProgressCourse
type InProgressCourse struct {
	CourseID       string    `json:"courseId"`
	LastLessonID   string    `json:"lastLessonId"`
	LastAccessed   time.Time `json:"lastAccessed"`
	LessonsVisited int       `json:"lessonsVisited"`
}
