package model

import "time"

const QuizTypeForex = "forex_quiz"

// LearningProgress 一次测验的不可变记录，创建后不再修改
// swagger:model LearningProgress
type LearningProgress struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID         uint      `gorm:"index:idx_progress_user_level;not null" json:"userId"`
	QuizType       string    `gorm:"size:50" json:"quiz_type"`
	QuizScore      int       `json:"quiz_score"`
	TotalQuestions int       `json:"total_questions"`
	Level          Level     `gorm:"size:20;index:idx_progress_user_level" json:"level"`
	AIFeedback     string    `gorm:"type:text" json:"ai_feedback,omitempty"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

func (LearningProgress) TableName() string {
	return "learning_progress"
}
