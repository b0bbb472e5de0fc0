package model

import (
	"time"

	"gorm.io/datatypes"
)

type MissionStatus string

const (
	MissionActive    MissionStatus = "active"
	MissionCompleted MissionStatus = "completed"
	MissionExpired   MissionStatus = "expired"
)

// 任务类型，与游戏事件路由表对应
const (
	MissionCompleteQuizzes  = "complete_quizzes"
	MissionPerfectQuiz      = "perfect_quiz"
	MissionCorrectStreak    = "correct_streak"
	MissionSkillImprovement = "skill_improvement"
	MissionChatMessages     = "chat_messages"
)

// swagger:model MissionTemplate
type MissionTemplate struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"size:255;not null" json:"description"`
	MissionType string    `gorm:"size:50;not null" json:"mission_type"`
	TargetValue int       `gorm:"not null" json:"target_value"`
	RewardXP    int       `gorm:"default:50" json:"reward_xp"`
	RewardType  string    `gorm:"size:50" json:"reward_type"`
	Difficulty  string    `gorm:"size:20;default:'easy'" json:"difficulty"`
	Frequency   string    `gorm:"size:20;default:'daily'" json:"frequency"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

func (MissionTemplate) TableName() string {
	return "mission_templates"
}

// MissionData 实例化时从模板复制的展示信息
type MissionData struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Difficulty  string `json:"difficulty"`
}

// DailyMission 每用户每天的任务实例；(user, type, date) 唯一
// swagger:model DailyMission
type DailyMission struct {
	ID              uint                            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          uint                            `gorm:"uniqueIndex:idx_user_mission_day;not null" json:"user_id"`
	MissionType     string                          `gorm:"size:50;uniqueIndex:idx_user_mission_day;not null" json:"mission_type"`
	MissionData     datatypes.JSONType[MissionData] `json:"mission_data"`
	TargetValue     int                             `gorm:"not null" json:"target_value"`
	CurrentProgress int                             `gorm:"default:0" json:"current_progress"`
	Status          MissionStatus                   `gorm:"size:20;default:'active';index" json:"status"`
	RewardXP        int                             `gorm:"default:0" json:"reward_xp"`
	RewardType      string                          `gorm:"size:50" json:"reward_type"`
	DateAssigned    string                          `gorm:"size:10;uniqueIndex:idx_user_mission_day;not null" json:"date_assigned"`
	CompletedAt     *time.Time                      `json:"completed_at"`
	ExpiresAt       time.Time                       `gorm:"index" json:"expires_at"`
	CreatedAt       time.Time                       `json:"created_at"`
}

func (DailyMission) TableName() string {
	return "daily_missions"
}
