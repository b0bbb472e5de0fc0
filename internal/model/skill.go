package model

import "time"

const DefaultSkillMaxXP = 1000

// ForexSkill 技能目录，启动时初始化后只读
// swagger:model ForexSkill
type ForexSkill struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	Category    string    `gorm:"size:50" json:"category"`
	MaxXP       int       `gorm:"default:1000" json:"max_xp"`
	Icon        string    `gorm:"size:16" json:"icon"`
	CreatedAt   time.Time `json:"created_at"`
}

func (ForexSkill) TableName() string {
	return "forex_skills"
}

// UserSkill 每个 (用户, 技能) 唯一一行
type UserSkill struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint      `gorm:"uniqueIndex:idx_user_skill;not null" json:"user_id"`
	SkillID     uint      `gorm:"uniqueIndex:idx_user_skill;not null" json:"skill_id"`
	CurrentXP   int       `gorm:"default:0" json:"current_xp"`
	Level       int       `gorm:"default:1" json:"level"`
	LastUpdated time.Time `json:"last_updated"`
}

func (UserSkill) TableName() string {
	return "user_skills"
}

// QuestionSkill 题目内容哈希与技能的关联
type QuestionSkill struct {
	ID                  uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	QuestionContentHash string    `gorm:"size:32;uniqueIndex:idx_question_skill;not null" json:"question_content_hash"`
	SkillID             uint      `gorm:"uniqueIndex:idx_question_skill;not null" json:"skill_id"`
	XPValue             int       `gorm:"default:10" json:"xp_value"`
	CreatedAt           time.Time `json:"created_at"`
}

func (QuestionSkill) TableName() string {
	return "question_skills"
}
