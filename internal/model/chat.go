package model

import "time"

const ChatTypeForexEducation = "forex_education"

// swagger:model ChatTurn
type ChatTurn struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"userId"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	Response    string    `gorm:"type:text;not null" json:"response"`
	MessageType string    `gorm:"size:50;default:'general'" json:"type"`
	CreatedAt   time.Time `gorm:"index" json:"timestamp"`
}

func (ChatTurn) TableName() string {
	return "ai_chat_history"
}
