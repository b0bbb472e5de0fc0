package repository

import (
	"forex_edu_backend/internal/model"

	"gorm.io/gorm"
)

type ChatRepository struct {
	DB *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{DB: db}
}

func (r *ChatRepository) Create(turn *model.ChatTurn) error {
	return r.DB.Create(turn).Error
}

// Recent 最近 n 轮对话，按时间正序
func (r *ChatRepository) Recent(userID uint, n int) ([]model.ChatTurn, error) {
	var turns []model.ChatTurn
	err := r.DB.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(n).
		Find(&turns).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// ListByUser 分页历史，最新在前
func (r *ChatRepository) ListByUser(userID uint, limit, offset int) ([]model.ChatTurn, error) {
	var turns []model.ChatTurn
	err := r.DB.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&turns).Error
	return turns, err
}
