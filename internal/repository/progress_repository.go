package repository

import (
	"forex_edu_backend/internal/model"

	"gorm.io/gorm"
)

// ProgressRepository 测验记录，只追加
type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) WithTx(tx *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: tx}
}

func (r *ProgressRepository) Create(entry *model.LearningProgress) error {
	return r.DB.Create(entry).Error
}

// ListByUser 按时间倒序返回用户全部记录
func (r *ProgressRepository) ListByUser(userID uint) ([]model.LearningProgress, error) {
	var entries []model.LearningProgress
	err := r.DB.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error
	return entries, err
}

// RecentAtLevel 返回指定等级下最近 n 条记录，最新在前
func (r *ProgressRepository) RecentAtLevel(userID uint, level model.Level, n int) ([]model.LearningProgress, error) {
	var entries []model.LearningProgress
	err := r.DB.Where("user_id = ? AND level = ?", userID, level).
		Order("created_at DESC, id DESC").
		Limit(n).
		Find(&entries).Error
	return entries, err
}

func (r *ProgressRepository) AllAtLevel(userID uint, level model.Level) ([]model.LearningProgress, error) {
	var entries []model.LearningProgress
	err := r.DB.Where("user_id = ? AND level = ?", userID, level).
		Order("created_at DESC, id DESC").
		Find(&entries).Error
	return entries, err
}
