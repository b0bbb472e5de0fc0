package repository

import (
	"forex_edu_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type ActivityRepository struct {
	DB *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{DB: db}
}

// ActivityFilter 管理端日志筛选
type ActivityFilter struct {
	UserID     uint
	ActionType string
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
	Offset     int
}

// ActivityLogRow 日志连同用户信息
type ActivityLogRow struct {
	model.ActivityLog
	Username string
	Email    string
	FullName string
	Role     string
}

type ActionStatRow struct {
	ActionType  string
	Count       int64
	AvgDuration float64
}

type TopUserRow struct {
	UserID        uint
	ActivityCount int64
}

func (r *ActivityRepository) Create(entry *model.ActivityLog) error {
	return r.DB.Create(entry).Error
}

func (r *ActivityRepository) filtered(f ActivityFilter) *gorm.DB {
	query := r.DB.Table("user_activity_log AS al")
	if f.UserID != 0 {
		query = query.Where("al.user_id = ?", f.UserID)
	}
	if f.ActionType != "" {
		query = query.Where("al.action_type = ?", f.ActionType)
	}
	if f.StartDate != nil {
		query = query.Where("al.created_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		query = query.Where("al.created_at <= ?", *f.EndDate)
	}
	return query
}

func (r *ActivityRepository) List(f ActivityFilter) ([]ActivityLogRow, error) {
	var rows []ActivityLogRow
	err := r.filtered(f).
		Select("al.*, u.username, u.email, u.full_name, u.role").
		Joins("LEFT JOIN users u ON al.user_id = u.id").
		Order("al.created_at DESC, al.id DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Scan(&rows).Error
	return rows, err
}

func (r *ActivityRepository) Count(f ActivityFilter) (int64, error) {
	var total int64
	err := r.filtered(f).Count(&total).Error
	return total, err
}

func (r *ActivityRepository) ActionStats(since time.Time, userID uint) ([]ActionStatRow, error) {
	var rows []ActionStatRow
	query := r.DB.Model(&model.ActivityLog{}).
		Select("action_type, COUNT(*) AS count, AVG(duration_ms) AS avg_duration").
		Where("created_at >= ?", since)
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}
	err := query.Group("action_type").Order("count DESC").Scan(&rows).Error
	return rows, err
}

// TimestampsSince 返回时间窗口内的日志时间，按小时分桶在调用方完成
func (r *ActivityRepository) TimestampsSince(since time.Time, userID uint) ([]time.Time, error) {
	var entries []model.ActivityLog
	query := r.DB.Select("id, created_at").Where("created_at >= ?", since)
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	out := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.CreatedAt)
	}
	return out, nil
}

func (r *ActivityRepository) TopUsers(since time.Time, limit int) ([]TopUserRow, error) {
	var rows []TopUserRow
	err := r.DB.Model(&model.ActivityLog{}).
		Select("user_id, COUNT(*) AS activity_count").
		Where("created_at >= ?", since).
		Group("user_id").
		Order("activity_count DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *ActivityRepository) LastActivity(userID uint) (*time.Time, error) {
	var entry model.ActivityLog
	err := r.DB.Select("id, created_at").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry.CreatedAt, nil
}

func (r *ActivityRepository) DistinctActionTypes() ([]string, error) {
	var types []string
	err := r.DB.Model(&model.ActivityLog{}).
		Distinct("action_type").
		Order("action_type ASC").
		Pluck("action_type", &types).Error
	return types, err
}
