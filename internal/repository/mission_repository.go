package repository

import (
	"forex_edu_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MissionRepository struct {
	DB *gorm.DB
}

func NewMissionRepository(db *gorm.DB) *MissionRepository {
	return &MissionRepository{DB: db}
}

func (r *MissionRepository) WithTx(tx *gorm.DB) *MissionRepository {
	return &MissionRepository{DB: tx}
}

// MissionStatsRow 用户任务汇总
type MissionStatsRow struct {
	TotalMissions     int64 `json:"total_missions"`
	CompletedMissions int64 `json:"completed_missions"`
	TodayMissions     int64 `json:"today_missions"`
	TodayCompleted    int64 `json:"today_completed"`
	TotalMissionXP    int64 `gorm:"column:total_mission_xp" json:"total_mission_xp"`
}

func (r *MissionRepository) ActiveTemplates() ([]model.MissionTemplate, error) {
	var templates []model.MissionTemplate
	err := r.DB.Where("is_active = ?", true).Order("id ASC").Find(&templates).Error
	return templates, err
}

func (r *MissionRepository) CountForDay(userID uint, date string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.DailyMission{}).
		Where("user_id = ? AND date_assigned = ?", userID, date).
		Count(&count).Error
	return count, err
}

func (r *MissionRepository) ListForDay(userID uint, date string) ([]model.DailyMission, error) {
	var missions []model.DailyMission
	err := r.DB.Where("user_id = ? AND date_assigned = ?", userID, date).
		Order("created_at ASC, id ASC").
		Find(&missions).Error
	return missions, err
}

// CreateIgnoreConflict 批量插入，(user, type, date) 冲突的行被跳过
func (r *MissionRepository) CreateIgnoreConflict(missions []model.DailyMission) error {
	if len(missions) == 0 {
		return nil
	}
	return r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&missions).Error
}

// LockActiveByType 锁定当天指定类型的进行中任务
func (r *MissionRepository) LockActiveByType(userID uint, missionType, date string) (*model.DailyMission, error) {
	var mission model.DailyMission
	err := r.DB.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND mission_type = ? AND date_assigned = ? AND status = ?",
			userID, missionType, date, model.MissionActive).
		First(&mission).Error
	return &mission, err
}

func (r *MissionRepository) UpdateProgress(id uint, progress int, status model.MissionStatus, completedAt *time.Time) error {
	fields := map[string]interface{}{
		"current_progress": progress,
		"status":           status,
	}
	if completedAt != nil {
		fields["completed_at"] = *completedAt
	}
	return r.DB.Model(&model.DailyMission{}).Where("id = ?", id).Updates(fields).Error
}

// ExpireBefore 将已过期的进行中任务标记为 expired
func (r *MissionRepository) ExpireBefore(now time.Time) (int64, error) {
	res := r.DB.Model(&model.DailyMission{}).
		Where("status = ? AND expires_at < ?", model.MissionActive, now).
		Update("status", model.MissionExpired)
	return res.RowsAffected, res.Error
}

func (r *MissionRepository) FindForUser(id, userID uint) (*model.DailyMission, error) {
	var mission model.DailyMission
	err := r.DB.Where("id = ? AND user_id = ?", id, userID).First(&mission).Error
	return &mission, err
}

func (r *MissionRepository) Stats(userID uint, today string) (*MissionStatsRow, error) {
	var stats MissionStatsRow
	err := r.DB.Model(&model.DailyMission{}).
		Select("COUNT(*) AS total_missions, "+
			"COUNT(CASE WHEN status = ? THEN 1 END) AS completed_missions, "+
			"COUNT(CASE WHEN date_assigned = ? THEN 1 END) AS today_missions, "+
			"COUNT(CASE WHEN date_assigned = ? AND status = ? THEN 1 END) AS today_completed, "+
			"COALESCE(SUM(CASE WHEN status = ? THEN reward_xp ELSE 0 END), 0) AS total_mission_xp",
			model.MissionCompleted, today, today, model.MissionCompleted, model.MissionCompleted).
		Where("user_id = ?", userID).
		Scan(&stats).Error
	return &stats, err
}
