package repository

import (
	"forex_edu_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SkillRepository struct {
	DB *gorm.DB
}

func NewSkillRepository(db *gorm.DB) *SkillRepository {
	return &SkillRepository{DB: db}
}

func (r *SkillRepository) WithTx(tx *gorm.DB) *SkillRepository {
	return &SkillRepository{DB: tx}
}

// SkillProgressRow 技能目录 LEFT JOIN 用户进度
type SkillProgressRow struct {
	ID          uint       `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	MaxXP       int        `gorm:"column:max_xp" json:"max_xp"`
	Icon        string     `json:"icon"`
	CurrentXP   int        `gorm:"column:current_xp" json:"current_xp"`
	Level       int        `json:"level"`
	LastUpdated *time.Time `json:"last_updated"`
}

// TaggedSkill 题目关联的技能及其经验值
type TaggedSkill struct {
	SkillID uint
	Name    string
	MaxXP   int
	XPValue int
}

// SkillStatsRow 用户技能汇总
type SkillStatsRow struct {
	TotalSkills     int64   `json:"total_skills"`
	TotalXP         int64   `gorm:"column:total_xp" json:"total_xp"`
	AverageProgress float64 `json:"average_progress"`
	MaxedSkills     int64   `json:"maxed_skills"`
}

func (r *SkillRepository) ListSkills() ([]model.ForexSkill, error) {
	var skills []model.ForexSkill
	err := r.DB.Order("category ASC, name ASC").Find(&skills).Error
	return skills, err
}

func (r *SkillRepository) FindSkillByName(name string) (*model.ForexSkill, error) {
	var skill model.ForexSkill
	err := r.DB.Where("name = ?", name).First(&skill).Error
	return &skill, err
}

func (r *SkillRepository) FindSkillByID(id uint) (*model.ForexSkill, error) {
	var skill model.ForexSkill
	err := r.DB.First(&skill, id).Error
	return &skill, err
}

// EnsureUserSkills 为用户补齐缺失的技能行，已存在的不受影响
func (r *SkillRepository) EnsureUserSkills(userID uint, skillIDs []uint) error {
	if len(skillIDs) == 0 {
		return nil
	}
	now := time.Now()
	rows := make([]model.UserSkill, 0, len(skillIDs))
	for _, id := range skillIDs {
		rows = append(rows, model.UserSkill{UserID: userID, SkillID: id, CurrentXP: 0, Level: 1, LastUpdated: now})
	}
	return r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// LockUserSkill 读取并锁定 (用户, 技能) 行
func (r *SkillRepository) LockUserSkill(userID, skillID uint) (*model.UserSkill, error) {
	var us model.UserSkill
	err := r.DB.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND skill_id = ?", userID, skillID).
		First(&us).Error
	return &us, err
}

func (r *SkillRepository) SaveUserSkillXP(id uint, xp, level int) error {
	return r.DB.Model(&model.UserSkill{}).Where("id = ?", id).Updates(map[string]interface{}{
		"current_xp":   xp,
		"level":        level,
		"last_updated": time.Now(),
	}).Error
}

func (r *SkillRepository) UserSkillsWithProgress(userID uint) ([]SkillProgressRow, error) {
	var rows []SkillProgressRow
	err := r.DB.Table("forex_skills AS fs").
		Select("fs.id, fs.name, fs.description, fs.category, fs.max_xp, fs.icon, "+
			"COALESCE(us.current_xp, 0) AS current_xp, COALESCE(us.level, 1) AS level, us.last_updated").
		Joins("LEFT JOIN user_skills us ON fs.id = us.skill_id AND us.user_id = ?", userID).
		Order("fs.category ASC, fs.name ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *SkillRepository) UserSkillStats(userID uint) (*SkillStatsRow, error) {
	var stats SkillStatsRow
	err := r.DB.Table("user_skills AS us").
		Select("COUNT(*) AS total_skills, COALESCE(SUM(us.current_xp), 0) AS total_xp, "+
			"COALESCE(AVG(us.current_xp * 100.0 / fs.max_xp), 0) AS average_progress, "+
			"COUNT(CASE WHEN us.level >= 10 THEN 1 END) AS maxed_skills").
		Joins("JOIN forex_skills fs ON us.skill_id = fs.id").
		Where("us.user_id = ?", userID).
		Scan(&stats).Error
	return &stats, err
}

// ReplaceQuestionTags 替换题目哈希对应的全部标签
func (r *SkillRepository) ReplaceQuestionTags(hash string, tags []model.QuestionSkill) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_content_hash = ?", hash).Delete(&model.QuestionSkill{}).Error; err != nil {
			return err
		}
		if len(tags) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&tags).Error
	})
}

func (r *SkillRepository) TaggedSkills(hash string) ([]TaggedSkill, error) {
	var rows []TaggedSkill
	err := r.DB.Table("question_skills AS qs").
		Select("fs.id AS skill_id, fs.name AS name, fs.max_xp AS max_xp, qs.xp_value AS xp_value").
		Joins("JOIN forex_skills fs ON qs.skill_id = fs.id").
		Where("qs.question_content_hash = ?", hash).
		Order("qs.id ASC").
		Scan(&rows).Error
	return rows, err
}
