package repository

import (
	"forex_edu_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

// WithTx 返回绑定到事务的仓库
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{DB: tx}
}

// UserFilter 管理端用户列表筛选
type UserFilter struct {
	Role          string
	IsActive      *bool
	Search        string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Page          int
	Limit         int
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByUsername(username string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("username = ?", username).First(&user).Error
	return &user, err
}

// LockByID 读取并锁定用户行，必须在事务中调用
func (r *UserRepository) LockByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, id).Error
	return &user, err
}

// ExistsByUsernameOrEmail 检查用户名或邮箱是否被其他用户占用
func (r *UserRepository) ExistsByUsernameOrEmail(username, email string, excludeID uint) (bool, error) {
	var count int64
	query := r.DB.Model(&model.User{}).Where("(username = ? OR email = ?)", username, email)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) List(filter UserFilter) ([]model.User, int64, error) {
	query := r.DB.Model(&model.User{})

	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("username LIKE ? OR email LIKE ? OR full_name LIKE ?", like, like, like)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at <= ?", *filter.CreatedBefore)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}

	var users []model.User
	err := query.Order("created_at DESC, id DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&users).Error
	return users, total, err
}

func (r *UserRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	return r.DB.Model(&model.User{}).Where("id = ?", id).Updates(fields).Error
}

func (r *UserRepository) UpdatePassword(id uint, hashed string) error {
	return r.UpdateFields(id, map[string]interface{}{"password": hashed})
}

// SetLevel 显式设置等级
func (r *UserRepository) SetLevel(id uint, level model.Level) (int64, error) {
	res := r.DB.Model(&model.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"level": level, "updated_at": time.Now()})
	return res.RowsAffected, res.Error
}

// CompareAndSetLevel 仅当当前等级仍为 from 时更新为 to
func (r *UserRepository) CompareAndSetLevel(id uint, from, to model.Level) (bool, error) {
	res := r.DB.Model(&model.User{}).
		Where("id = ? AND level = ?", id, from).
		Updates(map[string]interface{}{"level": to, "updated_at": time.Now()})
	return res.RowsAffected == 1, res.Error
}

// Delete 删除用户及其全部关联数据
func (r *UserRepository) Delete(id uint) (bool, error) {
	var deleted bool
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		dependents := []interface{}{
			&model.LearningProgress{},
			&model.ChatTurn{},
			&model.ActivityLog{},
			&model.UserSkill{},
			&model.DailyMission{},
		}
		for _, m := range dependents {
			if err := tx.Where("user_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&model.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	return deleted, err
}
