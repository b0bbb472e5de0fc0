package service

import (
	"errors"
	"forex_edu_backend/internal/model"
	"forex_edu_backend/internal/repository"
	"forex_edu_backend/internal/util"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService 管理端用户维护
type UserService struct {
	UserRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{UserRepo: userRepo}
}

type CreateUserInput struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
	Level    string `json:"level"`
}

// UpdateUserInput 未提供的字段保持不变，密码为空时不修改
type UpdateUserInput struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	FullName *string `json:"fullName"`
	Role     *string `json:"role"`
	Level    *string `json:"level"`
	IsActive *bool   `json:"isActive"`
	Password string  `json:"password"`
}

type UserListResult struct {
	Users []model.User `json:"users"`
	Total int64        `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
}

func (s *UserService) List(filter repository.UserFilter) (*UserListResult, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	users, total, err := s.UserRepo.List(filter)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return &UserListResult{Users: users, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *UserService) Create(in CreateUserInput) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, util.ErrMissingFields
	}

	role := model.Learner
	if in.Role != "" {
		role = model.UserRole(in.Role)
		if !role.Valid() {
			return nil, util.ErrInvalidRole
		}
	}
	level := model.Beginner
	if in.Level != "" {
		level = model.Level(in.Level)
		if !level.Valid() {
			return nil, util.ErrInvalidLevel
		}
	}

	exists, err := s.UserRepo.ExistsByUsernameOrEmail(in.Username, in.Email, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.ErrUserExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: in.Username,
		Email:    in.Email,
		Password: string(hashed),
		FullName: in.FullName,
		Role:     role,
		IsActive: true,
		Level:    level,
	}
	if err := s.UserRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Update(id uint, in UpdateUserInput) (*model.User, error) {
	user, err := s.UserRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	fields := map[string]interface{}{}
	username, email := user.Username, user.Email
	if in.Username != nil && strings.TrimSpace(*in.Username) != "" {
		username = strings.TrimSpace(*in.Username)
		fields["username"] = username
	}
	if in.Email != nil && strings.TrimSpace(*in.Email) != "" {
		email = strings.TrimSpace(*in.Email)
		fields["email"] = email
	}
	if in.FullName != nil {
		fields["full_name"] = *in.FullName
	}
	if in.Role != nil {
		role := model.UserRole(*in.Role)
		if !role.Valid() {
			return nil, util.ErrInvalidRole
		}
		fields["role"] = role
	}
	if in.Level != nil {
		level := model.Level(*in.Level)
		if !level.Valid() {
			return nil, util.ErrInvalidLevel
		}
		fields["level"] = level
	}
	if in.IsActive != nil {
		fields["is_active"] = *in.IsActive
	}
	if in.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		fields["password"] = string(hashed)
	}

	if username != user.Username || email != user.Email {
		exists, err := s.UserRepo.ExistsByUsernameOrEmail(username, email, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, util.ErrUserExists
		}
	}

	if len(fields) > 0 {
		if err := s.UserRepo.UpdateFields(id, fields); err != nil {
			return nil, err
		}
	}
	return s.UserRepo.FindByID(id)
}

func (s *UserService) Delete(id uint) error {
	deleted, err := s.UserRepo.Delete(id)
	if err != nil {
		return err
	}
	if !deleted {
		return util.ErrUserNotFound
	}
	return nil
}

// SetLevel 用户显式指定自己的等级
func (s *UserService) SetLevel(id uint, level string) (model.Level, error) {
	l := model.Level(level)
	if !l.Valid() {
		return "", util.ErrInvalidLevel
	}
	affected, err := s.UserRepo.SetLevel(id, l)
	if err != nil {
		return "", err
	}
	if affected == 0 {
		return "", util.ErrUserNotFound
	}
	return l, nil
}
