package service

import (
	"errors"
	"forex_edu_backend/internal/config"
	"forex_edu_backend/internal/model"
	"forex_edu_backend/internal/repository"
	"forex_edu_backend/internal/util"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	UserRepo        *repository.UserRepository
	ActivityService *ActivityService
	Blacklist       *TokenBlacklist
	Cfg             *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, activityService *ActivityService, blacklist *TokenBlacklist, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo:        userRepo,
		ActivityService: activityService,
		Blacklist:       blacklist,
		Cfg:             cfg,
	}
}

// UserSummary 登录响应中的用户信息
type UserSummary struct {
	ID       uint           `json:"id"`
	Username string         `json:"username"`
	Email    string         `json:"email"`
	FullName string         `json:"fullName"`
	Role     model.UserRole `json:"role"`
	Level    model.Level    `json:"level"`
}

type LoginResult struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}

// UserProfile 当前用户资料
type UserProfile struct {
	UserSummary
	IsActive bool `json:"isActive"`
}

func summarize(u *model.User) UserSummary {
	return UserSummary{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
		Level:    u.Level,
	}
}

// Login 校验用户名和密码并签发令牌，未激活用户视为不存在
func (s *AuthService) Login(username, password string) (*LoginResult, error) {
	user, err := s.UserRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, util.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.ActivityService.LogCustom(user.ID, ActionLoginFailed, map[string]interface{}{
			"username": username,
			"reason":   "invalid_password",
		})
		return nil, util.ErrInvalidCredentials
	}

	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}

	s.ActivityService.LogCustom(user.ID, ActionLoginOK, map[string]interface{}{
		"username":  user.Username,
		"role":      user.Role,
		"loginTime": time.Now().Format(time.RFC3339),
	})

	return &LoginResult{Token: token, User: summarize(user)}, nil
}

// Logout 将令牌加入黑名单直至过期
func (s *AuthService) Logout(claims *util.Claims) error {
	expiresAt := time.Now().Add(s.Cfg.JWT.ExpireTime)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return s.Blacklist.Revoke(claims.ID, expiresAt)
}

func (s *AuthService) GetCurrentUser(userID uint) (*UserProfile, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return &UserProfile{UserSummary: summarize(user), IsActive: user.IsActive}, nil
}
