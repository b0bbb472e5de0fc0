package service

import (
	"context"
	"errors"
	"fmt"
	"forex_edu_backend/internal/model"
	"forex_edu_backend/internal/repository"
	"forex_edu_backend/internal/util"
	"forex_edu_backend/pkg/logger"
	"forex_edu_backend/pkg/monitoring"
	"math/rand"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 游戏事件
const (
	EventQuizCompleted   = "quiz_completed"
	EventCorrectAnswer   = "correct_answer"
	EventSkillXPGained   = "skill_xp_gained"
	EventChatMessageSent = "chat_message_sent"
)

const (
	minStreakForMission = 5
	missionLockTTL      = 10 * time.Second
)

// MissionEvent 游戏事件及其数据
type MissionEvent struct {
	Type           string
	Score          int
	TotalQuestions int
	Streak         int
	XPGained       int
	Data           map[string]interface{}
}

// MissionUpdate 一次任务进度变化
type MissionUpdate struct {
	MissionID      uint                   `json:"mission_id"`
	MissionType    string                 `json:"mission_type"`
	OldProgress    int                    `json:"old_progress"`
	NewProgress    int                    `json:"new_progress"`
	TargetValue    int                    `json:"target_value"`
	IsCompleted    bool                   `json:"is_completed"`
	AdditionalData map[string]interface{} `json:"additional_data,omitempty"`
}

// MissionView 任务列表展示结构
type MissionView struct {
	ID                 uint                `json:"id"`
	MissionType        string              `json:"mission_type"`
	Name               string              `json:"name"`
	Description        string              `json:"description"`
	Difficulty         string              `json:"difficulty"`
	TargetValue        int                 `json:"target_value"`
	CurrentProgress    int                 `json:"current_progress"`
	ProgressPercentage int                 `json:"progress_percentage"`
	Status             model.MissionStatus `json:"status"`
	RewardXP           int                 `json:"reward_xp"`
	RewardType         string              `json:"reward_type"`
	CompletedAt        *time.Time          `json:"completed_at"`
	ExpiresAt          time.Time           `json:"expires_at"`
	IsCompleted        bool                `json:"is_completed"`
	IsExpired          bool                `json:"is_expired"`
}

type MissionStats struct {
	repository.MissionStatsRow
	CompletionRate      int `json:"completion_rate"`
	TodayCompletionRate int `json:"today_completion_rate"`
}

// MissionReward 领取奖励的描述，不计入任何账本
type MissionReward struct {
	MissionID  uint   `json:"mission_id"`
	RewardXP   int    `json:"reward_xp"`
	RewardType string `json:"reward_type"`
}

type MissionService struct {
	DB          *gorm.DB
	Redis       *redis.Client
	UserRepo    *repository.UserRepository
	MissionRepo *repository.MissionRepository
	DailyCount  int
	Now         func() time.Time
}

func NewMissionService(db *gorm.DB, rdb *redis.Client, userRepo *repository.UserRepository, missionRepo *repository.MissionRepository, dailyCount int) *MissionService {
	if dailyCount <= 0 {
		dailyCount = 3
	}
	return &MissionService{
		DB:          db,
		Redis:       rdb,
		UserRepo:    userRepo,
		MissionRepo: missionRepo,
		DailyCount:  dailyCount,
		Now:         time.Now,
	}
}

func (s *MissionService) today() string {
	return s.Now().Format(util.DateFormat)
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// acquireGenerateLock 多实例部署时串行化同一用户当天的生成；
// 拿不到锁时等待持有者结束，最终一致性由唯一索引保证
func (s *MissionService) acquireGenerateLock(userID uint, today string) func() {
	if s.Redis == nil {
		return nil
	}
	ctx := context.Background()
	key := fmt.Sprintf("missions:generate:%d:%s", userID, today)
	deadline := time.Now().Add(missionLockTTL)
	for {
		ok, err := s.Redis.SetNX(ctx, key, 1, missionLockTTL).Result()
		if err != nil {
			logger.Log.Warn("Mission lock unavailable, relying on database", zap.Error(err))
			return nil
		}
		if ok {
			return func() { s.Redis.Del(ctx, key) }
		}
		if time.Now().After(deadline) {
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
}

// GenerateDailyMissions 每个用户每天只生成一次，重复调用返回已有任务
func (s *MissionService) GenerateDailyMissions(userID uint) ([]MissionView, error) {
	now := s.Now()
	today := now.Format(util.DateFormat)

	if release := s.acquireGenerateLock(userID, today); release != nil {
		defer release()
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		missions := s.MissionRepo.WithTx(tx)

		if _, err := s.UserRepo.WithTx(tx).LockByID(userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrUserNotFound
			}
			return err
		}

		count, err := missions.CountForDay(userID, today)
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		templates, err := missions.ActiveTemplates()
		if err != nil {
			return err
		}
		rand.Shuffle(len(templates), func(i, j int) {
			templates[i], templates[j] = templates[j], templates[i]
		})
		if len(templates) > s.DailyCount {
			templates = templates[:s.DailyCount]
		}

		expiresAt := endOfDay(now)
		rows := make([]model.DailyMission, 0, len(templates))
		for _, t := range templates {
			rows = append(rows, model.DailyMission{
				UserID:      userID,
				MissionType: t.MissionType,
				MissionData: datatypes.NewJSONType(model.MissionData{
					Name:        t.Name,
					Description: t.Description,
					Difficulty:  t.Difficulty,
				}),
				TargetValue:     t.TargetValue,
				CurrentProgress: 0,
				Status:          model.MissionActive,
				RewardXP:        t.RewardXP,
				RewardType:      t.RewardType,
				DateAssigned:    today,
				ExpiresAt:       expiresAt,
			})
		}
		return missions.CreateIgnoreConflict(rows)
	})
	if err != nil {
		return nil, err
	}

	return s.GetUserDailyMissions(userID)
}

func (s *MissionService) GetUserDailyMissions(userID uint) ([]MissionView, error) {
	missions, err := s.MissionRepo.ListForDay(userID, s.today())
	if err != nil {
		return nil, err
	}
	now := s.Now()
	views := make([]MissionView, 0, len(missions))
	for _, m := range missions {
		data := m.MissionData.Data()
		name := data.Name
		if name == "" {
			name = "Misiune necunoscută"
		}
		difficulty := data.Difficulty
		if difficulty == "" {
			difficulty = "easy"
		}
		views = append(views, MissionView{
			ID:                 m.ID,
			MissionType:        m.MissionType,
			Name:               name,
			Description:        data.Description,
			Difficulty:         difficulty,
			TargetValue:        m.TargetValue,
			CurrentProgress:    m.CurrentProgress,
			ProgressPercentage: Percentage(m.CurrentProgress, m.TargetValue),
			Status:             m.Status,
			RewardXP:           m.RewardXP,
			RewardType:         m.RewardType,
			CompletedAt:        m.CompletedAt,
			ExpiresAt:          m.ExpiresAt,
			IsCompleted:        m.Status == model.MissionCompleted,
			IsExpired:          now.After(m.ExpiresAt),
		})
	}
	return views, nil
}

// UpdateMissionProgress 推进当天指定类型的进行中任务，进度不超过目标值。
// 没有对应任务时返回 nil, nil。
func (s *MissionService) UpdateMissionProgress(userID uint, missionType string, increment int, data map[string]interface{}) (*MissionUpdate, error) {
	if increment < 0 {
		increment = 0
	}
	var update *MissionUpdate

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		missions := s.MissionRepo.WithTx(tx)

		mission, err := missions.LockActiveByType(userID, missionType, s.today())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		newProgress := mission.CurrentProgress + increment
		if newProgress > mission.TargetValue {
			newProgress = mission.TargetValue
		}
		completed := newProgress >= mission.TargetValue

		status := model.MissionActive
		var completedAt *time.Time
		if completed {
			status = model.MissionCompleted
			t := s.Now()
			completedAt = &t
		}
		if err := missions.UpdateProgress(mission.ID, newProgress, status, completedAt); err != nil {
			return err
		}

		update = &MissionUpdate{
			MissionID:      mission.ID,
			MissionType:    missionType,
			OldProgress:    mission.CurrentProgress,
			NewProgress:    newProgress,
			TargetValue:    mission.TargetValue,
			IsCompleted:    completed,
			AdditionalData: data,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if update != nil && update.IsCompleted {
		monitoring.MissionsCompleted.WithLabelValues(missionType).Inc()
	}
	return update, nil
}

// ProcessMissionEvent 按事件路由表推进任务；未知事件仅记录日志
func (s *MissionService) ProcessMissionEvent(userID uint, event MissionEvent) ([]MissionUpdate, error) {
	var updates []MissionUpdate
	apply := func(missionType string, inc int) error {
		u, err := s.UpdateMissionProgress(userID, missionType, inc, event.Data)
		if err != nil {
			return err
		}
		if u != nil {
			updates = append(updates, *u)
		}
		return nil
	}

	switch event.Type {
	case EventQuizCompleted:
		if err := apply(model.MissionCompleteQuizzes, 1); err != nil {
			return updates, err
		}
		if event.TotalQuestions > 0 && event.Score == event.TotalQuestions {
			if err := apply(model.MissionPerfectQuiz, 1); err != nil {
				return updates, err
			}
		}
	case EventCorrectAnswer:
		if event.Streak >= minStreakForMission {
			if err := apply(model.MissionCorrectStreak, 1); err != nil {
				return updates, err
			}
		}
	case EventSkillXPGained:
		if err := apply(model.MissionSkillImprovement, event.XPGained); err != nil {
			return updates, err
		}
	case EventChatMessageSent:
		if err := apply(model.MissionChatMessages, 1); err != nil {
			return updates, err
		}
	default:
		logger.Log.Info("Unknown mission event type", zap.String("event", event.Type))
	}
	return updates, nil
}

// ExpireOldMissions 过期时间已过的进行中任务改为 expired
func (s *MissionService) ExpireOldMissions() (int64, error) {
	return s.MissionRepo.ExpireBefore(s.Now())
}

func (s *MissionService) GetUserMissionsStats(userID uint) (*MissionStats, error) {
	row, err := s.MissionRepo.Stats(userID, s.today())
	if err != nil {
		return nil, err
	}
	return &MissionStats{
		MissionStatsRow:     *row,
		CompletionRate:      Percentage(int(row.CompletedMissions), int(row.TotalMissions)),
		TodayCompletionRate: Percentage(int(row.TodayCompleted), int(row.TodayMissions)),
	}, nil
}

// ClaimMissionReward 校验任务归属与完成状态并返回奖励描述，不修改任何数据
func (s *MissionService) ClaimMissionReward(userID, missionID uint) (*MissionReward, error) {
	mission, err := s.MissionRepo.FindForUser(missionID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrMissionNotFound
		}
		return nil, err
	}
	if mission.Status != model.MissionCompleted {
		return nil, util.ErrMissionNotCompleted
	}
	return &MissionReward{
		MissionID:  mission.ID,
		RewardXP:   mission.RewardXP,
		RewardType: mission.RewardType,
	}, nil
}
