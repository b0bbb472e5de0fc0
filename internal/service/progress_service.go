package service

import (
	"errors"
	"forex_edu_backend/internal/model"
	"forex_edu_backend/internal/repository"
	"forex_edu_backend/internal/util"
	"forex_edu_backend/pkg/monitoring"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type ProgressService struct {
	DB           *gorm.DB
	UserRepo     *repository.UserRepository
	ProgressRepo *repository.ProgressRepository
}

func NewProgressService(db *gorm.DB, userRepo *repository.UserRepository, progressRepo *repository.ProgressRepository) *ProgressService {
	return &ProgressService{
		DB:           db,
		UserRepo:     userRepo,
		ProgressRepo: progressRepo,
	}
}

// AttemptResult 记录测验后的等级变化
type AttemptResult struct {
	Entry         *model.LearningProgress
	PreviousLevel model.Level
	NewLevel      model.Level
	LevelUpdated  bool
}

// RecordAttempt 在一个事务中写入测验记录并执行升级判断。
// 记录的等级取用户当前存储的等级。
func (s *ProgressService) RecordAttempt(userID uint, score, total int, feedback string) (*AttemptResult, error) {
	var result AttemptResult

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		users := s.UserRepo.WithTx(tx)
		progress := s.ProgressRepo.WithTx(tx)

		user, err := users.LockByID(userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrUserNotFound
			}
			return err
		}
		current := user.Level
		if !current.Valid() {
			current = model.Beginner
		}

		prior, err := progress.RecentAtLevel(userID, current, perfectRunForAdvance-1)
		if err != nil {
			return err
		}

		entry := &model.LearningProgress{
			UserID:         userID,
			QuizType:       model.QuizTypeForex,
			QuizScore:      score,
			TotalQuestions: total,
			Level:          current,
			AIFeedback:     feedback,
		}
		if err := progress.Create(entry); err != nil {
			return err
		}

		result = AttemptResult{Entry: entry, PreviousLevel: current, NewLevel: current}

		next, advance := DecideAdvancement(current, Percentage(score, total), prior)
		if !advance {
			return nil
		}
		swapped, err := users.CompareAndSetLevel(userID, current, next)
		if err != nil {
			return err
		}
		if swapped {
			result.NewLevel = next
			result.LevelUpdated = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	monitoring.QuizzesEvaluated.WithLabelValues(string(result.PreviousLevel)).Inc()
	if result.LevelUpdated {
		monitoring.LevelUps.WithLabelValues(string(result.NewLevel)).Inc()
	}
	return &result, nil
}

// ProgressEntryView 最近测验的展示结构
type ProgressEntryView struct {
	QuizType       string      `json:"quiz_type"`
	QuizScore      int         `json:"quiz_score"`
	TotalQuestions int         `json:"total_questions"`
	Level          model.Level `json:"level"`
	CreatedAt      time.Time   `json:"created_at"`
}

type ProgressStats struct {
	TotalQuizzes        int                 `json:"totalQuizzes"`
	AverageScore        int                 `json:"averageScore"`
	BestScore           int                 `json:"bestScore"`
	CurrentLevel        model.Level         `json:"currentLevel"`
	RecentProgress      []ProgressEntryView `json:"recentProgress"`
	ProgressToNextLevel LevelProgress       `json:"progressToNextLevel"`
}

func scoreSummary(entries []model.LearningProgress) (avg, best int) {
	if len(entries) == 0 {
		return 0, 0
	}
	sum := 0
	for _, e := range entries {
		p := entryPercentage(e)
		sum += p
		if p > best {
			best = p
		}
	}
	return Percentage(sum, len(entries)*100), best
}

func (s *ProgressService) GetStats(userID uint) (*ProgressStats, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	var (
		all     []model.LearningProgress
		atLevel []model.LearningProgress
	)
	g := new(errgroup.Group)
	g.Go(func() error {
		var err error
		all, err = s.ProgressRepo.ListByUser(userID)
		return err
	})
	g.Go(func() error {
		var err error
		atLevel, err = s.ProgressRepo.AllAtLevel(userID, user.Level)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	avg, best := scoreSummary(all)
	recent := make([]ProgressEntryView, 0, util.RecentProgressSize)
	for i, e := range all {
		if i >= util.RecentProgressSize {
			break
		}
		recent = append(recent, ProgressEntryView{
			QuizType:       e.QuizType,
			QuizScore:      e.QuizScore,
			TotalQuestions: e.TotalQuestions,
			Level:          e.Level,
			CreatedAt:      e.CreatedAt,
		})
	}

	return &ProgressStats{
		TotalQuizzes:        len(all),
		AverageScore:        avg,
		BestScore:           best,
		CurrentLevel:        user.Level,
		RecentProgress:      recent,
		ProgressToNextLevel: ProgressToNextLevel(user.Level, atLevel),
	}, nil
}

type QuizHistoryItem struct {
	Date           time.Time   `json:"date"`
	Level          model.Level `json:"level"`
	Score          int         `json:"score"`
	TotalQuestions int         `json:"totalQuestions"`
	Percentage     int         `json:"percentage"`
	Feedback       string      `json:"feedback"`
}

type UserInfoView struct {
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	Level       model.Level `json:"level"`
	MemberSince time.Time   `json:"memberSince"`
}

type OverallStats struct {
	TotalQuizzes             int `json:"totalQuizzes"`
	AverageScore             int `json:"averageScore"`
	BestScore                int `json:"bestScore"`
	PerfectQuizzes           int `json:"perfectQuizzes"`
	PerfectQuizzesPercentage int `json:"perfectQuizzesPercentage"`
}

type LevelBreakdown struct {
	Distribution  map[model.Level]int `json:"distribution"`
	AverageScores map[model.Level]int `json:"averageScores"`
}

type UserDetailedStats struct {
	UserInfo            UserInfoView      `json:"userInfo"`
	Overall             OverallStats      `json:"overall"`
	ByLevel             LevelBreakdown    `json:"byLevel"`
	ProgressToNextLevel LevelProgress     `json:"progressToNextLevel"`
	RecentQuizzes       []QuizHistoryItem `json:"recentQuizzes"`
	AllQuizzes          []QuizHistoryItem `json:"allQuizzes"`
}

// GetUserDetailedStats 管理端查看单个用户的测验统计
func (s *ProgressService) GetUserDetailedStats(userID uint) (*UserDetailedStats, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}

	var (
		all     []model.LearningProgress
		atLevel []model.LearningProgress
	)
	g := new(errgroup.Group)
	g.Go(func() error {
		var err error
		all, err = s.ProgressRepo.ListByUser(userID)
		return err
	})
	g.Go(func() error {
		var err error
		atLevel, err = s.ProgressRepo.AllAtLevel(userID, user.Level)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	distribution := make(map[model.Level]int, len(model.Levels))
	sums := make(map[model.Level]int, len(model.Levels))
	for _, l := range model.Levels {
		distribution[l] = 0
	}

	perfect := 0
	items := make([]QuizHistoryItem, 0, len(all))
	for _, e := range all {
		p := entryPercentage(e)
		if p == 100 {
			perfect++
		}
		if _, ok := distribution[e.Level]; ok {
			distribution[e.Level]++
			sums[e.Level] += p
		}
		items = append(items, QuizHistoryItem{
			Date:           e.CreatedAt,
			Level:          e.Level,
			Score:          e.QuizScore,
			TotalQuestions: e.TotalQuestions,
			Percentage:     p,
			Feedback:       e.AIFeedback,
		})
	}

	averages := make(map[model.Level]int, len(model.Levels))
	for _, l := range model.Levels {
		averages[l] = Percentage(sums[l], distribution[l]*100)
	}

	recentCount := len(items)
	if recentCount > 10 {
		recentCount = 10
	}
	recent := make([]QuizHistoryItem, recentCount)
	for i := 0; i < recentCount; i++ {
		recent[i] = items[recentCount-1-i]
	}

	avg, best := scoreSummary(all)
	progress := ProgressToNextLevel(user.Level, atLevel)

	perfectPct := 0
	if progress.PerfectQuizzesNeeded > 0 {
		perfectPct = Percentage(progress.PerfectQuizzesCompleted, progress.PerfectQuizzesNeeded)
	}

	return &UserDetailedStats{
		UserInfo: UserInfoView{
			Username:    user.Username,
			Email:       user.Email,
			Level:       user.Level,
			MemberSince: user.CreatedAt,
		},
		Overall: OverallStats{
			TotalQuizzes:             len(all),
			AverageScore:             avg,
			BestScore:                best,
			PerfectQuizzes:           perfect,
			PerfectQuizzesPercentage: perfectPct,
		},
		ByLevel: LevelBreakdown{
			Distribution:  distribution,
			AverageScores: averages,
		},
		ProgressToNextLevel: progress,
		RecentQuizzes:       recent,
		AllQuizzes:          items,
	}, nil
}
