package service

import (
	"context"
	"errors"
	"fmt"
	"forex_edu_backend/internal/model"
	"forex_edu_backend/internal/repository"
	"forex_edu_backend/internal/util"
	"forex_edu_backend/pkg/logger"
	"forex_edu_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var validOptions = map[string]bool{"A": true, "B": true, "C": true, "D": true}

type QuizOptions struct {
	A string `json:"A"`
	B string `json:"B"`
	C string `json:"C"`
	D string `json:"D"`
}

// swagger:model QuizQuestion
type QuizQuestion struct {
	ID          int         `json:"id"`
	Question    string      `json:"question"`
	Options     QuizOptions `json:"options"`
	Correct     string      `json:"correct"`
	Explanation string      `json:"explanation"`
	Skills      []string    `json:"skills"`
}

// swagger:model Quiz
type Quiz struct {
	Questions      []QuizQuestion `json:"questions"`
	Level          model.Level    `json:"level"`
	TotalQuestions int            `json:"totalQuestions"`
	UserID         uint           `json:"userId"`
	GeneratedAt    time.Time      `json:"generatedAt"`
	TimeLimit      int            `json:"timeLimit"`
}

type QuestionFeedback struct {
	QuestionID    int    `json:"questionId"`
	Question      string `json:"question"`
	UserAnswer    string `json:"userAnswer"`
	CorrectAnswer string `json:"correctAnswer"`
	IsCorrect     bool   `json:"isCorrect"`
	Explanation   string `json:"explanation"`
}

// QuizScore 本地评分结果
type QuizScore struct {
	Score          int
	TotalQuestions int
	Percentage     int
	Feedback       []QuestionFeedback
	MaxStreak      int
}

// swagger:model QuizEvaluation
type QuizEvaluation struct {
	Score            int                `json:"score"`
	TotalQuestions   int                `json:"totalQuestions"`
	Percentage       int                `json:"percentage"`
	Feedback         []QuestionFeedback `json:"feedback"`
	OverallFeedback  string             `json:"overallFeedback"`
	RecommendedLevel model.Level        `json:"recommendedLevel"`
	TimeSpent        *int               `json:"timeSpent,omitempty"`
	CurrentLevel     model.Level        `json:"currentLevel"`
	LevelUpdated     bool               `json:"levelUpdated"`
	SkillUpdates     []SkillUpdate      `json:"skillUpdates"`
	MissionUpdates   []MissionUpdate    `json:"missionUpdates"`
}

// EvaluateInput 提交的测验答案；Level 仅作标签，记录使用用户存储的等级
type EvaluateInput struct {
	Questions []QuizQuestion
	Answers   []string
	Level     string
	TimeSpent *int
}

// Score 按顺序比较答案与正确选项；长度不一致时返回 ErrQuizMismatch
func Score(questions []QuizQuestion, answers []string) (*QuizScore, error) {
	if len(questions) != len(answers) {
		return nil, util.ErrQuizMismatch
	}
	result := &QuizScore{
		TotalQuestions: len(questions),
		Feedback:       make([]QuestionFeedback, 0, len(questions)),
	}
	streak := 0
	for i, q := range questions {
		correct := answers[i] == q.Correct && validOptions[q.Correct]
		if correct {
			result.Score++
			streak++
			if streak > result.MaxStreak {
				result.MaxStreak = streak
			}
		} else {
			streak = 0
		}
		result.Feedback = append(result.Feedback, QuestionFeedback{
			QuestionID:    q.ID,
			Question:      q.Question,
			UserAnswer:    answers[i],
			CorrectAnswer: q.Correct,
			IsCorrect:     correct,
			Explanation:   q.Explanation,
		})
	}
	result.Percentage = Percentage(result.Score, result.TotalQuestions)
	return result, nil
}

type QuizService struct {
	UserRepo        *repository.UserRepository
	AIService       *AIService
	SkillService    *SkillService
	ProgressService *ProgressService
	MissionService  *MissionService
}

func NewQuizService(userRepo *repository.UserRepository, ai *AIService, skills *SkillService, progress *ProgressService, missions *MissionService) *QuizService {
	return &QuizService{
		UserRepo:        userRepo,
		AIService:       ai,
		SkillService:    skills,
		ProgressService: progress,
		MissionService:  missions,
	}
}

func (s *QuizService) userLevel(userID uint) (model.Level, error) {
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", util.ErrUserNotFound
		}
		return "", err
	}
	if !user.Level.Valid() {
		return model.Beginner, nil
	}
	return user.Level, nil
}

func validateQuiz(quiz *Quiz) error {
	if len(quiz.Questions) == 0 {
		return malformed(errors.New("quiz contains no questions"))
	}
	for i, q := range quiz.Questions {
		if !validOptions[q.Correct] {
			return malformed(fmt.Errorf("question %d has invalid correct option %q", i+1, q.Correct))
		}
	}
	return nil
}

// Generate 为用户当前等级生成测验并给题目打技能标签
func (s *QuizService) Generate(ctx context.Context, userID uint) (*Quiz, error) {
	ctx, span := tracing.Tracer.Start(ctx, "QuizService.Generate")
	defer span.End()

	level, err := s.userLevel(userID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("quiz.level", string(level)))

	skillNames, err := s.SkillService.SkillNames()
	if err != nil {
		return nil, err
	}

	var quiz Quiz
	messages := []AIChatMessage{
		{Role: "system", Content: quizSystemPrompt(level, skillNames)},
		{Role: "user", Content: quizUserPrompt(level)},
	}
	if err := s.AIService.GenerateJSON(ctx, "quiz", messages, CompletionOptions{Temperature: 0.8, MaxTokens: 3000}, &quiz); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "quiz generation failed")
		return nil, err
	}
	if err := validateQuiz(&quiz); err != nil {
		span.RecordError(err)
		return nil, err
	}

	for _, q := range quiz.Questions {
		if len(q.Skills) == 0 {
			continue
		}
		tags := make([]SkillTag, 0, len(q.Skills))
		for _, name := range q.Skills {
			tags = append(tags, SkillTag{SkillName: name, XPValue: util.QuizSkillXP})
		}
		if _, err := s.SkillService.TagQuestion(q.Question, tags); err != nil {
			return nil, err
		}
	}

	quiz.Level = level
	quiz.TotalQuestions = len(quiz.Questions)
	quiz.UserID = userID
	quiz.GeneratedAt = time.Now()
	quiz.TimeLimit = util.QuizTimeLimitSeconds
	return &quiz, nil
}

// Evaluate 评分、生成反馈、记录并处理升级、技能经验与任务事件
func (s *QuizService) Evaluate(ctx context.Context, userID uint, in EvaluateInput) (*QuizEvaluation, error) {
	ctx, span := tracing.Tracer.Start(ctx, "QuizService.Evaluate")
	defer span.End()

	if len(in.Questions) == 0 {
		return nil, util.ErrInvalidQuiz
	}
	if in.Level != "" && !model.Level(in.Level).Valid() {
		return nil, util.ErrInvalidLevel
	}

	scored, err := Score(in.Questions, in.Answers)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("quiz.score", scored.Score),
		attribute.Int("quiz.total", scored.TotalQuestions),
	)

	level, err := s.userLevel(userID)
	if err != nil {
		return nil, err
	}

	feedback, err := s.AIService.Complete(ctx, "feedback", []AIChatMessage{
		{Role: "system", Content: feedbackSystemPrompt},
		{Role: "user", Content: feedbackPrompt(scored.Score, scored.TotalQuestions, scored.Percentage, level)},
	}, CompletionOptions{Temperature: 0.7, MaxTokens: 500})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "feedback generation failed")
		return nil, err
	}

	attempt, err := s.ProgressService.RecordAttempt(userID, scored.Score, scored.TotalQuestions, feedback)
	if err != nil {
		return nil, err
	}

	skillUpdates := make([]SkillUpdate, 0)
	totalXP := 0
	for i, q := range in.Questions {
		if !scored.Feedback[i].IsCorrect {
			continue
		}
		updates, err := s.SkillService.ProcessAnswer(userID, q.Question, true)
		if err != nil {
			logger.Log.Error("Skill XP award failed", zap.Uint("userID", userID), zap.Error(err))
			return nil, err
		}
		for _, u := range updates {
			totalXP += u.XPGained
		}
		skillUpdates = append(skillUpdates, updates...)
	}

	missionUpdates := make([]MissionUpdate, 0)
	events := []MissionEvent{{
		Type:           EventQuizCompleted,
		Score:          scored.Score,
		TotalQuestions: scored.TotalQuestions,
		Data: map[string]interface{}{
			"score":          scored.Score,
			"totalQuestions": scored.TotalQuestions,
			"level":          attempt.PreviousLevel,
		},
	}}
	if scored.MaxStreak >= minStreakForMission {
		events = append(events, MissionEvent{
			Type:   EventCorrectAnswer,
			Streak: scored.MaxStreak,
			Data:   map[string]interface{}{"streak": scored.MaxStreak},
		})
	}
	if totalXP > 0 {
		events = append(events, MissionEvent{
			Type:     EventSkillXPGained,
			XPGained: totalXP,
			Data:     map[string]interface{}{"xpGained": totalXP},
		})
	}
	for _, ev := range events {
		updates, err := s.MissionService.ProcessMissionEvent(userID, ev)
		if err != nil {
			logger.Log.Error("Mission event failed", zap.String("event", ev.Type), zap.Error(err))
			return nil, err
		}
		missionUpdates = append(missionUpdates, updates...)
	}

	return &QuizEvaluation{
		Score:            scored.Score,
		TotalQuestions:   scored.TotalQuestions,
		Percentage:       scored.Percentage,
		Feedback:         scored.Feedback,
		OverallFeedback:  feedback,
		RecommendedLevel: attempt.NewLevel,
		TimeSpent:        in.TimeSpent,
		CurrentLevel:     attempt.PreviousLevel,
		LevelUpdated:     attempt.LevelUpdated,
		SkillUpdates:     skillUpdates,
		MissionUpdates:   missionUpdates,
	}, nil
}
