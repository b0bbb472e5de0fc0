package service

import (
	"context"
	"errors"
	"forex_edu_backend/internal/model"
	"forex_edu_backend/internal/repository"
	"forex_edu_backend/internal/util"
	"testing"

	"gorm.io/gorm"
)

const fakeQuizJSON = `Iată quiz-ul:
{
  "questions": [
    {"id": 1, "question": "Ce este un pip?", "options": {"A": "Cea mai mică variație de preț", "B": "Un tip de ordin", "C": "Un broker", "D": "Un indicator"}, "correct": "A", "explanation": "Pip-ul este unitatea minimă.", "skills": ["Analiză tehnică"]},
    {"id": 2, "question": "Ce protejează un stop loss?", "options": {"A": "Profitul", "B": "Capitalul", "C": "Spread-ul", "D": "Swap-ul"}, "correct": "B", "explanation": "Limitează pierderea.", "skills": ["Risk Management", "Money Management"]}
  ]
}`

func sampleQuestions() []QuizQuestion {
	return []QuizQuestion{
		{ID: 1, Question: "Q1", Correct: "A"},
		{ID: 2, Question: "Q2", Correct: "B"},
		{ID: 3, Question: "Q3", Correct: "C"},
		{ID: 4, Question: "Q4", Correct: "D"},
	}
}

func TestScore(t *testing.T) {
	t.Run("length mismatch is rejected", func(t *testing.T) {
		if _, err := Score(sampleQuestions(), []string{"A"}); !errors.Is(err, util.ErrQuizMismatch) {
			t.Fatalf("expected ErrQuizMismatch, got %v", err)
		}
	})

	t.Run("unknown letters are simply wrong", func(t *testing.T) {
		res, err := Score(sampleQuestions(), []string{"A", "X", "", "d"})
		if err != nil {
			t.Fatalf("score: %v", err)
		}
		if res.Score != 1 || res.Percentage != 25 {
			t.Fatalf("unexpected result: %+v", res)
		}
		if !res.Feedback[0].IsCorrect || res.Feedback[1].IsCorrect || res.Feedback[1].UserAnswer != "X" {
			t.Fatalf("unexpected feedback: %+v", res.Feedback)
		}
	})

	t.Run("percentage matches rounding rule for every score", func(t *testing.T) {
		questions := sampleQuestions()
		for correct := 0; correct <= len(questions); correct++ {
			answers := make([]string, len(questions))
			for i, q := range questions {
				if i < correct {
					answers[i] = q.Correct
				} else {
					answers[i] = "Z"
				}
			}
			res, err := Score(questions, answers)
			if err != nil {
				t.Fatalf("score: %v", err)
			}
			if res.Score != correct || res.Percentage != Percentage(correct, len(questions)) {
				t.Fatalf("correct=%d got %+v", correct, res)
			}
			if res.MaxStreak != correct {
				t.Fatalf("expected streak %d, got %d", correct, res.MaxStreak)
			}
		}
	})
}

type quizFixture struct {
	db       *gorm.DB
	user     *model.User
	quiz     *QuizService
	missions *MissionService
}

func newQuizFixture(t *testing.T) *quizFixture {
	t.Helper()
	db := newTestDB(t)
	user := createUser(t, db, "quiz_user", model.Beginner)

	ai := newFakeAI(t, func(req ChatCompletionRequest) string {
		if req.MaxTokens == 3000 {
			return fakeQuizJSON
		}
		return "Rezultat bun, continuă!"
	})

	userRepo := repository.NewUserRepository(db)
	skills := NewSkillService(db, repository.NewSkillRepository(db))
	progress := NewProgressService(db, userRepo, repository.NewProgressRepository(db))
	missions := NewMissionService(db, nil, userRepo, repository.NewMissionRepository(db), 5)

	return &quizFixture{
		db:       db,
		user:     user,
		quiz:     NewQuizService(userRepo, ai, skills, progress, missions),
		missions: missions,
	}
}

func TestQuizGenerateAndEvaluate(t *testing.T) {
	f := newQuizFixture(t)
	ctx := context.Background()

	quiz, err := f.quiz.Generate(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if quiz.TotalQuestions != 2 || quiz.Level != model.Beginner || quiz.TimeLimit != util.QuizTimeLimitSeconds {
		t.Fatalf("unexpected quiz: %+v", quiz)
	}

	if _, err := f.missions.GenerateDailyMissions(f.user.ID); err != nil {
		t.Fatalf("generate missions: %v", err)
	}

	eval, err := f.quiz.Evaluate(ctx, f.user.ID, EvaluateInput{
		Questions: quiz.Questions,
		Answers:   []string{"A", "B"},
		Level:     "beginner",
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if eval.Score != 2 || eval.Percentage != 100 {
		t.Fatalf("unexpected score: %+v", eval)
	}
	if eval.OverallFeedback != "Rezultat bun, continuă!" {
		t.Fatalf("unexpected feedback %q", eval.OverallFeedback)
	}
	if eval.CurrentLevel != model.Beginner || eval.RecommendedLevel != model.Beginner || eval.LevelUpdated {
		t.Fatalf("first attempt must not change level: %+v", eval)
	}

	// 3 个技能各 15 XP
	if len(eval.SkillUpdates) != 3 {
		t.Fatalf("expected 3 skill updates, got %d", len(eval.SkillUpdates))
	}
	for _, u := range eval.SkillUpdates {
		if u.XPGained != util.QuizSkillXP {
			t.Fatalf("unexpected xp award: %+v", u)
		}
	}

	types := map[string]bool{}
	for _, m := range eval.MissionUpdates {
		types[m.MissionType] = true
	}
	for _, want := range []string{model.MissionCompleteQuizzes, model.MissionPerfectQuiz, model.MissionSkillImprovement} {
		if !types[want] {
			t.Fatalf("expected mission update for %s, got %+v", want, eval.MissionUpdates)
		}
	}

	var entries int64
	f.db.Model(&model.LearningProgress{}).Where("user_id = ?", f.user.ID).Count(&entries)
	if entries != 1 {
		t.Fatalf("expected one ledger entry, got %d", entries)
	}
}

func TestQuizEvaluateRejectsBadInput(t *testing.T) {
	f := newQuizFixture(t)
	ctx := context.Background()

	_, err := f.quiz.Evaluate(ctx, f.user.ID, EvaluateInput{Questions: sampleQuestions(), Answers: []string{"A"}})
	if !errors.Is(err, util.ErrQuizMismatch) {
		t.Fatalf("expected ErrQuizMismatch, got %v", err)
	}

	_, err = f.quiz.Evaluate(ctx, f.user.ID, EvaluateInput{})
	if !errors.Is(err, util.ErrInvalidQuiz) {
		t.Fatalf("expected ErrInvalidQuiz, got %v", err)
	}

	_, err = f.quiz.Evaluate(ctx, f.user.ID, EvaluateInput{Questions: sampleQuestions(), Answers: []string{"A", "B", "C", "D"}, Level: "expert"})
	if !errors.Is(err, util.ErrInvalidLevel) {
		t.Fatalf("expected ErrInvalidLevel, got %v", err)
	}

	var entries int64
	f.db.Model(&model.LearningProgress{}).Count(&entries)
	if entries != 0 {
		t.Fatalf("rejected submissions must not be recorded, got %d", entries)
	}
}

func TestQuizGenerateMalformedOutput(t *testing.T) {
	db := newTestDB(t)
	user := createUser(t, db, "malformed_user", model.Beginner)
	ai := newFakeAI(t, func(req ChatCompletionRequest) string { return "nu am putut genera" })
	userRepo := repository.NewUserRepository(db)
	svc := NewQuizService(userRepo, ai, NewSkillService(db, repository.NewSkillRepository(db)), nil, nil)

	_, err := svc.Generate(context.Background(), user.ID)
	var aiErr *AIError
	if !errors.As(err, &aiErr) || aiErr.Kind != AIErrMalformed {
		t.Fatalf("expected malformed AIError, got %v", err)
	}
}
