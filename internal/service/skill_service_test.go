package service

import (
	"forex_edu_backend/internal/model"
	"forex_edu_backend/internal/repository"
	"testing"
)

func newSkillService(t *testing.T) (*SkillService, *model.User) {
	t.Helper()
	db := newTestDB(t)
	user := createUser(t, db, "skill_user", model.Beginner)
	return NewSkillService(db, repository.NewSkillRepository(db)), user
}

func TestQuestionHashNormalizesCaseAndWhitespace(t *testing.T) {
	a := QuestionHash("Ce este un PIP?")
	b := QuestionHash("  ce este un pip?\n")
	if a != b {
		t.Fatalf("expected equal hashes, got %s and %s", a, b)
	}
	if len(a) != 32 {
		t.Fatalf("expected md5 hex length 32, got %d", len(a))
	}
	if a == QuestionHash("Ce este un lot?") {
		t.Fatal("different questions should hash differently")
	}
}

func TestSkillLevel(t *testing.T) {
	cases := []struct {
		xp, maxXP, want int
	}{
		{0, 1000, 1},
		{99, 1000, 1},
		{100, 1000, 2},
		{999, 1000, 10},
		{1000, 1000, 10},
		{5000, 1000, 10},
		{50, 0, 1},
	}
	for _, tc := range cases {
		if got := SkillLevel(tc.xp, tc.maxXP); got != tc.want {
			t.Errorf("SkillLevel(%d, %d) = %d, want %d", tc.xp, tc.maxXP, got, tc.want)
		}
	}
}

func TestXPForNextLevel(t *testing.T) {
	if got := XPForNextLevel(0, 1000); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
	if got := XPForNextLevel(150, 1000); got != 200 {
		t.Fatalf("expected 200, got %d", got)
	}
	if got := XPForNextLevel(1200, 1000); got != 1000 {
		t.Fatalf("expected max xp at max level, got %d", got)
	}
}

func TestProcessAnswerAwardsTaggedSkills(t *testing.T) {
	svc, user := newSkillService(t)
	question := "Ce este un stop loss?"

	hash, err := svc.TagQuestion(question, []SkillTag{
		{SkillName: "Risk Management", XPValue: 15},
		{SkillName: "Money Management"},
		{SkillName: "Skill inexistent", XPValue: 20},
	})
	if err != nil {
		t.Fatalf("tag question: %v", err)
	}
	if hash != QuestionHash(question) {
		t.Fatalf("unexpected hash %s", hash)
	}

	t.Run("incorrect answer changes nothing", func(t *testing.T) {
		updates, err := svc.ProcessAnswer(user.ID, question, false)
		if err != nil {
			t.Fatalf("process answer: %v", err)
		}
		if len(updates) != 0 {
			t.Fatalf("expected no updates, got %d", len(updates))
		}
	})

	t.Run("correct answer awards each tagged skill", func(t *testing.T) {
		updates, err := svc.ProcessAnswer(user.ID, "  CE ESTE UN STOP LOSS?  ", true)
		if err != nil {
			t.Fatalf("process answer: %v", err)
		}
		if len(updates) != 2 {
			t.Fatalf("expected 2 updates, got %d", len(updates))
		}
		gained := map[string]int{}
		for _, u := range updates {
			gained[u.SkillName] = u.XPGained
			if u.OldXP != 0 || u.NewXP != u.XPGained {
				t.Fatalf("unexpected xp transition: %+v", u)
			}
		}
		if gained["Risk Management"] != 15 || gained["Money Management"] != 10 {
			t.Fatalf("unexpected xp awards: %v", gained)
		}
	})
}

func TestAddSkillXPIsMonotonicAndLevelsUp(t *testing.T) {
	svc, user := newSkillService(t)
	skill, err := svc.SkillRepo.FindSkillByName("Price Action")
	if err != nil {
		t.Fatalf("find skill: %v", err)
	}

	prev := 0
	var last *SkillUpdate
	for i := 0; i < 12; i++ {
		u, err := svc.AddSkillXP(user.ID, skill.ID, 15, skillSourceQuiz)
		if err != nil {
			t.Fatalf("add xp: %v", err)
		}
		if u.NewXP < prev {
			t.Fatalf("xp decreased from %d to %d", prev, u.NewXP)
		}
		if u.OldXP != prev {
			t.Fatalf("expected old xp %d, got %d", prev, u.OldXP)
		}
		prev = u.NewXP
		last = u
	}
	if last.NewXP != 180 || last.NewLevel != 2 {
		t.Fatalf("expected 180 xp at level 2, got %+v", last)
	}

	up, err := svc.AddSkillXP(user.ID, skill.ID, 900, skillSourceQuiz)
	if err != nil {
		t.Fatalf("add xp: %v", err)
	}
	if up.NewLevel != 10 || !up.LeveledUp {
		t.Fatalf("expected level 10 with level up, got %+v", up)
	}

	if _, err := svc.AddSkillXP(user.ID, skill.ID, -5, skillSourceQuiz); err == nil {
		t.Fatal("expected negative xp to be rejected")
	}
}

func TestGetUserSkillsInitializesCatalog(t *testing.T) {
	svc, user := newSkillService(t)
	if err := svc.InitializeUserSkills(user.ID); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	// 重复初始化不产生重复行
	if err := svc.InitializeUserSkills(user.ID); err != nil {
		t.Fatalf("initialize twice: %v", err)
	}

	skills, err := svc.GetUserSkills(user.ID)
	if err != nil {
		t.Fatalf("get skills: %v", err)
	}
	if len(skills) != 7 {
		t.Fatalf("expected 7 skills, got %d", len(skills))
	}
	for _, s := range skills {
		if s.Level != 1 || s.CurrentXP != 0 || s.IsMaxLevel {
			t.Fatalf("unexpected initial skill row: %+v", s)
		}
	}

	stats, err := svc.GetUserSkillsStats(user.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalSkills != 7 || stats.TotalXP != 0 || stats.MaxedSkills != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
