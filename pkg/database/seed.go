package database

import (
	"forex_edu_backend/internal/config"
	"forex_edu_backend/internal/model"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var DefaultSkills = []model.ForexSkill{
	{Name: "Analiză tehnică", Description: "Citirea graficelor, trenduri, suport și rezistență", Category: "analysis", MaxXP: 1000, Icon: "📈"},
	{Name: "Psihologie în trading", Description: "Disciplină, controlul emoțiilor și gestionarea stresului", Category: "psychology", MaxXP: 1000, Icon: "🧠"},
	{Name: "Risk Management", Description: "Stop loss, dimensionarea pozițiilor și raportul risc/recompensă", Category: "risk", MaxXP: 1000, Icon: "🛡️"},
	{Name: "Price Action", Description: "Pattern-uri de lumânări și structura pieței", Category: "analysis", MaxXP: 1000, Icon: "💹"},
	{Name: "Indicatori tehnici", Description: "RSI, MACD, medii mobile și alți indicatori", Category: "analysis", MaxXP: 1000, Icon: "📊"},
	{Name: "Money Management", Description: "Gestionarea capitalului și a expunerii", Category: "risk", MaxXP: 1000, Icon: "💰"},
	{Name: "Fundamente economice", Description: "Știri economice, dobânzi și factori macro", Category: "fundamentals", MaxXP: 1000, Icon: "🌍"},
}

var DefaultMissionTemplates = []model.MissionTemplate{
	{Name: "Quiz Master", Description: "Completează 3 quiz-uri astăzi", MissionType: model.MissionCompleteQuizzes, TargetValue: 3, RewardXP: 50, RewardType: "general_xp", Difficulty: "easy", Frequency: "daily", IsActive: true},
	{Name: "Perfect Streak", Description: "Răspunde corect la 5 întrebări la rând", MissionType: model.MissionCorrectStreak, TargetValue: 5, RewardXP: 75, RewardType: "general_xp", Difficulty: "medium", Frequency: "daily", IsActive: true},
	{Name: "Skill Specialist", Description: "Câștigă 50 XP în orice skill", MissionType: model.MissionSkillImprovement, TargetValue: 50, RewardXP: 100, RewardType: "general_xp", Difficulty: "medium", Frequency: "daily", IsActive: true},
	{Name: "Perfect Score", Description: "Obține scor perfect la un quiz", MissionType: model.MissionPerfectQuiz, TargetValue: 1, RewardXP: 150, RewardType: "general_xp", Difficulty: "hard", Frequency: "daily", IsActive: true},
	{Name: "Chat Explorer", Description: "Trimite 5 mesaje asistentului AI", MissionType: model.MissionChatMessages, TargetValue: 5, RewardXP: 30, RewardType: "general_xp", Difficulty: "easy", Frequency: "daily", IsActive: true},
}

// Seed 初始化技能目录、任务模板和管理员账号，可重复执行
func Seed(db *gorm.DB, cfg *config.SeedConfig) error {
	skills := make([]model.ForexSkill, len(DefaultSkills))
	copy(skills, DefaultSkills)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&skills).Error; err != nil {
		return err
	}

	var templateCount int64
	if err := db.Model(&model.MissionTemplate{}).Count(&templateCount).Error; err != nil {
		return err
	}
	if templateCount == 0 {
		templates := make([]model.MissionTemplate, len(DefaultMissionTemplates))
		copy(templates, DefaultMissionTemplates)
		if err := db.Create(&templates).Error; err != nil {
			return err
		}
	}

	if cfg == nil || cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		log.Println("Admin seed skipped: no admin password configured")
		return nil
	}

	var adminCount int64
	if err := db.Model(&model.User{}).Where("username = ?", cfg.AdminUsername).Count(&adminCount).Error; err != nil {
		return err
	}
	if adminCount > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &model.User{
		Username: cfg.AdminUsername,
		Email:    cfg.AdminEmail,
		Password: string(hashed),
		FullName: cfg.AdminUsername,
		Role:     model.Admin,
		IsActive: true,
		Level:    model.Beginner,
	}
	if err := db.Create(admin).Error; err != nil {
		return err
	}
	log.Printf("Seeded admin user %s", cfg.AdminUsername)
	return nil
}
