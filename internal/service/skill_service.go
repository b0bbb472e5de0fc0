package service

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"forex_edu_backend/internal/model"
	"forex_edu_backend/internal/repository"
	"forex_edu_backend/pkg/logger"
	"forex_edu_backend/pkg/monitoring"
	"math"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxSkillLevel     = 10
	defaultQuestionXP = 10
	skillSourceQuiz   = "quiz"
)

// QuestionHash 题目内容哈希：去除首尾空白并转小写后取 md5
func QuestionHash(text string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(text))))
	return hex.EncodeToString(sum[:])
}

func effectiveMaxXP(maxXP int) int {
	if maxXP <= 0 {
		return model.DefaultSkillMaxXP
	}
	return maxXP
}

// SkillLevel 由经验值计算技能等级，范围 1-10
func SkillLevel(xp, maxXP int) int {
	maxXP = effectiveMaxXP(maxXP)
	level := int(math.Floor(float64(xp)/float64(maxXP)*10)) + 1
	if level > maxSkillLevel {
		return maxSkillLevel
	}
	if level < 1 {
		return 1
	}
	return level
}

// XPForNextLevel 达到下一技能等级所需的累计经验值
func XPForNextLevel(xp, maxXP int) int {
	maxXP = effectiveMaxXP(maxXP)
	level := SkillLevel(xp, maxXP)
	if level >= maxSkillLevel {
		return maxXP
	}
	return int(math.Ceil(float64(level) / 10 * float64(maxXP)))
}

// SkillTag 题目与技能的关联请求
type SkillTag struct {
	SkillName string
	XPValue   int
}

// SkillUpdate 一次经验值变化
type SkillUpdate struct {
	SkillID   uint   `json:"skill_id"`
	SkillName string `json:"skill_name,omitempty"`
	OldXP     int    `json:"old_xp"`
	NewXP     int    `json:"new_xp"`
	XPGained  int    `json:"xp_gained"`
	OldLevel  int    `json:"old_level"`
	NewLevel  int    `json:"new_level"`
	LeveledUp bool   `json:"leveled_up"`
	Source    string `json:"source"`
}

type SkillView struct {
	repository.SkillProgressRow
	ProgressPercentage int  `json:"progress_percentage"`
	XPForNextLevel     int  `json:"xp_for_next_level"`
	IsMaxLevel         bool `json:"is_max_level"`
}

type SkillService struct {
	DB        *gorm.DB
	SkillRepo *repository.SkillRepository
}

func NewSkillService(db *gorm.DB, skillRepo *repository.SkillRepository) *SkillService {
	return &SkillService{DB: db, SkillRepo: skillRepo}
}

// TagQuestion 替换题目的技能标签，未知技能名被忽略
func (s *SkillService) TagQuestion(text string, tags []SkillTag) (string, error) {
	hash := QuestionHash(text)
	rows := make([]model.QuestionSkill, 0, len(tags))
	seen := make(map[uint]bool, len(tags))
	for _, tag := range tags {
		skill, err := s.SkillRepo.FindSkillByName(strings.TrimSpace(tag.SkillName))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Log.Debug("Unknown skill tag skipped", zap.String("skill", tag.SkillName))
				continue
			}
			return "", err
		}
		if seen[skill.ID] {
			continue
		}
		seen[skill.ID] = true
		xp := tag.XPValue
		if xp <= 0 {
			xp = defaultQuestionXP
		}
		rows = append(rows, model.QuestionSkill{QuestionContentHash: hash, SkillID: skill.ID, XPValue: xp})
	}
	if err := s.SkillRepo.ReplaceQuestionTags(hash, rows); err != nil {
		return "", err
	}
	return hash, nil
}

// AddSkillXP 原子地为 (用户, 技能) 增加经验值并重新计算等级
func (s *SkillService) AddSkillXP(userID, skillID uint, amount int, source string) (*SkillUpdate, error) {
	if amount < 0 {
		return nil, errors.New("skill xp amount must not be negative")
	}
	var update SkillUpdate

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		skills := s.SkillRepo.WithTx(tx)

		skill, err := skills.FindSkillByID(skillID)
		if err != nil {
			return err
		}
		if err := skills.EnsureUserSkills(userID, []uint{skillID}); err != nil {
			return err
		}
		row, err := skills.LockUserSkill(userID, skillID)
		if err != nil {
			return err
		}

		newXP := row.CurrentXP + amount
		newLevel := SkillLevel(newXP, skill.MaxXP)
		if err := skills.SaveUserSkillXP(row.ID, newXP, newLevel); err != nil {
			return err
		}

		update = SkillUpdate{
			SkillID:   skillID,
			SkillName: skill.Name,
			OldXP:     row.CurrentXP,
			NewXP:     newXP,
			XPGained:  amount,
			OldLevel:  row.Level,
			NewLevel:  newLevel,
			LeveledUp: newLevel > row.Level,
			Source:    source,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	monitoring.SkillXPAwarded.Add(float64(amount))
	return &update, nil
}

// ProcessAnswer 答对时为题目关联的每个技能加经验，答错不做任何修改
func (s *SkillService) ProcessAnswer(userID uint, questionText string, correct bool) ([]SkillUpdate, error) {
	if !correct {
		return nil, nil
	}
	tagged, err := s.SkillRepo.TaggedSkills(QuestionHash(questionText))
	if err != nil {
		return nil, err
	}
	updates := make([]SkillUpdate, 0, len(tagged))
	for _, t := range tagged {
		u, err := s.AddSkillXP(userID, t.SkillID, t.XPValue, skillSourceQuiz)
		if err != nil {
			return updates, err
		}
		updates = append(updates, *u)
	}
	return updates, nil
}

func (s *SkillService) InitializeUserSkills(userID uint) error {
	skills, err := s.SkillRepo.ListSkills()
	if err != nil {
		return err
	}
	ids := make([]uint, 0, len(skills))
	for _, sk := range skills {
		ids = append(ids, sk.ID)
	}
	return s.SkillRepo.EnsureUserSkills(userID, ids)
}

func (s *SkillService) GetUserSkills(userID uint) ([]SkillView, error) {
	rows, err := s.SkillRepo.UserSkillsWithProgress(userID)
	if err != nil {
		return nil, err
	}
	views := make([]SkillView, 0, len(rows))
	for _, r := range rows {
		views = append(views, SkillView{
			SkillProgressRow:   r,
			ProgressPercentage: Percentage(r.CurrentXP, effectiveMaxXP(r.MaxXP)),
			XPForNextLevel:     XPForNextLevel(r.CurrentXP, r.MaxXP),
			IsMaxLevel:         r.Level >= maxSkillLevel,
		})
	}
	return views, nil
}

func (s *SkillService) GetUserSkillsStats(userID uint) (*repository.SkillStatsRow, error) {
	return s.SkillRepo.UserSkillStats(userID)
}

func (s *SkillService) SkillNames() ([]string, error) {
	skills, err := s.SkillRepo.ListSkills()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(skills))
	for _, sk := range skills {
		names = append(names, sk.Name)
	}
	return names, nil
}
