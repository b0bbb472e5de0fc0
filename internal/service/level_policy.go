package service

import (
	"fmt"
	"forex_edu_backend/internal/model"
	"math"
)

// 连续满分次数达到该值时升级（当前一次 + 之前 4 次）
const perfectRunForAdvance = 5

// Percentage 四舍五入百分比，total 为 0 时返回 0
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}

func entryPercentage(e model.LearningProgress) int {
	return Percentage(e.QuizScore, e.TotalQuestions)
}

// DecideAdvancement 判断本次测验后是否升级。
// prior 为本次记录之前同一等级下最近的记录（最新在前），只看前 4 条。
func DecideAdvancement(current model.Level, currentPct int, prior []model.LearningProgress) (model.Level, bool) {
	next, ok := current.Next()
	if !ok || currentPct != 100 {
		return current, false
	}
	if len(prior) != perfectRunForAdvance-1 {
		return current, false
	}
	for _, e := range prior {
		if entryPercentage(e) != 100 {
			return current, false
		}
	}
	return next, true
}

// LevelProgress 距离下一等级的进度
type LevelProgress struct {
	CanAdvance              bool         `json:"canAdvance"`
	NextLevel               *model.Level `json:"nextLevel"`
	PerfectQuizzesNeeded    int          `json:"perfectQuizzesNeeded"`
	PerfectQuizzesCompleted int          `json:"perfectQuizzesCompleted"`
	Message                 string       `json:"message"`
}

// ProgressToNextLevel attempts 为当前等级下的全部记录，最新在前
func ProgressToNextLevel(current model.Level, attempts []model.LearningProgress) LevelProgress {
	next, ok := current.Next()
	if !ok {
		return LevelProgress{
			CanAdvance: false,
			Message:    "Ai atins nivelul maxim!",
		}
	}

	run := 0
	for _, e := range attempts {
		if entryPercentage(e) != 100 {
			break
		}
		run++
	}

	msg := fmt.Sprintf("Ai nevoie de %d quiz-uri consecutive cu scor 100%% pentru a avansa la nivelul %s.", perfectRunForAdvance-run, next)
	if run >= perfectRunForAdvance {
		msg = fmt.Sprintf("Felicitări! Poți avansa la nivelul %s!", next)
	}

	return LevelProgress{
		CanAdvance:              true,
		NextLevel:               &next,
		PerfectQuizzesNeeded:    perfectRunForAdvance,
		PerfectQuizzesCompleted: run,
		Message:                 msg,
	}
}
