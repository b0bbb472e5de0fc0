package util

const (
	DateFormat = "2006-01-02"
)

// 上下文键
const (
	ContextUserKey  = "user"
	ContextTokenKey = "token"
)

// 测验相关常量
const (
	QuizQuestionCount    = 10
	QuizTimeLimitSeconds = 600
	QuizSkillXP          = 15
	PerfectQuizzesNeeded = 5
	RecentProgressSize   = 5
	ChatHistoryContext   = 5
)
