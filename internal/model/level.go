package model

// Level 用户整体水平，决定测验难度
type Level string

const (
	Beginner     Level = "beginner"
	Intermediate Level = "intermediate"
	Advanced     Level = "advanced"
)

var Levels = []Level{Beginner, Intermediate, Advanced}

func (l Level) Valid() bool {
	switch l {
	case Beginner, Intermediate, Advanced:
		return true
	}
	return false
}

// Next 返回下一级；advanced 为终点
func (l Level) Next() (Level, bool) {
	switch l {
	case Beginner:
		return Intermediate, true
	case Intermediate:
		return Advanced, true
	}
	return "", false
}
