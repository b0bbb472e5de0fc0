package util

import (
	"strconv"
)

// ParseIntDefault 解析查询参数，失败或为负数时返回默认值
func ParseIntDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
