// Package roomcode 解析业主录入的房号，如 "1203" 表示 12 层 03 室。
//
// 该约定没有强制校验：无法解析的房号统一落入 0 层，调用方应把 0 层视为"未识别"分组。
package roomcode

import (
	"strconv"
	"strings"
)

// UnknownFloor 无法识别楼层时使用的楼层号
const UnknownFloor = 0

// Parse 将房号拆分为楼层与层内房号。
// 长度大于 2 且前缀全为数字时，前缀为楼层、末两位为层内房号；
// 否则整体按数字解析为楼层（失败为 0），层内房号保持原样。
func Parse(room string) (floor int, roomInFloor string) {
	room = strings.TrimSpace(room)
	if runes := []rune(room); len(runes) > 2 {
		prefix, suffix := string(runes[:len(runes)-2]), string(runes[len(runes)-2:])
		if isDigits(prefix) {
			if n, err := strconv.Atoi(prefix); err == nil {
				return n, suffix
			}
		}
		return UnknownFloor, suffix
	}
	if n, err := strconv.Atoi(room); err == nil && isDigits(room) {
		return n, room
	}
	return UnknownFloor, room
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
