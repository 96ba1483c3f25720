package logger

import (
	"strconv"
	"strings"
)

var sensitiveKeys = []string{"secret", "password", "token", "authorization"}

// Redact 隐藏敏感值，仅保留长度信息
func Redact(value string) string {
	if value == "" {
		return ""
	}
	return "***(" + strconv.Itoa(len(value)) + ")"
}

// RedactLines 对 "name: value" 逐行文本中键名敏感的行做脱敏
func RedactLines(text string) string {
	if text == "" {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		name, value, ok := strings.Cut(line, ": ")
		if !ok || !IsSensitiveKey(name) {
			continue
		}
		lines[i] = name + ": " + Redact(value)
	}
	return strings.Join(lines, "\n")
}

// IsSensitiveKey 键名是否包含敏感词
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, word := range sensitiveKeys {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}
