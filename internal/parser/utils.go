package parser

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	periodRe     = regexp.MustCompile(`(?i)\(?\b(AM|PM)\b\)?`)
)

// Squish 去除所有空白并转大写，用于姓名模糊比对
func Squish(s string) string {
	return strings.ToUpper(whitespaceRe.ReplaceAllString(s, ""))
}

// CollapseSpaces 压缩连续空白为单个空格
func CollapseSpaces(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// StripPeriods 去除 AM/PM 标记（可带括号）
func StripPeriods(s string) string {
	return CollapseSpaces(periodRe.ReplaceAllString(s, " "))
}

// SplitLines 按行拆分并去除首尾空白（兼容 \r\n）
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return lines
}

// firstSubmatch 返回首个匹配的第 1 个捕获组
func firstSubmatch(re *regexp.Regexp, text string) (value, raw string, ok bool) {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), m[0], true
}
