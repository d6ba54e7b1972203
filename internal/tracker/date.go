package tracker

import (
	"time"
)

// DateLayout 是传输与存储使用的 ISO 日期格式
const DateLayout = "2006-01-02"

// ParseDate 解析 ISO 日期，结果为 UTC 零点
func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, value)
}

// FormatDate 按 t 自身的时区输出日期
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// NormalizeDate 重新格式化 ISO 日期，使相同日期的字符串一致
func NormalizeDate(value string) (string, error) {
	parsed, err := ParseDate(value)
	if err != nil {
		return "", err
	}
	return FormatDate(parsed), nil
}

// Today 返回 now 在 loc 时区下的日历日期（当日零点）
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return normalizeToDate(now.In(loc))
}

func normalizeToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
