package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// plainText 去除用户输入中的所有标签，名称和标题只作为纯文本展示
var plainText = bluemonday.StrictPolicy()

func cleanText(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(plainText.Sanitize(trimmed)))
}
