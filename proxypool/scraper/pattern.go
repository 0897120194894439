package scraper

import (
	"context"
	"regexp"
	"strings"
)

// PatternSource 用正则表达式从页面中切出片段；没有设置 Pattern 时按行切分，
// 适用于纯文本代理列表。
type PatternSource struct {
	SourceName string
	Pages      []string
	// Pattern 有捕获组时取第一个捕获组，否则取整个匹配。
	Pattern *regexp.Regexp
}

func (s *PatternSource) Name() string {
	return s.SourceName
}

func (s *PatternSource) ListPages(context.Context) []string {
	return s.Pages
}

func (s *PatternSource) Parse(body []byte) []string {
	text := string(body)
	if s.Pattern == nil {
		var result []string
		for _, line := range strings.Split(text, "\n") {
			if line = strings.TrimSpace(line); line != "" && !strings.HasPrefix(line, "#") {
				result = append(result, line)
			}
		}
		return result
	}

	group := 0
	if s.Pattern.NumSubexp() > 0 {
		group = 1
	}
	var result []string
	for _, m := range s.Pattern.FindAllStringSubmatch(text, -1) {
		if m[group] != "" {
			result = append(result, m[group])
		}
	}
	return result
}
