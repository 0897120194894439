package scraper

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"proxyharvester/internal/shared/logger"
)

// ScriptVarSource 处理把代理列表写在页面 JS 变量里的网站，
// 例如 kuaidaili 的 `const fpsList = [{"ip": "...", "port": "..."}];`。
type ScriptVarSource struct {
	SourceName string
	Pages      []string
	Variable   string // JS 变量名
}

// scriptEntry 定义了用于解析 JS 变量中 JSON 的临时结构体。
type scriptEntry struct {
	IP   string          `json:"ip"`
	Port json.RawMessage `json:"port"`
}

func (s *ScriptVarSource) Name() string {
	return s.SourceName
}

func (s *ScriptVarSource) ListPages(context.Context) []string {
	return s.Pages
}

func (s *ScriptVarSource) Parse(body []byte) []string {
	l := logger.WithComponent("ProxyPool/Scraper")
	re := regexp.MustCompile(`(?s)(?:var|let|const)\s+` + regexp.QuoteMeta(s.Variable) + `\s*=\s*(\[.*?\]);`)

	matches := re.FindSubmatch(body)
	if len(matches) < 2 {
		l.Warn().Str("source", s.Name()).Str("variable", s.Variable).Msg("Could not find list variable in response body.")
		return nil
	}

	var entries []scriptEntry
	if err := json.Unmarshal(matches[1], &entries); err != nil {
		l.Warn().Err(err).Str("source", s.Name()).Msg("Failed to unmarshal list variable.")
		return nil
	}

	result := make([]string, 0, len(entries))
	for _, e := range entries {
		// 端口可能是字符串也可能是数字
		port := strings.Trim(strings.TrimSpace(string(e.Port)), `"`)
		result = append(result, strings.TrimSpace(e.IP)+":"+port)
	}
	return result
}
