package scraper

import (
	"bytes"
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"proxyharvester/internal/shared/logger"
)

// TableSource 抓取以 HTML 表格展示代理的网站，每一行取 IP 列和端口列。
type TableSource struct {
	SourceName  string
	Pages       []string
	RowSelector string // e.g. "tbody.table-proxy-list tr"
	CellTag     string // 数据单元格的标签, 默认为 "td"
	IPColumn    int
	PortColumn  int

	// TypeContains 非空时，只保留 TypeColumn 列（不区分大小写）包含该字符串的行。
	TypeColumn   int
	TypeContains string
}

// Name 返回抓取器的名称。
func (s *TableSource) Name() string {
	return s.SourceName
}

// ListPages 返回固定的页面列表。
func (s *TableSource) ListPages(context.Context) []string {
	return s.Pages
}

// Parse 返回每一行的 "ip:port" 文本。
func (s *TableSource) Parse(body []byte) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		l := logger.WithComponent("ProxyPool/Scraper")
		l.Warn().Err(err).Str("source", s.Name()).Msg("Failed to parse HTML document.")
		return nil
	}

	cellTag := s.CellTag
	if cellTag == "" {
		cellTag = "td"
	}

	var result []string
	doc.Find(s.RowSelector).Each(func(_ int, sel *goquery.Selection) {
		cells := sel.Find(cellTag)
		ip := strings.TrimSpace(cells.Eq(s.IPColumn).Text())
		port := strings.TrimSpace(cells.Eq(s.PortColumn).Text())
		if ip == "" || port == "" {
			return
		}
		if s.TypeContains != "" {
			proxyType := strings.ToUpper(strings.TrimSpace(cells.Eq(s.TypeColumn).Text()))
			if !strings.Contains(proxyType, strings.ToUpper(s.TypeContains)) {
				return
			}
		}
		result = append(result, ip+":"+port)
	})
	return result
}
