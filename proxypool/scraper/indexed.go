package scraper

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"proxyharvester/internal/shared/logger"
)

// IndexedSource 先抓取索引页（翻页列表），从中收集详情页链接，
// 再从详情页的指定元素中取出文本行。
type IndexedSource struct {
	SourceName   string
	IndexPages   []string
	LinkSelector string // 索引页中指向详情页的 <a> 选择器
	TextSelector string // 详情页中包含代理文本的元素选择器
	Headers      map[string]string
	Timeout      time.Duration
}

func (s *IndexedSource) Name() string {
	return s.SourceName
}

// ListPages 使用 colly 访问每个索引页并收集详情页的绝对 URL。
// 索引页请求失败只会让结果变少。
func (s *IndexedSource) ListPages(ctx context.Context) []string {
	l := logger.WithComponent("ProxyPool/Scraper")

	c := colly.NewCollector(colly.StdlibContext(ctx))
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	c.SetRequestTimeout(timeout)

	c.OnRequest(func(r *colly.Request) {
		for k, v := range s.Headers {
			if v != "" {
				r.Headers.Set(k, v)
			}
		}
	})

	var pages []string
	var mu sync.Mutex
	seen := make(map[string]struct{})

	c.OnHTML(s.LinkSelector, func(e *colly.HTMLElement) {
		link := e.Request.AbsoluteURL(e.Attr("href"))
		if link == "" {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if _, ok := seen[link]; ok {
			return
		}
		seen[link] = struct{}{}
		pages = append(pages, link)
	})

	c.OnError(func(r *colly.Response, err error) {
		l.Warn().Err(err).Int("status_code", r.StatusCode).Str("url", r.Request.URL.String()).Str("source", s.Name()).Msg("Index request failed.")
	})

	for _, index := range s.IndexPages {
		l.Debug().Str("url", index).Str("source", s.Name()).Msg("Visiting index page...")
		if err := c.Visit(index); err != nil {
			l.Debug().Err(err).Str("url", index).Msg("Visit returned error.")
		}
	}
	c.Wait()

	return pages
}

// Parse 返回详情页中 TextSelector 元素下的每个文本节点。
func (s *IndexedSource) Parse(body []byte) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		l := logger.WithComponent("ProxyPool/Scraper")
		l.Warn().Err(err).Str("source", s.Name()).Msg("Failed to parse HTML document.")
		return nil
	}

	var result []string
	doc.Find(s.TextSelector).Contents().Each(func(_ int, sel *goquery.Selection) {
		if goquery.NodeName(sel) == "#text" {
			result = append(result, sel.Text())
		}
	})
	return result
}
