package scraper

import (
	"context"

	"proxyharvester/internal/shared/logger"
	"proxyharvester/proxypool/model"
)

// Source 接口定义了一个代理来源。
// 实现者只负责描述要抓取哪些页面以及如何从页面中取出文本，
// 网络请求、地址提取与去重由 Harvest 完成。
type Source interface {
	// Name 返回代理源的名称，用于日志记录。
	Name() string

	// ListPages 返回需要抓取的页面 URL。它可以自己发起请求（例如翻页索引），
	// 失败时返回空或部分列表，而不是错误。
	ListPages(ctx context.Context) []string

	// Parse 从一个页面内容中取出可能包含代理地址的文本片段。不做 I/O。
	Parse(body []byte) []string
}

// Fetcher 下载一个页面。request.Client 实现了该接口。
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Harvest 执行一个 Source 的完整抓取流程：逐页下载、解析、提取 ip:port，
// 并在本次调用内去重（保持首次出现的顺序）。单个页面失败不会中断其余页面。
func Harvest(ctx context.Context, f Fetcher, s Source) []model.Candidate {
	l := logger.WithComponent("ProxyPool/Scraper")
	l.Info().Str("source", s.Name()).Msg("Starting scrape...")

	pages := s.ListPages(ctx)
	seen := make(map[model.Candidate]struct{})
	var candidates []model.Candidate

	for _, url := range pages {
		body, err := f.Fetch(ctx, url)
		if err != nil {
			l.Warn().Err(err).Str("url", url).Str("source", s.Name()).Msg("Failed to fetch page.")
			continue
		}

		fragments := s.Parse(body)
		found := 0
		for _, fragment := range fragments {
			c, ok := Extract(fragment)
			if !ok {
				continue
			}
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			candidates = append(candidates, c)
			found++
		}
		l.Debug().Str("url", url).Str("source", s.Name()).Int("fragments", len(fragments)).Int("new", found).Msg("Page parsed.")
	}

	l.Info().Int("count", len(candidates)).Int("pages", len(pages)).Str("source", s.Name()).Msg("Scrape finished.")
	return candidates
}
