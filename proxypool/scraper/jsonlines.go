package scraper

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"proxyharvester/internal/shared/logger"
)

// JSONLinesSource 抓取每行一个 JSON 对象的代理列表。
type JSONLinesSource struct {
	SourceName string
	Pages      []string
	HostKey    string // 默认 "host"
	PortKey    string // 默认 "port"
}

func (s *JSONLinesSource) Name() string {
	return s.SourceName
}

func (s *JSONLinesSource) ListPages(context.Context) []string {
	return s.Pages
}

// Parse decodes each non-empty line. Malformed lines are skipped.
func (s *JSONLinesSource) Parse(body []byte) []string {
	l := logger.WithComponent("ProxyPool/Scraper")
	hostKey, portKey := s.HostKey, s.PortKey
	if hostKey == "" {
		hostKey = "host"
	}
	if portKey == "" {
		portKey = "port"
	}

	var result []string
	skipped := 0
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var row map[string]interface{}
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			skipped++
			continue
		}
		host, hok := row[hostKey]
		port, pok := row[portKey]
		if !hok || !pok {
			skipped++
			continue
		}
		result = append(result, fmt.Sprintf("%v:%v", host, port))
	}
	if skipped > 0 {
		l.Debug().Str("source", s.Name()).Int("skipped", skipped).Msg("Skipped malformed JSON lines.")
	}
	return result
}
