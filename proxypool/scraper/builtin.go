package scraper

import (
	"fmt"
	"regexp"

	"proxyharvester/internal/shared/types"
)

// builtinFactory 根据请求配置构造一个内置代理源。
type builtinFactory func(req types.RequestConf) Source

var builtinOrder = []string{
	"freeproxylist", "sslproxies", "fatezero", "89ip", "xsdaili", "github",
	"kuaidaili", "ip3366", "qiyunip", "zdaye", "proxydb", "proxylistdownload",
}

var builtins = map[string]builtinFactory{
	"freeproxylist": func(types.RequestConf) Source {
		var pages []string
		for _, proto := range []string{"http", "https"} {
			for i := 1; i <= 10; i++ {
				pages = append(pages, fmt.Sprintf("https://freeproxylist.ru/protocol/%s?page=%d", proto, i))
			}
		}
		return &TableSource{
			SourceName:  "freeproxylist.ru",
			Pages:       pages,
			RowSelector: "tbody.table-proxy-list > tr",
			IPColumn:    0,
			PortColumn:  1,
		}
	},
	"sslproxies": func(types.RequestConf) Source {
		return &TableSource{
			SourceName:  "sslproxies.org",
			Pages:       []string{"https://www.sslproxies.org/"},
			RowSelector: "table.table tbody tr",
			IPColumn:    0,
			PortColumn:  1,
		}
	},
	"fatezero": func(types.RequestConf) Source {
		return &JSONLinesSource{
			SourceName: "proxylist.fatezero.org",
			Pages:      []string{"http://proxylist.fatezero.org/proxy.list"},
		}
	},
	"89ip": func(types.RequestConf) Source {
		return &PatternSource{
			SourceName: "89ip.cn",
			Pages:      []string{"http://api.89ip.cn/tqdl.html?api=1&num=9999"},
			Pattern:    regexp.MustCompile(`([\d:.]*)<br>`),
		}
	},
	"xsdaili": func(req types.RequestConf) Source {
		return &IndexedSource{
			SourceName: "xsdaili.cn",
			IndexPages: []string{
				"https://www.xsdaili.cn/dayProxy/1.html",
				"https://www.xsdaili.cn/dayProxy/2.html",
			},
			LinkSelector: "div.table.table-hover.panel-default.panel.ips > div.title > a[href]",
			TextSelector: "div.cont",
			Headers: map[string]string{
				"User-Agent":      req.UserAgent,
				"Accept-Language": req.AcceptLanguage,
				"Cache-Control":   "no-cache",
			},
			Timeout: req.Timeout,
		}
	},
	"github": func(types.RequestConf) Source {
		return &PatternSource{
			SourceName: "github",
			Pages: []string{
				"https://raw.githubusercontent.com/proxylist-to/proxy-list/main/http.txt",
				"https://raw.githubusercontent.com/parserpp/ip_ports/main/proxyinfo.txt",
				"https://cdn.jsdelivr.net/gh/parserpp/ip_ports/proxyinfo.txt",
				"https://raw.githubusercontent.com/monosans/proxy-list/main/proxies/http.txt",
				"https://raw.githubusercontent.com/rdavydov/proxy-list/main/proxies/http.txt",
				"https://raw.githubusercontent.com/hanwayTech/free-proxy-list/main/http.txt",
				"https://raw.githubusercontent.com/mmpx12/proxy-list/master/proxies.txt",
				"https://raw.githubusercontent.com/yemixzy/proxy-list/main/proxy-list/not_checked.txt",
				"https://raw.githubusercontent.com/ReCaree/proxy-scrapper/master/proxy/http-removed.txt",
				"https://raw.githubusercontent.com/jetkai/proxy-list/main/online-proxies/txt/proxies.txt",
			},
		}
	},
	"kuaidaili": func(types.RequestConf) Source {
		var pages []string
		for _, kind := range []string{"intr", "inha"} {
			for i := 1; i <= 2; i++ {
				pages = append(pages, fmt.Sprintf("https://www.kuaidaili.com/free/%s/%d/", kind, i))
			}
		}
		return &ScriptVarSource{SourceName: "kuaidaili.com", Pages: pages, Variable: "fpsList"}
	},
	"ip3366": func(types.RequestConf) Source {
		return &TableSource{
			SourceName:   "ip3366.net",
			Pages:        []string{"http://www.ip3366.net/?stype=1&page=1"},
			RowSelector:  "table.table-bordered tbody tr",
			IPColumn:     0,
			PortColumn:   1,
			TypeColumn:   3,
			TypeContains: "HTTP",
		}
	},
	// qiyunip 的数据单元格是 <th>
	"qiyunip": func(types.RequestConf) Source {
		return &TableSource{
			SourceName:   "qiyunip.com",
			Pages:        []string{"https://www.qiyunip.com/freeProxy/1.html"},
			RowSelector:  "table#proxyTable tbody tr",
			CellTag:      "th",
			IPColumn:     0,
			PortColumn:   1,
			TypeColumn:   3,
			TypeContains: "HTTP",
		}
	},
	"zdaye": func(types.RequestConf) Source {
		return &TableSource{
			SourceName:  "zdaye.com",
			Pages:       []string{"https://www.zdaye.com/free/1/?https=1"},
			RowSelector: "table#ipc tbody tr",
			IPColumn:    0,
			PortColumn:  1,
		}
	},
	"proxydb": func(types.RequestConf) Source {
		var pages []string
		for offset := 0; offset <= 30; offset += 15 {
			pages = append(pages, fmt.Sprintf("https://proxydb.net/?protocol=http&protocol=https&offset=%d", offset))
		}
		return &TableSource{
			SourceName:  "proxydb.net",
			Pages:       pages,
			RowSelector: "tbody tr",
			IPColumn:    0,
			PortColumn:  1,
		}
	},
	"proxylistdownload": func(types.RequestConf) Source {
		return &TableSource{
			SourceName:  "proxy-list.download",
			Pages:       []string{"https://www.proxy-list.download/HTTP"},
			RowSelector: "table#example1 tbody#tabli tr",
			IPColumn:    0,
			PortColumn:  1,
		}
	},
}

// Known 返回所有内置代理源的名称。
func Known() []string {
	return append([]string(nil), builtinOrder...)
}

// Select 按名称构造启用的内置代理源，extraLists 中的每个 URL 作为一个纯文本列表源追加在后面。
func Select(names, extraLists []string, req types.RequestConf) ([]Source, error) {
	sources := make([]Source, 0, len(names)+len(extraLists))
	for _, name := range names {
		factory, ok := builtins[name]
		if !ok {
			return nil, fmt.Errorf("unknown source %q", name)
		}
		sources = append(sources, factory(req))
	}
	for _, u := range extraLists {
		sources = append(sources, &PatternSource{SourceName: u, Pages: []string{u}})
	}
	return sources, nil
}
