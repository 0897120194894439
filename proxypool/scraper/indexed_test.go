package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"proxyharvester/proxypool/model"
)

func newIndexServer(t *testing.T) (*httptest.Server, *sync.Map) {
	t.Helper()
	var agents sync.Map
	mux := http.NewServeMux()
	mux.HandleFunc("/dayProxy/1.html", func(w http.ResponseWriter, r *http.Request) {
		agents.Store(r.URL.Path, r.UserAgent())
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body>
			<div class="table table-hover panel-default panel ips">
				<div class="title"><a href="/dayProxy/ip/100.html">day 100</a></div>
			</div>
			<div class="table table-hover panel-default panel ips">
				<div class="title"><a href="/dayProxy/ip/101.html">day 101</a></div>
			</div>
			<a href="/elsewhere.html">unrelated</a>
		</body></html>`)
	})
	mux.HandleFunc("/dayProxy/2.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body>
			<div class="table table-hover panel-default panel ips">
				<div class="title"><a href="/dayProxy/ip/101.html">day 101 again</a></div>
			</div>
		</body></html>`)
	})
	mux.HandleFunc("/dayProxy/3.html", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	})
	mux.HandleFunc("/dayProxy/ip/100.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<div class="cont">10.1.1.1:8080@HTTP#[x]<br>10.1.1.2:3128@HTTP#[y]<br></div>`)
	})
	mux.HandleFunc("/dayProxy/ip/101.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<div class="cont">10.1.1.2:3128@HTTP#[y]<br>10.1.1.3:80@HTTP#[z]<br></div>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &agents
}

func newTestIndexedSource(base string) *IndexedSource {
	return &IndexedSource{
		SourceName:   "xsdaili-test",
		IndexPages:   []string{base + "/dayProxy/1.html", base + "/dayProxy/2.html", base + "/dayProxy/3.html"},
		LinkSelector: "div.table.table-hover.panel-default.panel.ips > div.title > a[href]",
		TextSelector: "div.cont",
		Headers:      map[string]string{"User-Agent": "harvester-test"},
		Timeout:      2 * time.Second,
	}
}

func TestIndexedSource_ListPages(t *testing.T) {
	srv, agents := newIndexServer(t)
	src := newTestIndexedSource(srv.URL)

	pages := src.ListPages(context.Background())
	assert.Equal(t, []string{srv.URL + "/dayProxy/ip/100.html", srv.URL + "/dayProxy/ip/101.html"}, pages)

	ua, _ := agents.Load("/dayProxy/1.html")
	assert.Equal(t, "harvester-test", ua)
}

func TestIndexedSource_HarvestEndToEnd(t *testing.T) {
	srv, _ := newIndexServer(t)
	src := newTestIndexedSource(srv.URL)

	got := Harvest(context.Background(), httpFetcher{client: srv.Client()}, src)
	assert.Equal(t, []model.Candidate{"10.1.1.1:8080", "10.1.1.2:3128", "10.1.1.3:80"}, got)
}

func TestIndexedSource_ListPagesUnreachable(t *testing.T) {
	src := newTestIndexedSource("http://127.0.0.1:1")
	assert.Empty(t, src.ListPages(context.Background()))
}

// httpFetcher is a minimal Fetcher for tests that only need a plain GET.
type httpFetcher struct {
	client *http.Client
}

func (f httpFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
