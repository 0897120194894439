package validator

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proxyharvester/internal/shared/request"
	"proxyharvester/internal/shared/types"
	"proxyharvester/proxypool/model"
)

// judgeServer answers with status code and counts hits.
func judgeServer(t *testing.T, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, "REMOTE_ADDR = "+r.RemoteAddr)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

// hangingServer never answers before the client gives up.
func hangingServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// forwardProxy is a minimal HTTP forward proxy. reject may return a non-zero
// status to answer a request itself instead of relaying it.
func forwardProxy(t *testing.T, reject func(*http.Request) int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var relayed atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reject != nil {
			if code := reject(r); code != 0 {
				w.WriteHeader(code)
				return
			}
		}
		relayed.Add(1)
		out, err := http.NewRequestWithContext(r.Context(), r.Method, r.URL.String(), nil)
		if err != nil {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		resp, err := http.DefaultTransport.RoundTrip(out)
		if err != nil {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()
		w.WriteHeader(resp.StatusCode)
		_, _ = io.Copy(w, resp.Body)
	}))
	t.Cleanup(srv.Close)
	return srv, &relayed
}

func candidateOf(srv *httptest.Server) model.Candidate {
	return model.Candidate(srv.Listener.Addr().String())
}

func newValidator(judges []string, secondCheck string) *Validator {
	client := request.New(types.RequestConf{Timeout: time.Second, Retries: 1, UserAgent: "validator-test"})
	return New(types.ValidatorConf{
		Judges:             judges,
		SecondCheckURL:     secondCheck,
		JudgeTimeout:       300 * time.Millisecond,
		ProxyTimeout:       500 * time.Millisecond,
		SecondCheckTimeout: 500 * time.Millisecond,
	}, client)
}

func TestReachableJudges_KeepsOrderAndDropsDown(t *testing.T) {
	up1, _ := judgeServer(t, http.StatusOK)
	up2, _ := judgeServer(t, http.StatusOK)
	broken, _ := judgeServer(t, http.StatusInternalServerError)
	slow := hangingServer(t)

	v := newValidator([]string{slow.URL, up1.URL, "http://127.0.0.1:1/", broken.URL, up2.URL}, "")

	assert.Equal(t, []string{up1.URL, up2.URL}, v.ReachableJudges(context.Background()))
}

func TestValidate_WorkingProxy(t *testing.T) {
	judge, hits := judgeServer(t, http.StatusOK)
	proxy, relayed := forwardProxy(t, nil)

	v := newValidator([]string{judge.URL}, "")
	assert.True(t, v.Validate(context.Background(), candidateOf(proxy)))
	assert.Equal(t, int32(1), relayed.Load())
	// one direct probe plus one relayed request
	assert.Equal(t, int32(2), hits.Load())
}

func TestValidate_DeadProxy(t *testing.T) {
	judge, _ := judgeServer(t, http.StatusOK)

	v := newValidator([]string{judge.URL}, "")
	assert.False(t, v.Validate(context.Background(), "127.0.0.1:1"))
}

func TestValidate_SlowProxy(t *testing.T) {
	judge, _ := judgeServer(t, http.StatusOK)
	proxy := hangingServer(t)

	v := newValidator([]string{judge.URL}, "")
	start := time.Now()
	assert.False(t, v.Validate(context.Background(), candidateOf(proxy)))
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestValidate_JudgeAlwaysTimesOut(t *testing.T) {
	slow := hangingServer(t)
	goodProxy, _ := forwardProxy(t, nil)
	otherProxy, _ := forwardProxy(t, nil)

	v := newValidator([]string{slow.URL}, "")
	for _, c := range []model.Candidate{candidateOf(goodProxy), candidateOf(otherProxy), "127.0.0.1:1"} {
		assert.NotPanics(t, func() {
			assert.False(t, v.Validate(context.Background(), c), c)
		})
	}
}

func TestValidate_RedirectIsNotSuccess(t *testing.T) {
	judge, _ := judgeServer(t, http.StatusOK)
	proxy, _ := forwardProxy(t, func(*http.Request) int { return http.StatusFound })

	v := newValidator([]string{judge.URL}, "")
	assert.False(t, v.Validate(context.Background(), candidateOf(proxy)))
}

func TestValidate_FirstSuccessShortCircuits(t *testing.T) {
	first, firstHits := judgeServer(t, http.StatusOK)
	second, secondHits := judgeServer(t, http.StatusOK)
	proxy, relayed := forwardProxy(t, nil)

	v := newValidator([]string{first.URL, second.URL}, "")
	require.True(t, v.Validate(context.Background(), candidateOf(proxy)))

	assert.Equal(t, int32(1), relayed.Load())
	assert.Equal(t, int32(2), firstHits.Load())
	// only the direct reachability probe
	assert.Equal(t, int32(1), secondHits.Load())
}

func TestValidate_FallsThroughToNextJudge(t *testing.T) {
	first, _ := judgeServer(t, http.StatusOK)
	second, _ := judgeServer(t, http.StatusOK)
	blockedHost := first.Listener.Addr().String()
	proxy, relayed := forwardProxy(t, func(r *http.Request) int {
		if r.URL.Host == blockedHost {
			return http.StatusForbidden
		}
		return 0
	})

	v := newValidator([]string{first.URL, second.URL}, "")
	assert.True(t, v.Validate(context.Background(), candidateOf(proxy)))
	assert.Equal(t, int32(1), relayed.Load())
}

func TestValidate_SecondCheck(t *testing.T) {
	judge, _ := judgeServer(t, http.StatusOK)
	passing, passHits := judgeServer(t, http.StatusOK)
	failing, _ := judgeServer(t, http.StatusServiceUnavailable)
	proxy, _ := forwardProxy(t, nil)

	t.Run("passes", func(t *testing.T) {
		v := newValidator([]string{judge.URL}, passing.URL)
		assert.True(t, v.Validate(context.Background(), candidateOf(proxy)))
		assert.Equal(t, int32(1), passHits.Load())
	})

	t.Run("fails on every judge", func(t *testing.T) {
		v := newValidator([]string{judge.URL, judge.URL}, failing.URL)
		assert.False(t, v.Validate(context.Background(), candidateOf(proxy)))
	})
}

func TestValidate_CancelledContext(t *testing.T) {
	judge, _ := judgeServer(t, http.StatusOK)
	proxy, relayed := forwardProxy(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v := newValidator([]string{judge.URL}, "")
	assert.False(t, v.Validate(ctx, candidateOf(proxy)))
	assert.Equal(t, int32(0), relayed.Load())
}
