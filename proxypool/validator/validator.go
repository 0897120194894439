package validator

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"proxyharvester/internal/shared/logger"
	"proxyharvester/internal/shared/request"
	"proxyharvester/internal/shared/types"
	"proxyharvester/proxypool/model"
)

// Validator 判断一个候选地址能否作为 HTTP 代理使用。
// 它没有内部状态，可以被任意数量的 worker 并发调用。
type Validator struct {
	cfg    types.ValidatorConf
	client *request.Client
}

// New 创建一个新的 Validator 实例。
func New(cfg types.ValidatorConf, client *request.Client) *Validator {
	return &Validator{cfg: cfg, client: client}
}

// ReachableJudges 直连（不经过代理）探测所有 judge，返回当前可达的 judge，
// 保持配置中的顺序。每次调用都重新探测，不做缓存。
func (v *Validator) ReachableJudges(ctx context.Context) []string {
	ok := make([]bool, len(v.cfg.Judges))

	var g errgroup.Group
	for i, judge := range v.cfg.Judges {
		g.Go(func() error {
			ok[i] = v.client.Probe(ctx, judge, v.cfg.JudgeTimeout)
			return nil
		})
	}
	_ = g.Wait()

	reachable := make([]string, 0, len(ok))
	for i, judge := range v.cfg.Judges {
		if ok[i] {
			reachable = append(reachable, judge)
		}
	}
	return reachable
}

// Validate 依次通过候选代理请求每个可达的 judge，第一个成功即返回。
// 配置了 SecondCheckURL 时，还要求通过该代理访问它也成功。
// 任何网络错误都只会让当前 judge 失败，不会向外传播。
func (v *Validator) Validate(ctx context.Context, c model.Candidate) bool {
	l := logger.WithComponent("ProxyPool/Validator")
	start := time.Now()

	judges := v.ReachableJudges(ctx)
	if len(judges) == 0 {
		l.Debug().Str("proxy", c.String()).Msg("No judge reachable, candidate counts as not valid.")
		return false
	}

	proxied := v.client.Via(c.String())
	defer proxied.Close()

	for _, judge := range judges {
		if ctx.Err() != nil {
			return false
		}
		if !proxied.Probe(ctx, judge, v.cfg.ProxyTimeout) {
			l.Debug().Str("proxy", c.String()).Str("judge", judge).Msg("Proxied judge request failed.")
			continue
		}
		if v.cfg.SecondCheckURL == "" {
			l.Debug().Str("proxy", c.String()).Str("judge", judge).Dur("latency", time.Since(start)).Msg("Candidate passed.")
			return true
		}
		if proxied.Probe(ctx, v.cfg.SecondCheckURL, v.cfg.SecondCheckTimeout) {
			l.Debug().Str("proxy", c.String()).Str("judge", judge).Dur("latency", time.Since(start)).Msg("Candidate passed second check.")
			return true
		}
		l.Debug().Str("proxy", c.String()).Str("target", v.cfg.SecondCheckURL).Msg("Second check failed.")
	}
	return false
}
