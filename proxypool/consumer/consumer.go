package consumer

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/logrusorgru/aurora"

	"proxyharvester/internal/shared/logger"
	"proxyharvester/proxypool/model"
)

// Consumer 是下游消费者的扩展点。每当 Published Result Set 产生新的一代，
// 消费 worker 都会调用一次 Consume。多个 worker 可能并发调用同一个 Consumer。
type Consumer interface {
	Consume(ctx context.Context, gen model.Generation)
}

// Noop 什么也不做，是默认的消费者。
type Noop struct{}

func (Noop) Consume(context.Context, model.Generation) {}

// Printer 把每一代结果打印为 [LIVE] 行，并把上一代中已消失的代理打印为 [DIED] 行。
type Printer struct {
	w  io.Writer
	au aurora.Aurora

	mu       sync.Mutex
	lastSeen uint64
	previous map[model.Candidate]struct{}
}

// NewPrinter 创建一个 Printer。colors 为 false 时输出纯文本。
func NewPrinter(w io.Writer, colors bool) *Printer {
	return &Printer{
		w:        w,
		au:       aurora.NewAurora(colors),
		previous: make(map[model.Candidate]struct{}),
	}
}

func (p *Printer) Consume(_ context.Context, gen model.Generation) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// 并发的 worker 可能拿到同一代或更旧的一代
	if gen.Number <= p.lastSeen {
		return
	}
	p.lastSeen = gen.Number

	current := make(map[model.Candidate]struct{}, len(gen.Proxies))
	for _, c := range gen.Proxies {
		current[c] = struct{}{}
		fmt.Fprintf(p.w, "[%s] %s\n", p.au.Green("LIVE"), c)
	}
	for c := range p.previous {
		if _, ok := current[c]; !ok {
			fmt.Fprintf(p.w, "[%s] %s\n", p.au.Red("DIED"), c)
		}
	}
	p.previous = current

	l := logger.WithComponent("ProxyPool/Consumer")
	l.Info().Uint64("generation", gen.Number).Str("epoch", gen.EpochID).Int("live", len(gen.Proxies)).Msg("Printed published proxies.")
}
