package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/logrusorgru/aurora"
	"github.com/sourcegraph/conc/pool"

	"proxyharvester/internal/shared/config"
	"proxyharvester/internal/shared/logger"
	"proxyharvester/internal/shared/request"
	"proxyharvester/internal/shared/types"
	manager "proxyharvester/proxypool"
	"proxyharvester/proxypool/consumer"
	"proxyharvester/proxypool/model"
	"proxyharvester/proxypool/scraper"
	"proxyharvester/proxypool/validator"
)

// App 把配置装配成一条完整的采集/验证流水线。
type App struct {
	cfg       *types.Config
	client    *request.Client
	validator *validator.Validator
	manager   *manager.Manager
}

// Options 控制 App 的输出位置。
type Options struct {
	Out    io.Writer // print 模式和 check 的输出, 默认 os.Stdout
	Colors bool
}

// New 校验配置并创建所有组件。配置错误在任何 worker 启动之前返回。
func New(cfg *types.Config, opts Options) (*App, error) {
	if err := config.Validate(cfg, scraper.Known()); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	sources, err := scraper.Select(cfg.Enabled, cfg.ExtraLists, cfg.RequestConf)
	if err != nil {
		return nil, err
	}

	client := request.New(cfg.RequestConf)
	v := validator.New(cfg.ValidatorConf, client)

	var cons consumer.Consumer = consumer.Noop{}
	if cfg.Mode == "print" {
		cons = consumer.NewPrinter(opts.Out, opts.Colors)
	}

	m, err := manager.New(manager.Options{
		Sources:        sources,
		Fetcher:        client,
		Validator:      v,
		Consumer:       cons,
		Harvesters:     cfg.Harvesters,
		Validators:     cfg.Validators,
		Consumers:      cfg.Consumers,
		ReportSchedule: cfg.ReportSchedule,
		RotateCooldown: cfg.RotateCooldown,
		DrainPoll:      cfg.DrainPoll,
	})
	if err != nil {
		return nil, err
	}

	return &App{cfg: cfg, client: client, validator: v, manager: m}, nil
}

// Manager 返回底层的流水线管理器。
func (a *App) Manager() *manager.Manager {
	return a.manager
}

// Run 运行流水线直到 ctx 结束或收到 SIGINT/SIGTERM，中断信号走与 Stop 相同的停止流程。
func (a *App) Run(ctx context.Context) error {
	l := logger.WithComponent("App")
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	l.Info().
		Strs("sources", a.cfg.Enabled).
		Int("judges", len(a.cfg.Judges)).
		Str("second_check", a.cfg.SecondCheckURL).
		Msg("Starting proxy harvester...")
	return a.manager.Run(ctx)
}

// Stop 请求流水线停止。
func (a *App) Stop() {
	a.manager.Stop()
}

// Check 对给定地址各做一次验证并输出 LIVE/DIED，返回可用的地址。
// 无法解析为 ip:port 的参数会被跳过。
func (a *App) Check(ctx context.Context, addrs []string, out io.Writer, colors bool) []model.Candidate {
	l := logger.WithComponent("App")
	au := aurora.NewAurora(colors)

	var candidates []model.Candidate
	for _, addr := range addrs {
		c, ok := scraper.Extract(addr)
		if !ok {
			l.Warn().Str("input", addr).Msg("Not a valid ip:port, skipping.")
			continue
		}
		candidates = append(candidates, c)
	}

	live := make([]bool, len(candidates))
	p := pool.New().WithMaxGoroutines(a.cfg.Validators)
	for i, c := range candidates {
		p.Go(func() {
			live[i] = a.validator.Validate(ctx, c)
		})
	}
	p.Wait()

	var good []model.Candidate
	for i, c := range candidates {
		if live[i] {
			good = append(good, c)
			fmt.Fprintf(out, "[%s] %s\n", au.Green("LIVE"), c)
		} else {
			fmt.Fprintf(out, "[%s] %s\n", au.Red("DIED"), c)
		}
	}
	return good
}

// ExtractCandidates 从 r 中逐行提取 ip:port 写到 w，按首次出现的顺序去重，返回数量。
func ExtractCandidates(r io.Reader, w io.Writer) (int, error) {
	seen := make(map[model.Candidate]struct{})
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		c, ok := scraper.Extract(scanner.Text())
		if !ok {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		if _, err := fmt.Fprintln(w, c); err != nil {
			return len(seen), err
		}
	}
	if err := scanner.Err(); err != nil {
		return len(seen), fmt.Errorf("failed to read input: %w", err)
	}
	return len(seen), nil
}
