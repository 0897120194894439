package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/robfig/cron/v3"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/multierr"

	"proxyharvester/internal/shared/logger"
	"proxyharvester/proxypool/consumer"
	"proxyharvester/proxypool/model"
	"proxyharvester/proxypool/scraper"
	"proxyharvester/proxypool/storage"
)

const (
	defaultReportSchedule = "@every 5s"
	defaultDrainPoll      = time.Second
)

// Validator 判断一个候选代理是否可用。*validator.Validator 实现了该接口。
type Validator interface {
	Validate(ctx context.Context, c model.Candidate) bool
}

// Options 描述一个 Manager 需要的协作者和并发配置。
type Options struct {
	Sources   []scraper.Source
	Fetcher   scraper.Fetcher
	Validator Validator
	Results   *storage.ResultSet // 为 nil 时创建一个新的
	Consumer  consumer.Consumer  // 为 nil 时使用 consumer.Noop

	Harvesters     int
	Validators     int
	Consumers      int
	ReportSchedule string        // cron 表达式, 默认 "@every 5s"
	RotateCooldown time.Duration // 两次 source 入队之间的最小间隔
	DrainPoll      time.Duration // 停止时检查 worker 退出的间隔, 默认 1s

	Clock clock.Clock // 为 nil 时使用真实时钟
}

// Manager 是采集/验证流水线的总控制器。它持有全部共享状态，
// 启动并停止所有 worker 池。
type Manager struct {
	opts     Options
	schedule cron.Schedule
	clock    clock.Clock
	results  *storage.ResultSet
	consumer consumer.Consumer

	state *pipelineState

	running     atomic.Bool
	outstanding atomic.Int32
	stopOnce    sync.Once
	stopCh      chan struct{}

	// onRefill 在每次 source 入队时（持有锁）被调用，测试用。
	onRefill func(model.Stats)
}

// New 校验 opts 并创建 Manager。配置错误在任何 worker 启动之前返回。
func New(opts Options) (*Manager, error) {
	var err error
	if len(opts.Sources) == 0 {
		err = multierr.Append(err, errors.New("at least one source is required"))
	}
	if opts.Fetcher == nil {
		err = multierr.Append(err, errors.New("fetcher is required"))
	}
	if opts.Validator == nil {
		err = multierr.Append(err, errors.New("validator is required"))
	}
	if opts.Harvesters < 1 {
		err = multierr.Append(err, fmt.Errorf("harvesters must be >= 1, got %d", opts.Harvesters))
	}
	if opts.Validators < 1 {
		err = multierr.Append(err, fmt.Errorf("validators must be >= 1, got %d", opts.Validators))
	}
	if opts.Consumers < 0 {
		err = multierr.Append(err, fmt.Errorf("consumers must be >= 0, got %d", opts.Consumers))
	}
	if opts.RotateCooldown < 0 {
		err = multierr.Append(err, fmt.Errorf("rotate cooldown must not be negative, got %s", opts.RotateCooldown))
	}
	if opts.ReportSchedule == "" {
		opts.ReportSchedule = defaultReportSchedule
	}
	schedule, perr := cron.ParseStandard(opts.ReportSchedule)
	if perr != nil {
		err = multierr.Append(err, fmt.Errorf("invalid report schedule %q: %w", opts.ReportSchedule, perr))
	}
	if err != nil {
		return nil, err
	}

	if opts.DrainPoll <= 0 {
		opts.DrainPoll = defaultDrainPoll
	}
	m := &Manager{
		opts:     opts,
		schedule: schedule,
		clock:    opts.Clock,
		results:  opts.Results,
		consumer: opts.Consumer,
		state:    newPipelineState(),
		stopCh:   make(chan struct{}),
	}
	if m.clock == nil {
		m.clock = clock.New()
	}
	if m.results == nil {
		m.results = storage.NewResultSet()
	}
	if m.consumer == nil {
		m.consumer = consumer.Noop{}
	}
	return m, nil
}

// Results 返回 Published Result Set。
func (m *Manager) Results() *storage.ResultSet {
	return m.results
}

// Stats 返回流水线状态的一份一致快照。
func (m *Manager) Stats() model.Stats {
	m.state.mu.Lock()
	stats := m.state.snapshot()
	m.state.mu.Unlock()

	gen := m.results.Current()
	stats.Generation = gen.Number
	stats.Published = len(gen.Proxies)
	return stats
}

// Stop 通知所有 worker 在完成当前工作单元后退出。可以重复调用。
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// Run 启动所有 worker 池并阻塞，直到 ctx 结束或 Stop 被调用，
// 然后等待每个 worker 完成当前工作单元，最后输出报告和运行总结。
func (m *Manager) Run(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return errors.New("manager can only be run once")
	}
	l := logger.WithComponent("ProxyPool/Manager")

	startedAt := m.clock.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-m.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	// 停止信号需要唤醒所有在条件变量上等待的 worker
	unregister := context.AfterFunc(ctx, m.state.wakeAll)
	defer unregister()

	l.Info().
		Int("sources", len(m.opts.Sources)).
		Int("harvesters", m.opts.Harvesters).
		Int("validators", m.opts.Validators).
		Int("consumers", m.opts.Consumers).
		Msg("Manager starting...")

	var wg conc.WaitGroup
	m.spawn(&wg, ctx, m.rotateSources)
	for i := 0; i < m.opts.Harvesters; i++ {
		m.spawn(&wg, ctx, m.harvestLoop)
	}
	for i := 0; i < m.opts.Validators; i++ {
		m.spawn(&wg, ctx, m.validateLoop)
	}
	m.spawn(&wg, ctx, m.watchEpochs)
	m.spawn(&wg, ctx, m.reportLoop)
	for i := 0; i < m.opts.Consumers; i++ {
		m.spawn(&wg, ctx, m.consumeLoop)
	}

	done := make(chan *panics.Recovered, 1)
	go func() { done <- wg.WaitAndRecover() }()

	var recovered *panics.Recovered
	select {
	case <-ctx.Done():
		l.Info().Msg("Stop signal received. Waiting for workers to finish their current work...")
		recovered = m.drain(done)
	case recovered = <-done:
	}

	if recovered != nil {
		l.Error().Str("panic", recovered.String()).Msg("A worker loop panicked.")
	}
	m.report()
	runTime := m.clock.Since(startedAt)
	l.Info().
		Time("start_time", startedAt).
		Dur("run_time", runTime).
		Str("run_time_human", runTime.Round(time.Millisecond).String()).
		Msg("Finish.")

	if recovered != nil {
		return recovered.AsError()
	}
	return nil
}

// spawn 以 worker 身份启动 fn，并维护未退出的 worker 计数。
func (m *Manager) spawn(wg *conc.WaitGroup, ctx context.Context, fn func(context.Context)) {
	m.outstanding.Add(1)
	wg.Go(func() {
		defer m.outstanding.Add(-1)
		fn(ctx)
	})
}

// drain 轮询等待所有 worker 退出，每次轮询输出剩余数量。
func (m *Manager) drain(done <-chan *panics.Recovered) *panics.Recovered {
	l := logger.WithComponent("ProxyPool/Manager")
	ticker := m.clock.Ticker(m.opts.DrainPoll)
	defer ticker.Stop()

	for {
		select {
		case r := <-done:
			l.Info().Msg("All workers stopped.")
			return r
		case <-ticker.C:
			l.Info().Int32("outstanding", m.outstanding.Load()).Msg("Stopping workers. Wait...")
		}
	}
}

// runUnit 执行一个工作单元。单元内的 panic 被记录下来，不会终止 worker 循环。
func runUnit(kind string, fn func()) {
	var pc panics.Catcher
	pc.Try(fn)
	if r := pc.Recovered(); r != nil {
		l := logger.WithComponent("ProxyPool/Manager")
		l.Error().Str("unit", kind).Str("panic", r.String()).Msg("Recovered from panic in unit of work.")
	}
}
