package manager

import (
	"context"

	"github.com/google/uuid"

	"proxyharvester/internal/shared/logger"
	"proxyharvester/proxypool/model"
	"proxyharvester/proxypool/scraper"
)

// rotateSources 在流水线完全空闲时把所有 source 重新入队一次。
// 入队后至少等待 RotateCooldown 才会再次入队，避免 source 全部无结果时空转。
func (m *Manager) rotateSources(ctx context.Context) {
	l := logger.WithComponent("ProxyPool/Manager")
	s := m.state

	for {
		s.mu.Lock()
		for ctx.Err() == nil && !s.idle() {
			s.changed.Wait()
		}
		if ctx.Err() != nil {
			s.mu.Unlock()
			return
		}
		s.sources = append(s.sources, m.opts.Sources...)
		s.sourceRounds++
		round := s.sourceRounds
		if m.onRefill != nil {
			m.onRefill(s.snapshot())
		}
		s.sourcesReady.Broadcast()
		s.changed.Broadcast()
		s.mu.Unlock()

		l.Info().Uint64("round", round).Int("sources", len(m.opts.Sources)).Msg("Sources queued for harvesting.")

		select {
		case <-ctx.Done():
			return
		case <-m.clock.After(m.opts.RotateCooldown):
		}
	}
}

// harvestLoop 取出一个 source 并执行完整的抓取流程，
// 然后在一次加锁内把结果追加到 roster 和待验证队列。
func (m *Manager) harvestLoop(ctx context.Context) {
	s := m.state
	work := context.WithoutCancel(ctx)

	for {
		s.mu.Lock()
		for ctx.Err() == nil && len(s.sources) == 0 {
			s.sourcesReady.Wait()
		}
		if ctx.Err() != nil {
			s.mu.Unlock()
			return
		}
		src := s.popSource()
		s.inFlight++
		s.changed.Broadcast()
		s.mu.Unlock()

		var found []model.Candidate
		runUnit("harvest", func() {
			found = scraper.Harvest(work, m.opts.Fetcher, src)
		})

		s.mu.Lock()
		s.inFlight--
		if len(found) > 0 {
			if len(s.roster) == 0 {
				s.epochID = uuid.NewString()
			}
			s.roster = append(s.roster, found...)
			s.unchecked = append(s.unchecked, found...)
			s.totalHarvested += uint64(len(found))
			s.uncheckedReady.Broadcast()
		}
		s.changed.Broadcast()
		s.mu.Unlock()
	}
}

// validateLoop 取出一个候选并验证。结果写入 pending 与 completed 计数
// 在同一次加锁内完成，watcher 不会看到计数增加而结果尚未写入的状态。
func (m *Manager) validateLoop(ctx context.Context) {
	l := logger.WithComponent("ProxyPool/Manager")
	s := m.state
	work := context.WithoutCancel(ctx)

	for {
		s.mu.Lock()
		for ctx.Err() == nil && len(s.unchecked) == 0 {
			s.uncheckedReady.Wait()
		}
		if ctx.Err() != nil {
			s.mu.Unlock()
			return
		}
		c := s.popCandidate()
		s.changed.Broadcast()
		s.mu.Unlock()

		good := false
		runUnit("validate", func() {
			good = m.opts.Validator.Validate(work, c)
		})

		s.mu.Lock()
		if good {
			s.pending = append(s.pending, c)
			s.totalGood++
			l.Info().Str("proxy", c.String()).Msg("GOOD PROXY")
		}
		s.completed++
		s.totalValidated++
		s.changed.Broadcast()
		s.mu.Unlock()
	}
}

// watchEpochs 等待当前 epoch 的全部候选验证完毕，然后发布结果并开始新的 epoch。
// 这是 Published Result Set 唯一被修改的地方。
func (m *Manager) watchEpochs(ctx context.Context) {
	l := logger.WithComponent("ProxyPool/Manager")
	s := m.state

	for {
		s.mu.Lock()
		for ctx.Err() == nil && !s.epochComplete() {
			s.changed.Wait()
		}
		if ctx.Err() != nil {
			s.mu.Unlock()
			return
		}
		epochID := s.epochID
		roster := len(s.roster)
		gen := m.results.Publish(epochID, s.pending)

		s.pending = nil
		s.roster = nil
		s.completed = 0
		s.epochID = ""
		s.epochsCompleted++
		s.changed.Broadcast()
		s.mu.Unlock()

		l.Info().
			Str("epoch", epochID).
			Int("roster", roster).
			Int("good", len(gen.Proxies)).
			Uint64("generation", gen.Number).
			Msg("Epoch completed, result set published.")
	}
}

// consumeLoop 每出现新的一代结果就交给下游消费者处理一次。
func (m *Manager) consumeLoop(ctx context.Context) {
	work := context.WithoutCancel(ctx)
	var last uint64
	for {
		gen, err := m.results.Wait(ctx, last)
		if err != nil {
			return
		}
		last = gen.Number
		runUnit("consume", func() {
			m.consumer.Consume(work, gen)
		})
	}
}
