package manager

import (
	"sync"

	"proxyharvester/proxypool/model"
	"proxyharvester/proxypool/scraper"
)

// pipelineState 是流水线的全部共享可变状态，由同一个 mu 保护。
// 任何参与 epoch 边界判断的读-改-写都必须在一次加锁内完成。
type pipelineState struct {
	mu sync.Mutex

	sourcesReady   *sync.Cond // sources 非空
	uncheckedReady *sync.Cond // unchecked 非空
	changed        *sync.Cond // 任意字段发生变化

	sources   []scraper.Source  // 待抓取的 source 队列 (FIFO)
	unchecked []model.Candidate // 待验证的候选队列 (FIFO)
	roster    []model.Candidate // 当前 epoch 发现的全部候选，只追加
	completed int               // 当前 epoch 已完成验证的数量
	pending   []model.Candidate // 当前 epoch 验证通过、尚未发布的候选
	inFlight  int               // 正在执行的抓取数量
	epochID   string

	epochsCompleted uint64
	sourceRounds    uint64
	totalHarvested  uint64
	totalValidated  uint64
	totalGood       uint64
}

func newPipelineState() *pipelineState {
	s := &pipelineState{}
	s.sourcesReady = sync.NewCond(&s.mu)
	s.uncheckedReady = sync.NewCond(&s.mu)
	s.changed = sync.NewCond(&s.mu)
	return s
}

// wakeAll 唤醒所有等待者，用于停止信号。调用方不需要持有锁。
func (s *pipelineState) wakeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sourcesReady.Broadcast()
	s.uncheckedReady.Broadcast()
	s.changed.Broadcast()
}

// idle 报告是否可以开始新一轮抓取：没有待抓取的 source、没有待验证的候选、
// roster 为空，并且没有正在进行的抓取。调用方必须持有锁。
func (s *pipelineState) idle() bool {
	return len(s.sources) == 0 && len(s.unchecked) == 0 && len(s.roster) == 0 && s.inFlight == 0
}

// epochComplete 调用方必须持有锁。
func (s *pipelineState) epochComplete() bool {
	return len(s.roster) > 0 && s.completed == len(s.roster)
}

func (s *pipelineState) popSource() scraper.Source {
	src := s.sources[0]
	s.sources[0] = nil
	s.sources = s.sources[1:]
	if len(s.sources) == 0 {
		s.sources = nil
	}
	return src
}

func (s *pipelineState) popCandidate() model.Candidate {
	c := s.unchecked[0]
	s.unchecked = s.unchecked[1:]
	if len(s.unchecked) == 0 {
		s.unchecked = nil
	}
	return c
}

// snapshot 调用方必须持有锁。
func (s *pipelineState) snapshot() model.Stats {
	return model.Stats{
		EpochID:          s.epochID,
		SourceQueue:      len(s.sources),
		UncheckedQueue:   len(s.unchecked),
		Roster:           len(s.roster),
		Completed:        s.completed,
		Pending:          len(s.pending),
		HarvestsInFlight: s.inFlight,
		EpochsCompleted:  s.epochsCompleted,
		SourceRounds:     s.sourceRounds,
		TotalHarvested:   s.totalHarvested,
		TotalValidated:   s.totalValidated,
		TotalGood:        s.totalGood,
	}
}
