package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"proxyharvester/proxypool/model"
)

// ResultSet 保存最近一个完整 epoch 验证通过的代理（Published Result Set）。
// 每次 Publish 整体替换内容，读取方通过 Current 无锁获取快照，
// 或通过 Wait 阻塞等待下一代结果。只存在于内存中。
type ResultSet struct {
	current atomic.Pointer[model.Generation]

	mu      sync.Mutex    // 保护 number 与 changed 的替换
	number  uint64
	changed chan struct{} // 每次 Publish 时关闭并换成新的 channel
}

// NewResultSet 创建一个空的 ResultSet，初始为第 0 代。
func NewResultSet() *ResultSet {
	rs := &ResultSet{changed: make(chan struct{})}
	rs.current.Store(&model.Generation{})
	return rs
}

// Publish 用 proxies 整体替换当前结果，返回新的一代。
// proxies 会被复制，调用方之后修改原切片不会影响已发布的内容。
func (rs *ResultSet) Publish(epochID string, proxies []model.Candidate) model.Generation {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.number++
	gen := &model.Generation{
		Number:      rs.number,
		EpochID:     epochID,
		Proxies:     append([]model.Candidate(nil), proxies...),
		PublishedAt: time.Now(),
	}
	rs.current.Store(gen)

	close(rs.changed)
	rs.changed = make(chan struct{})
	return *gen
}

// Current 返回当前一代结果的快照。此操作是无锁的。
// 返回的 Proxies 切片不能被修改。
func (rs *ResultSet) Current() model.Generation {
	return *rs.current.Load()
}

// Wait 阻塞直到出现编号大于 after 的一代结果，或 ctx 结束。
// 只返回最新的一代，中间被覆盖的代不会逐一返回。
func (rs *ResultSet) Wait(ctx context.Context, after uint64) (model.Generation, error) {
	for {
		rs.mu.Lock()
		gen := rs.current.Load()
		changed := rs.changed
		rs.mu.Unlock()

		if gen.Number > after {
			return *gen, nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return model.Generation{}, ctx.Err()
		}
	}
}
