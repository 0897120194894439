package model

import "time"

// Candidate 是一个规范化的 "ip:port" 代理地址，提取后不可变。
type Candidate string

// String returns the address.
func (c Candidate) String() string { return string(c) }

// Generation 是一次发布的结果集。每个完成的 epoch 产生一个新的 Generation，
// 整体替换上一个，而不是合并。
type Generation struct {
	Number      uint64      `json:"number"`       // 从 1 开始递增, 0 表示尚未发布
	EpochID     string      `json:"epoch_id"`     // 产生该结果的 epoch
	Proxies     []Candidate `json:"proxies"`      // 验证通过的代理
	PublishedAt time.Time   `json:"published_at"` // 发布时间
}

// Stats 是流水线状态的一份快照，仅用于观测。
type Stats struct {
	EpochID          string `json:"epoch_id"`
	SourceQueue      int    `json:"source_queue"`       // 待抓取的 source 数
	UncheckedQueue   int    `json:"unchecked_queue"`    // 待验证的候选数
	Roster           int    `json:"roster"`             // 当前 epoch 已发现的候选数
	Completed        int    `json:"completed"`          // 当前 epoch 已验证的候选数
	Pending          int    `json:"pending"`            // 当前 epoch 验证通过但尚未发布的候选数
	HarvestsInFlight int    `json:"harvests_in_flight"` // 正在执行的抓取
	Published        int    `json:"published"`          // 已发布结果集的大小
	Generation       uint64 `json:"generation"`
	EpochsCompleted  uint64 `json:"epochs_completed"`
	SourceRounds     uint64 `json:"source_rounds"` // source 整体入队的次数
	TotalHarvested   uint64 `json:"total_harvested"`
	TotalValidated   uint64 `json:"total_validated"`
	TotalGood        uint64 `json:"total_good"`
}
