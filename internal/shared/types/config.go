package types

import "time"

// LogConf contains logging specific configuration
type LogConf struct {
	Level string `ini:"level"`
}

// PipelineConf 包含采集/验证流水线的并发与调度配置
type PipelineConf struct {
	Harvesters     int           `ini:"harvesters"`      // 抓取 worker 数量 (>=1)
	Validators     int           `ini:"validators"`      // 验证 worker 数量 (>=1)
	Consumers      int           `ini:"consumers"`       // 下游消费 worker 数量 (>=0)
	ReportSchedule string        `ini:"report_schedule"` // cron 表达式, e.g. "@every 5s"
	RotateCooldown time.Duration `ini:"rotate_cooldown"` // 两次重新入队 source 的最小间隔
	DrainPoll      time.Duration `ini:"drain_poll"`      // 停止时检查 worker 退出的间隔
}

// ValidatorConf 包含代理验证相关的配置
type ValidatorConf struct {
	Judges             []string      `ini:"judges" delim:","`
	SecondCheckURL     string        `ini:"second_check_url"`
	JudgeTimeout       time.Duration `ini:"judge_timeout"`        // 直连探测 judge 的超时
	ProxyTimeout       time.Duration `ini:"proxy_timeout"`        // 通过代理请求 judge 的超时
	SecondCheckTimeout time.Duration `ini:"second_check_timeout"` // 通过代理请求二次验证地址的超时
}

// RequestConf 包含对外 HTTP 请求的通用配置
type RequestConf struct {
	Timeout        time.Duration `ini:"timeout"`
	Retries        int           `ini:"retries"`
	UserAgent      string        `ini:"user_agent"`
	AcceptLanguage string        `ini:"accept_language"`
	Referer        string        `ini:"referer"`
}

// SourcesConf 选择启用的代理源
type SourcesConf struct {
	Enabled    []string `ini:"enabled" delim:","`
	ExtraLists []string `ini:"extra_lists" delim:","` // 额外的纯文本代理列表 URL
}

// ConsumerConf 下游消费者配置
type ConsumerConf struct {
	Mode string `ini:"mode"` // "none" or "print"
}

// Config 是 harvester 的统一配置结构体
type Config struct {
	LogConf       `ini:"log"`
	PipelineConf  `ini:"pipeline"`
	ValidatorConf `ini:"validator"`
	RequestConf   `ini:"request"`
	SourcesConf   `ini:"sources"`
	ConsumerConf  `ini:"consumer"`
}
