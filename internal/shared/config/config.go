package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"gopkg.in/ini.v1"

	"proxyharvester/internal/shared/types"
)

// DefaultJudges 是默认的代理验证 judge 列表。
var DefaultJudges = []string{
	"http://httpbin.org/get?show_env",
	"http://www.proxy-listen.de/azenv.php",
	"https://www2.htw-dresden.de/~beck/cgi-bin/env.cgi",
	"http://www.meow.org.uk/cgi-bin/env.pl",
	"http://www.wfuchs.de/azenv.php",
	"http://wfuchs.de/azenv.php",
	"https://users.ugent.be/~bfdwever/start/env.cgi",
	"http://www.suave.net/~dave/cgi/env.cgi",
	"http://www.cknuckles.com/cgi/env.cgi",
	"http://httpheader.net",
	"http://kheper.csoft.net/stuff/env.cgi",
	"http://proxyjudge.us",
	"http://www.proxyjudge.biz",
	"http://azenv.net",
	"https://www.andrews.edu/~bidwell/examples/env.cgi",
	"http://shinh.org/env.cgi",
	"http://users.on.net/~emerson/env/env.pl",
	"http://www.9ravens.com/env.cgi",
	"http://www2t.biglobe.ne.jp/~take52/test/env.cgi",
	"http://www3.wind.ne.jp/hassii/env.cgi",
	"http://xrea.fukuyan.net/env.cgi",
}

// Default 返回一份带默认值的配置，ini 文件中缺失的键保留这些值。
func Default() *types.Config {
	return &types.Config{
		LogConf: types.LogConf{Level: "info"},
		PipelineConf: types.PipelineConf{
			Harvesters:     4,
			Validators:     50,
			Consumers:      0,
			ReportSchedule: "@every 5s",
			RotateCooldown: time.Second,
			DrainPoll:      time.Second,
		},
		ValidatorConf: types.ValidatorConf{
			Judges:             append([]string(nil), DefaultJudges...),
			JudgeTimeout:       1 * time.Second,
			ProxyTimeout:       3 * time.Second,
			SecondCheckTimeout: 6 * time.Second,
		},
		RequestConf: types.RequestConf{
			Timeout:        5 * time.Second,
			Retries:        7,
			UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/104.0.0.0 Safari/537.36",
			AcceptLanguage: "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7",
			Referer:        "https://www.google.com/",
		},
		SourcesConf: types.SourcesConf{
			Enabled: []string{"freeproxylist", "sslproxies", "fatezero", "89ip", "xsdaili", "github"},
		},
		ConsumerConf: types.ConsumerConf{Mode: "none"},
	}
}

// Load 加载 ini 配置文件并应用环境变量覆盖。fileName 为空时只使用默认值。
func Load(fileName string) (*types.Config, error) {
	cfg := Default()
	if fileName != "" {
		if err := LoadIni(cfg, fileName); err != nil {
			return nil, fmt.Errorf("failed to load config file '%s': %w", fileName, err)
		}
	}
	overrideFromEnv(cfg)
	return cfg, nil
}

// LoadIni 把 ini 文件映射到 cfg 上。
func LoadIni(cfg *types.Config, fileName string) error {
	iniFile, err := ini.Load(fileName)
	if err != nil {
		return err
	}
	if err := iniFile.MapTo(cfg); err != nil {
		return err
	}
	cfg.Judges = trimAll(cfg.Judges)
	cfg.Enabled = trimAll(cfg.Enabled)
	cfg.ExtraLists = trimAll(cfg.ExtraLists)
	return nil
}

// Validate 检查配置的合法性，一次性返回所有问题。
// knownSources 为可用的代理源名称。
func Validate(cfg *types.Config, knownSources []string) error {
	var err error

	if cfg.Harvesters < 1 {
		err = multierr.Append(err, fmt.Errorf("pipeline.harvesters must be >= 1, got %d", cfg.Harvesters))
	}
	if cfg.Validators < 1 {
		err = multierr.Append(err, fmt.Errorf("pipeline.validators must be >= 1, got %d", cfg.Validators))
	}
	if cfg.Consumers < 0 {
		err = multierr.Append(err, fmt.Errorf("pipeline.consumers must be >= 0, got %d", cfg.Consumers))
	}
	if _, perr := cron.ParseStandard(cfg.ReportSchedule); perr != nil {
		err = multierr.Append(err, fmt.Errorf("pipeline.report_schedule %q: %w", cfg.ReportSchedule, perr))
	}
	if cfg.RotateCooldown < 0 {
		err = multierr.Append(err, fmt.Errorf("pipeline.rotate_cooldown must not be negative"))
	}
	if cfg.DrainPoll <= 0 {
		err = multierr.Append(err, fmt.Errorf("pipeline.drain_poll must be > 0"))
	}

	if len(cfg.Judges) == 0 {
		err = multierr.Append(err, fmt.Errorf("validator.judges must not be empty"))
	}
	for _, j := range cfg.Judges {
		if uerr := checkHTTPURL(j); uerr != nil {
			err = multierr.Append(err, fmt.Errorf("validator.judges: %w", uerr))
		}
	}
	if cfg.SecondCheckURL != "" {
		if uerr := checkHTTPURL(cfg.SecondCheckURL); uerr != nil {
			err = multierr.Append(err, fmt.Errorf("validator.second_check_url: %w", uerr))
		}
	}
	for name, d := range map[string]time.Duration{
		"validator.judge_timeout":        cfg.JudgeTimeout,
		"validator.proxy_timeout":        cfg.ProxyTimeout,
		"validator.second_check_timeout": cfg.SecondCheckTimeout,
		"request.timeout":                cfg.RequestConf.Timeout,
	} {
		if d <= 0 {
			err = multierr.Append(err, fmt.Errorf("%s must be > 0", name))
		}
	}
	if cfg.Retries < 1 {
		err = multierr.Append(err, fmt.Errorf("request.retries must be >= 1, got %d", cfg.Retries))
	}

	known := make(map[string]struct{}, len(knownSources))
	for _, k := range knownSources {
		known[k] = struct{}{}
	}
	for _, name := range cfg.Enabled {
		if _, ok := known[name]; !ok {
			err = multierr.Append(err, fmt.Errorf("sources.enabled: unknown source %q", name))
		}
	}
	for _, u := range cfg.ExtraLists {
		if uerr := checkHTTPURL(u); uerr != nil {
			err = multierr.Append(err, fmt.Errorf("sources.extra_lists: %w", uerr))
		}
	}
	if len(cfg.Enabled) == 0 && len(cfg.ExtraLists) == 0 {
		err = multierr.Append(err, fmt.Errorf("no proxy sources configured"))
	}

	switch cfg.ConsumerConf.Mode {
	case "none", "print":
	default:
		err = multierr.Append(err, fmt.Errorf("consumer.mode must be 'none' or 'print', got %q", cfg.ConsumerConf.Mode))
	}

	return err
}

func checkHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid URL %q: want absolute http(s) URL", raw)
	}
	return nil
}

func overrideFromEnv(cfg *types.Config) {
	overrideFromEnvInt(&cfg.Validators, "HARVESTER_VALIDATORS")
	overrideFromEnvInt(&cfg.Harvesters, "HARVESTER_HARVESTERS")
	overrideFromEnvInt(&cfg.Consumers, "HARVESTER_CONSUMERS")
	overrideFromEnvString(&cfg.SecondCheckURL, "HARVESTER_SECOND_CHECK_URL")
	overrideFromEnvString(&cfg.Level, "HARVESTER_LOG_LEVEL")
}

func overrideFromEnvInt(target *int, envName string) {
	envValue := os.Getenv(envName)
	if envValue != "" {
		if intValue, err := strconv.Atoi(envValue); err == nil {
			*target = intValue
		}
	}
}

func overrideFromEnvString(target *string, envName string) {
	if envValue := os.Getenv(envName); envValue != "" {
		*target = envValue
	}
}

func trimAll(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
