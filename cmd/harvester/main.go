package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"proxyharvester/internal/app"
	"proxyharvester/internal/shared/config"
	"proxyharvester/internal/shared/logger"
	"proxyharvester/internal/shared/types"
)

var (
	configPath  string
	logLevel    string
	validators  int
	harvesters  int
	consumers   int
	secondCheck string
	noColor     bool

	cfg *types.Config
)

var rootCmd = &cobra.Command{
	Use:   "harvester",
	Short: "Continuously harvest and validate free HTTP proxies",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 1. 加载 .ini 配置和环境变量
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		// 2. 命令行参数优先
		flags := cmd.Flags()
		if flags.Changed("log-level") {
			loaded.Level = logLevel
		}
		if flags.Changed("validators") {
			loaded.Validators = validators
		}
		if flags.Changed("harvesters") {
			loaded.Harvesters = harvesters
		}
		if flags.Changed("consumers") {
			loaded.Consumers = consumers
		}
		if flags.Changed("second-check") {
			loaded.SecondCheckURL = secondCheck
		}
		cfg = loaded

		// 3. 初始化日志系统
		return logger.Init(cfg.LogConf)
	},
	RunE: runPipeline,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the harvesting pipeline until interrupted (default)",
	Args:  cobra.NoArgs,
	RunE:  runPipeline,
}

var checkCmd = &cobra.Command{
	Use:     "check [ip:port]...",
	Short:   "Validate the given proxies once against the configured judges",
	Example: "harvester check 1.2.3.4:8080 5.6.7.8:3128",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(cfg, app.Options{Out: cmd.OutOrStdout(), Colors: !noColor})
		if err != nil {
			return err
		}
		good := a.Check(cmd.Context(), args, cmd.OutOrStdout(), !noColor)
		if len(good) == 0 {
			return fmt.Errorf("none of %d proxies is usable", len(args))
		}
		return nil
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Read text from stdin and print every ip:port found, one per line",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := app.ExtractCandidates(cmd.InOrStdin(), cmd.OutOrStdout())
		return err
	},
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	a, err := app.New(cfg, app.Options{Out: cmd.OutOrStdout(), Colors: !noColor})
	if err != nil {
		return err
	}
	return a.Run(cmd.Context())
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "path to the .ini config file (defaults only when empty)")
	pf.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.IntVar(&validators, "validators", 0, "number of validation workers")
	pf.IntVar(&harvesters, "harvesters", 0, "number of harvest workers")
	pf.IntVar(&consumers, "consumers", 0, "number of downstream consumer workers")
	pf.StringVar(&secondCheck, "second-check", "", "URL every good proxy must also reach")
	pf.BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(runCmd, checkCmd, extractCmd)
}

func main() {
	rootCmd.SilenceUsage = true
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: %v\n", err)
		os.Exit(1)
	}
}
