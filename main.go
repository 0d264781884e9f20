package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/dexcache/dexcache/internal/config"
	"github.com/dexcache/dexcache/internal/fetch"
	"github.com/dexcache/dexcache/internal/logging"
	"github.com/dexcache/dexcache/internal/pokeapi"
	"github.com/dexcache/dexcache/internal/pokecache"
	"github.com/dexcache/dexcache/internal/scheduler"
	"github.com/dexcache/dexcache/internal/server"
	"github.com/dexcache/dexcache/internal/server/routes"
	"github.com/dexcache/dexcache/internal/store"
	"github.com/dexcache/dexcache/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "load config failed: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg)
	if err != nil {
		fmt.Fprintf(stdErr, "init logger failed: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["data_dir"] = cfg.DataDir
		fields["api_base_url"] = cfg.APIBaseURL
		fields["result"] = "ok"
		logger.WithFields(fields).Info("config check passed")
		return 0
	}

	// 启动顺序固定：配置 → 日志 → 两个 store 加载 → 域缓存 → 调度器 → Fiber。
	// store 加载阶段会隔离损坏文件并清理崩溃残留的临时文件。
	primary, err := store.Load(store.Config{
		Name:     "pokemon",
		Path:     filepath.Join(cfg.DataDir, "pokemon_cache.json"),
		Required: pokecache.PrimarySections(),
		Logger:   logger,
		Verbose:  cfg.VerboseCacheLog,
	})
	if err != nil {
		fmt.Fprintf(stdErr, "load primary store failed: %v\n", err)
		return 1
	}
	extra, err := store.Load(store.Config{
		Name:     "extra",
		Path:     filepath.Join(cfg.DataDir, "extra_cache.json"),
		Required: pokecache.ExtraSections(),
		Logger:   logger,
		Verbose:  cfg.VerboseCacheLog,
	})
	if err != nil {
		fmt.Fprintf(stdErr, "load extra store failed: %v\n", err)
		return 1
	}

	fetcher := fetch.NewClient(fetch.Options{
		Timeout:        cfg.FetchTimeout.DurationValue(),
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff.DurationValue(),
		Logger:         logger,
	})
	api := pokeapi.NewClient(cfg.APIBaseURL, fetcher)
	cache := pokecache.New(primary, extra, api, logger)

	if cfg.BackupSchedule != "" {
		sched := scheduler.New(logger)
		if err := sched.Schedule(cfg.BackupSchedule, "snapshot_stores", func() error {
			_, primaryErr := cache.BackupPrimary()
			_, extraErr := cache.BackupExtra()
			return errors.Join(primaryErr, extraErr)
		}); err != nil {
			fmt.Fprintf(stdErr, "schedule backups failed: %v\n", err)
			return 1
		}
		sched.Start()
		defer sched.Close()
	}

	fields := logging.BaseFields("startup", opts.configPath)
	fields["data_dir"] = cfg.DataDir
	fields["listen_port"] = cfg.ListenPort
	fields["backup_schedule"] = cfg.BackupSchedule
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("configuration loaded")

	if err := startHTTPServer(cfg, cache, logger); err != nil {
		fmt.Fprintf(stdErr, "http server failed: %v\n", err)
		return 1
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("dexcache", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
	)

	fs.StringVar(&configFlag, "config", "", "config file path (defaults to ./config.toml, DEXCACHE_CONFIG overrides)")
	fs.BoolVar(&checkOnly, "check-config", false, "validate config and exit")
	fs.BoolVar(&showVer, "version", false, "print version info")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("parse flags: %w", err)
	}

	path := os.Getenv("DEXCACHE_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = "config.toml"
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
	}, nil
}

func startHTTPServer(cfg *config.Config, cache *pokecache.Cache, logger *logrus.Logger) error {
	app, err := server.NewApp(server.AppOptions{
		Logger: logger,
		Cache:  cache,
	})
	if err != nil {
		return err
	}

	opts := routes.Options{Logger: logger, Cache: cache}
	routes.RegisterAPIRoutes(app, opts)
	routes.RegisterAdminRoutes(app, opts)

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   cfg.ListenPort,
	}).Info("fiber server listening")

	return app.Listen(fmt.Sprintf(":%d", cfg.ListenPort))
}
