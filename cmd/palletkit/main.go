// Command palletkit runs the pallet completion service: signed QR scan
// pages, the completion log, and the load-list API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/warenwerk/palletkit/completion"
	"github.com/warenwerk/palletkit/config"
	"github.com/warenwerk/palletkit/feed"
	"github.com/warenwerk/palletkit/loadlist"
	"github.com/warenwerk/palletkit/logging"
	"github.com/warenwerk/palletkit/ratelimit"
	"github.com/warenwerk/palletkit/shutdown"
	"github.com/warenwerk/palletkit/signature"
	"github.com/warenwerk/palletkit/taskapi"
	"github.com/warenwerk/palletkit/telemetry"
	"github.com/warenwerk/palletkit/web"
	"github.com/warenwerk/palletkit/workflow"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: standard locations)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "palletkit: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	var cfg *config.Config
	var path string
	var err error
	if configPath != "" {
		path = configPath
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New()
	logger.SetLevel(logging.ParseLevel(cfg.Logging.Level))
	logger.Info("starting", map[string]interface{}{"config": path})

	coord := shutdown.NewCoordinator(shutdown.Config{
		Timeout:         30 * time.Second,
		ContinueOnError: true,
		OnDone: func(name string, phase int, d time.Duration, err error) {
			fields := map[string]interface{}{"component": name, "duration": d.Round(time.Millisecond)}
			if err != nil {
				fields["err"] = err
				logger.Warn("component shutdown failed", fields)
				return
			}
			logger.Info("component stopped", fields)
		},
	})

	if cfg.Telemetry.Enabled {
		provider, err := telemetry.InitProvider(context.Background(), telemetry.ProviderConfig{
			ServiceName: "palletkit",
			Endpoint:    cfg.Telemetry.Endpoint,
			Protocol:    cfg.Telemetry.Protocol,
			Insecure:    cfg.Telemetry.Insecure,
		})
		if err != nil {
			return fmt.Errorf("init telemetry: %w", err)
		}
		telemetry.SetGlobalTracer(provider.Tracer())
		coord.RegisterFunc("telemetry", shutdown.PhaseTelemetry, provider.Shutdown)
	}

	signer, err := signature.NewSigner(cfg.Signing.Secret)
	if err != nil {
		return fmt.Errorf("init signer: %w", err)
	}

	// One NATS connection serves both the completion log and the feed
	// when either is configured for it.
	var natsConn *nats.Conn
	connect := func(url string) (*nats.Conn, error) {
		if natsConn != nil {
			return natsConn, nil
		}
		if url == "" {
			url = nats.DefaultURL
		}
		conn, err := nats.Connect(url, nats.Name("palletkit"))
		if err != nil {
			return nil, err
		}
		natsConn = conn
		return conn, nil
	}

	store, err := buildCompletionStore(cfg, connect)
	if err != nil {
		return fmt.Errorf("init completion store: %w", err)
	}
	coord.RegisterFunc("completion-store", shutdown.PhaseStores, func(ctx context.Context) error {
		return store.Close()
	})

	eventFeed, err := buildFeed(cfg, connect)
	if err != nil {
		return fmt.Errorf("init feed: %w", err)
	}
	coord.RegisterFunc("feed", shutdown.PhaseFeed, func(ctx context.Context) error {
		return eventFeed.Close()
	})

	if natsConn != nil {
		conn := natsConn
		coord.RegisterFunc("nats", shutdown.PhaseStores, func(ctx context.Context) error {
			conn.Close()
			return nil
		})
	}

	gateway, err := buildGateway(cfg)
	if err != nil {
		return fmt.Errorf("init task gateway: %w", err)
	}

	index, err := loadlist.NewIndex(cfg.Search.IndexPath)
	if err != nil {
		return fmt.Errorf("init search index: %w", err)
	}
	snapshots := loadlist.NewStore(index)
	coord.RegisterFunc("snapshots", shutdown.PhaseStores, func(ctx context.Context) error {
		return snapshots.Close()
	})

	limiter, err := ratelimit.NewMemoryLimiter(ratelimit.Config{
		Capacity: cfg.RateLimit.Capacity,
		Window:   cfg.RateLimit.Window.Duration,
		IdleTTL:  10 * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("init rate limiter: %w", err)
	}

	engine := workflow.NewEngine(signer, store, gateway, eventFeed, logger)

	server, err := web.NewServer(web.Config{
		Listen:    cfg.Server.Listen,
		BaseURL:   cfg.Server.BaseURL,
		AuthUsers: cfg.Auth.Users,
	}, web.Deps{
		Engine:    engine,
		Signer:    signer,
		Gateway:   gateway,
		Snapshots: snapshots,
		Limiter:   limiter,
		Feed:      eventFeed,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}
	coord.Register("http-server", shutdown.PhaseServer, server)

	coord.HandleSignals()

	if err := server.Start(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	<-coord.Done()
	if err := coord.Err(); err != nil {
		logger.Warn("shutdown finished with errors", map[string]interface{}{"err": err})
	}
	logger.Info("stopped", nil)
	return nil
}

func buildCompletionStore(cfg *config.Config, connect func(url string) (*nats.Conn, error)) (completion.Store, error) {
	switch cfg.Completion.Backend {
	case "file":
		return completion.NewFileStore(cfg.Completion.Path)
	case "nats":
		conn, err := connect(cfg.Completion.NATSURL)
		if err != nil {
			return nil, err
		}
		storeCfg := completion.DefaultNATSStoreConfig()
		storeCfg.Conn = conn
		if cfg.Completion.Bucket != "" {
			storeCfg.Bucket = cfg.Completion.Bucket
		}
		return completion.NewNATSStore(storeCfg)
	case "memory":
		return completion.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown completion backend %q", cfg.Completion.Backend)
	}
}

func buildFeed(cfg *config.Config, connect func(url string) (*nats.Conn, error)) (feed.Feed, error) {
	switch cfg.Feed.Backend {
	case "nats":
		conn, err := connect(cfg.Feed.NATSURL)
		if err != nil {
			return nil, err
		}
		feedCfg := feed.DefaultNATSConfig()
		feedCfg.Conn = conn
		if cfg.Feed.Subject != "" {
			feedCfg.Subject = cfg.Feed.Subject
		}
		return feed.NewNATSFeed(feedCfg)
	default:
		return feed.NewMemoryFeed(feed.DefaultConfig()), nil
	}
}

func buildGateway(cfg *config.Config) (taskapi.Gateway, error) {
	client, err := taskapi.NewClient(taskapi.Config{
		BaseURL:   cfg.TaskAPI.BaseURL,
		Token:     cfg.TaskAPI.Token,
		ProjectID: cfg.TaskAPI.ProjectID,
		Timeout:   cfg.TaskAPI.Timeout.Duration,
	}, taskapi.NewLabelCache())
	if err != nil {
		return nil, err
	}
	return taskapi.WithTracing(client), nil
}
