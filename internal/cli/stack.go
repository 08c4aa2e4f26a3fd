package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/omnibot"
	"github.com/aretw0/omnibot/internal/config"
	"github.com/aretw0/omnibot/internal/logging"
	"github.com/aretw0/omnibot/pkg/actions"
	"github.com/aretw0/omnibot/pkg/adapters/file"
	"github.com/aretw0/omnibot/pkg/adapters/memory"
	natsAdapter "github.com/aretw0/omnibot/pkg/adapters/nats"
	"github.com/aretw0/omnibot/pkg/adapters/postgres"
	redisAdapter "github.com/aretw0/omnibot/pkg/adapters/redis"
	"github.com/aretw0/omnibot/pkg/metrics"
	"github.com/aretw0/omnibot/pkg/notify"
	"github.com/aretw0/omnibot/pkg/persistence/middleware"
	"github.com/aretw0/omnibot/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Stack is a fully wired engine together with the pieces the commands expose.
type Stack struct {
	Engine  *omnibot.Engine
	Broker  *notify.Broker
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	dispatcher *notify.Dispatcher
	closers    []func() error
}

// NewLogger builds the process logger from cfg. Logs go to w (stderr in the commands).
func NewLogger(w io.Writer, cfg config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.NewWithFormat(w, level, logging.Format(cfg.LogFormat)), nil
}

// Build wires storage, the action catalog, the ERP client and event delivery
// according to cfg. The caller must Close the stack.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (_ *Stack, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	s := &Stack{Logger: logger, Metrics: metrics.New()}
	defer func() {
		if err != nil {
			_ = s.Close()
		}
	}()

	opts := []omnibot.Option{
		omnibot.WithActiveFlow(cfg.ActiveFlow),
		omnibot.WithLogger(logger),
		omnibot.WithMaxAutoSteps(cfg.MaxAutoSteps),
		omnibot.WithLifecycleHooks(s.Metrics.Hooks()),
	}

	catalogs := layeredCatalog{}

	var store ports.ExecutionStore
	switch cfg.Store {
	case config.StoreFile:
		store = file.NewStore(cfg.StateDir)
	case config.StoreRedis:
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddr, err)
		}
		var storeOpts []redisAdapter.Option
		if cfg.RedisTTL > 0 {
			storeOpts = append(storeOpts, redisAdapter.WithTTL(cfg.RedisTTL))
		}
		rs := redisAdapter.NewFromClient(client, storeOpts...)
		s.closers = append(s.closers, rs.Close)
		store = rs
		if cfg.DistributedLock {
			opts = append(opts, omnibot.WithLocker(redisAdapter.NewLocker(client, "omnibot:")))
		}
	case config.StorePostgres:
		ps, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, ps.Close)
		store = ps
		catalogs = append(catalogs, ps)
	default:
		store = memory.NewStore()
	}

	mws, err := storeMiddleware(cfg)
	if err != nil {
		return nil, err
	}
	opts = append(opts, omnibot.WithStore(middleware.Chain(store, mws...)))

	fileCatalog, err := file.LoadCatalog(cfg.Actions)
	if err != nil {
		return nil, err
	}
	catalogs = append(catalogs, fileCatalog, memory.NewCatalog(actions.QueryActions()...))
	opts = append(opts, omnibot.WithCatalog(catalogs))

	if cfg.ERPBaseURL != "" {
		client := actions.New(actions.Config{
			BaseURL: cfg.ERPBaseURL,
			Token:   cfg.ERPToken,
			Timeout: cfg.ERPTimeout,
		}, actions.WithLogger(logger))
		opts = append(opts, omnibot.WithActionClient(client))
	} else {
		logger.Warn("no ERP base url configured; integration and write-action nodes will fail")
	}

	sinks, err := s.sinks(cfg, logger)
	if err != nil {
		return nil, err
	}
	s.dispatcher = notify.NewDispatcher(sinks,
		notify.WithLogger(logger),
		notify.WithDeliveryObserver(s.Metrics.ObserveDelivery),
	)
	s.dispatcher.Start(context.WithoutCancel(ctx))
	opts = append(opts, omnibot.WithPublisher(s.dispatcher))

	s.Engine, err = omnibot.New(cfg.FlowsPath, opts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// storeMiddleware builds the optional masking and encryption layers.
// Masking wraps encryption so masked values are still encrypted at rest.
func storeMiddleware(cfg config.Config) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.PIIMaskPatterns) > 0 {
		mw, err := middleware.NewPIIMiddleware(cfg.PIIMaskPatterns)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	if cfg.EncryptionKey != "" {
		active, err := base64.StdEncoding.DecodeString(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("invalid encryption key: %w", err)
		}
		encCfg := middleware.EncryptionConfig{ActiveKey: active}
		for i, raw := range cfg.EncryptionFallbackKeys {
			key, err := base64.StdEncoding.DecodeString(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid encryption fallback key %d: %w", i, err)
			}
			encCfg.FallbackKeys = append(encCfg.FallbackKeys, key)
		}
		mw, err := middleware.NewEncryptionMiddleware(encCfg)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return mws, nil
}

func (s *Stack) sinks(cfg config.Config, logger *slog.Logger) ([]ports.EventSink, error) {
	s.Broker = notify.NewBroker(0, logger)
	sinks := []ports.EventSink{s.Broker, notify.LogSink{Logger: logger}}

	if cfg.NATSURL != "" {
		nc, err := natsAdapter.Connect(natsAdapter.Config{URL: cfg.NATSURL, Token: cfg.NATSToken}, logger)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() error {
			return nc.Drain()
		})
		sinks = append(sinks, natsAdapter.NewSink(nc, cfg.NATSSubject))
	}
	return sinks, nil
}

// Close drains pending events, then releases connections in reverse order.
func (s *Stack) Close() error {
	var errs []error
	if s.dispatcher != nil {
		errs = append(errs, s.dispatcher.Close())
		s.dispatcher = nil
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}
