package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/go-redis/redis/v8"
	"github.com/nats-io/nats.go"

	"github.com/alfredjeanlab/synclog/internal/archive"
	"github.com/alfredjeanlab/synclog/internal/catalog"
	"github.com/alfredjeanlab/synclog/internal/config"
	"github.com/alfredjeanlab/synclog/internal/events"
	"github.com/alfredjeanlab/synclog/internal/hooks"
	"github.com/alfredjeanlab/synclog/internal/presence"
	"github.com/alfredjeanlab/synclog/internal/session"
	"github.com/alfredjeanlab/synclog/internal/store"
	"github.com/alfredjeanlab/synclog/internal/store/postgres"
	"github.com/alfredjeanlab/synclog/internal/transport"
)

// daemon owns every long-lived component of "synclog serve".
type daemon struct {
	transport transport.Transport
	redis     *catalog.Redis
	store     store.Store
	publisher events.Publisher
	archiver  *archive.Archiver
	ctrl      *session.Controller
}

// newDaemon builds the components described by cfg. On error, whatever was
// already opened is closed.
func newDaemon(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *daemon, err error) {
	d := &daemon{}
	defer func() {
		if err != nil {
			d.close(context.Background())
		}
	}()

	if cfg.NATSURL != "" {
		t, err := transport.NewNATS(cfg.NATSURL,
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				if err != nil {
					logger.Warn("transport disconnected", "err", err)
				}
			}),
			nats.ReconnectHandler(func(nc *nats.Conn) {
				logger.Info("transport reconnected", "url", nc.ConnectedUrl())
			}),
		)
		if err != nil {
			return nil, err
		}
		d.transport = t
		logger.Info("transport: nats", "url", cfg.NATSURL, "prefix", cfg.SubjectPrefix)
	} else {
		d.transport = transport.NewMemory()
		logger.Info("transport: in-process (SYNCLOG_NATS_URL not set)")
	}

	chain := catalog.Chain{catalog.Static(cfg.Types)}
	if cfg.RedisAddr != "" {
		d.redis = catalog.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), cfg.RedisCatalogKey)
		chain = append(chain, d.redis)
		logger.Info("type catalog: redis", "addr", cfg.RedisAddr, "key", cfg.RedisCatalogKey)
	}

	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		d.store = pg
		logger.Info("session index: postgres")
	} else {
		d.store = store.NewMemory()
		logger.Info("session index: in-memory (SYNCLOG_DATABASE_URL not set)")
	}

	if cfg.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			return nil, err
		}
		d.publisher = pub
		logger.Info("events enabled", "nats_url", cfg.NATSURL)
	} else {
		d.publisher = &events.NoopPublisher{}
		logger.Info("events disabled (SYNCLOG_NATS_URL not set)")
	}
	if cfg.HookCommand != "" {
		d.publisher = hooks.NewPublisher(d.publisher, cfg.HookCommand, cfg.HookTimeout, logger)
		logger.Info("post-session hook enabled", "timeout", cfg.HookTimeout)
	}

	d.archiver, err = newArchiver(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if d.archiver.Enabled() {
		d.archiver.Start()
	}

	outDir, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("output dir: %w", err)
	}

	d.ctrl, err = session.NewController(session.Config{
		StreamList:    cfg.StreamList,
		Catalog:       chain,
		Transport:     d.transport,
		SubjectPrefix: cfg.SubjectPrefix,
		Sinks:         session.FileSinks(outDir),
		Publisher:     d.publisher,
		Store:         d.store,
		Archiver:      d.archiver,
		Presence:      presence.New(),
		StaleAfter:    cfg.StaleAfter,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// newArchiver returns an archiver for the configured destinations. With no
// destinations it returns a disabled archiver.
func newArchiver(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*archive.Archiver, error) {
	compression, err := archive.ParseCompression(cfg.ArchiveCompression)
	if err != nil {
		return nil, fmt.Errorf("SYNCLOG_ARCHIVE_COMPRESSION: %w", err)
	}

	var dests []archive.Destination
	if cfg.ArchiveS3Bucket != "" {
		s3Dest, err := archive.NewS3Destination(ctx,
			cfg.ArchiveS3Bucket,
			cfg.ArchiveS3Prefix,
			cfg.ArchiveS3Region,
			cfg.ArchiveS3Endpoint,
		)
		if err != nil {
			logger.Error("failed to create S3 archive destination", "err", err)
		} else {
			dests = append(dests, s3Dest)
			logger.Info("archive S3 destination enabled", "bucket", cfg.ArchiveS3Bucket, "prefix", cfg.ArchiveS3Prefix)
		}
	}
	if cfg.ArchiveGitRepo != "" {
		dests = append(dests, archive.NewGitDestination(cfg.ArchiveGitRepo, cfg.ArchiveGitDir, cfg.ArchiveGitBranch))
		logger.Info("archive git destination enabled", "repo", cfg.ArchiveGitRepo, "dir", cfg.ArchiveGitDir)
	}

	return archive.New(dests, compression, 0, logger), nil
}

// close stops the session first so its sink can still be archived, then
// drains the archiver and releases the connections.
func (d *daemon) close(ctx context.Context) error {
	var errs []error
	if d.ctrl != nil {
		if err := d.ctrl.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stopping session: %w", err))
		}
	}
	if d.archiver != nil {
		d.archiver.Stop()
	}
	if d.publisher != nil {
		if err := d.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing publisher: %w", err))
		}
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing store: %w", err))
		}
	}
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing redis: %w", err))
		}
	}
	if d.transport != nil {
		if err := d.transport.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing transport: %w", err))
		}
	}
	return errors.Join(errs...)
}
