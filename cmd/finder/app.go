package main

import (
	"context"
	"fmt"

	"github.com/matst80/rdf-finder/pkg/client"
	"github.com/matst80/rdf-finder/pkg/config"
	"github.com/matst80/rdf-finder/pkg/messaging"
	"github.com/matst80/rdf-finder/pkg/session"
	"github.com/matst80/rdf-finder/pkg/state"
	"github.com/matst80/rdf-finder/pkg/taxonomy"
	"github.com/matst80/rdf-finder/pkg/tracking"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	backend client.Backend
	cache   *client.CachedBackend
	tracker tracking.Tracking
	rabbit  *tracking.RabbitTracking
}

// connect wires the backend client, the optional redis statistics cache and
// the optional rabbit tracking.
func (a *app) connect(ctx context.Context) error {
	c, err := client.New(a.cfg.Backend.URL,
		client.WithTimeout(a.cfg.Backend.Timeout),
		client.WithLogger(a.logger.Named("client")))
	if err != nil {
		return err
	}
	a.backend = c

	if a.cfg.Redis.URL != "" {
		rdb := client.NewRedisClient(a.cfg.Redis.URL, a.cfg.Redis.Password, a.cfg.Redis.DB)
		if err := rdb.Ping(ctx).Err(); err != nil {
			a.logger.Warn("redis unavailable, statistics cache still wired", zap.String("addr", a.cfg.Redis.URL), zap.Error(err))
		}
		a.cache = client.NewCachedBackend(c, rdb, a.cfg.Redis.TTL, a.logger.Named("cache"))
		a.backend = a.cache
	}

	a.tracker = tracking.Noop{}
	if a.cfg.Rabbit.URL != "" {
		trk, err := tracking.NewRabbitTracking(a.cfg.Rabbit.URL, a.cfg.Rabbit.Context)
		if err != nil {
			a.logger.Error("rabbit tracking disabled", zap.Error(err))
		} else {
			a.rabbit = trk
			a.tracker = trk
			if a.cache != nil {
				if err := a.listenForIndexChanges(trk.Connection()); err != nil {
					a.logger.Error("index change listener disabled", zap.Error(err))
				}
			}
		}
	}
	return nil
}

// listenForIndexChanges drops cached statistics of reindexed datasets.
func (a *app) listenForIndexChanges(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	if err := messaging.DefineTopic(ch, "global", messaging.IndexChanged); err != nil {
		ch.Close()
		return err
	}
	return messaging.ListenToTopic(ch, "global", messaging.IndexChanged, a.logger, func(d amqp.Delivery) error {
		change, err := messaging.DecodeIndexChange(d)
		if err != nil {
			return err
		}
		a.logger.Info("dataset reindexed", zap.String("dataset", change.Dataset))
		return a.cache.Invalidate(context.Background(), change.Dataset)
	})
}

func (a *app) close() {
	if a.rabbit != nil {
		if err := a.rabbit.Close(); err != nil {
			a.logger.Warn("closing rabbit connection", zap.Error(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("closing redis client", zap.Error(err))
		}
	}
}

func (a *app) taxonomyOptions() taxonomy.Options {
	return taxonomy.Options{
		RootMode:     taxonomy.RootMode(a.cfg.Taxonomy.RootMode),
		RootSentinel: a.cfg.Taxonomy.RootSentinel,
	}
}

func (a *app) newStore(hash string) (*state.Store, error) {
	return state.NewStoreFromHash(hash,
		state.WithLogger(a.logger.Named("state")),
		state.WithHistoryLimit(a.cfg.Session.HistoryLimit))
}

func (a *app) newController(sessionId string, store *state.Store) (*session.Controller, error) {
	opts := []session.Option{
		session.WithSessionId(sessionId),
		session.WithLogger(a.logger.Named("session").With(zap.String("session", sessionId))),
		session.WithTracking(a.tracker),
		session.WithTaxonomyOptions(a.taxonomyOptions()),
		session.WithProviders(a.cfg.ProviderNames()),
		session.WithRequestTimeout(a.cfg.Backend.Timeout),
	}
	if a.cfg.Session.PoolSize > 0 {
		opts = append(opts, session.WithPoolSize(a.cfg.Session.PoolSize))
	}
	ctrl, err := session.New(a.backend, store, opts...)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionId, err)
	}
	return ctrl, nil
}

// runController starts a standalone controller for one shot commands.
func (a *app) runController(ctx context.Context, hash string) (*session.Controller, *state.Store, func(), error) {
	store, err := a.newStore(hash)
	if err != nil {
		return nil, nil, nil, err
	}
	ctrl, err := a.newController("cli", store)
	if err != nil {
		return nil, nil, nil, err
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ctrl.Run(runCtx)
	}()
	return ctrl, store, func() {
		cancel()
		<-done
	}, nil
}
