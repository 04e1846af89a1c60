// Package app wires configuration into the interception pipeline.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/ecoswap/backend/config"
	"github.com/ecoswap/backend/internal/dom"
	"github.com/ecoswap/backend/internal/domain"
	"github.com/ecoswap/backend/internal/infrastructure/cache"
	"github.com/ecoswap/backend/internal/infrastructure/classifier"
	"github.com/ecoswap/backend/internal/usecase"
)

// cacheSweep is how often expired verdicts are purged.
const cacheSweep = time.Minute

// Options are the collaborators a pipeline is built with.
type Options struct {
	Config   *config.Config
	Settings domain.SettingsProvider
	Events   domain.EventLogger
	Logger   *slog.Logger

	// Remote and Suppliers override the classifier client built from
	// Config; tests and the CLI use them to inject fakes.
	Remote    domain.Classifier
	Suppliers domain.SupplierFinder
}

// Pipeline is one page's interception stack.
type Pipeline struct {
	Engine      *usecase.RaceEngine
	Session     *usecase.Session
	Enricher    *usecase.Enricher
	Interceptor *usecase.Interceptor

	cache *cache.MemoryCache
}

// Build wires a pipeline for doc and attaches the interceptor. ctx bounds
// background work started by intercepted events.
func Build(ctx context.Context, doc *dom.Document, opts Options) *Pipeline {
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	remote, suppliers := opts.Remote, opts.Suppliers
	if remote == nil || suppliers == nil {
		if client := NewClassifierClient(cfg.Classifier, cfg.Server.IsDevelopment(), log); client != nil {
			if remote == nil {
				remote = client
			}
			if suppliers == nil {
				suppliers = client
			}
		}
	}

	memoryCache := cache.NewMemoryCache(cacheSweep)
	engine := usecase.NewRaceEngine(usecase.NewLocalClassifier(), remote, memoryCache, opts.Settings, usecase.RaceEngineConfig{
		InteractiveDeadline: cfg.Classifier.InteractiveDeadline,
		BackgroundDeadline:  cfg.Classifier.BackgroundDeadline,
		CacheTTL:            cfg.Cache.TTL,
		Logger:              log,
	})

	session := usecase.NewSession(doc, usecase.NewBypassTable(), usecase.SessionConfig{
		AutoDismiss:     cfg.Decision.AutoDismiss,
		CloseTransition: cfg.Decision.CloseTransition,
		Events:          opts.Events,
		Logger:          log,
	})

	enricher := usecase.NewEnricher(suppliers, usecase.EnricherConfig{
		Timeout:           cfg.Classifier.SupplierTimeout,
		MaxPerAlternative: cfg.Decision.MaxSuppliers,
		Events:            opts.Events,
		Logger:            log,
	})

	interceptor := usecase.NewInterceptor(usecase.InterceptorConfig{
		Engine:   engine,
		Session:  session,
		Enricher: enricher,
		Settings: opts.Settings,
		Events:   opts.Events,
		Logger:   log,
	})
	interceptor.Attach(ctx, doc)

	return &Pipeline{
		Engine:      engine,
		Session:     session,
		Enricher:    enricher,
		Interceptor: interceptor,
		cache:       memoryCache,
	}
}

// Close stops the verdict cache sweeper.
func (p *Pipeline) Close() {
	p.cache.Close()
}

// NewClassifierClient builds the remote client, or returns nil when no
// base URL is configured or it is unusable; the pipeline then runs
// local-only. debug logs request and response bodies at debug level.
func NewClassifierClient(cfg config.ClassifierConfig, debug bool, log *slog.Logger) *classifier.Client {
	if cfg.BaseURL == "" {
		log.Info("classifier base url not set, running local-only")
		return nil
	}
	client, err := classifier.NewClient(classifier.Config{
		BaseURL:           cfg.BaseURL,
		APIKey:            cfg.APIKey,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		BreakerFailures:   cfg.BreakerFailures,
		BreakerCooldown:   cfg.BreakerCooldown,
		Logger:            log,
	})
	if err != nil {
		log.Warn("classifier unavailable, running local-only", "error", err)
		return nil
	}
	client.SetDebug(debug)
	return client
}
