package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rshade/promptbatch/internal/config"
	"github.com/rshade/promptbatch/internal/engine"
	"github.com/rshade/promptbatch/internal/engine/checkpoint"
	"github.com/rshade/promptbatch/internal/gateway"
	"github.com/rshade/promptbatch/internal/logging"
	"github.com/rshade/promptbatch/internal/pricing"
	"github.com/rshade/promptbatch/internal/tokens"
)

// runtime is the set of collaborators a command needs, built from config.
type runtime struct {
	cfg       *config.Config
	creds     *config.Credentials
	gateway   *gateway.HTTPGateway
	prices    *pricing.Registry
	executor  *engine.Executor
	estimator *engine.Estimator
	store     checkpoint.Store
}

// runtimeParts selects what newRuntime builds. The store needs a backend
// connection that estimate does not.
type runtimeParts struct {
	store bool
}

// newRuntime loads credentials and pricing and wires the executor. Callers
// must call close.
func newRuntime(ctx context.Context, cfg *config.Config, parts runtimeParts) (*runtime, error) {
	log := logging.FromContext(ctx)

	envFiles := []string{".env"}
	if dir, err := config.GetConfigDir(); err == nil {
		envFiles = append(envFiles, filepath.Join(dir, ".env"))
	}
	creds, err := config.LoadCredentials(cfg.KeyEnvVars(), envFiles...)
	if err != nil {
		return nil, err
	}
	log.Debug().Ctx(ctx).Strs("providers", creds.Providers()).Msg("credentials loaded")

	var source pricing.Source = pricing.DefaultSource{}
	if cfg.Pricing.File != "" {
		source = pricing.FileSource{Path: cfg.Pricing.File, Merge: cfg.Pricing.Merge}
	}
	prices := pricing.NewRegistry(source)
	if err = prices.Load(ctx); err != nil {
		return nil, fmt.Errorf("loading pricing: %w", err)
	}

	opts := make([]gateway.HTTPOption, 0, len(cfg.Providers))
	for name, ep := range cfg.Endpoints() {
		opts = append(opts, gateway.WithEndpoint(name, ep))
	}
	gw := gateway.NewHTTPGateway(creds, opts...)

	rt := &runtime{
		cfg:     cfg,
		creds:   creds,
		gateway: gw,
		prices:  prices,
		executor: engine.NewExecutor(gw, creds, prices,
			engine.WithSettings(cfg.Settings()),
			engine.WithDefaultModel(cfg.Engine.DefaultModel),
			engine.WithRowTimeout(cfg.Engine.RowTimeout),
		),
		estimator: engine.NewEstimator(tokens.NewCounter(gw), prices, cfg.Engine.DefaultModel),
	}

	if parts.store {
		if rt.store, err = openStore(ctx, cfg); err != nil {
			return nil, err
		}
	}
	return rt, nil
}

// openStore opens the configured checkpoint backend.
func openStore(ctx context.Context, cfg *config.Config) (checkpoint.Store, error) {
	opts, err := cfg.CheckpointOptions()
	if err != nil {
		return nil, err
	}
	store, err := checkpoint.Open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("opening %s checkpoint store: %w", opts.Backend, err)
	}
	return store, nil
}

func (rt *runtime) close() {
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing checkpoint store")
		}
	}
}
