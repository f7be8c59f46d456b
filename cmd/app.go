package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Devcode940/kenyawatch/internal/bus"
	"github.com/Devcode940/kenyawatch/internal/civic"
	"github.com/Devcode940/kenyawatch/internal/flows"
	"github.com/Devcode940/kenyawatch/internal/llm"
	"github.com/Devcode940/kenyawatch/internal/logging"
	"github.com/Devcode940/kenyawatch/internal/store"
)

// app holds the components most commands share.
type app struct {
	cfg    Config
	logger *zap.Logger
	store  *store.Store
	bus    bus.Bus
	model  llm.Provider
	flows  *flows.Service
}

// openApp opens the store and the bus and, when withFlows is set, builds
// the model provider and the flows service on top of them.
func openApp(ctx context.Context, cfg Config, logger *zap.Logger, withFlows bool) (*app, error) {
	st, err := store.NewStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}
	a := &app{
		cfg:    cfg,
		logger: logger,
		store:  st,
		bus:    bus.NewBus(cfg.Redis.URL, logging.Std(logger, "bus")),
	}
	if !withFlows {
		return a, nil
	}

	a.model = buildModel(ctx, cfg, logger)
	a.flows, err = flows.New(flows.Deps{
		Store:  st,
		Bus:    a.bus,
		Model:  a.model,
		Logger: logger.Named("flows"),
		Actor:  cfg.User.Name,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases the bus and the store.
func (a *app) Close() {
	if err := a.bus.Close(); err != nil {
		a.logger.Warn("close bus", zap.Error(err))
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close store", zap.Error(err))
	}
}

// buildModel loads the provider settings and builds the active provider,
// falling back to the local stub so the flows keep working offline.
func buildModel(ctx context.Context, cfg Config, logger *zap.Logger) llm.Provider {
	std := logging.Std(logger, "llm")
	settings, err := llm.LoadSettings(cfg.LLM.Settings)
	if err != nil {
		logger.Warn("LLM settings unreadable, using defaults", zap.String("path", cfg.LLM.Settings), zap.Error(err))
		settings = llm.DefaultSettings()
	}
	p, err := llm.Build(ctx, settings.Active, std)
	if err != nil || p == nil {
		logger.Warn("LLM provider build failed, falling back to local stub",
			zap.String("provider", settings.Active.Provider), zap.Error(err))
		return llm.NewLocalStub(std)
	}
	logger.Debug("LLM provider ready", zap.String("provider", p.Name()))
	return p
}

// representative resolves ref as a slug first and then as an ID.
func (a *app) representative(ctx context.Context, ref string) (civic.Representative, error) {
	ref = strings.TrimSpace(ref)
	rep, err := a.store.GetRepresentativeBySlug(ctx, ref)
	if err == nil {
		return rep, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return rep, err
	}
	rep, err = a.store.GetRepresentative(ctx, ref)
	if errors.Is(err, store.ErrNotFound) {
		return rep, fmt.Errorf("no representative with slug or id %q", ref)
	}
	return rep, err
}

// validationMessage returns the user-facing text of a validation error.
func validationMessage(err error) error {
	var verr *civic.ValidationError
	if errors.As(err, &verr) {
		return errors.New(verr.Message)
	}
	return err
}
