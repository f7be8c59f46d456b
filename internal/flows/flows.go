// Package flows implements the AI-backed and user-submitted operations
// that write civic records: fact checks, integrity summaries, social
// highlights, economic refreshes, reviews and metrics.
package flows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Devcode940/kenyawatch/internal/bus"
	"github.com/Devcode940/kenyawatch/internal/llm"
	"github.com/Devcode940/kenyawatch/internal/store"
)

// ErrNoOutput is returned when the model answers with nothing usable.
var ErrNoOutput = errors.New("The AI model did not produce any output.")

// Dataset names carried in update messages.
const (
	DatasetRepresentatives = "representatives"
	DatasetGDP             = "gdp"
	DatasetCensus          = "census"
	DatasetLeaderboard     = "leaderboard"
)

// Deps wires a Service. Store and Model are required; the rest default to
// the simulated sources, a null bus and a no-op logger.
type Deps struct {
	Store   *store.Store
	Bus     bus.Bus
	Model   llm.Provider
	News    NewsSearcher
	Social  SocialFeed
	Economy EconomicSource
	Logger  *zap.Logger
	Actor   string
}

// Service runs the operations against one store, bus and model.
type Service struct {
	store   *store.Store
	bus     bus.Bus
	model   llm.Provider
	news    NewsSearcher
	social  SocialFeed
	economy EconomicSource
	logger  *zap.Logger
	actor   string
	now     func() time.Time
}

// New builds a Service from deps.
func New(d Deps) (*Service, error) {
	if d.Store == nil {
		return nil, errors.New("flows: store is required")
	}
	if d.Model == nil {
		return nil, errors.New("flows: model provider is required")
	}
	s := &Service{
		store:   d.Store,
		bus:     d.Bus,
		model:   d.Model,
		news:    d.News,
		social:  d.Social,
		economy: d.Economy,
		logger:  d.Logger,
		actor:   d.Actor,
		now:     time.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.bus == nil {
		s.bus = bus.NewNullBus(zap.NewStdLog(s.logger.Named("bus")))
	}
	if s.news == nil {
		s.news = SimulatedNews{}
	}
	if s.social == nil {
		s.social = SimulatedSocialFeed{}
	}
	if s.economy == nil {
		s.economy = SimulatedKNBS{}
	}
	if s.actor == "" {
		s.actor = "system"
	}
	return s, nil
}

// WithActor returns a copy of s that records actor in audit entries.
func (s *Service) WithActor(actor string) *Service {
	c := *s
	if actor != "" {
		c.actor = actor
	}
	return &c
}

// generate runs one model call, audits it and decodes the JSON answer into out.
func (s *Service) generate(ctx context.Context, subjectID string, req llm.Request, out any) error {
	started := s.now()
	resp, err := s.model.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("%s: model call failed: %w", req.Task, err)
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return ErrNoOutput
	}
	s.logger.Debug("model answered",
		zap.String("task", string(req.Task)),
		zap.String("provider", s.model.Name()),
		zap.Int("tokens", resp.TokensUsed),
		zap.Duration("took", s.now().Sub(started)),
	)
	if err := s.store.LogModelQuery(ctx, subjectID, s.actor, string(req.Task), s.model.Name(), resp.TokensUsed, resp.Cost); err != nil {
		s.logger.Warn("failed to audit model query", zap.Error(err))
	}
	if err := json.Unmarshal([]byte(llm.ExtractJSON(resp.Text)), out); err != nil {
		s.logger.Warn("model output is not valid JSON",
			zap.String("task", string(req.Task)),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", ErrNoOutput, err)
	}
	return nil
}

// record writes an audit entry and announces the change. Neither failure
// undoes the operation, so both are only logged.
func (s *Service) record(ctx context.Context, subjectID, action string, details map[string]interface{}, dataset, updateAction string) {
	if err := s.store.LogAction(ctx, subjectID, action, s.actor, details); err != nil {
		s.logger.Warn("failed to write audit entry", zap.String("action", action), zap.Error(err))
	}
	msg := bus.UpdateMessage{
		Dataset:   dataset,
		SubjectID: subjectID,
		Action:    updateAction,
		Timestamp: s.now().Unix(),
	}
	if err := s.bus.PublishUpdate(ctx, msg); err != nil {
		s.logger.Warn("failed to publish update",
			zap.String("dataset", dataset),
			zap.String("subject", subjectID),
			zap.Error(err),
		)
	}
}
