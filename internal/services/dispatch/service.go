// Package dispatch fans clips out to the enabled destinations.
package dispatch

import (
	"context"
	"sort"
	"time"

	"github.com/fgeck/clipperhub/internal/models"
	"github.com/fgeck/clipperhub/internal/services/discord"
	"github.com/fgeck/clipperhub/internal/services/notion"
	"github.com/fgeck/clipperhub/internal/services/platform"
	"github.com/fgeck/clipperhub/internal/services/settings"
	"github.com/fgeck/clipperhub/internal/services/telegram"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const instrumentationName = "github.com/fgeck/clipperhub/internal/services/dispatch"

// ErrPlatformNotFound is the result error for an unknown destination id.
const ErrPlatformNotFound = "平台不存在"

// Service defines the interface for dispatching clips.
type Service interface {
	Platforms() []models.PlatformMeta
	Platform(id models.DestinationID) (platform.Adapter, bool)
	EnabledPlatforms(ctx context.Context) []models.PlatformMeta
	HasAnyConfigured(ctx context.Context) bool
	SendToAll(ctx context.Context, text string) map[models.DestinationID]models.SendResult
	SendToSelected(ctx context.Context, text string, ids []models.DestinationID) map[models.DestinationID]models.SendResult
	SendToOne(ctx context.Context, id models.DestinationID, text string) models.SendResult
	TestConnection(ctx context.Context, id models.DestinationID, cfg models.DestinationConfig) models.SendResult
}

// Impl implements the dispatch Service interface.
type Impl struct {
	adapters map[models.DestinationID]platform.Adapter
	settings settings.Service
	logger   zerolog.Logger

	tracer   trace.Tracer
	sent     metric.Int64Counter
	failed   metric.Int64Counter
	duration metric.Float64Histogram
}

// New creates a new dispatcher over the given adapters.
func New(logger zerolog.Logger, cfgStore settings.Service, adapters map[models.DestinationID]platform.Adapter) *Impl {
	s := &Impl{
		adapters: adapters,
		settings: cfgStore,
		logger:   logger,
		tracer:   otel.Tracer(instrumentationName),
	}
	s.initMetrics()
	return s
}

// Adapters builds the production adapter for every destination.
func Adapters(logger zerolog.Logger, timeout time.Duration) map[models.DestinationID]platform.Adapter {
	return map[models.DestinationID]platform.Adapter{
		models.Telegram: telegram.New(logger.With().Str("platform", string(models.Telegram)).Logger(), timeout),
		models.Discord:  discord.New(logger.With().Str("platform", string(models.Discord)).Logger(), timeout),
		models.Notion:   notion.New(logger.With().Str("platform", string(models.Notion)).Logger(), timeout),
	}
}

func (s *Impl) initMetrics() {
	meter := otel.Meter(instrumentationName)

	var err error
	s.sent, err = meter.Int64Counter(
		"clipperhub_messages_sent_total",
		metric.WithDescription("Total number of clips delivered"),
	)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to create sent counter")
	}

	s.failed, err = meter.Int64Counter(
		"clipperhub_messages_failed_total",
		metric.WithDescription("Total number of failed deliveries"),
	)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to create failed counter")
	}

	s.duration, err = meter.Float64Histogram(
		"clipperhub_send_duration_seconds",
		metric.WithDescription("Duration of provider requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to create duration histogram")
	}
}

// Platforms returns the metadata of every registered destination in
// presentation order.
func (s *Impl) Platforms() []models.PlatformMeta {
	metas := make([]models.PlatformMeta, 0, len(s.adapters))
	for _, id := range s.ids() {
		metas = append(metas, s.adapters[id].Meta())
	}
	return metas
}

// Platform returns the adapter registered for id.
func (s *Impl) Platform(id models.DestinationID) (platform.Adapter, bool) {
	a, ok := s.adapters[id]
	return a, ok
}

// EnabledPlatforms returns the destinations whose configuration is enabled,
// regardless of whether it is complete.
func (s *Impl) EnabledPlatforms(ctx context.Context) []models.PlatformMeta {
	cfgs := s.settings.Load(ctx)

	var metas []models.PlatformMeta
	for _, id := range s.ids() {
		if cfg, ok := cfgs.Get(id); ok && cfg.IsEnabled() {
			metas = append(metas, s.adapters[id].Meta())
		}
	}
	return metas
}

// HasAnyConfigured reports whether at least one destination is enabled and valid.
func (s *Impl) HasAnyConfigured(ctx context.Context) bool {
	cfgs := s.settings.Load(ctx)

	for _, id := range s.ids() {
		cfg, ok := cfgs.Get(id)
		if ok && cfg.IsEnabled() && s.adapters[id].ValidateConfig(cfg) {
			return true
		}
	}
	return false
}

// SendToAll sends text to every enabled destination. Disabled destinations
// are absent from the result.
func (s *Impl) SendToAll(ctx context.Context, text string) map[models.DestinationID]models.SendResult {
	cfgs := s.settings.Load(ctx)

	var targets []models.DestinationID
	for _, id := range s.ids() {
		if cfg, ok := cfgs.Get(id); ok && cfg.IsEnabled() {
			targets = append(targets, id)
		}
	}

	return s.dispatch(ctx, text, cfgs, targets, false)
}

// SendToSelected sends text to the given destinations. Unknown ids yield
// ErrPlatformNotFound and disabled ones a not-enabled error.
func (s *Impl) SendToSelected(ctx context.Context, text string, ids []models.DestinationID) map[models.DestinationID]models.SendResult {
	cfgs := s.settings.Load(ctx)
	return s.dispatch(ctx, text, cfgs, dedupe(ids), true)
}

// SendToOne sends text to a single destination.
func (s *Impl) SendToOne(ctx context.Context, id models.DestinationID, text string) models.SendResult {
	cfgs := s.settings.Load(ctx)
	return s.dispatch(ctx, text, cfgs, []models.DestinationID{id}, true)[id]
}

// TestConnection runs the adapter's connection test against cfg, which need
// not be saved.
func (s *Impl) TestConnection(ctx context.Context, id models.DestinationID, cfg models.DestinationConfig) models.SendResult {
	adapter, ok := s.adapters[id]
	if !ok {
		return models.Failed(ErrPlatformNotFound)
	}

	ctx, span := s.tracer.Start(ctx, "clipperhub.test_connection",
		trace.WithAttributes(attribute.String("clipperhub.platform", string(id))),
	)
	defer span.End()

	result := adapter.TestConnection(ctx, cfg)
	finishSpan(span, result)

	s.logger.Info().
		Str("platform", string(id)).
		Bool("success", result.Success).
		Str("error", result.Error).
		Msg("connection test finished")
	return result
}

// dispatch validates each target and sends to the valid ones concurrently.
// When requireEnabled is set, disabled targets yield a not-enabled error
// instead of being skipped by the caller.
func (s *Impl) dispatch(
	ctx context.Context,
	text string,
	cfgs models.ConfigSet,
	targets []models.DestinationID,
	requireEnabled bool,
) map[models.DestinationID]models.SendResult {
	dispatchID := uuid.NewString()
	logger := s.logger.With().Str("dispatch_id", dispatchID).Logger()

	results := make(map[models.DestinationID]models.SendResult, len(targets))
	if len(targets) == 0 {
		logger.Debug().Msg("no destinations to dispatch to")
		return results
	}

	type job struct {
		id      models.DestinationID
		adapter platform.Adapter
		cfg     models.DestinationConfig
	}

	// Rejections are recorded before any send starts, so only this
	// goroutine touches results until the sends are merged below.
	jobs := make([]job, 0, len(targets))
	for _, id := range targets {
		adapter, ok := s.adapters[id]
		cfg, known := cfgs.Get(id)
		if !ok || !known {
			results[id] = models.Failed(ErrPlatformNotFound)
			continue
		}

		name := adapter.Meta().Name
		if requireEnabled && !cfg.IsEnabled() {
			results[id] = models.Failed(name + " 未启用")
			continue
		}
		if !adapter.ValidateConfig(cfg) {
			results[id] = models.Failed(name + " 配置不完整")
			continue
		}
		jobs = append(jobs, job{id: id, adapter: adapter, cfg: cfg})
	}

	sent := make([]models.SendResult, len(jobs))
	var g errgroup.Group
	for i, j := range jobs {
		g.Go(func() error {
			sent[i] = s.send(ctx, dispatchID, j.id, j.adapter, text, j.cfg)
			return nil
		})
	}

	// Adapters report failures through their results, so Wait never errors.
	_ = g.Wait()

	for i, j := range jobs {
		results[j.id] = sent[i]
	}

	for id, result := range results {
		logger.Info().
			Str("platform", string(id)).
			Bool("success", result.Success).
			Str("error", result.Error).
			Msg("dispatch result")
	}

	return results
}

func (s *Impl) send(
	ctx context.Context,
	dispatchID string,
	id models.DestinationID,
	adapter platform.Adapter,
	text string,
	cfg models.DestinationConfig,
) models.SendResult {
	ctx, span := s.tracer.Start(ctx, "clipperhub.send",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("clipperhub.dispatch.id", dispatchID),
			attribute.String("clipperhub.platform", string(id)),
			attribute.Int("clipperhub.text.length", len(text)),
		),
	)
	defer span.End()

	start := time.Now()
	result := adapter.SendMessage(ctx, text, cfg)
	elapsed := time.Since(start)

	finishSpan(span, result)
	s.record(ctx, id, result, elapsed)
	return result
}

func (s *Impl) record(ctx context.Context, id models.DestinationID, result models.SendResult, elapsed time.Duration) {
	status := "success"
	if !result.Success {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("platform", string(id)),
		attribute.String("status", status),
	)

	if result.Success && s.sent != nil {
		s.sent.Add(ctx, 1, attrs)
	}
	if !result.Success && s.failed != nil {
		s.failed.Add(ctx, 1, attrs)
	}
	if s.duration != nil {
		s.duration.Record(ctx, elapsed.Seconds(), attrs)
	}
}

func finishSpan(span trace.Span, result models.SendResult) {
	if result.Success {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.SetStatus(codes.Error, result.Error)
}

// ids returns the registered destinations in presentation order, followed by
// any extra adapters sorted by id.
func (s *Impl) ids() []models.DestinationID {
	ids := make([]models.DestinationID, 0, len(s.adapters))
	known := make(map[models.DestinationID]bool, len(models.AllDestinations))
	for _, id := range models.AllDestinations {
		known[id] = true
		if _, ok := s.adapters[id]; ok {
			ids = append(ids, id)
		}
	}

	var extra []models.DestinationID
	for id := range s.adapters {
		if !known[id] {
			extra = append(extra, id)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(ids, extra...)
}

func dedupe(ids []models.DestinationID) []models.DestinationID {
	seen := make(map[models.DestinationID]bool, len(ids))
	out := make([]models.DestinationID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
