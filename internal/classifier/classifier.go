// Package classifier assigns products to a closed set of categories by
// prompting a local model through its runtime CLI.
//
// Every public operation returns a tagged value: a types.Result either
// carries an error message or a complete classification. Failures of the
// runtime, timeouts and panics are converted at this boundary and never
// reach the caller as Go errors.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	goruntime "runtime"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"prodclass/internal/progress"
	"prodclass/internal/runtime"
	"prodclass/pkg/types"
)

// Result methods.
const (
	MethodSingle         = "ollama"
	MethodSingleFallback = "ollama_fallback"
	MethodBatch          = "ollama_batch"
	MethodBatchFallback  = "ollama_batch_fallback"
)

// ErrNotLoaded is the message of Results produced before LoadModel succeeded.
const ErrNotLoaded = "model not loaded"

// Defaults applied when the corresponding Config fields are unset.
const (
	defaultSingleTimeout = 120 * time.Second
	defaultBatchTimeout  = 300 * time.Second
	labelWidth           = 30
)

// Runtime is the subset of the model runtime the classifier needs.
// *runtime.Ollama satisfies it.
type Runtime interface {
	HasModel(ctx context.Context, model string) (bool, error)
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// StatsSource supplies resource snapshots. *monitor.Monitor satisfies it.
type StatsSource interface {
	Start()
	Stop()
	Stats() types.ResourceSnapshot
}

// Config holds the classifier tunables.
type Config struct {
	ModelName     string
	Categories    []string
	SingleTimeout time.Duration
	BatchTimeout  time.Duration
	ModelSizeGB   float64
}

// Classifier orchestrates prompt building, runtime invocation and parsing.
type Classifier struct {
	cfg       Config
	rt        Runtime
	stats     StatsSource
	log       zerolog.Logger
	progress  io.Writer
	publisher EventPublisher
	now       func() time.Time

	loaded atomic.Bool
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the structured logger.
func WithLogger(l zerolog.Logger) Option { return func(c *Classifier) { c.log = l } }

// WithProgress enables the terminal spinner on w during runtime calls.
func WithProgress(w io.Writer) Option { return func(c *Classifier) { c.progress = w } }

// WithPublisher installs an EventPublisher.
func WithPublisher(p EventPublisher) Option {
	return func(c *Classifier) {
		if p == nil {
			p = noopPublisher{}
		}
		c.publisher = p
	}
}

// New constructs a Classifier. stats may be nil, in which case Results carry
// empty resource snapshots.
func New(cfg Config, rt Runtime, stats StatsSource, opts ...Option) *Classifier {
	if cfg.SingleTimeout <= 0 {
		cfg.SingleTimeout = defaultSingleTimeout
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = defaultBatchTimeout
	}
	cfg.Categories = append([]string(nil), cfg.Categories...)
	c := &Classifier{
		cfg:       cfg,
		rt:        rt,
		stats:     stats,
		log:       zerolog.Nop(),
		publisher: noopPublisher{},
		now:       time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Categories returns a copy of the configured category set.
func (c *Classifier) Categories() []string { return append([]string(nil), c.cfg.Categories...) }

// Loaded reports whether LoadModel has succeeded.
func (c *Classifier) Loaded() bool { return c.loaded.Load() }

// ModelInfo describes the configured model.
func (c *Classifier) ModelInfo() types.ModelInfo {
	return types.ModelInfo{
		ModelName:   c.cfg.ModelName,
		IsLoaded:    c.loaded.Load(),
		Method:      MethodSingle,
		Categories:  c.Categories(),
		Platform:    goruntime.GOOS,
		ModelSizeGB: c.cfg.ModelSizeGB,
	}
}

// Stats returns the latest resource snapshot.
func (c *Classifier) Stats() types.ResourceSnapshot {
	if c.stats == nil {
		return types.ResourceSnapshot{}
	}
	return c.stats.Stats()
}

// LoadModel starts resource sampling and verifies that the model is
// registered with the runtime. It reports failure as false and logs the cause.
func (c *Classifier) LoadModel(ctx context.Context) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Msg("model load failed")
			ok = false
		}
	}()
	c.log.Info().Str("model", c.cfg.ModelName).Msg("loading model")
	if c.stats != nil {
		c.stats.Start()
	}
	found, err := c.rt.HasModel(ctx, c.cfg.ModelName)
	if err != nil {
		c.log.Error().Err(err).Str("model", c.cfg.ModelName).Msg("model listing failed")
		c.publisher.Publish(Event{Name: EventModelLoadFailed, Model: c.cfg.ModelName, Fields: map[string]any{"error": err.Error()}})
		return false
	}
	if !found {
		c.log.Error().Str("model", c.cfg.ModelName).Msg("model not registered with runtime")
		c.publisher.Publish(Event{Name: EventModelLoadFailed, Model: c.cfg.ModelName, Fields: map[string]any{"error": "not registered"}})
		return false
	}
	c.loaded.Store(true)
	s := c.Stats()
	c.log.Info().Str("model", c.cfg.ModelName).
		Float64("cpu_percent", s.CPUPercent).
		Float64("ram_percent", s.RAMPercent).
		Msg("model loaded")
	c.publisher.Publish(Event{Name: EventModelLoaded, Model: c.cfg.ModelName})
	return true
}

// Close stops resource sampling.
func (c *Classifier) Close() {
	if c.stats != nil {
		c.stats.Stop()
	}
}

// ClassifyProduct classifies one product with a single runtime invocation.
func (c *Classifier) ClassifyProduct(ctx context.Context, p types.Product) (res types.Result) {
	if !c.loaded.Load() {
		observeCall(modeSingle, outcomeNotLoaded, 0)
		return types.ErrorResult(ErrNotLoaded)
	}
	label := truncate(p.Name, labelWidth)
	// Log before the spinner owns the terminal line.
	c.log.Info().Str("product", label).Msg("classifying")
	sp := progress.Start(c.progress, label+"...")
	defer func() {
		sp.Stop()
		if r := recover(); r != nil {
			res = c.singleFailure(p, 0, fmt.Errorf("panic: %v", r))
		}
	}()

	prompt := BuildPrompt(p, c.cfg.Categories)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.SingleTimeout)
	defer cancel()
	start := c.now()
	resp, err := c.rt.Generate(ctx, c.cfg.ModelName, prompt)
	elapsed := c.now().Sub(start)
	sp.Stop()
	if err != nil {
		return c.singleFailure(p, elapsed, err)
	}

	parsed := ParseSingle(resp, c.cfg.Categories)
	observeParse("object", parsed)
	method, outcome := MethodSingle, outcomeOK
	if parsed.Tier != TierJSON {
		method, outcome = MethodSingleFallback, outcomeFallback
	}
	observeCall(modeSingle, outcome, elapsed)
	c.log.Info().Str("product", label).Str("category", parsed.Category).
		Float64("confidence", parsed.Confidence).Dur("dur", elapsed).Msg("classified")
	c.log.Debug().Str("response", truncate(resp, 500)).Msg("model response")

	res = types.Result{
		ProductName:       p.Name,
		PredictedCategory: parsed.Category,
		Confidence:        parsed.Confidence,
		Reasoning:         parsed.Reasoning,
		FullResponse:      resp,
		Method:            method,
		ProcessingTime:    elapsed.Seconds(),
		Resources:         c.Stats(),
	}
	c.publisher.Publish(Event{Name: EventClassifyDone, Model: c.cfg.ModelName, Results: []types.Result{res}, Elapsed: elapsed})
	return res
}

// ClassifyBatch classifies all products with one runtime invocation. The
// returned slice always has len(products) entries.
func (c *Classifier) ClassifyBatch(ctx context.Context, products []types.Product) (res []types.Result) {
	if !c.loaded.Load() {
		observeCall(modeBatch, outcomeNotLoaded, 0)
		return types.ErrorResults(len(products), ErrNotLoaded)
	}
	if len(products) == 0 {
		return []types.Result{}
	}
	c.log.Info().Int("products", len(products)).Msg("batch classifying")
	sp := progress.Start(c.progress, fmt.Sprintf("batch classification of %d products...", len(products)))
	defer func() {
		sp.Stop()
		if r := recover(); r != nil {
			res = c.batchFailure(products, 0, fmt.Errorf("panic: %v", r))
		}
	}()

	prompt := BuildBatchPrompt(products, c.cfg.Categories)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.BatchTimeout)
	defer cancel()
	start := c.now()
	resp, err := c.rt.Generate(ctx, c.cfg.ModelName, prompt)
	elapsed := c.now().Sub(start)
	sp.Stop()
	if err != nil {
		return c.batchFailure(products, elapsed, err)
	}

	items, structured := ParseBatch(resp, len(products), c.cfg.Categories)
	observeParse("array", items...)
	method, outcome := MethodBatch, outcomeOK
	if !structured {
		method, outcome = MethodBatchFallback, outcomeFallback
	}
	observeCall(modeBatch, outcome, elapsed)
	perItem := elapsed.Seconds() / float64(len(products))
	c.log.Info().Int("products", len(products)).Dur("dur", elapsed).
		Float64("sec_per_product", perItem).Bool("structured", structured).Msg("batch classified")
	c.log.Debug().Str("response", truncate(resp, 500)).Msg("model response")

	stats := c.Stats()
	res = make([]types.Result, len(products))
	for i, p := range products {
		res[i] = types.Result{
			ProductName:       p.Name,
			PredictedCategory: items[i].Category,
			Confidence:        items[i].Confidence,
			Reasoning:         items[i].Reasoning,
			FullResponse:      resp,
			Method:            method,
			ProcessingTime:    perItem,
			Resources:         stats,
		}
	}
	c.publisher.Publish(Event{Name: EventBatchDone, Model: c.cfg.ModelName, Results: res, Elapsed: elapsed})
	return res
}

func (c *Classifier) singleFailure(p types.Product, elapsed time.Duration, err error) types.Result {
	msg := failureMessage(err, "classification", c.cfg.SingleTimeout)
	observeCall(modeSingle, outcomeError, elapsed)
	c.log.Error().Err(err).Str("product", truncate(p.Name, labelWidth)).Msg("classification failed")
	res := types.ErrorResult(msg)
	c.publisher.Publish(Event{Name: EventClassifyError, Model: c.cfg.ModelName, Results: []types.Result{res}, Elapsed: elapsed,
		Fields: map[string]any{"product": p.Name}})
	return res
}

func (c *Classifier) batchFailure(products []types.Product, elapsed time.Duration, err error) []types.Result {
	msg := failureMessage(err, "batch classification", c.cfg.BatchTimeout)
	observeCall(modeBatch, outcomeError, elapsed)
	c.log.Error().Err(err).Int("products", len(products)).Msg("batch classification failed")
	res := types.ErrorResults(len(products), msg)
	names := make([]string, len(products))
	for i, p := range products {
		names[i] = p.Name
	}
	c.publisher.Publish(Event{Name: EventBatchError, Model: c.cfg.ModelName, Results: res, Elapsed: elapsed,
		Fields: map[string]any{"products": names}})
	return res
}

// failureMessage maps runtime failures onto the Result error text.
func failureMessage(err error, what string, bound time.Duration) string {
	switch {
	case runtime.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("timeout: %s exceeded %s", what, bound)
	case runtime.IsProcessFailure(err):
		return "model runtime error: " + runtime.Stderr(err)
	default:
		return "classification failed: " + err.Error()
	}
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
