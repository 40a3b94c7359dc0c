package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"qststaking/config"
	"qststaking/core/events"
	"qststaking/core/state"
	"qststaking/crypto"
	"qststaking/indexer"
	"qststaking/native/staking"
	"qststaking/native/token"
	"qststaking/observability/logging"
	"qststaking/observability/metrics"
	qstotel "qststaking/observability/otel"
	"qststaking/storage"
)

var (
	ErrBadSignature  = errors.New("core: signature does not match caller")
	ErrStaleNonce    = errors.New("core: nonce already used")
	ErrUnknownMethod = errors.New("core: unknown method")
	ErrNodeClosed    = errors.New("core: node closed")
)

// Node hosts the staking engine over a database. Calls are serialised; each
// runs against a fresh overlay that is committed in one batch on success and
// discarded on failure. Events reach the emitter only after the commit.
type Node struct {
	mu      sync.Mutex
	db      storage.Database
	engine  *staking.Engine
	emitter events.Emitter
	logger  *slog.Logger
	metrics *metrics.StakingMetrics
	tracer  trace.Tracer
	nowFn   func() int64

	closers []func() error
	closed  bool
}

// Option customises a Node.
type Option func(*Node)

// WithEmitter routes committed events to emitter.
func WithEmitter(emitter events.Emitter) Option {
	return func(n *Node) {
		if emitter != nil {
			n.emitter = emitter
		}
	}
}

// WithLogger sets the node logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Node) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// WithClock overrides the unix-seconds clock used by the engine.
func WithClock(now func() int64) Option {
	return func(n *Node) {
		if now != nil {
			n.nowFn = now
		}
	}
}

// WithMetrics enables prometheus collectors.
func WithMetrics(m *metrics.StakingMetrics) Option {
	return func(n *Node) { n.metrics = m }
}

// WithTracer wraps each call in a span from tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(n *Node) {
		if tracer != nil {
			n.tracer = tracer
		}
	}
}

// NewNode creates a node over db for the supplied deployment parameters.
func NewNode(db storage.Database, params staking.Params, opts ...Option) (*Node, error) {
	if db == nil {
		return nil, fmt.Errorf("core: database required")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	n := &Node{
		db:      db,
		engine:  staking.NewEngine(params),
		emitter: events.NoopEmitter{},
		logger:  slog.Default(),
		tracer:  noop.NewTracerProvider().Tracer(qstotel.TracerName),
		nowFn:   func() int64 { return time.Now().Unix() },
	}
	for _, opt := range opts {
		opt(n)
	}
	n.engine.SetLogger(n.logger)
	n.engine.SetNowFunc(n.now)
	return n, nil
}

// Open builds a node from configuration: logging, the state database
// (LevelDB under DataDir, in-memory otherwise), telemetry and the optional
// event history indexer.
func Open(ctx context.Context, cfg *config.Config) (*Node, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	logger := logging.SetupWithOptions(logging.Options{
		Service:    cfg.Service,
		Env:        cfg.Environment,
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	params, err := cfg.StakingParams()
	if err != nil {
		return nil, err
	}

	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	shutdown, err := qstotel.Init(ctx, qstotel.Config{
		ServiceName: cfg.Service,
		Environment: cfg.Environment,
		Profile:     cfg.Staking.Profile,
		WindowMode:  string(params.WindowMode),
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     qstotel.ParseHeaders(cfg.Telemetry.Headers),
		Traces:      cfg.Telemetry.Traces,
		Metrics:     cfg.Telemetry.Metrics,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return nil, err
	}
	closers = append(closers, func() error { return shutdown(context.Background()) })

	var db storage.Database
	if dir := strings.TrimSpace(cfg.DataDir); dir != "" {
		ldb, err := storage.NewLevelDB(filepath.Join(dir, "state"))
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("core: open state: %w", err)
		}
		db = ldb
	} else {
		db = storage.NewMemDB()
	}
	closers = append(closers, func() error { db.Close(); return nil })

	opts := []Option{
		WithLogger(logger),
		WithMetrics(metrics.Staking()),
		WithTracer(qstotel.Tracer()),
	}
	if dsn := strings.TrimSpace(cfg.Indexer.DSN); dsn != "" {
		store, err := indexer.Open(dsn)
		if err != nil {
			cleanup()
			return nil, err
		}
		closers = append(closers, store.Close)
		opts = append(opts, WithEmitter(store))
	}

	node, err := NewNode(db, params, opts...)
	if err != nil {
		cleanup()
		return nil, err
	}
	node.closers = closers
	logger.Info("staking node ready",
		"profile", cfg.Staking.Profile,
		"window_mode", string(params.WindowMode),
		"persistent", cfg.DataDir != "",
		"indexer", cfg.Indexer.DSN != "")
	return node, nil
}

// Close releases every resource acquired by Open.
func (n *Node) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil
	}
	n.closed = true
	var errs []error
	for i := len(n.closers) - 1; i >= 0; i-- {
		if err := n.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Params returns the deployment parameters.
func (n *Node) Params() staking.Params { return n.engine.Params() }

func (n *Node) now() int64 { return n.nowFn() }

func (n *Node) bind(mgr *state.Manager, emitter events.Emitter) {
	n.engine.SetState(mgr)
	n.engine.SetLedger(token.NewLedger(mgr))
	n.engine.SetEmitter(emitter)
}

// Submit verifies and applies a signed call.
func (n *Node) Submit(ctx context.Context, call *Call) (*Receipt, error) {
	if call == nil {
		return nil, fmt.Errorf("core: nil call")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	method := call.Method.String()
	_, span := n.tracer.Start(ctx, "staking."+method, trace.WithAttributes(
		qstotel.CallAttributes(method, crypto.FromRaw(call.Caller).String(), call.Nonce)...,
	))
	defer span.End()

	start := time.Now()
	receipt, err := n.submit(call)
	outcome := "ok"
	if err != nil {
		outcome = outcomeOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	n.metrics.ObserveCall(method, outcome, time.Since(start))
	return receipt, err
}

func outcomeOf(err error) string {
	if code := staking.CodeOf(err); code != "" {
		return string(code)
	}
	switch {
	case errors.Is(err, ErrBadSignature):
		return "BadSignature"
	case errors.Is(err, ErrStaleNonce):
		return "StaleNonce"
	}
	return "error"
}

func (n *Node) submit(call *Call) (*Receipt, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil, ErrNodeClosed
	}
	digest, err := call.Digest()
	if err != nil {
		return nil, err
	}
	signer, err := crypto.RecoverAddress(digest, call.Signature)
	if err != nil || signer != call.Caller {
		return nil, ErrBadSignature
	}

	overlay := state.NewOverlay(n.db)
	mgr := state.NewManager(overlay)
	last, err := mgr.CallNonce(call.Caller)
	if err != nil {
		overlay.Discard()
		return nil, err
	}
	if call.Nonce <= last {
		overlay.Discard()
		return nil, ErrStaleNonce
	}

	recorder := &events.Recorder{}
	n.bind(mgr, recorder)
	receipt, err := n.dispatch(call)
	if err != nil {
		// A rejected call leaves the nonce untouched so the same signed call
		// can be resubmitted once the condition clears.
		overlay.Discard()
		recorder.Reset()
		n.logger.Warn("staking call rejected",
			"method", call.Method.String(),
			"caller", crypto.FromRaw(call.Caller).String(),
			"nonce", call.Nonce,
			"reason", outcomeOf(err),
			logging.MaskField("signature", fmt.Sprintf("%x", call.Signature)))
		return nil, err
	}
	if err := mgr.SetCallNonce(call.Caller, call.Nonce); err != nil {
		overlay.Discard()
		return nil, err
	}
	if err := overlay.Commit(); err != nil {
		recorder.Reset()
		return nil, err
	}

	committed := recorder.Events()
	recorder.Flush(n.emitter)
	receipt.Method = call.Method
	receipt.Caller = call.Caller
	receipt.Nonce = call.Nonce
	receipt.Events = eventViews(committed)
	n.observePool()
	return receipt, nil
}

func (n *Node) dispatch(call *Call) (*Receipt, error) {
	receipt := &Receipt{}
	var err error
	switch call.Method {
	case MethodInitialize:
		receipt.Pool, err = n.engine.Initialize(call.Caller, call.Admin, call.Mint)
	case MethodStartStakeWindow:
		receipt.Pool, err = n.engine.StartStakeWindow(call.Caller)
	case MethodStake:
		receipt.Account, err = n.engine.Stake(call.Caller, call.Amount)
	case MethodEnrollInBonus:
		receipt.Account, err = n.engine.EnrollInBonus(call.Caller)
	case MethodUnstake:
		receipt.Unstake, err = n.engine.Unstake(call.Caller, call.Amount)
	case MethodWithdrawAll:
		receipt.Amount, err = n.engine.WithdrawAll(call.Caller)
	case MethodWithdrawBonus:
		receipt.Amount, err = n.engine.WithdrawBonus(call.Caller)
	case MethodCollectDust:
		receipt.Amount, err = n.engine.CollectDust(call.Caller)
	default:
		return nil, ErrUnknownMethod
	}
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func eventViews(buffered []events.Event) []EventView {
	views := make([]EventView, 0, len(buffered))
	for _, evt := range buffered {
		payload, ok := evt.(events.Payload)
		if !ok {
			continue
		}
		converted := payload.Event().Clone()
		if converted == nil {
			continue
		}
		views = append(views, EventView{Type: converted.Type, Attributes: converted.Attributes})
	}
	return views
}

func (n *Node) observePool() {
	if n.metrics == nil {
		return
	}
	pool, ok, err := state.NewManager(n.db).StakingPoolGet()
	if err != nil || !ok {
		return
	}
	n.metrics.SetPoolTotals(pool.TotalStaked, pool.TotalEnrolledStake, pool.PenaltyVault)
}

// reader binds the engine to committed state for a read-only query.
func (n *Node) reader() (*staking.Engine, error) {
	if n.closed {
		return nil, ErrNodeClosed
	}
	n.bind(state.NewManager(n.db), events.NoopEmitter{})
	return n.engine, nil
}

// StakeInfo returns owner's position evaluated at the node clock.
func (n *Node) StakeInfo(owner [20]byte) (*staking.StakeInfo, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	engine, err := n.reader()
	if err != nil {
		return nil, err
	}
	return engine.StakeInfo(owner)
}

// Pool returns the committed pool record.
func (n *Node) Pool() (*staking.Pool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	engine, err := n.reader()
	if err != nil {
		return nil, err
	}
	return engine.Pool()
}

// Nonce returns the last nonce consumed by addr.
func (n *Node) Nonce(addr [20]byte) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return state.NewManager(n.db).CallNonce(addr)
}

// Balance returns owner's committed balance of mint.
func (n *Node) Balance(mint, owner [20]byte) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return token.NewLedger(state.NewManager(n.db)).Balance(mint, owner)
}

// RegisterMint and MintTo stand in for the external token program so pools
// can be exercised end to end. They are not signed staking calls.
func (n *Node) RegisterMint(mint *token.Mint) error {
	return n.ledgerWrite(func(ledger *token.Ledger) error { return ledger.RegisterMint(mint) })
}

// MintTo issues amount of mint to recipient on behalf of the mint authority.
func (n *Node) MintTo(authority, mint, recipient [20]byte, amount uint64) error {
	return n.ledgerWrite(func(ledger *token.Ledger) error {
		return ledger.MintTo(authority, mint, recipient, amount)
	})
}

func (n *Node) ledgerWrite(apply func(*token.Ledger) error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return ErrNodeClosed
	}
	overlay := state.NewOverlay(n.db)
	if err := apply(token.NewLedger(state.NewManager(overlay))); err != nil {
		overlay.Discard()
		return err
	}
	return overlay.Commit()
}
