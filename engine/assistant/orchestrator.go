// Package assistant runs one conversational turn end to end: classify the
// message, dispatch it to the matching handler, and record the exchange.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/WessleyAI/wessley-sales/engine/conversation"
	"github.com/WessleyAI/wessley-sales/engine/domain"
	"github.com/WessleyAI/wessley-sales/engine/finance"
	"github.com/WessleyAI/wessley-sales/engine/semantic"
	"github.com/WessleyAI/wessley-sales/pkg/fn"
	"github.com/WessleyAI/wessley-sales/pkg/llm"
	"github.com/WessleyAI/wessley-sales/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "wessley-sales/assistant"

// Classifier labels a message with an intent.
type Classifier interface {
	Classify(ctx context.Context, text string) (domain.Intent, error)
}

// Searcher ranks catalog vehicles for a request.
type Searcher interface {
	Search(ctx context.Context, prefs domain.Preferences, topK int) ([]domain.RankedResult, error)
}

// Request is one inbound user message.
type Request struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// Response is the outcome of a turn. Success is false only when the turn
// ended in FAILED.
type Response struct {
	Response string             `json:"response"`
	Intent   domain.Intent      `json:"intent"`
	Success  bool               `json:"success"`
	State    conversation.Phase `json:"state"`
}

// Options tunes the orchestrator. Zero fields take defaults.
type Options struct {
	TopK          int
	HistoryTurns  int
	ClassifyRetry fn.RetryOpts
	Events        EventSink
	Metrics       *metrics.Registry
	Logger        *slog.Logger
}

// DefaultClassifyRetry retries transient provider failures once.
var DefaultClassifyRetry = fn.RetryOpts{
	MaxAttempts: 2,
	InitialWait: 100 * time.Millisecond,
	MaxWait:     time.Second,
	Jitter:      true,
	Retryable:   llm.IsTransient,
}

// Orchestrator owns the turn pipeline. It is safe for concurrent use.
type Orchestrator struct {
	conv       *conversation.Manager
	classifier Classifier
	completer  llm.Completer
	search     Searcher
	calc       *finance.Calculator
	opts       Options
	logger     *slog.Logger
	metrics    *metrics.Registry
	inflight   *metrics.Gauge
	duration   *metrics.Histogram
	classFails *metrics.Counter
	saveFails  *metrics.Counter
}

// New wires an orchestrator.
func New(conv *conversation.Manager, cls Classifier, completer llm.Completer, search Searcher, calc *finance.Calculator, opts Options) *Orchestrator {
	if opts.TopK <= 0 {
		opts.TopK = semantic.DefaultTopK
	}
	if opts.HistoryTurns <= 0 {
		opts.HistoryTurns = 3
	}
	if opts.ClassifyRetry.MaxAttempts == 0 {
		opts.ClassifyRetry = DefaultClassifyRetry
	}
	if opts.Events == nil {
		opts.Events = nopSink{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if calc == nil {
		calc = finance.New()
	}
	reg := opts.Metrics
	return &Orchestrator{
		conv:       conv,
		classifier: cls,
		completer:  completer,
		search:     search,
		calc:       calc,
		opts:       opts,
		logger:     opts.Logger,
		metrics:    reg,
		inflight:   reg.Gauge("sales_turns_inflight", "Turns currently being handled."),
		duration:   reg.Histogram("sales_turn_duration_seconds", "Turn latency including lock wait.", nil),
		classFails: reg.Counter("sales_classify_failures_total", "Turns whose classification fell back to UNKNOWN."),
		saveFails:  reg.Counter("sales_state_save_failures_total", "Turns answered whose conversation state could not be saved."),
	}
}

// HandleTurn processes one message. The returned error is non-nil only for
// invalid input or when the turn could not be run; handler faults are
// reported through Response.Success. A reply whose state could not be saved
// is still returned and the failure is logged.
func (o *Orchestrator) HandleTurn(ctx context.Context, req Request) (Response, error) {
	if err := domain.ValidateMessage(req.UserID, req.Message); err != nil {
		return Response{}, err
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, "assistant.turn",
		trace.WithAttributes(attribute.String("user_id", req.UserID)))
	defer span.End()

	start := time.Now()
	o.inflight.Inc()
	defer o.inflight.Dec()

	msg := strings.TrimSpace(req.Message)
	var resp Response
	err := o.conv.Do(ctx, req.UserID, func(ctx context.Context, s *conversation.State) error {
		s.Append(conversation.RoleUser, msg, "", o.conv.Now())
		s.Phase = conversation.PhaseAwaiting

		in := o.classify(ctx, msg)
		s.Turns[len(s.Turns)-1].Intent = in
		s.CurrentIntent = in
		s.Phase = conversation.PhaseDispatched

		reply, herr := o.dispatch(ctx, in, s, msg)
		if herr != nil {
			o.logger.Error("assistant: handler failed",
				"user_id", req.UserID,
				"intent", in,
				"message", msg,
				"turns", len(s.Turns),
				"err", herr)
			reply = replyApology
			s.Phase = conversation.PhaseFailed
		} else {
			s.Phase = conversation.PhaseResponded
		}
		t := s.Append(conversation.RoleAssistant, reply, in, o.conv.Now())

		resp = Response{Response: reply, Intent: in, Success: herr == nil, State: s.Phase}
		ev := TurnEvent{
			UserID:    req.UserID,
			TurnID:    t.ID,
			Intent:    in,
			Phase:     s.Phase,
			Success:   resp.Success,
			Message:   msg,
			Response:  reply,
			LatencyMS: time.Since(start).Milliseconds(),
			At:        t.At,
		}
		if err := o.opts.Events.Publish(ctx, ev); err != nil {
			o.logger.Warn("assistant: publish turn event", "user_id", req.UserID, "err", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		if !errors.Is(err, conversation.ErrSaveFailed) || resp.Response == "" {
			span.SetStatus(codes.Error, err.Error())
			return Response{}, fmt.Errorf("assistant: turn: %w", err)
		}
		// the reply was produced; only its persistence failed
		o.saveFails.Inc()
		o.logger.Error("assistant: conversation state not saved",
			"user_id", req.UserID,
			"intent", resp.Intent,
			"err", err)
	}

	outcome := "ok"
	if !resp.Success {
		outcome = "failed"
		span.SetStatus(codes.Error, "handler failed")
	}
	span.SetAttributes(attribute.String("intent", string(resp.Intent)), attribute.String("outcome", outcome))
	o.metrics.Counter(metrics.WithLabels("sales_turns_total", "intent", string(resp.Intent), "outcome", outcome),
		"Turns handled by intent and outcome.").Inc()
	o.duration.Since(start)
	return resp, nil
}

// classify returns UNKNOWN when every attempt fails.
func (o *Orchestrator) classify(ctx context.Context, msg string) domain.Intent {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "assistant.classify")
	defer span.End()

	in, err := fn.Retry(ctx, o.opts.ClassifyRetry, func(ctx context.Context) fn.Result[domain.Intent] {
		return fn.FromPair(o.classifier.Classify(ctx, msg))
	}).Unwrap()
	if err != nil {
		o.classFails.Inc()
		span.RecordError(err)
		o.logger.Warn("assistant: classification fell back to UNKNOWN", "err", err)
		return domain.IntentUnknown
	}
	span.SetAttributes(attribute.String("intent", string(in)))
	return in
}

type handler func(ctx context.Context, s *conversation.State, msg string) (string, error)

// dispatch runs the handler for in. Any error or panic comes back as a
// *domain.HandlerFailure.
func (o *Orchestrator) dispatch(ctx context.Context, in domain.Intent, s *conversation.State, msg string) (reply string, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "assistant.dispatch",
		trace.WithAttributes(attribute.String("intent", string(in))))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			reply, err = "", &domain.HandlerFailure{Intent: in, Err: fmt.Errorf("panic: %v\n%s", r, debug.Stack())}
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	var h handler
	switch in {
	case domain.IntentGeneral:
		h = o.handleGeneral
	case domain.IntentCatalogSearch:
		h = o.handleSearch
	case domain.IntentFinance:
		h = o.handleFinance
	default:
		return replyClarifyIntent, nil
	}

	reply, err = h(ctx, s, msg)
	if err != nil {
		var hf *domain.HandlerFailure
		if !errors.As(err, &hf) {
			err = &domain.HandlerFailure{Intent: in, Err: err}
		}
		return "", err
	}
	return reply, nil
}

// isDependencyFault reports errors caused by an unavailable or slow
// dependency. Those are answered with a clarification, not a failure.
func isDependencyFault(err error) bool {
	return llm.IsTransient(err) ||
		errors.Is(err, llm.ErrEmptyResponse) ||
		errors.Is(err, domain.ErrDependencyUnavailable) ||
		errors.Is(err, domain.ErrExtractionFailure) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled)
}
