package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-chi-calculator/internal/calculator"
	"go-chi-calculator/internal/handlers"
	"go-chi-calculator/internal/observability"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// tracer is the calculator's dedicated OpenTelemetry tracer.
var tracer = otel.Tracer("calculator")

// maxKeysPerRequest bounds how many presses one request may carry.
const maxKeysPerRequest = 256

// Handler serves calculator sessions over HTTP.
type Handler struct {
	store     *Store
	formatter *calculator.Formatter
}

func NewHandler(store *Store, formatter *calculator.Formatter) *Handler {
	return &Handler{store: store, formatter: formatter}
}

// ---------------------------------------------------------------------------
// Handlers — session lifecycle
// ---------------------------------------------------------------------------

// CreateSession handles POST /calculator/sessions
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger := h.startSpan(r, "calculator.session.create", "")
	defer span.End()

	sess, err := h.store.Create()
	if err != nil {
		h.fail(ctx, span, logger, "create_session", err, w)
		return
	}

	sessionsCounter.Add(ctx, 1)
	span.SetAttributes(attribute.String("calculator.session.id", sess.ID))
	span.SetStatus(codes.Ok, "")

	logger.Info("calculator session created",
		zap.String("session_id", sess.ID),
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
	)

	handlers.WriteJSON(w, http.StatusCreated, h.sessionResponse(sess))
}

// GetSession handles GET /calculator/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, span, logger := h.startSpan(r, "calculator.session.get", id)
	defer span.End()

	sess, err := h.store.Get(id)
	if err != nil {
		h.fail(ctx, span, logger, "get_session", err, w)
		return
	}

	span.SetStatus(codes.Ok, "")
	handlers.WriteJSON(w, http.StatusOK, h.sessionResponse(sess))
}

// DeleteSession handles DELETE /calculator/sessions/{id}
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, span, logger := h.startSpan(r, "calculator.session.delete", id)
	defer span.End()

	if err := h.store.Delete(id); err != nil {
		h.fail(ctx, span, logger, "delete_session", err, w)
		return
	}

	sessionsCounter.Add(ctx, -1)
	span.SetStatus(codes.Ok, "")

	logger.Info("calculator session deleted",
		zap.String("session_id", id),
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
	)

	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Handlers — key presses
// ---------------------------------------------------------------------------

// PressKeys handles POST /calculator/sessions/{id}/keys — applies the keys in
// order to the session and returns the resulting view.
func (h *Handler) PressKeys(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, span, logger := h.startSpan(r, "calculator.session.keys", id)
	defer span.End()

	events, labels, err := decodeKeys(r)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "press_keys", "invalid request body", err, http.StatusBadRequest, w)
		return
	}
	span.SetAttributes(attribute.Int("calculator.keys.count", len(events)))

	var steps []keyStep
	sess, err := h.store.Update(id, func(s calculator.State) calculator.State {
		s, steps = applyKeys(s, events)
		return s
	})
	if err != nil {
		h.fail(ctx, span, logger, "press_keys", err, w)
		return
	}
	recordKeys(ctx, logger, steps)

	span.SetAttributes(attribute.String("calculator.entry", sess.State.Entry()))
	span.SetStatus(codes.Ok, "")

	logger.Info("calculator keys applied",
		zap.String("session_id", id),
		zap.Strings("keys", labels),
		zap.String("entry", sess.State.Entry()),
		zap.String("phase", sess.State.Phase().String()),
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
	)

	handlers.WriteJSON(w, http.StatusOK, h.sessionResponse(sess))
}

// Evaluate handles POST /calculator/evaluate — replays the keys from a fresh
// calculator without creating a session, returning the view after every key.
// Each key gets its own child span.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger := h.startSpan(r, "calculator.evaluate", "")
	defer span.End()

	events, labels, err := decodeKeys(r)
	if err != nil {
		observability.RecordError(ctx, span, logger, errorCounter, "evaluate", "invalid request body", err, http.StatusBadRequest, w)
		return
	}
	span.SetAttributes(attribute.Int("calculator.keys.count", len(events)))

	s, applied := applyKeys(calculator.New(), events)
	recordKeys(ctx, logger, applied)

	steps := make([]StepResult, 0, len(applied))
	for _, st := range applied {
		steps = append(steps, StepResult{Key: labels[st.index], View: h.formatter.View(st.after)})
	}

	span.AddEvent("evaluate.complete", trace.WithAttributes(
		attribute.String("entry", s.Entry()),
		attribute.Int("total_keys", len(events)),
	))
	span.SetStatus(codes.Ok, "")

	logger.Info("calculator evaluation completed",
		zap.Strings("keys", labels),
		zap.String("entry", s.Entry()),
		zap.String("request_id", observability.RequestIDFromContext(ctx)),
	)

	handlers.WriteJSON(w, http.StatusOK, EvaluateResponse{
		Steps: steps,
		View:  h.formatter.View(s),
	})
}

// Keypad handles GET /calculator/keypad. With ?session_id= the clear key is
// labeled for that session's state.
func (h *Handler) Keypad(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session_id")
	ctx, span, logger := h.startSpan(r, "calculator.keypad", id)
	defer span.End()

	state := calculator.New()
	if id != "" {
		sess, err := h.store.Get(id)
		if err != nil {
			h.fail(ctx, span, logger, "keypad", err, w)
			return
		}
		state = sess.State
	}

	span.SetStatus(codes.Ok, "")
	handlers.WriteJSON(w, http.StatusOK, KeypadResponse{
		Columns: 4,
		Buttons: calculator.Keypad(state),
	})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (h *Handler) startSpan(r *http.Request, name, sessionID string) (context.Context, trace.Span, *zap.Logger) {
	ctx := r.Context()
	requestID := observability.RequestIDFromContext(ctx)

	attrs := []attribute.KeyValue{attribute.String("request.id", requestID)}
	if sessionID != "" {
		attrs = append(attrs, attribute.String("calculator.session.id", sessionID))
	}

	ctx, span := tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, span, observability.LoggerWithTrace(ctx)
}

func (h *Handler) sessionResponse(sess Session) SessionResponse {
	return SessionResponse{
		SessionID: sess.ID,
		View:      h.formatter.View(sess.State),
	}
}

// fail maps store errors onto HTTP statuses.
func (h *Handler) fail(ctx context.Context, span trace.Span, logger *zap.Logger, opName string, err error, w http.ResponseWriter) {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, ErrSessionNotFound):
		status, msg = http.StatusNotFound, "session not found"
	case errors.Is(err, ErrStoreFull):
		status, msg = http.StatusServiceUnavailable, "session limit reached"
	}

	observability.RecordError(ctx, span, logger, errorCounter, opName, msg, err, status, w)
}

func decodeKeys(r *http.Request) ([]calculator.Event, []string, error) {
	var req KeysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, nil, fmt.Errorf("decode keys: %w", err)
	}
	if len(req.Keys) == 0 {
		return nil, nil, errors.New("keys array is empty")
	}
	if len(req.Keys) > maxKeysPerRequest {
		return nil, nil, fmt.Errorf("too many keys: %d > %d", len(req.Keys), maxKeysPerRequest)
	}

	events, err := calculator.ParseKeys(req.Keys)
	if err != nil {
		return nil, nil, err
	}
	return events, req.Keys, nil
}

// keyStep is one applied key with the states on either side of it.
type keyStep struct {
	index  int
	event  calculator.Event
	before calculator.State
	after  calculator.State
	start  time.Time
	end    time.Time
}

// applyKeys feeds events to s and returns every step. It has no side effects,
// so it is safe to run under the store lock.
func applyKeys(s calculator.State, events []calculator.Event) (calculator.State, []keyStep) {
	steps := make([]keyStep, 0, len(events))
	for i, e := range events {
		start := time.Now()
		next := calculator.Apply(s, e)
		steps = append(steps, keyStep{index: i, event: e, before: s, after: next, start: start, end: time.Now()})
		s = next
	}
	return s, steps
}

// recordKeys emits telemetry for steps already applied.
func recordKeys(ctx context.Context, logger *zap.Logger, steps []keyStep) {
	for _, st := range steps {
		recordKey(ctx, logger, st)
	}
}

// recordKey opens the key's child span over its original time range and
// records key metrics and, when the key resolves an operation, the result or
// the arithmetic error.
func recordKey(ctx context.Context, logger *zap.Logger, st keyStep) {
	kind := st.event.Kind.String()
	label := st.event.Label()

	ctx, span := tracer.Start(ctx, "calculator.key."+kind,
		trace.WithTimestamp(st.start),
		trace.WithAttributes(
			attribute.Int("calculator.key.index", st.index),
			attribute.String("calculator.key.label", label),
			attribute.String("calculator.phase.before", st.before.Phase().String()),
		),
	)
	defer span.End(trace.WithTimestamp(st.end))

	elapsed := float64(st.end.Sub(st.start).Microseconds()) / 1000.0 // ms

	attrs := metric.WithAttributes(attribute.String("kind", kind))
	keysCounter.Add(ctx, 1, attrs)
	keyHistogram.Record(ctx, elapsed, attrs)

	span.SetAttributes(
		attribute.String("calculator.phase.after", st.after.Phase().String()),
		attribute.String("calculator.entry", st.after.Entry()),
	)

	if err := st.after.Err(); err != nil && st.before.Err() == nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		errorCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", calculator.ErrorCode(err))))

		logger.Warn("calculation failed",
			zap.Int("key", st.index),
			zap.String("label", label),
			zap.Error(err),
		)
		return
	}

	if resolved(st.before, st.event) {
		result := st.after.Value()
		resultGauge.Record(ctx, result, attrs)

		span.AddEvent("computation.complete", trace.WithAttributes(
			attribute.Float64("result", result),
			attribute.Float64("duration_ms", elapsed),
		))

		logger.Info("calculation resolved",
			zap.Int("key", st.index),
			zap.String("label", label),
			zap.Float64("result", result),
			zap.Float64("duration_ms", elapsed),
		)
	}

	span.SetStatus(codes.Ok, "")
}

// resolved reports whether applying e to s computes a result.
func resolved(s calculator.State, e calculator.Event) bool {
	if s.Err() != nil || s.Phase() != calculator.PhaseEnteringSecond {
		return false
	}
	return e.Kind == calculator.KindOperator || e.Kind == calculator.KindEquals
}
