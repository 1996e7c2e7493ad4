package sessions

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go-chi-calculator/internal/calculator"
	"go-chi-calculator/internal/observability"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	streamReadLimit = 1024
	streamIdle      = 5 * time.Minute
	streamWriteWait = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The keypad client may be served from any origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Stream handles GET /calculator/sessions/{id}/ws — a WebSocket on which the
// client sends {"key": "7"} per press and receives the session view after
// each one. The current view is pushed once on connect.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx).With(zap.String("session_id", id))

	sess, err := h.store.Get(id)
	if err != nil {
		ctx, span := tracer.Start(ctx, "calculator.stream.open")
		defer span.End()
		h.fail(ctx, span, logger, "stream", err, w)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(streamReadLimit)
	logger.Info("calculator stream opened")

	if err := h.push(conn, sess); err != nil {
		logger.Warn("stream write failed", zap.Error(err))
		return
	}

	for {
		conn.SetReadDeadline(time.Now().Add(streamIdle))

		var msg KeyMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("stream closed unexpectedly", zap.Error(err))
			}
			break
		}

		keyCtx, span := tracer.Start(ctx, "calculator.stream.key",
			trace.WithAttributes(
				attribute.String("calculator.session.id", id),
				attribute.String("calculator.key.label", msg.Key),
			),
		)

		reply, keep := h.handleStreamKey(keyCtx, span, logger, id, msg)
		span.End()

		conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			logger.Warn("stream write failed", zap.Error(err))
			break
		}
		if !keep {
			break
		}
	}

	logger.Info("calculator stream closed")
}

// handleStreamKey applies one streamed key. keep is false when the session
// no longer exists.
func (h *Handler) handleStreamKey(ctx context.Context, span trace.Span, logger *zap.Logger, id string, msg KeyMessage) (StreamMessage, bool) {
	e, err := calculator.ParseKey(msg.Key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unknown key")
		errorCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", "stream")))
		return StreamMessage{SessionID: id, Error: err.Error()}, true
	}

	var steps []keyStep
	sess, err := h.store.Update(id, func(s calculator.State) calculator.State {
		s, steps = applyKeys(s, []calculator.Event{e})
		return s
	})
	if errors.Is(err, ErrSessionNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session not found")
		return StreamMessage{SessionID: id, Error: "session not found"}, false
	}
	recordKeys(ctx, logger, steps)

	span.SetStatus(codes.Ok, "")
	view := h.formatter.View(sess.State)
	return StreamMessage{SessionID: id, View: &view}, true
}

func (h *Handler) push(conn *websocket.Conn, sess Session) error {
	view := h.formatter.View(sess.State)
	conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	return conn.WriteJSON(StreamMessage{SessionID: sess.ID, View: &view})
}
