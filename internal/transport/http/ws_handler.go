package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

// WSHandler runs a take-quiz session over a websocket.
type WSHandler struct {
	attempts  *app.AttemptService
	logger    *zap.Logger
	timeLimit time.Duration
	upgrader  websocket.Upgrader
}

func NewWSHandler(attempts *app.AttemptService, logger *zap.Logger, timeLimit time.Duration) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		attempts:  attempts,
		logger:    logger,
		timeLimit: timeLimit,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	OptionIDs []string `json:"optionIds"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// ServeWS upgrades the request and drives the attempt named by attemptId.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	attemptID := r.URL.Query().Get("attemptId")
	if attemptID == "" {
		http.Error(w, "missing attemptId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	session, err := h.attempts.OpenSession(r.Context(), attemptID, h.timeLimit)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage{Type: app.EventError, Payload: errorPayload{Message: err.Error()}})
		return
	}

	send := make(chan outboundMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	// Only this goroutine writes to conn.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write failed", zap.String("attempt_id", attemptID), zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case ev, ok := <-session.Events():
				if !ok {
					return
				}
				select {
				case send <- toOutbound(ev):
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	reply := func(msg outboundMessage) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}
	fail := func(err error) {
		reply(outboundMessage{Type: app.EventError, Payload: errorPayload{Message: err.Error()}})
	}

	if err := session.Begin(); err != nil {
		fail(err)
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				fail(errInvalidPayload)
				continue
			}
			err = session.Select(payload.OptionIDs)
		case "submit":
			_, err = session.Submit()
		case "hint":
			_, err = session.Hint()
		case "tryAgain":
			err = session.TryAgain()
		case "next":
			err = session.Next()
		default:
			err = errUnsupportedMessage
		}
		if err != nil {
			fail(err)
		}
	}

	session.Close()
	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

func toOutbound(ev app.SessionEvent) outboundMessage {
	if attempt, ok := ev.Payload.(domain.QuizAttempt); ok {
		return outboundMessage{Type: ev.Type, Payload: toAttemptResponse(attempt)}
	}
	return outboundMessage{Type: ev.Type, Payload: ev.Payload}
}
