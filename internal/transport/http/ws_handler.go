package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"prepost-poll/internal/app"
	"prepost-poll/internal/domain"
)

// WSHandler carries the live parts of a page: checkbox toggles in, selection and
// notification changes out.
type WSHandler struct {
	service  *app.PageService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.PageService, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type togglePayload struct {
	Variant    string `json:"variant"`
	QuestionID string `json:"questionId"`
	Option     string `json:"option"`
	Checked    bool   `json:"checked"`
}

type selectionPayload struct {
	Variant    string   `json:"variant"`
	QuestionID string   `json:"questionId"`
	Checked    []string `json:"checked"`
}

type notificationPayload struct {
	Seq      uint64 `json:"seq"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Visible  bool   `json:"visible"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the page's connection and wires it to the page session named by
// the session cookie (or the session query parameter).
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	if id == "" {
		id = r.URL.Query().Get("session")
	}
	if _, err := h.service.Session(r.Context(), id); err != nil {
		http.Error(w, "unknown page session", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	updates, cancel, err := h.service.Subscribe(r.Context(), id)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()
	h.logger.Debug("ws connected", zap.String("session", id))

	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})
	out := outbox{ch: make(chan outboundMessage[any], 16), writerDone: writerDone}

	// single writer: gorilla connections allow one concurrent writer
	go func() {
		defer close(writerDone)
		for msg := range out.ch {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", zap.String("session", id), zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case n, ok := <-updates:
				if !ok {
					return
				}
				if !out.push(outboundMessage[any]{Type: "notification", Payload: toNotificationPayload(n)}, closeSignals) {
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var reply outboundMessage[any]
		switch inbound.Type {
		case "toggle":
			var payload togglePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				reply = outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid toggle payload"}}
				break
			}
			reply = h.toggle(r, id, payload)
		default:
			reply = outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
		if !out.push(reply, nil) {
			break
		}
	}

	close(closeSignals)
	<-updatesDone
	close(out.ch)
	<-writerDone
	h.logger.Debug("ws disconnected", zap.String("session", id))
}

// outbox queues messages for the writer goroutine.
type outbox struct {
	ch         chan outboundMessage[any]
	writerDone <-chan struct{}
}

// push queues msg. It reports false once the writer has stopped or stop is closed,
// so a dead connection never blocks the caller.
func (o outbox) push(msg outboundMessage[any], stop <-chan struct{}) bool {
	select {
	case o.ch <- msg:
		return true
	case <-o.writerDone:
		return false
	case <-stop:
		return false
	}
}

// toggle answers with the selection left after the change. A refused over-selection
// is still a selection reply; the notification stream carries the warning.
func (h *WSHandler) toggle(r *http.Request, id string, payload togglePayload) outboundMessage[any] {
	variant, err := domain.ParseVariant(payload.Variant)
	if err != nil {
		return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
	}
	checked, err := h.service.ToggleCheckbox(r.Context(), id, variant, payload.QuestionID, payload.Option, payload.Checked)
	var verr *domain.ValidationError
	if err != nil && !errors.As(err, &verr) {
		return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
	}
	return outboundMessage[any]{Type: "selection", Payload: selectionPayload{
		Variant:    string(variant),
		QuestionID: payload.QuestionID,
		Checked:    checked,
	}}
}

func toNotificationPayload(n app.Notification) notificationPayload {
	return notificationPayload{
		Seq:      n.Seq,
		Message:  n.Message,
		Severity: string(n.Severity),
		Visible:  n.Visible,
	}
}
