package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/theduckgroup/Apps-sub000/internal/domain"
	"github.com/theduckgroup/Apps-sub000/internal/events"
	"github.com/theduckgroup/Apps-sub000/internal/middleware"
)

const heartbeatInterval = 15 * time.Second

// EventsHandler streams change notifications as server-sent events.
type EventsHandler struct {
	responder
	hub       *events.Hub
	heartbeat time.Duration
}

func NewEventsHandler(hub *events.Hub, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{
		responder: newResponder(logger, nil),
		hub:       hub,
		heartbeat: heartbeatInterval,
	}
}

func validTopic(topic string) bool {
	if topic == domain.TopicCatalogs {
		return true
	}
	user, ok := strings.CutPrefix(topic, domain.ReportsTopic(""))
	return ok && user != ""
}

// Stream handles GET /events?topic=catalogs&topic=reports:kim
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	topics := r.URL.Query()["topic"]
	if len(topics) == 0 {
		h.respondError(w, r, domain.NewValidationError("topic", "required"))
		return
	}
	for _, t := range topics {
		if !validTopic(t) {
			h.respondError(w, r, domain.NewValidationError("topic", fmt.Sprintf("unknown topic %q", t)))
			return
		}
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.respondError(w, r, fmt.Errorf("streaming unsupported"))
		return
	}

	sub := h.hub.Subscribe(topics...)
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	requestID := middleware.GetRequestID(r.Context())
	h.logger.Debug("event stream opened", zap.String("request_id", requestID), zap.Strings("topics", topics))

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Debug("event stream closed", zap.String("request_id", requestID))
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case e, ok := <-sub.C:
			if !ok {
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				h.logger.Error("encode event", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, data)
			flusher.Flush()
		}
	}
}
