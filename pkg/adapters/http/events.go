package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aretw0/omnibot/pkg/domain"
)

// SubscribeEvents handles GET /events (SSE).
// conversation_id narrows the stream to one conversation; type takes a comma
// separated list of event types to keep.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	conversationID := r.URL.Query().Get("conversation_id")
	var types map[domain.EventType]bool
	if raw := r.URL.Query().Get("type"); raw != "" {
		types = make(map[domain.EventType]bool)
		for _, t := range strings.Split(raw, ",") {
			types[domain.EventType(strings.ToUpper(strings.TrimSpace(t)))] = true
		}
	}

	ch, cancel := s.Broker.Subscribe(conversationID)
	defer cancel()
	if s.Metrics != nil {
		s.Metrics.SSEConnections.Inc()
		defer s.Metrics.SSEConnections.Dec()
	}
	s.Logger.Info("SSE client subscribed", "conversation_id", conversationID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE client disconnected", "conversation_id", conversationID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var head struct {
				ID   string           `json:"id"`
				Type domain.EventType `json:"type"`
			}
			if err := json.Unmarshal(msg, &head); err != nil {
				continue
			}
			if types != nil && !types[head.Type] {
				continue
			}
			fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", head.ID, head.Type, msg)
			flusher.Flush()
		}
	}
}
