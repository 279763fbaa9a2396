package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mealora/mealora-backend/api/middleware"
	"github.com/mealora/mealora-backend/api/responses"
	"github.com/mealora/mealora-backend/internal/presence"
	pkgerrors "github.com/mealora/mealora-backend/pkg/errors"
	"github.com/mealora/mealora-backend/pkg/logger"
)

const streamHeartbeatInterval = 25 * time.Second

// Stream registers the caller with the presence hub and relays its events as
// server-sent events until the client disconnects.
func Stream(hub *presence.Hub, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		id := presence.Identity{
			Role:   middleware.RoleFromContext(r.Context()),
			UserID: middleware.UserIDFromContext(r.Context()),
		}
		if vehicle := middleware.VehicleFromContext(r.Context()); vehicle != nil {
			id.Vehicle = *vehicle
		}

		conn := presence.NewBufferedConn(32)
		if err := hub.Register(r.Context(), id, conn); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer hub.Unregister(id, conn)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		heartbeat := time.NewTicker(streamHeartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-conn.Done():
				return
			case <-heartbeat.C:
				fmt.Fprint(w, ": keep-alive\n\n")
				flusher.Flush()
			case event := <-conn.Events():
				if err := writeSSE(w, event); err != nil {
					if logg != nil {
						logg.Debug(r.Context(), "stream write failed, dropping client")
					}
					return
				}
				flusher.Flush()
			}
		}
	}
}

func writeSSE(w http.ResponseWriter, event presence.Event) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Name, data)
	return err
}
