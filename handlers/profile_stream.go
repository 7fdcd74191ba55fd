package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wildlife-progress/logger"
	"wildlife-progress/middleware"
	"wildlife-progress/services"

	"github.com/gofiber/fiber/v2"
)

const defaultStreamInterval = 2 * time.Second

// ProfileStream pushes the caller's profile as server-sent events whenever the
// stored document changes (for example from another tab). Last writer wins;
// the stream only reads.
type ProfileStream struct {
	Progress *services.ProgressionService
	Interval time.Duration
	Log      *logger.Logger
}

func (s *ProfileStream) Handle(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	// Make sure a document exists before we start polling it.
	if _, err := s.Progress.LoadProfile(c.UserContext(), userID); err != nil {
		return respondError(c, err)
	}

	interval := s.Interval
	if interval <= 0 {
		interval = defaultStreamInterval
	}
	key := s.Progress.ProfileKey(userID)
	// done only closes on server shutdown. A client disconnect shows up as a
	// failed write or flush in push.
	done := c.Context().Done()

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	// c must not be used inside the writer; it is recycled once Handle returns.
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var last []byte
		for {
			changed, err := s.push(w, key, last)
			if err != nil {
				s.Log.Debug("profile stream closed", "profile_key", key, "error", err)
				return
			}
			if changed != nil {
				last = changed
			}

			select {
			case <-ticker.C:
			case <-done:
				return
			}
		}
	})
	return nil
}

// push writes one event when the stored body differs from last and returns
// the new body, or a keepalive comment otherwise. A write error means the
// client went away.
func (s *ProfileStream) push(w *bufio.Writer, key string, last []byte) ([]byte, error) {
	body, err := s.Progress.Docs.Get(context.Background(), key)
	if err != nil || bytes.Equal(body, last) {
		if err != nil {
			s.Log.Warn("profile stream read failed", "profile_key", key, "error", err)
		}
		if _, werr := w.WriteString(":\n\n"); werr != nil {
			return nil, werr
		}
		return nil, w.Flush()
	}

	prof, status, decodeErr := services.DecodeProfile(body)
	if status == services.DecodeMalformed {
		s.Log.Warn("profile stream skipped malformed document", "profile_key", key, "error", decodeErr)
		return body, w.Flush()
	}

	payload, err := json.Marshal(newProfileView(prof, s.Progress.Levels))
	if err != nil {
		return nil, err
	}
	if _, err := fmt.Fprintf(w, "event: profile\ndata: %s\n\n", payload); err != nil {
		return nil, err
	}
	return body, w.Flush()
}
