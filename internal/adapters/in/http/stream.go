package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"partnerdispatch/internal/core/domain/model/kernel"

	"github.com/labstack/echo/v4"
)

// StreamPositions handles GET /api/v1/jobs/{id}/positions/stream.
//
// Events:
//
//	position  a new sample
//	stale     no sample for StaleAfter; sent once per silence
//	closed    the job finished; the stream ends
//
// A comment line goes out every Heartbeat to keep proxies from timing out.
// Reconnecting clients get only samples published after they are back.
func (s *Server) StreamPositions(c echo.Context) error {
	jobID, err := jobIDParam(c)
	if err != nil {
		return s.fail(c, err)
	}
	channel, err := s.hub.Get(jobID)
	if err != nil {
		return s.fail(c, err)
	}
	sub, err := channel.Subscribe()
	if err != nil {
		return s.fail(c, err)
	}
	defer sub.Cancel()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.Header().Set(echo.HeaderAccessControlAllowOrigin, "*")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	heartbeat := time.NewTicker(s.opts.Heartbeat)
	defer heartbeat.Stop()
	silence := time.NewTimer(s.opts.StaleAfter)
	defer silence.Stop()
	stale := false

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil

		case <-s.streamsDone:
			return nil

		case sample, ok := <-sub.C():
			if !ok {
				return writeEvent(w, "closed", "", streamState(jobID, channel.LastSampleAt()))
			}
			stale = false
			silence.Reset(s.opts.StaleAfter)
			if err = writeEvent(w, "position", fmt.Sprint(sample.Sequence), Position{
				Lat:       sample.Lat(),
				Lng:       sample.Lng(),
				Sequence:  sample.Sequence,
				Timestamp: sample.Timestamp,
			}); err != nil {
				return nil
			}
			if dropped := sub.Dropped(); dropped > 0 {
				s.logger.DebugContext(ctx, "Slow stream consumer", "job_id", jobID.String(), "dropped", dropped)
			}

		case <-silence.C:
			if !stale {
				stale = true
				if err = writeEvent(w, "stale", "", streamState(jobID, channel.LastSampleAt())); err != nil {
					return nil
				}
			}
			silence.Reset(s.opts.StaleAfter)

		case <-heartbeat.C:
			if _, err = fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}

func streamState(jobID kernel.UUID, last time.Time) StreamState {
	state := StreamState{JobID: jobID.Google()}
	if !last.IsZero() {
		state.LastSampleAt = &last
	}
	return state
}

func writeEvent(w *echo.Response, event, id string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if id != "" {
		if _, err = fmt.Fprintf(w, "id: %s\n", id); err != nil {
			return err
		}
	}
	if _, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	w.Flush()
	return nil
}
