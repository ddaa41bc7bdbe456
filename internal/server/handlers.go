package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/nao1215/accessdoc/internal/fetch"
	"github.com/nao1215/accessdoc/internal/model"
)

const maxRequestBody = 1 << 20

// analyzeRequest is the body of POST /analyze.
type analyzeRequest struct {
	URL string `json:"url"`
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client may be gone
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Accessibility Analyzer API is running."})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if _, err := fetch.NormalizeURL(req.URL); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.analyzer.Analyze(r.Context(), req.URL)
	if err != nil {
		s.logger.Error("analysis failed", "url", req.URL, "kind", model.Kind(err), "error", err)
		writeError(w, http.StatusInternalServerError, model.ErrorDetail(err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// streamURL reads and validates the url query parameter.
func streamURL(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("url"))
	if raw == "" {
		return "", errors.New("missing url query parameter")
	}
	if _, err := fetch.NormalizeURL(raw); err != nil {
		return "", err
	}
	return raw, nil
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	target, err := streamURL(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{}) //nolint:errcheck // not every writer supports deadlines

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		s.logger.Error("response does not support flushing", "error", err)
		return
	}

	for ev := range s.streamer.Stream(r.Context(), target) {
		data, err := json.Marshal(ev)
		if err != nil {
			s.logger.Error("failed to encode event", "error", err)
			return
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			s.logger.Debug("stream client gone", "url", target, "error", err)
			return
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	target, err := streamURL(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})  //nolint:errcheck // not every writer supports deadlines
	_ = rc.SetWriteDeadline(time.Time{}) //nolint:errcheck // not every writer supports deadlines

	conn, err := websocket.Accept(w, r, s.acceptOptions())
	if err != nil {
		s.logger.Warn("websocket handshake failed", "error", err)
		return
	}
	defer conn.CloseNow() //nolint:errcheck // closed normally below

	// Reads are discarded; the context ends when the client closes.
	ctx := conn.CloseRead(r.Context())
	for ev := range s.streamer.Stream(ctx, target) {
		if err := wsjson.Write(ctx, conn, ev); err != nil {
			s.logger.Debug("websocket client gone", "url", target, "error", err)
			return
		}
	}
	conn.Close(websocket.StatusNormalClosure, "analysis finished") //nolint:errcheck // best effort
}

func (s *Server) acceptOptions() *websocket.AcceptOptions {
	opts := &websocket.AcceptOptions{}
	for _, o := range s.origins {
		if o == "*" {
			opts.InsecureSkipVerify = true
			return opts
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			opts.OriginPatterns = append(opts.OriginPatterns, u.Host)
		}
	}
	return opts
}
