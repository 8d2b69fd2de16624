package server

import (
	"encoding/base64"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/moccet/speech-gateway/internal/config"
	"github.com/moccet/speech-gateway/internal/observability"
	"github.com/moccet/speech-gateway/internal/pipeline"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// In production, validate origin against known clients.
		// For now, allow all origins (development only)
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// SpeakRequest is a client request to synthesize and stream one block of text
type SpeakRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voice_id,omitempty"`
}

// SegmentMessage is one server push frame. Type is "segment" for audio,
// "done" when a request has fully streamed, "error" for a rejected request.
type SegmentMessage struct {
	Type       string `json:"type"`
	Index      int    `json:"index,omitempty"`
	Text       string `json:"text,omitempty"`
	Audio      string `json:"audio,omitempty"` // Base64 encoded audio bytes
	DurationMs int    `json:"duration_ms,omitempty"`
	Final      bool   `json:"final,omitempty"`
	Segments   int    `json:"segments,omitempty"` // Total emitted, on "done"
	Message    string `json:"message,omitempty"`  // Detail, on "error"
}

// StreamHandler serves the speech streaming WebSocket endpoint
type StreamHandler struct {
	cfg    *config.Config
	pipe   *pipeline.Pipeline
	logger zerolog.Logger
}

// NewStreamHandler creates a handler around a pipeline
func NewStreamHandler(cfg *config.Config, pipe *pipeline.Pipeline) *StreamHandler {
	return &StreamHandler{
		cfg:    cfg,
		pipe:   pipe,
		logger: observability.ComponentLogger("stream-handler"),
	}
}

// HandleSpeechWS upgrades the connection and serves speak requests until
// the client disconnects. Each request is answered with ordered segment
// frames followed by a done frame.
func (h *StreamHandler) HandleSpeechWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	sessionID := uuid.New().String()
	logger := h.logger.With().Str("session_id", sessionID).Logger()
	logger.Info().Msg("Speech stream session started")

	observability.RecordStreamStart()
	defer observability.RecordStreamEnd()
	defer logger.Info().Msg("Speech stream session ended")

	for {
		var req SpeakRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn().Err(err).Msg("Unexpected WebSocket close")
			}
			return
		}

		if req.Text == "" {
			if err := conn.WriteJSON(SegmentMessage{Type: "error", Message: "text is required"}); err != nil {
				return
			}
			continue
		}

		if err := h.streamRequest(r, conn, req, logger); err != nil {
			logger.Warn().Err(err).Msg("Stream write failed, closing session")
			return
		}
	}
}

// streamRequest runs one speak request through the streaming dispatcher
// and pushes each segment as it becomes available. A write failure abandons
// the consumer side; in-flight synthesis settles on its own.
func (h *StreamHandler) streamRequest(r *http.Request, conn *websocket.Conn, req SpeakRequest, logger zerolog.Logger) error {
	opts := pipeline.RunOptions{
		VoiceID:       req.VoiceID,
		Concurrency:   h.cfg.SynthConcurrency,
		EnableCaching: true,
	}

	emitted := 0
	for seg := range h.pipe.StreamText(r.Context(), req.Text, opts) {
		msg := SegmentMessage{
			Type:       "segment",
			Index:      seg.Index,
			Text:       seg.Text,
			Audio:      base64.StdEncoding.EncodeToString(seg.Audio),
			DurationMs: seg.EstimatedDurationMs,
			Final:      seg.Final,
		}
		if err := conn.WriteJSON(msg); err != nil {
			return err
		}
		emitted++
	}

	logger.Debug().Int("segments", emitted).Msg("Speak request streamed")
	return conn.WriteJSON(SegmentMessage{Type: "done", Segments: emitted})
}
