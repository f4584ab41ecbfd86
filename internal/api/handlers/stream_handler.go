package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/blockscrafting-arch/VoiceCoPilot/internal/metrics"
	"github.com/blockscrafting-arch/VoiceCoPilot/internal/stream"
)

// closeGrace bounds the final transcript flush after the socket ends.
const closeGrace = 30 * time.Second

type StreamHandler struct {
	transcriber stream.Transcriber
	sink        stream.Sink
	recorder    stream.Recorder // nil when mongo is disabled
	metrics     *metrics.Metrics
	log         *logrus.Logger

	maxBufferSeconds int
	upgrader         websocket.Upgrader
}

func NewStreamHandler(transcriber stream.Transcriber, sink stream.Sink, recorder stream.Recorder, m *metrics.Metrics, maxBufferSeconds int, log *logrus.Logger) *StreamHandler {
	return &StreamHandler{
		transcriber:      transcriber,
		sink:             sink,
		recorder:         recorder,
		metrics:          m,
		log:              log,
		maxBufferSeconds: maxBufferSeconds,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
	}
}

// wsConn serializes writes; transcription events and control frames come
// from different goroutines on teardown.
type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (w *wsConn) writeClose(code int, reason string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	msg := websocket.FormatCloseMessage(code, reason)
	return w.c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}

// Emit delivers one transcription event to the client.
func (w *wsConn) Emit(ev stream.TranscriptionEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return w.writeText(b)
}

// Stream upgrades the connection and runs one audio session over it.
func (h *StreamHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	sess := stream.NewSession(c.Request.Context(), stream.SessionConfig{
		Transcriber:      h.transcriber,
		Sink:             h.sink,
		Emitter:          wc,
		Recorder:         h.recorder,
		Metrics:          h.metrics,
		Log:              h.log,
		MaxBufferSeconds: h.maxBufferSeconds,
	})

	defer func() {
		if r := recover(); r != nil {
			h.log.WithField("session_id", sess.ID).WithField("panic", r).Error("stream session panic")
			// Best effort; the peer may already be gone.
			_ = wc.writeClose(websocket.CloseInternalServerErr, "Internal error")
		}
		// The request context dies with the socket; the flush still has
		// to upload the transcript.
		ctx, cancel := context.WithTimeout(context.Background(), closeGrace)
		defer cancel()
		sess.Close(ctx)
	}()

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		switch mt {
		case websocket.TextMessage:
			if err := sess.HandleText(c.Request.Context(), data); err != nil {
				return
			}
		case websocket.BinaryMessage:
			if err := sess.HandleBinary(c.Request.Context(), data); err != nil {
				return
			}
		}
	}
}
