package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aihr-dev/interviewd/pkg/core"
	"github.com/aihr-dev/interviewd/pkg/gateway/config"
	"github.com/aihr-dev/interviewd/pkg/gateway/lifecycle"
	"github.com/aihr-dev/interviewd/pkg/gateway/live/protocol"
	"github.com/aihr-dev/interviewd/pkg/gateway/live/sessions"
	"github.com/aihr-dev/interviewd/pkg/gateway/mw"
	"github.com/aihr-dev/interviewd/pkg/interview"
	"github.com/aihr-dev/interviewd/pkg/voice/tts"
)

// Live handles GET /v1/interviews/{id}/live websocket conversations. The
// frames alternate strictly: one answer in, one prompt out, until the report
// frame closes the interview.
type Live struct {
	Orchestrator *interview.Orchestrator
	TTS          tts.Provider
	Config       config.Config
	Logger       *slog.Logger
	Lifecycle    *lifecycle.Lifecycle
	LiveSessions *sessions.Tracker
}

func (h Live) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	id := r.PathValue("id")

	if h.Lifecycle.IsDraining() {
		writeCoreErrorJSON(w, reqID, &core.Error{
			Type:    core.ErrAPI,
			Message: "server is draining",
			Code:    "draining",
		}, http.StatusServiceUnavailable)
		return
	}

	sess, err := h.Orchestrator.GetSession(r.Context(), id)
	if err != nil {
		coreErr, status := coreErrorFrom(err, reqID)
		writeCoreErrorJSON(w, reqID, coreErr, status)
		return
	}
	if sess.IsTerminal() {
		writeCoreErrorJSON(w, reqID, core.NewSessionClosedError("interview is already "+string(sess.Status)), http.StatusUnprocessableEntity)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(h.Config.LiveMaxFrameBytes)

	lc := &liveConn{
		conn:         conn,
		writeTimeout: h.Config.LiveWSWriteTimeout,
	}

	hello, ok := h.handshake(lc)
	if !ok {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if h.LiveSessions != nil {
		unregister := h.LiveSessions.Register(id, sessions.Handle{
			Cancel: cancel,
			Warn: func(code, message string) error {
				return lc.writeJSON(protocol.ServerWarning{Type: "warning", Code: code, Message: message})
			},
		})
		defer unregister()
	}

	stopPings := h.startPings(ctx, lc)
	defer stopPings()

	ack := protocol.ServerHelloAck{
		Type:            "hello_ack",
		ProtocolVersion: protocol.ProtocolVersion1,
		InterviewID:     id,
		Question:        sess.CurrentQuestion,
	}
	ack.AudioB64 = h.synthesize(ctx, id, hello, ack.Question)
	if err := lc.writeJSON(ack); err != nil {
		return
	}

	for {
		decoded, ok := h.readFrame(lc)
		if !ok {
			return
		}

		switch msg := decoded.(type) {
		case protocol.ClientControl:
			// end_session is the only op; the candidate is leaving.
			h.Logger.Info("live session ended by client", "interview_id", id)
			lc.close(websocket.CloseNormalClosure, "session ended")
			return
		case protocol.ClientAnswer:
			done, err := h.handleAnswer(ctx, lc, id, hello, msg)
			if err != nil || done {
				return
			}
		case protocol.ClientHello:
			_ = lc.writeJSON(protocol.ServerError{
				Type: "error", Code: "bad_request",
				Message: "hello may only be sent once",
			})
		}
	}
}

func (h Live) handshake(lc *liveConn) (protocol.ClientHello, bool) {
	_ = lc.conn.SetReadDeadline(time.Now().Add(h.Config.LiveHandshakeTimeout))
	messageType, firstFrame, err := lc.conn.ReadMessage()
	if err != nil || messageType != websocket.TextMessage {
		_ = lc.writeJSON(protocol.ServerError{Type: "error", Code: "bad_request", Message: "first frame must be hello", Close: true})
		return protocol.ClientHello{}, false
	}
	_ = lc.conn.SetReadDeadline(time.Time{})

	decoded, err := protocol.DecodeClientMessage(firstFrame)
	if err != nil {
		_ = lc.writeJSON(protocol.ServerError{Type: "error", Code: "bad_request", Message: err.Error(), Close: true})
		return protocol.ClientHello{}, false
	}
	hello, ok := decoded.(protocol.ClientHello)
	if !ok {
		_ = lc.writeJSON(protocol.ServerError{Type: "error", Code: "bad_request", Message: "first frame must be hello", Close: true})
		return protocol.ClientHello{}, false
	}
	return hello, true
}

func (h Live) readFrame(lc *liveConn) (any, bool) {
	messageType, frame, err := lc.conn.ReadMessage()
	if err != nil {
		return nil, false
	}
	if messageType != websocket.TextMessage {
		_ = lc.writeJSON(protocol.ServerError{Type: "error", Code: "bad_request", Message: "frames must be json text"})
		return nil, false
	}
	decoded, derr := protocol.DecodeClientMessage(frame)
	if derr != nil {
		_ = lc.writeJSON(protocol.ServerError{Type: "error", Code: "bad_request", Message: derr.Error()})
		return nil, false
	}
	return decoded, true
}

// handleAnswer runs one turn. done=true means the report frame was sent and
// the connection should close.
func (h Live) handleAnswer(ctx context.Context, lc *liveConn, id string, hello protocol.ClientHello, msg protocol.ClientAnswer) (bool, error) {
	var audio []byte
	if msg.AudioB64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(msg.AudioB64)
		if err != nil {
			return false, lc.writeJSON(protocol.ServerError{
				Type: "error", Code: "bad_request",
				Message: "audio_b64 is not valid base64",
			})
		}
		audio = decoded
	}

	result, err := h.Orchestrator.SubmitTurn(ctx, id, interview.TurnInput{
		Audio: audio,
		Text:  msg.Text,
		Done:  msg.Done,
	})
	if err != nil {
		var coreErr *core.Error
		retryable := false
		code := "turn_failed"
		if errors.As(err, &coreErr) {
			retryable = coreErr.IsRetryable()
			code = string(coreErr.Type)
		}
		werr := lc.writeJSON(protocol.ServerError{
			Type:      "error",
			Code:      code,
			Message:   err.Error(),
			Retryable: retryable,
			Close:     !retryable,
		})
		if !retryable {
			lc.close(websocket.ClosePolicyViolation, "turn failed")
			return true, err
		}
		return false, werr
	}

	if result.Report != nil {
		raw, _ := json.Marshal(result.Report)
		_ = lc.writeJSON(protocol.ServerReport{
			Type:     "report",
			Decision: string(result.Decision),
			Report:   raw,
		})
		lc.close(websocket.CloseNormalClosure, "interview complete")
		return true, nil
	}

	prompt := protocol.ServerPrompt{Type: "prompt", Question: result.Question}
	prompt.AudioB64 = h.synthesize(ctx, id, hello, prompt.Question)
	return false, lc.writeJSON(prompt)
}

// synthesize returns prompt audio when the client asked for it, empty
// otherwise. Synthesis failures degrade to text-only prompts.
func (h Live) synthesize(ctx context.Context, id string, hello protocol.ClientHello, text string) string {
	if !hello.WantAudio || h.TTS == nil || text == "" {
		return ""
	}
	out, err := h.TTS.Synthesize(ctx, text, tts.SynthesizeOptions{Voice: h.Config.ElevenLabsVoice})
	if err != nil {
		h.Logger.Warn("prompt synthesis failed", "interview_id", id, "error", err)
		return ""
	}
	return base64.StdEncoding.EncodeToString(out.Audio)
}

func (h Live) startPings(ctx context.Context, lc *liveConn) (stop func()) {
	ticker := time.NewTicker(h.Config.LiveWSPingInterval)
	done := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := lc.writeControl(websocket.PingMessage); err != nil {
					return
				}
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}

// liveConn serializes writes; turn responses, warnings, and pings come from
// different goroutines.
type liveConn struct {
	mu           sync.Mutex
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func (c *liveConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.WriteJSON(v)
}

func (c *liveConn) writeControl(messageType int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(messageType, nil, time.Now().Add(c.writeTimeout))
}

func (c *liveConn) close(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.writeTimeout))
}
