// Package protocol defines the live interview WebSocket frames. The client
// speaks one answer per frame and the server replies with one prompt, so the
// wire alternates strictly answer/prompt until the closing report frame.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

const ProtocolVersion1 = "1"

type DecodeError struct {
	Code    string
	Message string
	Param   string
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	if strings.TrimSpace(e.Param) == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Param)
}

func badRequest(message, param string) *DecodeError {
	return &DecodeError{Code: "bad_request", Message: message, Param: param}
}

func unsupported(message, param string) *DecodeError {
	return &DecodeError{Code: "unsupported", Message: message, Param: param}
}

type ClientHello struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Language        string `json:"language,omitempty"`
	WantAudio       bool   `json:"want_audio,omitempty"`
}

// ClientAnswer carries one candidate answer, as audio or text.
type ClientAnswer struct {
	Type     string `json:"type"`
	AudioB64 string `json:"audio_b64,omitempty"`
	MIMEType string `json:"mime_type,omitempty"`
	Text     string `json:"text,omitempty"`
	Done     bool   `json:"done,omitempty"`
}

type ClientControl struct {
	Type string `json:"type"`
	Op   string `json:"op"`
}

func DecodeClientMessage(data []byte) (any, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, badRequest("invalid json frame", "")
	}
	typ := strings.TrimSpace(envelope.Type)
	if typ == "" {
		return nil, badRequest("missing type", "type")
	}

	switch typ {
	case "hello":
		var msg ClientHello
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid hello frame", "")
		}
		if err := ValidateHello(msg); err != nil {
			return nil, err
		}
		return msg, nil
	case "answer":
		var msg ClientAnswer
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid answer frame", "")
		}
		hasAudio := strings.TrimSpace(msg.AudioB64) != ""
		hasText := strings.TrimSpace(msg.Text) != ""
		if !hasAudio && !hasText && !msg.Done {
			return nil, badRequest("answer requires audio_b64, text, or done", "")
		}
		if hasAudio && hasText {
			return nil, badRequest("answer must carry audio_b64 or text, not both", "")
		}
		return msg, nil
	case "control":
		var msg ClientControl
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid control", "")
		}
		op := strings.TrimSpace(msg.Op)
		if op == "" {
			return nil, badRequest("control.op is required", "op")
		}
		switch op {
		case "end_session":
		default:
			return nil, unsupported("unsupported control operation", "op")
		}
		msg.Op = op
		return msg, nil
	default:
		return nil, badRequest("unsupported message type", "type")
	}
}

func ValidateHello(msg ClientHello) error {
	version := strings.TrimSpace(msg.ProtocolVersion)
	if version == "" {
		return badRequest("hello.protocol_version is required", "protocol_version")
	}
	if version != ProtocolVersion1 {
		return unsupported("unsupported protocol version", "protocol_version")
	}
	return nil
}

type ServerHelloAck struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	InterviewID     string `json:"interview_id"`
	Question        string `json:"question"`
	AudioB64        string `json:"audio_b64,omitempty"`
}

// ServerPrompt is the interviewer's next question after an accepted answer.
type ServerPrompt struct {
	Type     string `json:"type"`
	Question string `json:"question"`
	AudioB64 string `json:"audio_b64,omitempty"`
}

// ServerReport closes the conversation. The connection is shut down after
// this frame.
type ServerReport struct {
	Type     string          `json:"type"`
	Decision string          `json:"decision"`
	Report   json.RawMessage `json:"report"`
}

type ServerWarning struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ServerError struct {
	Type      string `json:"type"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
	Close     bool   `json:"close,omitempty"`
}
