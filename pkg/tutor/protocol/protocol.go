// Package protocol defines the wire shapes exchanged with the tutoring
// frontend: the websocket frame envelope and the RPC directive payloads
// carried inside it.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	ProtocolVersion1 = "1"

	// RPC methods. Outbound method names are namespaced under client.*,
	// inbound under agent.*; they must match the frontend exactly.
	MethodComponent        = "client.component"
	MethodShowIllustration = "client.showIllustration"
	MethodToggleComponent  = "agent.toggleComponent"
)

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

// ComponentDirective is the client.component payload. Action is "show" when
// a component is created and "toggle" when its visibility flips; Content and
// Index are only present on "show".
type ComponentDirective struct {
	Action  string `json:"action"`
	ID      string `json:"id"`
	Content string `json:"content,omitempty"`
	Index   *int   `json:"index,omitempty"`
}

// IllustrationDirective is the client.showIllustration payload. State is
// "show" with an image URL, or "hidden" with no URL. The backend keeps no
// record of what is currently displayed; each directive is stateless.
type IllustrationDirective struct {
	State    string `json:"state"`
	ImageURL string `json:"image_url,omitempty"`
}

// IllustrationAck is the structured reply to an illustration directive.
type IllustrationAck struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ToggleRequest is the agent.toggleComponent payload sent by the frontend
// when the user presses a component's button.
type ToggleRequest struct {
	ID string `json:"id"`
}

func DecodeIllustrationAck(payload string) (IllustrationAck, error) {
	var ack IllustrationAck
	if err := json.Unmarshal([]byte(payload), &ack); err != nil {
		return IllustrationAck{}, badRequest("invalid illustration ack", "")
	}
	return ack, nil
}

func DecodeToggleRequest(payload string) (ToggleRequest, error) {
	var req ToggleRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return ToggleRequest{}, badRequest("invalid toggle payload", "")
	}
	if strings.TrimSpace(req.ID) == "" {
		return ToggleRequest{}, badRequest("missing component id", "id")
	}
	return req, nil
}

// Frame envelope. Every websocket text message is one JSON frame with a type
// discriminator, mirroring both directions of the channel.

type ClientHello struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Identity        string `json:"identity"`
	Token           string `json:"token,omitempty"`
}

type ServerHelloAck struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	SessionID       string `json:"session_id"`
	Room            string `json:"room"`
}

// RPCRequest carries one request/response RPC in either direction. Payload is
// an opaque serialized directive; the envelope does not interpret it.
type RPCRequest struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Payload string `json:"payload"`
}

type RPCResponse struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Payload string `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AssistantText is the spoken-acknowledgement surface toward the client.
type AssistantText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type ServerError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Close   bool   `json:"close,omitempty"`
}

type ServerWarning struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DecodeClientFrame parses one inbound websocket frame into its typed form.
func DecodeClientFrame(data []byte) (any, error) {
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
		if strings.TrimSpace(msg.ProtocolVersion) == "" {
			return nil, badRequest("hello.protocol_version is required", "protocol_version")
		}
		if strings.TrimSpace(msg.Identity) == "" {
			return nil, badRequest("hello.identity is required", "identity")
		}
		return msg, nil
	case "rpc_request":
		var msg RPCRequest
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid rpc_request", "")
		}
		if strings.TrimSpace(msg.ID) == "" {
			return nil, badRequest("rpc_request.id is required", "id")
		}
		if strings.TrimSpace(msg.Method) == "" {
			return nil, badRequest("rpc_request.method is required", "method")
		}
		return msg, nil
	case "rpc_response":
		var msg RPCResponse
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid rpc_response", "")
		}
		if strings.TrimSpace(msg.ID) == "" {
			return nil, badRequest("rpc_response.id is required", "id")
		}
		return msg, nil
	default:
		return nil, badRequest("unsupported message type", "type")
	}
}
