package protocol

import (
	"encoding/json"
	"testing"
)

func TestComponentDirective_ShowShape(t *testing.T) {
	index := 0
	d := ComponentDirective{Action: "show", ID: "c1", Content: "Segitiga siku-siku", Index: &index}
	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"action":"show","id":"c1","content":"Segitiga siku-siku","index":0}`
	if string(raw) != want {
		t.Fatalf("payload=%s, want %s", raw, want)
	}
}

func TestComponentDirective_ToggleOmitsContentAndIndex(t *testing.T) {
	raw, err := json.Marshal(ComponentDirective{Action: "toggle", ID: "c2"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"action":"toggle","id":"c2"}`
	if string(raw) != want {
		t.Fatalf("payload=%s, want %s", raw, want)
	}
}

func TestIllustrationDirective_Shapes(t *testing.T) {
	show, _ := json.Marshal(IllustrationDirective{State: "show", ImageURL: "https://img.example/p.png"})
	if string(show) != `{"state":"show","image_url":"https://img.example/p.png"}` {
		t.Fatalf("show payload=%s", show)
	}
	hide, _ := json.Marshal(IllustrationDirective{State: "hidden"})
	if string(hide) != `{"state":"hidden"}` {
		t.Fatalf("hide payload=%s", hide)
	}
}

func TestDecodeIllustrationAck(t *testing.T) {
	ack, err := DecodeIllustrationAck(`{"ok":true}`)
	if err != nil || !ack.OK {
		t.Fatalf("ack=%v err=%v, want ok", ack, err)
	}
	ack, err = DecodeIllustrationAck(`{"ok":false,"error":"display busy"}`)
	if err != nil || ack.OK || ack.Error != "display busy" {
		t.Fatalf("ack=%v err=%v, want embedded error", ack, err)
	}
	if _, err := DecodeIllustrationAck(`not json`); err == nil {
		t.Fatalf("expected decode error for malformed ack")
	}
}

func TestDecodeToggleRequest(t *testing.T) {
	req, err := DecodeToggleRequest(`{"id":"abc"}`)
	if err != nil || req.ID != "abc" {
		t.Fatalf("req=%v err=%v", req, err)
	}

	for _, payload := range []string{`{}`, `{"id":""}`, `{"id":"  "}`, `garbage`} {
		if _, err := DecodeToggleRequest(payload); err == nil {
			t.Fatalf("payload %q must fail to decode", payload)
		}
	}
}

func TestDecodeClientFrame(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"hello", `{"type":"hello","protocol_version":"1","identity":"fe_1"}`, false},
		{"hello missing identity", `{"type":"hello","protocol_version":"1"}`, true},
		{"rpc_request", `{"type":"rpc_request","id":"r1","method":"agent.toggleComponent","payload":"{}"}`, false},
		{"rpc_request missing method", `{"type":"rpc_request","id":"r1","payload":"{}"}`, true},
		{"rpc_response", `{"type":"rpc_response","id":"r1","payload":"{\"ok\":true}"}`, false},
		{"rpc_response missing id", `{"type":"rpc_response"}`, true},
		{"unknown type", `{"type":"dance"}`, true},
		{"missing type", `{}`, true},
		{"not json", `]`, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeClientFrame([]byte(tc.data))
			if (err != nil) != tc.wantErr {
				t.Fatalf("err=%v, wantErr=%v", err, tc.wantErr)
			}
		})
	}
}

func TestDecodeClientFrame_TypedResults(t *testing.T) {
	decoded, err := DecodeClientFrame([]byte(`{"type":"rpc_request","id":"r9","method":"agent.toggleComponent","payload":"{\"id\":\"c1\"}"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	req, ok := decoded.(RPCRequest)
	if !ok {
		t.Fatalf("decoded=%T, want RPCRequest", decoded)
	}
	if req.Method != MethodToggleComponent {
		t.Fatalf("method=%q, want %q", req.Method, MethodToggleComponent)
	}
}
