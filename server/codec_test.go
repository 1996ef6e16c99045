package server

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

func TestNewCodec(t *testing.T) {
	for name, want := range map[string]string{"": "json", "json": "json", "msgpack": "msgpack"} {
		c, err := NewCodec(name)
		if err != nil {
			t.Fatalf("NewCodec(%q): %v", name, err)
		}
		if c.Name() != want {
			t.Fatalf("NewCodec(%q).Name() = %q, want %q", name, c.Name(), want)
		}
	}
	if _, err := NewCodec("xml"); !errors.Is(err, ErrUnknownCodec) {
		t.Fatalf("err = %v, want ErrUnknownCodec", err)
	}
}

func TestJSONCodecDecode(t *testing.T) {
	c := JSONCodec{}
	tests := []struct {
		frame string
		want  Inbound
	}{
		{`{"t":"move","p":"ArrowUp"}`, Inbound{Type: MsgMove, Key: "ArrowUp"}},
		{`{"t":"play","p":{"username":"bob","color":"red"}}`, Inbound{Type: MsgPlay, Play: PlayEvent{Username: "bob", Color: "red"}}},
		{`{"t":"message","p":"hi"}`, Inbound{Type: MsgChat, Text: "hi"}},
	}
	for _, tt := range tests {
		got, err := c.Decode([]byte(tt.frame))
		if err != nil {
			t.Fatalf("decode %s: %v", tt.frame, err)
		}
		if got != tt.want {
			t.Fatalf("decode %s = %+v, want %+v", tt.frame, got, tt.want)
		}
	}

	for _, bad := range []string{"", "{", `{"t":"jump","p":1}`, `{"t":"move"}`, `{"t":"move","p":3}`} {
		if _, err := c.Decode([]byte(bad)); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestJSONCodecEncode(t *testing.T) {
	c := JSONCodec{}
	b, err := c.Encode(EventCreated, "room-1")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var env struct {
		T string `json:"t"`
		P string `json:"p"`
	}
	if err := json.Unmarshal(b, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.T != EventCreated || env.P != "room-1" {
		t.Fatalf("envelope = %+v", env)
	}
	if _, err := c.Encode("", nil); err == nil {
		t.Fatalf("expected error for empty type")
	}
	if c.FrameType() != websocket.TextMessage {
		t.Fatalf("json should use text frames")
	}
}

func TestMsgpackCodecRoundTrip(t *testing.T) {
	c := MsgpackCodec{}
	p, err := msgpack.Marshal(PlayEvent{Username: "eve", Color: "green"})
	if err != nil {
		t.Fatal(err)
	}
	frame, err := msgpack.Marshal(&msgpackEnvelope{T: MsgPlay, P: p})
	if err != nil {
		t.Fatal(err)
	}
	in, err := c.Decode(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if in.Type != MsgPlay || in.Play.Username != "eve" || in.Play.Color != "green" {
		t.Fatalf("inbound = %+v", in)
	}

	out, err := c.Encode(EventMessage, ChatMessage{Author: "eve", Message: "gg"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var env msgpackEnvelope
	if err := msgpack.Unmarshal(out, &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	var msg ChatMessage
	if err := msgpack.Unmarshal(env.P, &msg); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if env.T != EventMessage || msg.Message != "gg" {
		t.Fatalf("decoded %s %+v", env.T, msg)
	}
	if c.FrameType() != websocket.BinaryMessage {
		t.Fatalf("msgpack should use binary frames")
	}
	if _, err := c.Decode(nil); !errors.Is(err, ErrEmptyFrame) {
		t.Fatalf("err = %v, want ErrEmptyFrame", err)
	}
}
