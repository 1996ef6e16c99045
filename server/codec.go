package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	ErrUnknownCodec = errors.New("unknown codec")
	ErrEmptyFrame   = errors.New("empty frame")
)

// Codec 信封编解码；JSON 走文本帧，MessagePack 走二进制帧
type Codec interface {
	Name() string
	Encode(t string, payload any) ([]byte, error)
	Decode(b []byte) (Inbound, error)
	FrameType() int
}

// NewCodec 按名称选择编解码器："json" 或 "msgpack"
func NewCodec(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSONCodec{}, nil
	case "msgpack":
		return MsgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

// 入站载荷按消息类型解码
func decodeInbound(t string, unmarshal func(any) error) (Inbound, error) {
	in := Inbound{Type: t}
	var err error
	switch t {
	case MsgMove:
		err = unmarshal(&in.Key)
	case MsgPlay:
		err = unmarshal(&in.Play)
	case MsgChat:
		err = unmarshal(&in.Text)
	default:
		return in, fmt.Errorf("unknown message type %q", t)
	}
	return in, err
}

// JSONCodec 与浏览器客户端通信的默认编码
type JSONCodec struct{}

type jsonEnvelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p"`
}

func (JSONCodec) Name() string   { return "json" }
func (JSONCodec) FrameType() int { return websocket.TextMessage }

func (JSONCodec) Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, fmt.Errorf("trying to encode envelope type nil")
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(jsonEnvelope{T: t, P: pb})
}

func (JSONCodec) Decode(b []byte) (Inbound, error) {
	if len(b) == 0 {
		return Inbound{}, ErrEmptyFrame
	}
	var env jsonEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Inbound{}, err
	}
	return decodeInbound(env.T, func(v any) error {
		if len(env.P) == 0 {
			return fmt.Errorf("empty payload for type %q", env.T)
		}
		return json.Unmarshal(env.P, v)
	})
}

// MsgpackCodec 二进制客户端使用的紧凑编码
type MsgpackCodec struct{}

type msgpackEnvelope struct {
	T string             `msgpack:"t"`
	P msgpack.RawMessage `msgpack:"p"`
}

func (MsgpackCodec) Name() string   { return "msgpack" }
func (MsgpackCodec) FrameType() int { return websocket.BinaryMessage }

func (MsgpackCodec) Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, fmt.Errorf("trying to encode envelope type nil")
	}
	pb, err := msgpack.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return msgpack.Marshal(&msgpackEnvelope{T: t, P: pb})
}

func (MsgpackCodec) Decode(b []byte) (Inbound, error) {
	if len(b) == 0 {
		return Inbound{}, ErrEmptyFrame
	}
	var env msgpackEnvelope
	if err := msgpack.Unmarshal(b, &env); err != nil {
		return Inbound{}, err
	}
	return decodeInbound(env.T, func(v any) error {
		if len(env.P) == 0 {
			return fmt.Errorf("empty payload for type %q", env.T)
		}
		return msgpack.Unmarshal(env.P, v)
	})
}
