package feed

import (
	"encoding/json"
	"fmt"

	v1 "github.com/craftmarket/salesagg/internal/api/v1"
)

// Codec names accepted in configuration.
const (
	CodecJSON     = "json"
	CodecProtobuf = "protobuf"
)

// Codec turns a message payload into a sales event.
type Codec interface {
	Decode(payload []byte) (*v1.SalesEvent, error)
	Name() string
}

// NewCodec returns the codec registered under name.
func NewCodec(name string) (Codec, error) {
	switch name {
	case "", CodecJSON:
		return JSONCodec{}, nil
	case CodecProtobuf:
		codec, err := NewProtoCodec()
		if err != nil {
			return nil, err
		}
		return codec, nil
	default:
		return nil, fmt.Errorf("unknown feed codec %q (must be json or protobuf)", name)
	}
}

// JSONCodec decodes the same JSON body the HTTP ingest endpoint accepts.
type JSONCodec struct{}

func (JSONCodec) Name() string { return CodecJSON }

func (JSONCodec) Decode(payload []byte) (*v1.SalesEvent, error) {
	var evt v1.SalesEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, fmt.Errorf("decode json sales event: %w", err)
	}
	return &evt, nil
}
