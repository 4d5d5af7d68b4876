package feed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bufbuild/protocompile"
	v1 "github.com/craftmarket/salesagg/internal/api/v1"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

const (
	protoFileName    = "sales_event.proto"
	protoMessageName = "salesagg.feed.v1.SalesEvent"
)

//go:embed sales_event.proto
var salesEventProto string

// ProtoCodec decodes binary protobuf payloads. The message descriptor is
// compiled from the embedded .proto at construction, so no generated code is
// needed.
type ProtoCodec struct {
	desc protoreflect.MessageDescriptor
	json protojson.MarshalOptions
}

func NewProtoCodec() (*ProtoCodec, error) {
	compiler := protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(&singleFileResolver{
			fileName: protoFileName,
			content:  salesEventProto,
		}),
		SourceInfoMode: protocompile.SourceInfoNone,
	}

	files, err := compiler.Compile(context.Background(), protoFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to compile proto: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files compiled")
	}

	desc := files[0].Messages().ByName(protoreflect.FullName(protoMessageName).Name())
	if desc == nil {
		return nil, fmt.Errorf("message %s not found in %s", protoMessageName, protoFileName)
	}

	return &ProtoCodec{
		desc: desc,
		json: protojson.MarshalOptions{UseProtoNames: true},
	}, nil
}

func (c *ProtoCodec) Name() string { return CodecProtobuf }

// Descriptor returns the compiled SalesEvent message descriptor.
func (c *ProtoCodec) Descriptor() protoreflect.MessageDescriptor {
	return c.desc
}

// Decode unmarshals the binary message and maps it onto a SalesEvent through
// its canonical JSON form.
func (c *ProtoCodec) Decode(payload []byte) (*v1.SalesEvent, error) {
	msg := dynamicpb.NewMessage(c.desc)
	if err := proto.Unmarshal(payload, msg); err != nil {
		return nil, fmt.Errorf("decode protobuf sales event: %w", err)
	}

	raw, err := c.json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("render protobuf sales event: %w", err)
	}

	// protojson quotes 64-bit integers.
	var wire struct {
		EventID        string          `json:"event_id"`
		SellerID       string          `json:"seller_id"`
		ProductID      string          `json:"product_id"`
		ProductName    string          `json:"product_name"`
		EventType      string          `json:"event_type"`
		Channel        string          `json:"channel"`
		Quantity       int64           `json:"quantity,string"`
		UnitPrice      decimal.Decimal `json:"unit_price"`
		TotalAmount    decimal.Decimal `json:"total_amount"`
		NetRevenue     decimal.Decimal `json:"net_revenue"`
		EventTimestamp time.Time       `json:"event_timestamp"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("map protobuf sales event: %w", err)
	}

	return &v1.SalesEvent{
		EventID:        wire.EventID,
		SellerID:       wire.SellerID,
		ProductID:      wire.ProductID,
		ProductName:    wire.ProductName,
		EventType:      wire.EventType,
		Channel:        wire.Channel,
		Quantity:       wire.Quantity,
		UnitPrice:      wire.UnitPrice,
		TotalAmount:    wire.TotalAmount,
		NetRevenue:     wire.NetRevenue,
		EventTimestamp: wire.EventTimestamp,
	}, nil
}

// singleFileResolver serves the embedded proto to the compiler.
type singleFileResolver struct {
	fileName string
	content  string
}

func (r *singleFileResolver) FindFileByPath(path string) (protocompile.SearchResult, error) {
	if path == r.fileName {
		return protocompile.SearchResult{
			Source: strings.NewReader(r.content),
		}, nil
	}
	return protocompile.SearchResult{}, fmt.Errorf("file not found: %s", path)
}
