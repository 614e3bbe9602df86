package rpc

import (
	"fmt"

	"google.golang.org/grpc/encoding"

	"github.com/felixgeelhaar/taskworker/domain/wire"
)

// frame carries a single wire message's raw JSON bytes across the
// stream without requiring a protoc-generated protobuf type. jsonCodec
// treats it as a pass-through: encoding a wire.Message serialises it
// with domain/wire's own encoder, and decoding captures the raw bytes
// for the caller to run through wire.DecodeCoordinatorMessage or
// wire.DecodeWorkerMessage, whichever direction applies.
type frame struct {
	Data []byte
}

const codecName = "json"

// jsonCodec implements google.golang.org/grpc/encoding.Codec, letting
// the RPC transport move domain/wire's JSON messages over a gRPC stream
// without generating any .pb.go stubs: the wire format already is the
// payload, this codec just satisfies grpc's marshal/unmarshal contract
// around it.
type jsonCodec struct{}

func (jsonCodec) Name() string { return codecName }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case wire.Message:
		return wire.Encode(m)
	case *frame:
		return m.Data, nil
	default:
		return nil, fmt.Errorf("rpc: jsonCodec cannot marshal %T", v)
	}
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	f, ok := v.(*frame)
	if !ok {
		return fmt.Errorf("rpc: jsonCodec cannot unmarshal into %T", v)
	}
	f.Data = append([]byte(nil), data...)
	return nil
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
