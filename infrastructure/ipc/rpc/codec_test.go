package rpc

import (
	"testing"

	"github.com/felixgeelhaar/taskworker/domain/wire"
)

func TestJSONCodec_MarshalMessage(t *testing.T) {
	t.Parallel()
	c := jsonCodec{}
	data, err := c.Marshal(wire.TaskHeartbeat{RunID: "run-1"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	msg, err := wire.DecodeWorkerMessage(data)
	if err != nil {
		t.Fatalf("decode marshaled bytes: %v", err)
	}
	hb, ok := msg.(wire.TaskHeartbeat)
	if !ok || hb.RunID != "run-1" {
		t.Fatalf("unexpected decoded message: %+v", msg)
	}
}

func TestJSONCodec_MarshalFramePassthrough(t *testing.T) {
	t.Parallel()
	c := jsonCodec{}
	f := &frame{Data: []byte(`{"type":"CANCEL"}`)}
	data, err := c.Marshal(f)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != string(f.Data) {
		t.Fatalf("Marshal(frame) = %q, want passthrough %q", data, f.Data)
	}
}

func TestJSONCodec_Unmarshal(t *testing.T) {
	t.Parallel()
	c := jsonCodec{}
	var f frame
	in := []byte(`{"type":"FLUSH","version":"v1"}`)
	if err := c.Unmarshal(in, &f); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if string(f.Data) != string(in) {
		t.Fatalf("Unmarshal captured %q, want %q", f.Data, in)
	}
}

func TestJSONCodec_UnmarshalWrongType(t *testing.T) {
	t.Parallel()
	c := jsonCodec{}
	var notAFrame struct{}
	if err := c.Unmarshal([]byte(`{}`), &notAFrame); err == nil {
		t.Fatal("expected an error unmarshaling into a non-frame type")
	}
}

func TestJSONCodec_Name(t *testing.T) {
	t.Parallel()
	if jsonCodec{}.Name() != "json" {
		t.Fatalf("Name() = %q, want json", jsonCodec{}.Name())
	}
}
