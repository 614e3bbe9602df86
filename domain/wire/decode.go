package wire

import (
	"encoding/json"
	"fmt"
)

// DecodeWorkerMessage decodes a worker->coordinator message, dispatching
// on its "type" field. Unknown types are decode errors, never panics;
// unrecognised optional fields within a known type are silently ignored
// by encoding/json.
func DecodeWorkerMessage(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("wire: malformed message: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("wire: message missing required field %q", "type")
	}
	switch env.Type {
	case TypeTaskRunCompleted:
		var m TaskRunCompleted
		return decodeInto(data, &m)
	case TypeTaskRunFailedToRun:
		var m TaskRunFailedToRun
		return decodeInto(data, &m)
	case TypeTaskHeartbeat:
		var m TaskHeartbeat
		return decodeInto(data, &m)
	case TypeIndexComplete:
		var m IndexComplete
		return decodeInto(data, &m)
	case TypeIndexTasksComplete:
		var m IndexTasksComplete
		return decodeInto(data, &m)
	case TypeLog:
		var m Log
		return decodeInto(data, &m)
	default:
		return nil, fmt.Errorf("wire: unknown worker message type %q", env.Type)
	}
}

// DecodeCoordinatorMessage decodes a coordinator->worker message.
func DecodeCoordinatorMessage(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("wire: malformed message: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("wire: message missing required field %q", "type")
	}
	switch env.Type {
	case TypeExecuteTaskRun:
		var m ExecuteTaskRun
		return decodeInto(data, &m)
	case TypeCancel:
		var m Cancel
		return decodeInto(data, &m)
	case TypeFlush:
		var m Flush
		return decodeInto(data, &m)
	default:
		return nil, fmt.Errorf("wire: unknown coordinator message type %q", env.Type)
	}
}

func decodeInto[T Message](data []byte, into *T) (Message, error) {
	if err := json.Unmarshal(data, into); err != nil {
		return nil, fmt.Errorf("wire: invalid payload for %T: %w", *into, err)
	}
	return *into, nil
}

// Encode serialises any Message to its wire JSON form, stamping the
// envelope's type and version fields alongside the message's own fields.
func Encode(m Message) ([]byte, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	typeJSON, _ := json.Marshal(m.Type())
	versionJSON, _ := json.Marshal(m.Version())
	fields["type"] = typeJSON
	fields["version"] = versionJSON
	return json.Marshal(fields)
}
