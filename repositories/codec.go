package repositories

import (
	"fmt"
	"time"

	"unified-chat/errors"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// record is the schemaless shape stored in badger values: a protobuf Struct.
// Timestamps are RFC3339Nano strings and numbers are float64, as in structpb.
type record map[string]any

func encode(r record) ([]byte, error) {
	s, err := structpb.NewStruct(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidRecord, err)
	}
	return proto.Marshal(s)
}

func decode(data []byte) (record, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidRecord, err)
	}
	return s.AsMap(), nil
}

func (r record) str(key string) string {
	v, _ := r[key].(string)
	return v
}

func (r record) boolean(key string) bool {
	v, _ := r[key].(bool)
	return v
}

func (r record) number(key string) int64 {
	v, _ := r[key].(float64)
	return int64(v)
}

func (r record) nested(key string) record {
	v, _ := r[key].(map[string]any)
	return v
}

func (r record) strings(key string) []string {
	raw, _ := r[key].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (r record) time(key string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, r.str(key))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", errors.ErrInvalidRecord, key, err)
	}
	return t.UTC(), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func stringList[T ~string](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
