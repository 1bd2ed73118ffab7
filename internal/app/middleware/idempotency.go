package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"locadz/internal/app/commands"
)

// IdempotentCommand is replayed by key. ResultPrototype returns a pointer the
// stored payload is decoded into; it must match the handler result type.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any
}

type IdempotencyRecord struct {
	Key        string
	Payload    []byte
	OccurredAt time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSONResultCodec) Decode(data []byte, out any) error { return json.Unmarshal(data, out) }

var errMissingPrototype = errors.New("middleware: idempotent command without result prototype")

// Idempotency replays the first successful result stored under the command
// key and the client key. Failures are not stored, so a client may retry
// after a conflict or an outage.
func Idempotency(store IdempotencyStore, codec ResultCodec) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok || idCmd.IdempotencyKey() == "" {
				return next.Dispatch(ctx, cmd)
			}
			key := cmd.Key() + ":" + idCmd.IdempotencyKey()
			rec, found, err := store.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if found {
				return replay(codec, rec, idCmd.ResultPrototype())
			}
			result, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			rec = IdempotencyRecord{Key: key, OccurredAt: time.Now().UTC()}
			if result != nil {
				if rec.Payload, err = codec.Encode(result); err != nil {
					return nil, err
				}
			}
			if err := store.Save(ctx, rec); err != nil {
				return nil, err
			}
			return result, nil
		})
	}
}

func replay(codec ResultCodec, rec IdempotencyRecord, proto any) (any, error) {
	if proto == nil {
		return nil, errMissingPrototype
	}
	if rv := reflect.ValueOf(proto); rv.Kind() != reflect.Ptr || rv.IsNil() {
		return nil, errMissingPrototype
	}
	if len(rec.Payload) == 0 {
		return nil, nil
	}
	if err := codec.Decode(rec.Payload, proto); err != nil {
		return nil, err
	}
	return proto, nil
}
