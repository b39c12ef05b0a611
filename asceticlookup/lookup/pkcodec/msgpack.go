package pkcodec

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// MsgpackCodec encodes a key as URL-safe base64 of a msgpack map keyed by
// column. Tokens are shorter than JSONCodec ones and keep float widths.
type MsgpackCodec struct{}

func (MsgpackCodec) Encode(columns []string, values []any) (string, error) {
	m, err := toMap(columns, values)
	if err != nil {
		return "", err
	}
	b, err := msgpack.Marshal(m)
	if err != nil {
		return "", err
	}
	return encoding.EncodeToString(b), nil
}

func (MsgpackCodec) Decode(columns []string, token string) ([]any, error) {
	b, err := encoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	var m map[string]any
	if err := msgpack.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return fromMap(columns, m)
}
