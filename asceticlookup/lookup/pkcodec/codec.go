package pkcodec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

var ErrMalformedToken = errors.New("malformed composite key token")

// Codec turns the ordered values of a composite primary key into one opaque
// string token and back.
type Codec interface {
	Encode(columns []string, values []any) (string, error)
	Decode(columns []string, token string) ([]any, error)
}

var encoding = base64.URLEncoding

func toMap(columns []string, values []any) (map[string]any, error) {
	if len(columns) != len(values) {
		return nil, fmt.Errorf("composite key has %d columns but %d values", len(columns), len(values))
	}
	m := make(map[string]any, len(columns))
	for i, col := range columns {
		m[col] = Normalize(values[i])
	}
	return m, nil
}

func fromMap(columns []string, m map[string]any) ([]any, error) {
	if len(m) != len(columns) {
		return nil, fmt.Errorf("%w: expected %d components, got %d", ErrMalformedToken, len(columns), len(m))
	}
	values := make([]any, len(columns))
	for i, col := range columns {
		v, ok := m[col]
		if !ok {
			return nil, fmt.Errorf("%w: component \"%s\" is missing", ErrMalformedToken, col)
		}
		values[i] = Normalize(v)
	}
	return values, nil
}

// JSONCodec encodes a key as URL-safe base64 of a JSON object keyed by column
type JSONCodec struct{}

func (JSONCodec) Encode(columns []string, values []any) (string, error) {
	m, err := toMap(columns, values)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return encoding.EncodeToString(b), nil
}

func (JSONCodec) Decode(columns []string, token string) ([]any, error) {
	b, err := encoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	var m map[string]any
	decoder := json.NewDecoder(bytes.NewReader(b))
	decoder.UseNumber()
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return fromMap(columns, m)
}

// Normalize folds a decoded or caller supplied key component onto a plain
// scalar: integers become int64, floats float64, UUIDs their canonical
// string. JSON numbers without a fraction decode as int64.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case uuid.UUID:
		return x.String()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u <= math.MaxInt64 {
			return int64(u)
		}
		return strconv.FormatUint(u, 10)
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	}
	return v
}
