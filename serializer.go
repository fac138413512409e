package rapport

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// Serializer converts values to and from transport payloads.
// Decode may fail on malformed input.
type Serializer interface {
	Encode(v interface{}) ([]byte, error)
	Decode(data []byte) (interface{}, error)
}

// JSONSerializer is the default Serializer. Numbers decode as json.Number.
type JSONSerializer struct{}

// Encode marshals v as JSON.
func (JSONSerializer) Encode(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Decode parses a single JSON value from data.
func (JSONSerializer) Decode(data []byte) (v interface{}, err error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err = dec.Decode(&v); err != nil {
		return nil, errors.Wrap(err, "decode")
	}
	if _, err = dec.Token(); err != io.EOF {
		return nil, errors.New("decode: trailing data after JSON value")
	}
	return v, nil
}

// funcSerializer lets Options replace either half of a Serializer with a function.
type funcSerializer struct {
	encode func(v interface{}) ([]byte, error)
	decode func(data []byte) (interface{}, error)
}

func (fs funcSerializer) Encode(v interface{}) ([]byte, error) { return fs.encode(v) }

func (fs funcSerializer) Decode(data []byte) (interface{}, error) { return fs.decode(data) }
