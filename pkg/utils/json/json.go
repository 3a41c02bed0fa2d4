// Package json provides high-performance JSON encoding and decoding.
//
// On amd64 and arm64 it is backed by bytedance/sonic, elsewhere it falls
// back to the standard library encoding/json.
package json

import (
	"io"

	"github.com/bytedance/sonic"
)

// API surface mirrors encoding/json so callers can switch with an import change.
var (
	// Marshal 序列化对象为 JSON 字节。
	Marshal = sonic.Marshal
	// Unmarshal 反序列化 JSON 字节到对象。
	Unmarshal = sonic.Unmarshal
	// MarshalString 序列化对象为 JSON 字符串。
	MarshalString = sonic.MarshalString
	// UnmarshalString 反序列化 JSON 字符串到对象。
	UnmarshalString = sonic.UnmarshalString
)

// Encoder writes JSON values to an output stream.
type Encoder interface {
	Encode(v interface{}) error
}

// Decoder reads and decodes JSON values from an input stream.
type Decoder interface {
	Decode(v interface{}) error
}

// NewEncoder returns a new encoder that writes to w.
func NewEncoder(w io.Writer) Encoder {
	return sonic.ConfigDefault.NewEncoder(w)
}

// NewDecoder returns a new decoder that reads from r.
func NewDecoder(r io.Reader) Decoder {
	return sonic.ConfigDefault.NewDecoder(r)
}

// Valid reports whether data is a valid JSON encoding.
func Valid(data []byte) bool {
	return sonic.Valid(data)
}
