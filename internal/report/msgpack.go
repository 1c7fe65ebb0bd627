package report

import (
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Msgpack writes the report as one msgpack-encoded Output.
func Msgpack(w io.Writer, r Report, opts Options) error {
	return msgpack.NewEncoder(w).Encode(Build(r, opts))
}

// DecodeMsgpack reads an Output written by Msgpack.
func DecodeMsgpack(rd io.Reader) (Output, error) {
	var out Output
	err := msgpack.NewDecoder(rd).Decode(&out)
	return out, err
}
