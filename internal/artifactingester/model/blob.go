package model

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

type BlobKind int

const (
	// BlobAbsent is a null or missing blob. It is the zero value.
	BlobAbsent BlobKind = iota
	// BlobEncoded is text or bytes that can be stored and compressed as is.
	BlobEncoded
	// BlobStructured is a decoded JSON value. It cannot be compressed without choosing a serialization.
	BlobStructured
)

func (k BlobKind) String() string {
	switch k {
	case BlobAbsent:
		return "absent"
	case BlobEncoded:
		return "encoded"
	case BlobStructured:
		return "structured"
	default:
		return "unknown"
	}
}

// Blob is an artifact payload. Structured blobs keep their raw JSON so they can be forwarded unchanged.
type Blob struct {
	kind BlobKind
	data []byte
}

func EncodedBlob(data []byte) Blob {
	return Blob{kind: BlobEncoded, data: data}
}

func TextBlob(text string) Blob {
	return EncodedBlob([]byte(text))
}

func StructuredBlob(raw json.RawMessage) Blob {
	return Blob{kind: BlobStructured, data: raw}
}

func (b Blob) Kind() BlobKind {
	return b.kind
}

// IsZero reports whether the blob is absent or encodes nothing.
func (b Blob) IsZero() bool {
	return b.kind == BlobAbsent || (b.kind == BlobEncoded && len(b.data) == 0)
}

// Encoded returns the payload bytes, failing with ErrInvalidPayload for absent and structured blobs.
func (b Blob) Encoded() ([]byte, error) {
	if b.kind != BlobEncoded {
		return nil, errors.WithMessagef(ErrInvalidPayload, "blob is %s", b.kind)
	}
	return b.data, nil
}

// Raw returns the encoded bytes or, for structured blobs, the JSON text. It is nil for absent blobs.
func (b Blob) Raw() []byte {
	return b.data
}

// MarshalJSON writes encoded blobs as JSON strings, structured blobs verbatim and absent blobs as null.
func (b Blob) MarshalJSON() ([]byte, error) {
	switch {
	case b.kind == BlobAbsent, b.kind == BlobStructured && len(b.data) == 0:
		return []byte("null"), nil
	case b.kind == BlobStructured:
		return b.data, nil
	}
	return json.Marshal(string(b.data))
}

// UnmarshalJSON decodes null as an absent blob, a JSON string as an encoded blob and any other value as a
// structured one.
func (b *Blob) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*b = Blob{}
	case len(trimmed) > 0 && trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return errors.WithStack(err)
		}
		*b = TextBlob(s)
	default:
		if !json.Valid(trimmed) {
			return errors.Errorf("invalid blob %q", truncate(trimmed, 32))
		}
		raw := make([]byte, len(trimmed))
		copy(raw, trimmed)
		*b = StructuredBlob(raw)
	}
	return nil
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
