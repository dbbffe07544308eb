// Copyright 2026 The CodeBot Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR wire codec for CodeBot's local
// socket protocol. Encoding uses Core Deterministic Encoding (RFC 8949
// §4.2) so the same logical data always produces identical bytes;
// decoding accepts standard CBOR and ignores unknown fields for
// forward compatibility.
package codec

import (
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// CodeBot never uses non-string map keys. When the decoder's
		// target is any (e.g., map[string]any values), it must pick a
		// concrete Go map type. The CBOR default is
		// map[interface{}]interface{}, which is incompatible with
		// encoding/json and most Go code expecting map[string]any.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// NewEncoder returns a CBOR stream encoder writing to w, using Core
// Deterministic Encoding.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder returns a CBOR stream decoder reading from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return decMode.NewDecoder(r)
}

// RawMessage is a raw encoded CBOR value. Use it to delay decoding of
// action-specific payloads until the handler knows the concrete type.
type RawMessage = cbor.RawMessage
