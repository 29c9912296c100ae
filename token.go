package keyset

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
)

var _encoder = base64.RawURLEncoding

// boundaryElement is the wire form of one boundary column. Short keys keep
// tokens compact.
type boundaryElement struct {
	Column string `json:"c"`
	Value  any    `json:"v"`
}

// EncodeBoundary serializes a boundary into an opaque URL-safe token. Columns
// are written in the ordering's precedence order so equal boundaries produce
// equal tokens. An empty boundary encodes to "".
func EncodeBoundary(ordering Orderings, boundary Boundary) (string, error) {
	if len(boundary) == 0 {
		return "", nil
	}

	elements := make([]boundaryElement, 0, len(ordering))
	for _, orderBy := range ordering {
		value, ok := boundary[orderBy.Column]
		if !ok {
			return "", configurationErrorf("boundary misses ordering column '%s'", orderBy.Column)
		}

		elements = append(elements, boundaryElement{Column: orderBy.Column, Value: value})
	}

	jsonToken, err := json.Marshal(elements)
	if err != nil {
		return "", validationErrorf("cannot marshal boundary: %v", err)
	}

	var buf bytes.Buffer
	if err = json.Compact(&buf, jsonToken); err != nil {
		return "", validationErrorf("cannot compact boundary token: %v", err)
	}

	return _encoder.EncodeToString(buf.Bytes()), nil
}

// DecodeBoundary parses a token produced by EncodeBoundary. An empty token
// decodes to a nil boundary (first page). Malformed tokens yield
// ErrValidation.
func DecodeBoundary(token string) (Boundary, error) {
	if len(token) == 0 {
		return nil, nil
	}

	jsonToken, err := _encoder.DecodeString(token)
	if err != nil {
		return nil, validationErrorf("failed to decode base64 encoded boundary: %v", err)
	}

	var elements []boundaryElement
	if err = json.Unmarshal(jsonToken, &elements); err != nil {
		return nil, validationErrorf("failed to unmarshal json encoded boundary: %v", err)
	}

	boundary := make(Boundary, len(elements))
	for _, element := range elements {
		boundary[element.Column] = element.Value
	}

	return boundary, nil
}
