/*
 * file: codec.go
 * package: protocol
 * description:
 *     The self-describing wire value encoding (§4.1/§9). The legacy server
 *     embedded a language-native pickled object on the wire; this
 *     re-implementation refuses that and instead uses CBOR (RFC 8949), a
 *     documented, cross-language, length-tagged binary format whose type
 *     universe — null, bool, integers, floats, UTF-8 strings, byte strings,
 *     arrays and string-keyed maps — is exactly the value universe this
 *     protocol needs.
 */

package protocol

import (
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// Fields is the map-of-string-to-value body carried by every request,
// response and notification payload. Values are restricted to the wire's
// value universe by EncodeRecord/DecodeRecord below.
type Fields map[string]interface{}

// Record is the top-level payload of every framed message: a channel tag
// (0 = paired response, >0 = server push) and an opaque body.
//
// For a request frame client->server, Body is itself a two-element form
// carrying (module, fields) — see RequestBody. For a response or
// notification frame, Body is a Fields map directly.
type Record struct {
	Channel int         `cbor:"channel"`
	Body    interface{} `cbor:"body"`
}

// RequestBody is the body of a channel-0 request: a module selector plus
// its command fields (fields always contains "command").
type RequestBody struct {
	Module int    `cbor:"module"`
	Fields Fields `cbor:"fields"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("protocol: building CBOR encode mode: %v", err))
	}
	encMode = mode

	decOpts := cbor.DecOptions{
		// Refuse anything that doesn't parse to the documented value
		// universe rather than silently accepting richer object graphs.
		DefaultMapType: reflect.TypeOf(map[string]interface{}{}),
	}
	dm, err := decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("protocol: building CBOR decode mode: %v", err))
	}
	decMode = dm
}

// EncodePayload serializes a Record to its wire byte representation.
func EncodePayload(rec Record) ([]byte, error) {
	return encMode.Marshal(rec)
}

// DecodePayload parses a wire byte string into a Record. It refuses any
// payload that doesn't parse to the Record shape, per §9.
func DecodePayload(payload []byte) (Record, error) {
	var rec Record
	if err := decMode.Unmarshal(payload, &rec); err != nil {
		return Record{}, fmt.Errorf("protocol: malformed payload: %w", err)
	}
	return rec, nil
}

// DecodeRequestBody re-decodes a channel-0 Record's Body into a RequestBody.
// cbor decodes Body as a generic map first pass; this normalizes it.
func DecodeRequestBody(body interface{}) (RequestBody, error) {
	raw, err := encMode.Marshal(body)
	if err != nil {
		return RequestBody{}, fmt.Errorf("protocol: re-encoding request body: %w", err)
	}
	var rb RequestBody
	if err := decMode.Unmarshal(raw, &rb); err != nil {
		return RequestBody{}, fmt.Errorf("protocol: malformed request body: %w", err)
	}
	return rb, nil
}

// DecodeFields re-decodes a generic Body into a Fields map (used for
// response/notification payloads on the client side, and defensively on the
// server when re-normalizing a decoded map).
func DecodeFields(body interface{}) (Fields, error) {
	raw, err := encMode.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("protocol: re-encoding fields: %w", err)
	}
	var f Fields
	if err := decMode.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("protocol: malformed fields: %w", err)
	}
	return f, nil
}
