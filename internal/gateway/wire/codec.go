// Package wire defines the binary envelope format exchanged with the game
// engine over the message bus, and the closed command/event catalogs it
// carries.
//
// Envelopes are CBOR with Core Deterministic Encoding (RFC 8949 §4.2):
// sorted map keys, smallest integer encoding, no indefinite-length items.
// The same logical envelope always produces identical bytes. The payload
// of each envelope is a oneof-style map with exactly one variant slot
// populated; decoding rejects empty and multi-populated payloads.
package wire

import (
	"github.com/fxamacker/cbor/v2"
)

// encMode is the shared CBOR encoder. Configured once at init; both
// sides of the bus must agree on this configuration.
var encMode cbor.EncMode

// decMode is the shared CBOR decoder. Unknown fields are ignored for
// forward compatibility with newer engine builds.
var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("wire: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("wire: CBOR decoder initialization failed: " + err.Error())
	}
}
