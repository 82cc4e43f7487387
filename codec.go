package crdt

import "github.com/fxamacker/cbor/v2"

// Every replicated state and operation descriptor in this package is
// encodable to, and decodable from, a self-describing byte representation:
// the carrier is free to transmit them opaquely over whatever transport it
// chooses. CBOR (RFC 8949) is the concrete codec: self-describing, compact,
// and already present in the wider CRDT/CmRDT ecosystem this package draws
// on (e.g. defradb's LWWRegister delta).
//
// Operation descriptors are plain exported structs and are CBOR-encodable
// directly. State containers hold unexported fields (mutexes, maps keyed
// by replica id or tag), so each exposes a small exported *Snapshot mirror
// type used only by MarshalBinary/UnmarshalBinary. OpCounter has no
// snapshot type: it encodes its bare total.

func marshalCBOR(v any) ([]byte, error) {
	return cbor.Marshal(v)
}

func unmarshalCBOR(data []byte, v any) error {
	return cbor.Unmarshal(data, v)
}
