package protocol

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/frost-relay/frostrelay/primitives"
)

func init() {
	gob.Register(DkgBegin{})
	gob.Register(DkgPrivateBegin{})
	gob.Register(DkgPublicShare{})
	gob.Register(DkgPrivateShares{})
	gob.Register(DkgPublicEnd{})
	gob.Register(DkgEnd{})
	gob.Register(NonceRequest{})
	gob.Register(NonceResponse{})
	gob.Register(SignShareRequest{})
	gob.Register(SignShareResponse{})
}

// Envelope pairs a Payload with the ECDSA signature over its canonical
// hash. It is the unit every relay message carries; the relay itself
// never inspects the payload, only forwards opaque bytes produced by
// Marshal.
type Envelope struct {
	Payload Payload
	Sig     []byte
}

// Sign builds a signed envelope for payload using key. The signature
// covers CanonicalHash(), never the wire encoding, so re-encoding an
// envelope with a different codec never invalidates its signature.
func Sign(payload Payload, key *primitives.SigningKey) Envelope {
	digest := payload.CanonicalHash()
	return Envelope{Payload: payload, Sig: key.Sign(digest)}
}

// Verify checks the envelope's signature against the key the directory
// designates as authoritative for this payload's kind, per the
// authorization table each concrete type's AuthorizingKey implements.
func (e Envelope) Verify(dir *Directory) error {
	pubKey, err := e.Payload.AuthorizingKey(dir)
	if err != nil {
		return fmt.Errorf("protocol: resolve authorizing key: %w", err)
	}
	digest := e.Payload.CanonicalHash()
	ok, err := primitives.VerifyEnvelopeSignature(pubKey, digest, e.Sig)
	if err != nil {
		return fmt.Errorf("protocol: verify envelope signature: %w", err)
	}
	if !ok {
		return fmt.Errorf("protocol: envelope signature does not verify")
	}
	return nil
}

// Marshal encodes an envelope into the bytes the relay stores and
// forwards. gob is the wire codec of choice: the pack's serialization
// examples are all protobuf/gRPC, which need code generation; gob is the
// stdlib whole-struct binary encoder with no cross-language interop
// requirement, matching the role the original system's bincode choice
// played.
func Marshal(e Envelope) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, fmt.Errorf("protocol: marshal envelope: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes an envelope previously produced by Marshal.
func Unmarshal(b []byte) (Envelope, error) {
	var e Envelope
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&e); err != nil {
		return Envelope{}, fmt.Errorf("protocol: unmarshal envelope: %w", err)
	}
	return e, nil
}
