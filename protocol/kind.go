// Package protocol defines the wire message taxonomy shared by the
// coordinator and signer: the ten payload kinds, their canonical
// per-kind hashing, the authorization table binding each kind to the
// key that must have signed it, and the signed envelope that carries a
// payload across the relay.
package protocol

// Kind identifies which of the ten protocol message shapes a Payload is.
type Kind uint8

const (
	KindDkgBegin Kind = iota + 1
	KindDkgPrivateBegin
	KindDkgPublicShare
	KindDkgPrivateShares
	KindDkgPublicEnd
	KindDkgEnd
	KindNonceRequest
	KindNonceResponse
	KindSignShareRequest
	KindSignShareResponse
)

// tag is the ASCII domain-separation prefix hashed ahead of every field
// for the kind's canonical digest.
func (k Kind) tag() []byte {
	switch k {
	case KindDkgBegin:
		return []byte("DKG_BEGIN")
	case KindDkgPrivateBegin:
		return []byte("DKG_PRIVATE_BEGIN")
	case KindDkgPublicShare:
		return []byte("DKG_PUBLIC_SHARE")
	case KindDkgPrivateShares:
		return []byte("DKG_PRIVATE_SHARES")
	case KindDkgPublicEnd:
		return []byte("DKG_PUBLIC_END")
	case KindDkgEnd:
		return []byte("DKG_END")
	case KindNonceRequest:
		return []byte("NONCE_REQUEST")
	case KindNonceResponse:
		return []byte("NONCE_RESPONSE")
	case KindSignShareRequest:
		return []byte("SIGNATURE_SHARE_REQUEST")
	case KindSignShareResponse:
		return []byte("SIGNATURE_SHARE_RESPONSE")
	default:
		return []byte("UNKNOWN")
	}
}

func (k Kind) String() string {
	return string(k.tag())
}
