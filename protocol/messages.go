package protocol

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"hash"

	"golang.org/x/exp/slices"

	"github.com/frost-relay/frostrelay/primitives"
)

// Payload is the single tagged-variant surface every message kind
// implements: its wire kind, its deterministic hash for signing, and the
// public key that must have authored it.
type Payload interface {
	Kind() Kind
	CanonicalHash() [32]byte
	AuthorizingKey(dir *Directory) ([33]byte, error)
}

func putUint64(h *sha256hasher, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	h.write(b[:])
}

func putUint32(h *sha256hasher, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	h.write(b[:])
}

// sha256hasher is a tiny wrapper so every CanonicalHash method reads the
// same way regardless of how many fields it writes.
type sha256hasher struct {
	h hash.Hash
}

func newHasher(tag []byte) *sha256hasher {
	h := sha256.New()
	h.Write(tag)
	return &sha256hasher{h: h}
}

func (sh *sha256hasher) write(b []byte) {
	sh.h.Write(b)
}

func (sh *sha256hasher) finish() [32]byte {
	var out [32]byte
	copy(out[:], sh.h.Sum(nil))
	return out
}

// sortedUint32KeysBytes returns a map's keys in ascending order, the
// determinism every canonical hash over a map relies on.
func sortedUint32KeysBytes(m map[uint32][]byte) []uint32 {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func sortedUint32KeysScalar(m map[uint32][32]byte) []uint32 {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ---- DkgBegin / DkgPrivateBegin ----

// DkgBegin starts a fresh DKG round. Every signer resets its per-round
// state upon receipt.
type DkgBegin struct {
	DkgID uint64
}

func (m DkgBegin) Kind() Kind { return KindDkgBegin }

func (m DkgBegin) CanonicalHash() [32]byte {
	h := newHasher(m.Kind().tag())
	putUint64(h, m.DkgID)
	return h.finish()
}

func (m DkgBegin) AuthorizingKey(dir *Directory) ([33]byte, error) {
	return dir.CoordinatorKey(), nil
}

// DkgPrivateBegin signals that every DkgPublicShare has been gathered and
// signers should distribute encrypted private shares. It reuses
// DkgBegin's payload shape but is a distinct wire kind.
type DkgPrivateBegin struct {
	DkgID uint64
}

func (m DkgPrivateBegin) Kind() Kind { return KindDkgPrivateBegin }

func (m DkgPrivateBegin) CanonicalHash() [32]byte {
	h := newHasher(m.Kind().tag())
	putUint64(h, m.DkgID)
	return h.finish()
}

func (m DkgPrivateBegin) AuthorizingKey(dir *Directory) ([33]byte, error) {
	return dir.CoordinatorKey(), nil
}

// ---- DkgPublicShare ----

// DkgPublicShare broadcasts one party's Feldman VSS commitment vector.
type DkgPublicShare struct {
	DkgID       uint64
	DkgPublicID uint64
	PartyID     uint32
	Commitment  []primitives.Point
}

func (m DkgPublicShare) Kind() Kind { return KindDkgPublicShare }

func (m DkgPublicShare) CanonicalHash() [32]byte {
	h := newHasher(m.Kind().tag())
	putUint64(h, m.DkgID)
	putUint64(h, m.DkgPublicID)
	putUint32(h, m.PartyID)
	for _, p := range m.Commitment {
		c := p.Compress()
		h.write(c[:])
	}
	return h.finish()
}

func (m DkgPublicShare) AuthorizingKey(dir *Directory) ([33]byte, error) {
	return dir.KeyIDKey(m.PartyID)
}

// ---- DkgPrivateShares ----

// DkgPrivateShares carries one source key id's AES-GCM-encrypted shares,
// one ciphertext per destination key id. SrcKeyID is 0-based on the wire;
// per the interoperability note this package preserves, the authorizing
// key for this kind is looked up at the 1-based key id SrcKeyID+1.
type DkgPrivateShares struct {
	DkgID       uint64
	SrcKeyID    uint32
	Ciphertexts map[uint32][]byte
}

func (m DkgPrivateShares) Kind() Kind { return KindDkgPrivateShares }

func (m DkgPrivateShares) CanonicalHash() [32]byte {
	h := newHasher(m.Kind().tag())
	putUint64(h, m.DkgID)
	putUint32(h, m.SrcKeyID)
	for _, dst := range sortedUint32KeysBytes(m.Ciphertexts) {
		putUint32(h, dst)
		h.write(m.Ciphertexts[dst])
	}
	return h.finish()
}

// AuthorizingKey implements the documented off-by-one: the wire carries a
// 0-based SrcKeyID, but the signing key looked up in the directory is the
// 1-based key id src_key_id+1.
func (m DkgPrivateShares) AuthorizingKey(dir *Directory) ([33]byte, error) {
	return dir.KeyIDKey(m.SrcKeyID + 1)
}

// ---- DkgPublicEnd / DkgEnd ----

// DkgPublicEnd reports a signer's outcome for the public-share phase of a
// DKG round.
type DkgPublicEnd struct {
	DkgID    uint64
	SignerID uint32
	Status   DkgStatus
}

func (m DkgPublicEnd) Kind() Kind { return KindDkgPublicEnd }

func (m DkgPublicEnd) CanonicalHash() [32]byte {
	h := newHasher(m.Kind().tag())
	putUint64(h, m.DkgID)
	putUint32(h, m.SignerID)
	h.write(m.Status.canonicalBytes())
	return h.finish()
}

func (m DkgPublicEnd) AuthorizingKey(dir *Directory) ([33]byte, error) {
	return dir.SignerKey(m.SignerID)
}

// DkgEnd reports a signer's final outcome for an entire DKG round.
type DkgEnd struct {
	DkgID    uint64
	SignerID uint32
	Status   DkgStatus
}

func (m DkgEnd) Kind() Kind { return KindDkgEnd }

func (m DkgEnd) CanonicalHash() [32]byte {
	h := newHasher(m.Kind().tag())
	putUint64(h, m.DkgID)
	putUint32(h, m.SignerID)
	h.write(m.Status.canonicalBytes())
	return h.finish()
}

func (m DkgEnd) AuthorizingKey(dir *Directory) ([33]byte, error) {
	return dir.SignerKey(m.SignerID)
}

// ---- NonceRequest / NonceResponse ----

// NonceRequest asks every signer to generate and publish fresh signing
// nonces for a signing round.
type NonceRequest struct {
	DkgID       uint64
	SignID      uint64
	SignNonceID uint64
}

func (m NonceRequest) Kind() Kind { return KindNonceRequest }

func (m NonceRequest) CanonicalHash() [32]byte {
	h := newHasher(m.Kind().tag())
	putUint64(h, m.DkgID)
	putUint64(h, m.SignID)
	putUint64(h, m.SignNonceID)
	return h.finish()
}

func (m NonceRequest) AuthorizingKey(dir *Directory) ([33]byte, error) {
	return dir.CoordinatorKey(), nil
}

// NonceResponse carries one signer's fresh nonce commitments, one per
// owned key id.
type NonceResponse struct {
	DkgID       uint64
	SignID      uint64
	SignNonceID uint64
	SignerID    uint32
	KeyIDs      []uint32
	Nonces      []primitives.NonceCommitment
}

func (m NonceResponse) Kind() Kind { return KindNonceResponse }

func (m NonceResponse) CanonicalHash() [32]byte {
	h := newHasher(m.Kind().tag())
	putUint64(h, m.DkgID)
	putUint64(h, m.SignID)
	putUint64(h, m.SignNonceID)
	putUint32(h, m.SignerID)
	for _, k := range m.KeyIDs {
		putUint32(h, k)
	}
	for _, n := range m.Nonces {
		putUint32(h, n.KeyID)
		hc := n.Hiding.Compress()
		bc := n.Binding.Compress()
		h.write(hc[:])
		h.write(bc[:])
	}
	return h.finish()
}

func (m NonceResponse) AuthorizingKey(dir *Directory) ([33]byte, error) {
	return dir.SignerKey(m.SignerID)
}

// ---- SignShareRequest / SignShareResponse ----

// SignShareRequest broadcasts the full bundle of gathered nonces and asks
// each contributing party for its signature share of message.
type SignShareRequest struct {
	DkgID          uint64
	SignID         uint64
	CorrelationID  uint64
	NonceResponses []NonceResponse
	Message        []byte
}

func (m SignShareRequest) Kind() Kind { return KindSignShareRequest }

func (m SignShareRequest) CanonicalHash() [32]byte {
	h := newHasher(m.Kind().tag())
	putUint64(h, m.DkgID)
	putUint64(h, m.SignID)
	putUint64(h, m.CorrelationID)
	for _, nr := range m.NonceResponses {
		nrh := nr.CanonicalHash()
		h.write(nrh[:])
	}
	h.write(m.Message)
	return h.finish()
}

func (m SignShareRequest) AuthorizingKey(dir *Directory) ([33]byte, error) {
	return dir.CoordinatorKey(), nil
}

// SignShareResponse carries one signer's signature shares, keyed by the
// owned key id that produced each share. Shares are raw 32-byte scalar
// encodings rather than primitives.Scalar directly, since Scalar's field
// is unexported and the wire codec only ranges over exported data.
type SignShareResponse struct {
	DkgID           uint64
	SignID          uint64
	CorrelationID   uint64
	SignerID        uint32
	SignatureShares map[uint32][32]byte
}

func (m SignShareResponse) Kind() Kind { return KindSignShareResponse }

func (m SignShareResponse) CanonicalHash() [32]byte {
	h := newHasher(m.Kind().tag())
	putUint64(h, m.DkgID)
	putUint64(h, m.SignID)
	putUint64(h, m.CorrelationID)
	putUint32(h, m.SignerID)
	for _, k := range sortedUint32KeysScalar(m.SignatureShares) {
		putUint32(h, k)
		v := m.SignatureShares[k]
		h.write(v[:])
	}
	return h.finish()
}

func (m SignShareResponse) AuthorizingKey(dir *Directory) ([33]byte, error) {
	return dir.SignerKey(m.SignerID)
}

// Scalars converts the wire-format signature shares back into
// primitives.Scalar values for aggregation.
func (m SignShareResponse) Scalars() (map[uint32]primitives.Scalar, error) {
	out := make(map[uint32]primitives.Scalar, len(m.SignatureShares))
	for k, v := range m.SignatureShares {
		s, err := primitives.ScalarFromBytes(v[:])
		if err != nil {
			return nil, fmt.Errorf("protocol: decode signature share for key id %d: %w", k, err)
		}
		out[k] = s
	}
	return out, nil
}
