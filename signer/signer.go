package signer

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/frost-relay/frostrelay/primitives"
	"github.com/frost-relay/frostrelay/protocol"
)

// Signer runs one signer process's share of the DKG and signing state
// machine. It may own more than one key id (when a single signer process
// is configured to hold several shares), mirroring the signer_id/key_id
// split the protocol makes throughout.
type Signer struct {
	signerID    uint32
	ownedKeyIDs []uint32
	threshold   uint32
	totalKeys   uint32
	dir         *protocol.Directory
	networkKey  *primitives.SigningKey

	state State
	dkgID uint64

	parties map[uint32]*primitives.PartySigner

	commitments  map[uint32][]primitives.Point
	shareBundles map[uint32]protocol.DkgPrivateShares
	dkgHealthy   bool

	signID      uint64
	signNonceID uint64
}

// New builds a signer owning ownedKeyIDs out of a universe of totalKeys
// key ids with reconstruction threshold.
func New(signerID uint32, ownedKeyIDs []uint32, threshold, totalKeys uint32, dir *protocol.Directory, networkKey *primitives.SigningKey) *Signer {
	parties := make(map[uint32]*primitives.PartySigner, len(ownedKeyIDs))
	for _, id := range ownedKeyIDs {
		parties[id] = primitives.NewPartySigner(id)
	}
	return &Signer{
		signerID:    signerID,
		ownedKeyIDs: append([]uint32(nil), ownedKeyIDs...),
		threshold:   threshold,
		totalKeys:   totalKeys,
		dir:         dir,
		networkKey:  networkKey,
		state:       StateIdle,
		parties:     parties,
		dkgHealthy:  true,
	}
}

// State returns the signer's current phase.
func (s *Signer) State() State {
	return s.state
}

// GroupPublicKey returns the aggregate public key computed by the last DKG
// round this signer finished, whether that round's status was Success or
// Failure, or the identity point if none has finished.
func (s *Signer) GroupPublicKey() primitives.Point {
	for _, id := range s.ownedKeyIDs {
		return s.parties[id].GroupPublicKey()
	}
	return primitives.IdentityPoint()
}

// Process advances the state machine in response to an inbound payload,
// returning the outbound payloads it should emit. It mirrors the
// dispatch shape of a match-by-kind handler followed by a completion
// check, the same two-step structure driving every DKG phase transition.
func (s *Signer) Process(payload protocol.Payload) ([]protocol.Payload, error) {
	switch m := payload.(type) {
	case protocol.DkgBegin:
		return s.dkgBegin(m)
	case protocol.DkgPublicShare:
		return s.dkgPublicShare(m)
	case protocol.DkgPrivateBegin:
		return s.dkgPrivateBegin(m)
	case protocol.DkgPrivateShares:
		return s.dkgPrivateShares(m)
	case protocol.DkgEnd:
		return s.observeDkgEnd(m)
	case protocol.NonceRequest:
		return s.nonceRequest(m)
	case protocol.SignShareRequest:
		return s.signShareRequest(m)
	default:
		// Unknown or not-ours-to-act-on kinds (DkgPublicEnd, NonceResponse,
		// SignShareResponse) are observed by the coordinator, not the signer;
		// silently drop per the protocol's "ignore unexpected kinds" rule.
		return nil, nil
	}
}

func (s *Signer) dkgBegin(m protocol.DkgBegin) ([]protocol.Payload, error) {
	if err := s.move(StateDkgPublicDistribute); err != nil {
		return nil, err
	}
	s.dkgID = m.DkgID
	s.commitments = make(map[uint32][]primitives.Point, s.totalKeys)
	s.shareBundles = make(map[uint32]protocol.DkgPrivateShares, s.totalKeys)
	s.dkgHealthy = true

	out := make([]protocol.Payload, 0, len(s.ownedKeyIDs))
	for _, id := range s.ownedKeyIDs {
		if err := s.parties[id].ResetPolys(s.threshold, nil); err != nil {
			return nil, fmt.Errorf("signer: reset polynomial for key id %d: %w", id, err)
		}
		out = append(out, protocol.DkgPublicShare{
			DkgID:       s.dkgID,
			DkgPublicID: s.dkgID,
			PartyID:     id,
			Commitment:  s.parties[id].PolyCommitments(),
		})
	}

	if err := s.move(StateDkgPublicGather); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Signer) dkgPublicShare(m protocol.DkgPublicShare) ([]protocol.Payload, error) {
	if m.DkgID != s.dkgID {
		return nil, nil
	}
	s.commitments[m.PartyID] = m.Commitment

	if !s.publicSharesDone() {
		return nil, nil
	}
	// Every key id's commitment has arrived; report success and wait in
	// DkgPublicGather for the coordinator's DkgPrivateBegin, which is what
	// actually advances the state machine.
	return []protocol.Payload{
		protocol.DkgPublicEnd{DkgID: s.dkgID, SignerID: s.signerID, Status: protocol.DkgSuccess()},
	}, nil
}

func (s *Signer) publicSharesDone() bool {
	if uint32(len(s.commitments)) < s.totalKeys {
		return false
	}
	for _, id := range s.dir.KeyIDs() {
		if _, ok := s.commitments[id]; !ok {
			return false
		}
	}
	return true
}

func (s *Signer) dkgPrivateBegin(m protocol.DkgPrivateBegin) ([]protocol.Payload, error) {
	if m.DkgID != s.dkgID {
		return nil, nil
	}
	if err := s.move(StateDkgPrivateDistribute); err != nil {
		return nil, err
	}

	allKeyIDs := s.dir.KeyIDs()
	slices.Sort(allKeyIDs)

	out := make([]protocol.Payload, 0, len(s.ownedKeyIDs))
	for _, src := range s.ownedKeyIDs {
		shares := s.parties[src].SharesFor(allKeyIDs)
		ciphertexts := make(map[uint32][]byte, len(allKeyIDs))
		for _, dst := range allKeyIDs {
			ciphertext, err := s.encryptShareFor(dst, shares[dst])
			if err != nil {
				return nil, fmt.Errorf("signer: encrypt share from %d to %d: %w", src, dst, err)
			}
			ciphertexts[dst] = ciphertext
		}
		out = append(out, protocol.DkgPrivateShares{
			DkgID:       s.dkgID,
			SrcKeyID:    src - 1, // wire is 0-based; see the documented off-by-one.
			Ciphertexts: ciphertexts,
		})
	}

	if err := s.move(StateDkgPrivateGather); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Signer) encryptShareFor(dstKeyID uint32, share primitives.Scalar) ([]byte, error) {
	dstPubBytes, err := s.dir.KeyIDKey(dstKeyID)
	if err != nil {
		return nil, err
	}
	dstPub, err := primitives.DecompressPoint(dstPubBytes[:])
	if err != nil {
		return nil, fmt.Errorf("signer: decompress key id %d public key: %w", dstKeyID, err)
	}
	shared, err := primitives.DeriveSharedKey(s.networkKey.PrivateScalar(), dstPub, "dkg-private-share")
	if err != nil {
		return nil, err
	}
	b := share.Bytes()
	return shared.Encrypt(b[:])
}

func (s *Signer) decryptShareFrom(srcKeyID uint32, ciphertext []byte) (primitives.Scalar, error) {
	srcPubBytes, err := s.dir.KeyIDKey(srcKeyID)
	if err != nil {
		return primitives.Scalar{}, err
	}
	srcPub, err := primitives.DecompressPoint(srcPubBytes[:])
	if err != nil {
		return primitives.Scalar{}, fmt.Errorf("signer: decompress key id %d public key: %w", srcKeyID, err)
	}
	shared, err := primitives.DeriveSharedKey(s.networkKey.PrivateScalar(), srcPub, "dkg-private-share")
	if err != nil {
		return primitives.Scalar{}, err
	}
	plaintext, err := shared.Decrypt(ciphertext)
	if err != nil {
		return primitives.Scalar{}, err
	}
	return primitives.ScalarFromBytes(plaintext)
}

func (s *Signer) dkgPrivateShares(m protocol.DkgPrivateShares) ([]protocol.Payload, error) {
	if m.DkgID != s.dkgID {
		return nil, nil
	}
	srcKeyID := m.SrcKeyID + 1 // undo the wire's 0-based encoding.
	s.shareBundles[srcKeyID] = m

	if !s.canDkgEnd() {
		return nil, nil
	}
	return s.finishDkg()
}

// canDkgEnd reports whether every key id has delivered both a commitment
// and a private-share bundle, the completion predicate gating compute_secrets.
func (s *Signer) canDkgEnd() bool {
	for _, id := range s.dir.KeyIDs() {
		if _, ok := s.commitments[id]; !ok {
			return false
		}
		if _, ok := s.shareBundles[id]; !ok {
			return false
		}
	}
	return true
}

func (s *Signer) finishDkg() ([]protocol.Payload, error) {
	var invalid []error

	for _, owned := range s.ownedKeyIDs {
		received := make(map[uint32]primitives.Scalar, len(s.shareBundles))
		for src, bundle := range s.shareBundles {
			ciphertext, ok := bundle.Ciphertexts[owned]
			if !ok {
				received[src] = primitives.ZeroScalar()
				invalid = append(invalid, fmt.Errorf("key id %d: no share addressed to %d", src, owned))
				continue
			}
			share, err := s.decryptShareFrom(src, ciphertext)
			if err != nil {
				received[src] = primitives.ZeroScalar()
				invalid = append(invalid, fmt.Errorf("key id %d: %w", src, err))
				continue
			}
			if !primitives.VerifyShare(s.commitments[src], owned, share) {
				received[src] = primitives.ZeroScalar()
				invalid = append(invalid, fmt.Errorf("key id %d: share for %d does not match its commitment", src, owned))
				continue
			}
			received[src] = share
		}
		s.parties[owned].ComputeSecret(received, s.commitments)
	}

	status := protocol.DkgSuccess()
	if len(invalid) > 0 {
		status = protocol.DkgFailure(invalid...)
		s.dkgHealthy = false
	}

	if err := s.move(StateIdle); err != nil {
		return nil, err
	}
	return []protocol.Payload{
		protocol.DkgEnd{DkgID: s.dkgID, SignerID: s.signerID, Status: status},
	}, nil
}

// observeDkgEnd watches every DkgEnd on the wire, including those from
// other signers, so a round with a partial failure disables this
// signer's further participation in sign. See DESIGN.md for why sign is
// refused after any observed Failure rather than only this signer's own.
func (s *Signer) observeDkgEnd(m protocol.DkgEnd) ([]protocol.Payload, error) {
	if m.DkgID != s.dkgID {
		return nil, nil
	}
	if !m.Status.IsSuccess() {
		s.dkgHealthy = false
	}
	return nil, nil
}

func (s *Signer) nonceRequest(m protocol.NonceRequest) ([]protocol.Payload, error) {
	if !s.dkgHealthy {
		return nil, fmt.Errorf("signer: refusing to generate nonces after a failed dkg round")
	}
	if err := s.move(StateSignGather); err != nil {
		return nil, err
	}

	keyIDs := append([]uint32(nil), s.ownedKeyIDs...)
	slices.Sort(keyIDs)
	nonces := make([]primitives.NonceCommitment, 0, len(keyIDs))
	for _, id := range keyIDs {
		nc, err := s.parties[id].GenNonces(nil)
		if err != nil {
			return nil, fmt.Errorf("signer: generate nonces for key id %d: %w", id, err)
		}
		nonces = append(nonces, nc)
	}

	s.signID = m.SignID
	s.signNonceID = m.SignNonceID

	return []protocol.Payload{
		protocol.NonceResponse{
			DkgID:       m.DkgID,
			SignID:      m.SignID,
			SignNonceID: m.SignNonceID,
			SignerID:    s.signerID,
			KeyIDs:      keyIDs,
			Nonces:      nonces,
		},
	}, nil
}

func (s *Signer) signShareRequest(m protocol.SignShareRequest) ([]protocol.Payload, error) {
	if !s.dkgHealthy {
		return nil, fmt.Errorf("signer: refusing to sign after a failed dkg round")
	}

	present := false
	for _, nr := range m.NonceResponses {
		if nr.SignerID == s.signerID {
			present = true
			break
		}
	}
	if !present {
		return nil, nil
	}

	var allCommitments []primitives.NonceCommitment
	var participantKeyIDs []uint32
	for _, nr := range m.NonceResponses {
		allCommitments = append(allCommitments, nr.Nonces...)
		participantKeyIDs = append(participantKeyIDs, nr.KeyIDs...)
	}
	slices.Sort(participantKeyIDs)

	shares := make(map[uint32][32]byte, len(s.ownedKeyIDs))
	for _, id := range s.ownedKeyIDs {
		share, err := s.parties[id].Sign(m.Message, allCommitments, participantKeyIDs)
		if err != nil {
			return nil, fmt.Errorf("signer: sign for key id %d: %w", id, err)
		}
		shares[id] = share.Bytes()
	}

	if err := s.move(StateSigned); err != nil {
		return nil, err
	}
	if err := s.move(StateIdle); err != nil {
		return nil, err
	}

	return []protocol.Payload{
		protocol.SignShareResponse{
			DkgID:           m.DkgID,
			SignID:          m.SignID,
			CorrelationID:   m.CorrelationID,
			SignerID:        s.signerID,
			SignatureShares: shares,
		},
	}, nil
}
