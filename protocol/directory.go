package protocol

import "fmt"

// Directory is the static address book every signer and the coordinator
// load from configuration: which public key authenticates the
// coordinator, each signer process, and each key id. Nothing in this
// package mutates a Directory once built; DKG does not change membership.
type Directory struct {
	coordinatorKey [33]byte
	signerKeys     map[uint32][33]byte
	keyIDKeys      map[uint32][33]byte
}

// NewDirectory builds a Directory from its three address books. signerKeys
// and keyIDKeys are copied so the caller's maps can be mutated afterwards
// without affecting the Directory.
func NewDirectory(coordinatorKey [33]byte, signerKeys, keyIDKeys map[uint32][33]byte) *Directory {
	d := &Directory{
		coordinatorKey: coordinatorKey,
		signerKeys:     make(map[uint32][33]byte, len(signerKeys)),
		keyIDKeys:      make(map[uint32][33]byte, len(keyIDKeys)),
	}
	for k, v := range signerKeys {
		d.signerKeys[k] = v
	}
	for k, v := range keyIDKeys {
		d.keyIDKeys[k] = v
	}
	return d
}

// CoordinatorKey returns the coordinator's authorizing public key.
func (d *Directory) CoordinatorKey() [33]byte {
	return d.coordinatorKey
}

// SignerKey looks up the public key that authenticates messages
// originating from a given signer process.
func (d *Directory) SignerKey(signerID uint32) ([33]byte, error) {
	pk, ok := d.signerKeys[signerID]
	if !ok {
		return [33]byte{}, fmt.Errorf("protocol: unknown signer id %d", signerID)
	}
	return pk, nil
}

// KeyIDKey looks up the public key bound to a 1-based key id.
func (d *Directory) KeyIDKey(keyID uint32) ([33]byte, error) {
	pk, ok := d.keyIDKeys[keyID]
	if !ok {
		return [33]byte{}, fmt.Errorf("protocol: unknown key id %d", keyID)
	}
	return pk, nil
}

// SignerIDs returns every signer id known to the directory, in no
// particular order.
func (d *Directory) SignerIDs() []uint32 {
	out := make([]uint32, 0, len(d.signerKeys))
	for id := range d.signerKeys {
		out = append(out, id)
	}
	return out
}

// KeyIDs returns every key id known to the directory.
func (d *Directory) KeyIDs() []uint32 {
	out := make([]uint32, 0, len(d.keyIDKeys))
	for id := range d.keyIDKeys {
		out = append(out, id)
	}
	return out
}
