// Package config loads the TOML configuration shared by the coordinator
// and signer binaries, and builds the protocol.Directory and long-term
// keys the rest of the module needs from it.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/frost-relay/frostrelay/primitives"
	"github.com/frost-relay/frostrelay/protocol"
)

// Config is the on-disk shape of a coordinator or signer's configuration
// file, deserialized with BurntSushi/toml.
type Config struct {
	HTTPRelayURL string `toml:"http_relay_url"`

	TotalSigners  uint32 `toml:"total_signers"`
	TotalKeys     uint32 `toml:"total_keys"`
	KeysThreshold uint32 `toml:"keys_threshold"`

	SignerKeys   map[uint32]string   `toml:"signer_keys"`
	PartyKeys    map[uint32]string   `toml:"party_keys"`
	SignerKeyIDs map[uint32][]uint32 `toml:"signer_key_ids"`

	CoordinatorKey     string `toml:"coordinator_key"`
	NetworkPrivateKey  string `toml:"network_private_key"`
	RoundDeadlineMilli int64  `toml:"round_deadline_ms"`
}

// Load reads and parses a TOML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &cfg, nil
}

// RoundDeadline is the wall-clock budget every DKG or signing round gets
// before its context is cancelled. Defaults to 30s when unset.
func (c *Config) RoundDeadline() time.Duration {
	if c.RoundDeadlineMilli <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.RoundDeadlineMilli) * time.Millisecond
}

func decodeKey(hexKey string) ([33]byte, error) {
	var out [33]byte
	b, err := decodeHex(hexKey)
	if err != nil {
		return out, err
	}
	if len(b) != 33 {
		return out, fmt.Errorf("config: public key must be 33 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}

// Directory builds the protocol.Directory every envelope is authorized
// against, from this config's hex-encoded public keys.
func (c *Config) Directory() (*protocol.Directory, error) {
	coordKey, err := decodeKey(c.CoordinatorKey)
	if err != nil {
		return nil, fmt.Errorf("config: coordinator_key: %w", err)
	}

	signerKeys := make(map[uint32][33]byte, len(c.SignerKeys))
	for id, hexKey := range c.SignerKeys {
		k, err := decodeKey(hexKey)
		if err != nil {
			return nil, fmt.Errorf("config: signer_keys[%d]: %w", id, err)
		}
		signerKeys[id] = k
	}

	keyIDKeys := make(map[uint32][33]byte, len(c.PartyKeys))
	for id, hexKey := range c.PartyKeys {
		k, err := decodeKey(hexKey)
		if err != nil {
			return nil, fmt.Errorf("config: party_keys[%d]: %w", id, err)
		}
		keyIDKeys[id] = k
	}

	return protocol.NewDirectory(coordKey, signerKeys, keyIDKeys), nil
}

// NetworkKey parses this config's long-term signing key, used both to
// authenticate envelopes and to derive ECDH shared secrets for DKG
// private-share encryption.
func (c *Config) NetworkKey() (*primitives.SigningKey, error) {
	b, err := decodeHex(c.NetworkPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("config: network_private_key: %w", err)
	}
	s, err := primitives.ScalarFromBytes(b)
	if err != nil {
		return nil, fmt.Errorf("config: network_private_key: %w", err)
	}
	return primitives.SigningKeyFromScalar(s), nil
}
