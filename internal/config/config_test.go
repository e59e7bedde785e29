package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/frost-relay/frostrelay/primitives"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func samplePublicKeyHex(t *testing.T) string {
	t.Helper()
	k, err := primitives.GenerateSigningKey()
	if err != nil {
		t.Fatalf("generate signing key: %v", err)
	}
	pub := k.PublicKey()
	return hex.EncodeToString(pub[:])
}

func TestLoadAndDirectory(t *testing.T) {
	coordKey := samplePublicKeyHex(t)
	signerKey := samplePublicKeyHex(t)

	body := `
http_relay_url = "http://localhost:9000"
total_signers = 1
total_keys = 1
keys_threshold = 1
coordinator_key = "` + coordKey + `"
network_private_key = "0011223344556677889900112233445566778899001122334455667788990011"

[signer_keys]
1 = "` + signerKey + `"

[party_keys]
1 = "` + signerKey + `"
`
	path := writeTempConfig(t, body)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPRelayURL != "http://localhost:9000" {
		t.Fatalf("unexpected relay url: %s", cfg.HTTPRelayURL)
	}

	dir, err := cfg.Directory()
	if err != nil {
		t.Fatalf("directory: %v", err)
	}
	if _, err := dir.SignerKey(1); err != nil {
		t.Fatalf("expected signer 1 in directory: %v", err)
	}
	if _, err := dir.KeyIDKey(1); err != nil {
		t.Fatalf("expected key id 1 in directory: %v", err)
	}
}

func TestRoundDeadlineDefault(t *testing.T) {
	cfg := &Config{}
	if cfg.RoundDeadline() != 30*time.Second {
		t.Fatalf("expected default 30s deadline, got %s", cfg.RoundDeadline())
	}
	cfg.RoundDeadlineMilli = 500
	if cfg.RoundDeadline() != 500*time.Millisecond {
		t.Fatalf("expected 500ms deadline, got %s", cfg.RoundDeadline())
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected error loading missing file")
	}
}
