package config

import (
	"encoding/hex"
	"fmt"
	"strings"
)

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("config: invalid hex encoding: %w", err)
	}
	return b, nil
}
