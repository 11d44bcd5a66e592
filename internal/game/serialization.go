package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ChecksumVersion identifies the canonical encoding the checksum is taken over.
const ChecksumVersion = 1

// Checksum is a digest of a game state. Two states with equal checksums are
// the same game in the same position.
type Checksum struct {
	Hash         string `json:"hash"`
	StateVersion uint64 `json:"stateVersion"`
	Version      int    `json:"version"`
}

// MarshalState encodes a state as JSON. Map keys are emitted in sorted
// order, so equal states always encode to equal bytes.
func MarshalState(s *GameState) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return data, nil
}

// UnmarshalState decodes a state produced by MarshalState.
func UnmarshalState(data []byte) (*GameState, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var s GameState
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	if len(s.Players) == 0 {
		return nil, fmt.Errorf("failed to decode state: no players")
	}
	return &s, nil
}

// ComputeChecksum hashes the canonical encoding of the state.
func ComputeChecksum(s *GameState) (Checksum, error) {
	data, err := MarshalState(s)
	if err != nil {
		return Checksum{}, err
	}
	sum := sha256.Sum256(data)
	return Checksum{
		Hash:         hex.EncodeToString(sum[:]),
		StateVersion: s.Version,
		Version:      ChecksumVersion,
	}, nil
}

// VerifyChecksum reports whether the state hashes to expected.
func VerifyChecksum(s *GameState, expected Checksum) (bool, error) {
	if expected.Version != ChecksumVersion {
		return false, fmt.Errorf("unsupported checksum version: %d", expected.Version)
	}
	computed, err := ComputeChecksum(s)
	if err != nil {
		return false, fmt.Errorf("failed to compute checksum: %w", err)
	}
	return computed.Hash == expected.Hash, nil
}

// ValidateSerializationRoundtrip checks that a state survives an
// encode/decode cycle without changing its checksum.
func ValidateSerializationRoundtrip(s *GameState) error {
	original, err := ComputeChecksum(s)
	if err != nil {
		return fmt.Errorf("failed to compute original checksum: %w", err)
	}
	data, err := MarshalState(s)
	if err != nil {
		return err
	}
	decoded, err := UnmarshalState(data)
	if err != nil {
		return err
	}
	roundtrip, err := ComputeChecksum(decoded)
	if err != nil {
		return fmt.Errorf("failed to compute roundtrip checksum: %w", err)
	}
	if original.Hash != roundtrip.Hash {
		return fmt.Errorf("checksum mismatch: original=%s, roundtrip=%s", original.Hash, roundtrip.Hash)
	}
	return nil
}
