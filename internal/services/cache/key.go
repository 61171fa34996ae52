package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/ternarybob/creditcore/internal/models"
)

// Key hashes task, schema version, prompt version and the normalized payload.
// The payload is serialized with sorted object keys, so two payloads with the
// same fields produce the same key regardless of map order or struct layout.
func Key(task, schemaVersion, promptVersion string, payload any) (string, error) {
	normalized, err := Normalize(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(task + ":" + schemaVersion + ":" + promptVersion + ":" + normalized))
	return models.CachePrefix + hex.EncodeToString(sum[:]), nil
}

// Normalize returns the sorted-key JSON serialization of v
func Normalize(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to serialize cache payload: %w", err)
	}
	// Round-trip through a generic value so struct fields are also key-sorted.
	// UseNumber keeps integers above 2^53 exact.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return "", fmt.Errorf("failed to normalize cache payload: %w", err)
	}
	sorted, err := json.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("failed to normalize cache payload: %w", err)
	}
	return string(sorted), nil
}
