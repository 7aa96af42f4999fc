// Package cas provides structural hashing: canonical JSON serialization
// followed by a BLAKE3 digest.
package cas

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"lukechampine.com/blake3"
)

// ShortHashLen is the number of hex characters kept by StructuralHash.
const ShortHashLen = 16

// CanonicalJSON converts a value to canonical JSON. Object keys are sorted
// at every depth and numbers keep their original textual form.
func CanonicalJSON(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	// Round-trip through a generic tree: encoding/json writes map keys in
	// sorted order, which gives a stable form regardless of struct layout.
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree interface{}
	if err := dec.Decode(&tree); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tree); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Blake3Hash computes a BLAKE3 hash of the input.
func Blake3Hash(data []byte) []byte {
	sum := blake3.Sum256(data)
	return sum[:]
}

// Blake3HashHex computes a BLAKE3 hash and returns it as a hex string.
func Blake3HashHex(data []byte) string {
	return hex.EncodeToString(Blake3Hash(data))
}

// StructuralHash returns a short, deterministic hex digest of v's canonical
// JSON form. Two values with the same structure hash identically.
func StructuralHash(v interface{}) (string, error) {
	canonical, err := CanonicalJSON(v)
	if err != nil {
		return "", fmt.Errorf("canonicalizing value: %w", err)
	}
	return Blake3HashHex(canonical)[:ShortHashLen], nil
}
