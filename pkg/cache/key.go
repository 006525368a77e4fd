package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Key computes the deterministic cache key for a tool invocation:
// a hash of the tool name and the normalized argument object.
//
// Arguments are normalized by decoding and re-encoding the JSON, which
// sorts object keys and strips insignificant whitespace, so two calls
// that differ only in key order or formatting share one cache entry.
// Arguments that fail to parse hash as raw bytes; such calls are
// rejected later by schema validation anyway.
func Key(toolName string, args json.RawMessage) string {
	h := sha256.New()
	h.Write([]byte(toolName))
	h.Write([]byte{0})
	h.Write(normalizeArgs(args))
	return "tool:" + hex.EncodeToString(h.Sum(nil))
}

// InstructionKey computes the cache key for an assembled instruction
// set, keyed on domain and a hash of the user preference fragment.
func InstructionKey(domain, prefsFragment string) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0})
	h.Write([]byte(prefsFragment))
	return "instr:" + hex.EncodeToString(h.Sum(nil))
}

func normalizeArgs(args json.RawMessage) []byte {
	if len(args) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(args, &v); err != nil {
		return args
	}
	// encoding/json marshals map keys in sorted order.
	normalized, err := json.Marshal(v)
	if err != nil {
		return args
	}
	return normalized
}
