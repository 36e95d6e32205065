package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashKey returns "<kind>:<sha256>" where the digest covers the JSON
// encoding of parts. Two simplify runs share a key only if their graph
// hash, rule set hash and result-affecting options all agree.
func hashKey(kind string, parts ...any) string {
	h := sha256.New()
	// parts are strings and plain option structs, which always encode
	_ = json.NewEncoder(h).Encode(parts)
	return kind + ":" + hex.EncodeToString(h.Sum(nil))
}

// Hash is the hex SHA-256 digest of a circuit document. Runners use it as
// the graph half of a result key.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
