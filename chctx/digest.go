package chctx

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/danshapiro/coretiny/corerr"
)

// Digest hashes the serialized form of the value stored under key with
// blake3, returning a hex digest for cheap identity comparison. Only
// string and []byte payloads are supported; other payload types return
// InvalidParameter, since the digest is meant for diagnostic output
// (tokens, output_code) rather than arbitrary in-memory structures.
func (c *Context) Digest(key string) (string, error) {
	raw, err := c.Get(key)
	if err != nil {
		return "", err
	}

	var data []byte
	switch v := raw.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return "", corerr.New(corerr.InvalidParameter, corerr.DetailFull,
			fmt.Sprintf("context digest: key %q holds non-serializable value %T", key, raw))
	}

	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:]), nil
}
