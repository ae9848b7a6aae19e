package perchline

import (
	"encoding/base32"
	"encoding/binary"
	"hash/fnv"
	"os"
	"sync/atomic"
	"time"
)

// Idempotency keys are built from a nanosecond timestamp, a fingerprint of
// the running process, and a monotonically increasing per-process counter.
// The counter guarantees two concurrent calls from the same process never
// collide; the timestamp and fingerprint make cross-process collisions
// negligible. Keys are encoded with a compact base-32 alphabet so they are
// URL-safe and header-safe.

var base32Keys = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

var (
	idempotencyCounter atomic.Uint64
	processFingerprint = computeProcessFingerprint()
)

func computeProcessFingerprint() uint32 {
	h := fnv.New32a()
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	h.Write([]byte(host))
	var pid [4]byte
	binary.BigEndian.PutUint32(pid[:], uint32(os.Getpid()))
	h.Write(pid[:])
	return h.Sum32()
}

// NewIdempotencyKey returns a fresh, practically-unique, URL-safe token.
// Write requests that do not carry a caller-supplied Idempotency-Key header
// get one generated through this function, and the same key is reused
// verbatim across every retry attempt of that request.
//
// Example:
//
//	key := perchline.NewIdempotencyKey()
//	req := perchline.NewRequest(http.MethodPost, "/v1/contacts").
//	    WithOptions(perchline.RequestOptions{IdempotencyKey: key})
func NewIdempotencyKey() string {
	var raw [20]byte
	binary.BigEndian.PutUint64(raw[0:8], uint64(time.Now().UnixNano()))
	binary.BigEndian.PutUint32(raw[8:12], processFingerprint)
	binary.BigEndian.PutUint64(raw[12:20], idempotencyCounter.Add(1))
	return base32Keys.EncodeToString(raw[:])
}
