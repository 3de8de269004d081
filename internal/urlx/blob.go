package urlx

import (
	"sync"
	"sync/atomic"

	"github.com/loomweb/loom/internal/codec"
)

// blobEntry is a registered in-memory object (spec §3.1: a blob: URL never
// touches the network or disk; it dereferences straight into this table).
type blobEntry struct {
	mediaType string
	body      []byte
}

var (
	blobMu    sync.RWMutex
	blobs     = map[string]blobEntry{}
	blobNonce uint64
)

// RegisterBlob stores body under a freshly minted blob: URL and returns it.
// The id is process-local and never persisted — a reload invalidates every
// blob: reference, matching how the original renders object URLs.
func RegisterBlob(mediaType string, body []byte) *URL {
	id := atomic.AddUint64(&blobNonce, 1)
	key := "b" + codec.PercentEncode(itoa(int(id)))

	blobMu.Lock()
	blobs[key] = blobEntry{mediaType: mediaType, body: append([]byte(nil), body...)}
	blobMu.Unlock()

	raw := "blob:" + key
	return &URL{Scheme: SchemeBlob, Path: key, Raw: raw, MediaType: mediaType, Body: body}
}

// LookupBlob dereferences a blob: URL's path component against the
// process-wide table. ok is false once the blob has been revoked or never
// existed.
func LookupBlob(key string) (mediaType string, body []byte, ok bool) {
	blobMu.RLock()
	defer blobMu.RUnlock()
	e, found := blobs[key]
	if !found {
		return "", nil, false
	}
	return e.mediaType, e.body, true
}

// RevokeBlob removes a previously registered blob, mirroring
// URL.revokeObjectURL.
func RevokeBlob(key string) {
	blobMu.Lock()
	delete(blobs, key)
	blobMu.Unlock()
}
