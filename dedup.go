package tamperfy

import (
	"image"
	"sync"

	"github.com/corona10/goimagehash"
)

// dedupThreshold is the maximum Hamming distance between two dHash values
// below which images are considered perceptually identical.
const dedupThreshold = 10

// setFingerprint stores the perceptual dHash of img on r. Hashing failure
// leaves the fingerprint empty.
func (r *Result) setFingerprint(img image.Image) {
	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return
	}
	r.hash = hash.GetHash()
	r.hasHash = true
	r.Fingerprint = hash.ToString()
}

// imageHash returns the dHash of r. Results decoded from JSON (for example
// from a Cache) carry only Fingerprint, so the hash is parsed back from it.
func (r Result) imageHash() *goimagehash.ImageHash {
	if r.hasHash {
		return goimagehash.NewImageHash(r.hash, goimagehash.DHash)
	}
	if r.Fingerprint == "" {
		return nil
	}
	hash, err := goimagehash.ImageHashFromString(r.Fingerprint)
	if err != nil {
		return nil
	}
	return hash
}

// DedupIndex remembers image results by fingerprint so a caller can skip
// re-reviewing near-identical uploads. It is safe for concurrent use.
type DedupIndex struct {
	mu     sync.Mutex
	keys   []string
	hashes []*goimagehash.ImageHash
}

// Seen reports the key of a previously added, perceptually identical result.
// When r is unique it is stored under key. Results without a fingerprint are
// never duplicates and are not stored.
func (x *DedupIndex) Seen(key string, r Result) (string, bool) {
	hash := r.imageHash()
	if hash == nil {
		return "", false
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	for i, h := range x.hashes {
		dist, err := hash.Distance(h)
		if err == nil && dist < dedupThreshold {
			return x.keys[i], true
		}
	}

	x.keys = append(x.keys, key)
	x.hashes = append(x.hashes, hash)
	return "", false
}
