package cache

import (
	"crypto/md5" //nolint:gosec // Not used for security: fingerprints are an addressing contract
	"encoding/hex"
	"sort"
	"strings"
)

// excludedKeys are KV keys that never participate in the fingerprint.
// The operator's identity must not influence cache addressing: two operators
// crawling the same URL share the same logical call, and rotating the
// contact address must not orphan an existing cache.
var excludedKeys = map[string]bool{
	"user_agent": true,
	"session":    true,
}

// Call identifies one cacheable operation: an operation name, its positional
// arguments, and optional keyword context. The fingerprint derived from it is
// the primary key of the fetch cache.
type Call struct {
	// Op is the operation name, e.g. "crawl_url".
	Op string

	// Args are the positional arguments in caller order.
	Args []string

	// KV is optional keyword context. Keys in the excluded set
	// (user_agent, session) are ignored by the fingerprint.
	KV map[string]string
}

// Fingerprint returns the md5 hex digest of the call's canonical form.
//
// The canonical form is `op(arg1,arg2;k1=v1,k2=v2)`: args keep caller order
// (they are positional), KV pairs are sorted by key so map iteration order
// never leaks into the digest, and excluded keys are dropped entirely. The
// function is pure; equal calls always produce equal fingerprints.
//
// Design decision: md5 rather than a modern hash because the fingerprint is
// a cache address, not an integrity check (blake3 covers integrity
// separately). The 32-char hex digest is the on-disk naming contract shared
// with page keys; changing it would orphan every existing cache entry.
func (c Call) Fingerprint() string {
	pairs := make([]string, 0, len(c.KV))
	for k, v := range c.KV {
		if excludedKeys[k] {
			continue
		}
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)

	var b strings.Builder
	b.WriteString(c.Op)
	b.WriteString("(")
	b.WriteString(strings.Join(c.Args, ","))
	b.WriteString(";")
	b.WriteString(strings.Join(pairs, ","))
	b.WriteString(")")

	sum := md5.Sum([]byte(b.String())) //nolint:gosec // addressing, not auth
	return hex.EncodeToString(sum[:])
}
