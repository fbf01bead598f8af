// Package canonical normalizes article links so the same story seen
// through different tracking wrappers hashes to the same identity.
package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

var trackingParams = map[string]struct{}{
	"fbclid":   {},
	"gclid":    {},
	"msclkid":  {},
	"mc_cid":   {},
	"mc_eid":   {},
	"_ga":      {},
	"_gl":      {},
	"ref":      {},
	"source":   {},
	"campaign": {},
}

// URL returns the canonical form of a raw link: known tracking
// parameters removed, a single trailing slash stripped unless the path
// is root, and the whole string lower-cased. It is total: input that
// does not parse as a URL is returned trimmed and lower-cased, and
// canonicalizing an already-canonical URL yields the same string.
func URL(raw string) string {
	trimmed := strings.TrimSpace(raw)

	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.ToLower(trimmed)
	}

	q := u.Query()
	for key := range q {
		lower := strings.ToLower(key)
		if _, tracked := trackingParams[lower]; tracked || strings.HasPrefix(lower, "utm_") {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()

	out := u.String()
	if strings.HasSuffix(out, "/") && u.Path != "/" {
		out = strings.TrimSuffix(out, "/")
	}

	return strings.ToLower(out)
}

// Hash returns the hex SHA-256 digest of a canonical URL. The hash,
// not the URL string, is the dedup key.
func Hash(canonicalURL string) string {
	sum := sha256.Sum256([]byte(canonicalURL))
	return hex.EncodeToString(sum[:])
}

// Domain extracts the host part of a canonical URL, or "" if the
// string does not parse.
func Domain(canonicalURL string) string {
	u, err := url.Parse(canonicalURL)
	if err != nil {
		return ""
	}
	return u.Host
}
