package payments

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
)

// Signer produces the gateway signature of a request to script.
type Signer interface {
	Sign(script string, params map[string]string) string
}

// MD5Signer signs "script;v1;...;vn;secret" with values ordered by parameter name.
type MD5Signer struct {
	Secret string
}

func (s MD5Signer) Sign(script string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "pg_sig" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys)+2)
	parts = append(parts, script)
	for _, k := range keys {
		parts = append(parts, params[k])
	}
	parts = append(parts, s.Secret)

	sum := md5.Sum([]byte(strings.Join(parts, ";")))
	return hex.EncodeToString(sum[:])
}
