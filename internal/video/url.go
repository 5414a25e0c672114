// internal/video/url.go
package video

import (
	"net/url"
	"strconv"
	"strings"
)

// CacheBustParam is the query key used to force a fresh stream fetch.
const CacheBustParam = "t"

// CacheBust returns source with t=<stamp> set, replacing any previous value.
// Other query pairs keep their order and encoding.
func CacheBust(source string, stamp int64) string {
	pair := CacheBustParam + "=" + strconv.FormatInt(stamp, 10)

	u, err := url.Parse(source)
	if err != nil {
		return source + "?" + pair
	}

	var out []string
	replaced := false
	for _, kv := range strings.Split(u.RawQuery, "&") {
		if kv == "" {
			continue
		}
		key, _, _ := strings.Cut(kv, "=")
		if k, err := url.QueryUnescape(key); err == nil && k == CacheBustParam {
			if !replaced {
				out = append(out, pair)
				replaced = true
			}
			continue
		}
		out = append(out, kv)
	}
	if !replaced {
		out = append(out, pair)
	}

	u.RawQuery = strings.Join(out, "&")
	return u.String()
}
