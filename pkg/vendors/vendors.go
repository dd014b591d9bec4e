// Package vendors holds the per-vendor response selectors and detail
// normalizers, plus the static registry wiring each vendor's descriptor to
// its functions. Selectors are pure: raw search response in, ordered
// candidates out.
package vendors

import (
	"strings"

	"github.com/tidwall/gjson"
)

// oneLine flattens a value that vendors sometimes encode as a list of
// strings (multi-line titles) into a single line.
func oneLine(r gjson.Result) string {
	if r.IsArray() {
		parts := make([]string, 0, 4)
		for _, item := range r.Array() {
			parts = append(parts, item.String())
		}
		return strings.Join(parts, " ")
	}
	return r.String()
}

// requireKeys verifies that every listed key is present on item, returning
// the first missing key name.
func requireKeys(item gjson.Result, keys ...string) (string, bool) {
	for _, k := range keys {
		if !item.Get(k).Exists() {
			return k, false
		}
	}
	return "", true
}
