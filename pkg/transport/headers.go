package transport

import (
	"strings"

	"github.com/samber/lo"
)

// MergeHeaders applies header layers in order. A later layer replaces any
// earlier key that matches case-insensitively, so each name appears once.
func MergeHeaders(layers ...map[string]string) map[string]string {
	out := map[string]string{}
	for _, layer := range layers {
		for k, v := range layer {
			out = lo.OmitBy(out, func(existing string, _ string) bool {
				return strings.EqualFold(existing, k)
			})
			out[k] = v
		}
	}
	return out
}
