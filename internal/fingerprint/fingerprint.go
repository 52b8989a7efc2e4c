// Package fingerprint derives stable identifiers for analyzed content.
package fingerprint

import (
	"fmt"
	"strings"

	"github.com/spaolacci/murmur3"
)

// Of returns a compact hash identifying the content. Surrounding whitespace
// and letter case do not participate, so trivially restyled duplicates map
// to the same fingerprint.
//
// current implementation uses murmur3 128-bit, default seed, and hex encoding
func Of(text string) string {
	canonical := strings.ToLower(strings.TrimSpace(text))
	h1, h2 := murmur3.Sum128([]byte(canonical))
	return fmt.Sprintf("%016x%016x", h1, h2)
}
