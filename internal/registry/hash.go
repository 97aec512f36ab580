package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/landsafe/landsafe/internal/model"
)

// PriorityHash computes the tamper-evident fingerprint for a priority-of-sale
// record: a sha256 digest over the grantor, the indenture document hash, the
// canonicalized polygon coordinates, and the lock timestamp. The digest is
// reproducible from the inputs alone, independent of storage backend, so a
// court or auditor can recompute and verify it later.
func PriorityHash(grantorName, indentureHash string, polygon model.Polygon, ts time.Time) string {
	h := sha256.New()
	_, _ = io.WriteString(h, grantorName)
	_, _ = io.WriteString(h, "|")
	_, _ = io.WriteString(h, indentureHash)
	_, _ = io.WriteString(h, "|")
	for _, pt := range polygon.Points {
		// Fixed 7-decimal canonical form (~1 cm) keeps the digest stable
		// across float formatting differences
		fmt.Fprintf(h, "%.7f,%.7f;", pt.Lat, pt.Lng)
	}
	_, _ = io.WriteString(h, "|")
	_, _ = io.WriteString(h, ts.UTC().Format(time.RFC3339Nano))
	return hex.EncodeToString(h.Sum(nil))
}
