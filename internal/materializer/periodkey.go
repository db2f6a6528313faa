package materializer

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// PeriodKey derives the idempotency key for one template/period pair. The
// same template and period always hash to the same key, so a re-run of the
// engine collides with the row it already wrote instead of duplicating it.
func PeriodKey(templateID string, periodStart time.Time) string {
	sum := sha256.Sum256([]byte(templateID + ":" + periodStart.UTC().Format("2006-01-02")))
	return hex.EncodeToString(sum[:])
}
