package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GenerateIdempotencyKey derives a deterministic token for an order request.
// Two calls for the same requester + booking inside one window produce the
// same key, so client retries and double-clicks collapse to a single payment
// row; once the window rolls over, a genuinely new attempt gets a fresh key.
func GenerateIdempotencyKey(requesterID uuid.UUID, bookingKind string, bookingID uuid.UUID, at time.Time, window time.Duration) string {
	bucket := at.Unix()
	if window > 0 {
		bucket = at.Unix() / int64(window.Seconds())
	}

	input := fmt.Sprintf("%s_%s_%s_%d", requesterID.String(), bookingKind, bookingID.String(), bucket)
	sum := sha256.Sum256([]byte(input))
	digest := hex.EncodeToString(sum[:])[:8]

	return fmt.Sprintf("%s_%s_%d_%s", requesterID.String(), bookingID.String(), bucket, digest)
}

// GenerateReceipt builds the gateway receipt reference for a booking.
// Format: APT_<id> or OPR_<id>.
func GenerateReceipt(bookingKind string, bookingID uuid.UUID) string {
	prefix := "APT"
	if bookingKind == "operation" {
		prefix = "OPR"
	}
	return fmt.Sprintf("%s_%s", prefix, bookingID.String())
}
