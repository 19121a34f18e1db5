package dicom

import (
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// uidRoot is the OID arc for UIDs derived from a UUID (ISO/IEC 9834-8).
const uidRoot = "2.25."

// MaxUIDLength is the DICOM limit for a UI value.
const MaxUIDLength = 64

// UIDFromUUID renders a UUID as a 2.25 OID.
func UIDFromUUID(u uuid.UUID) string {
	n := new(big.Int).SetBytes(u[:])
	return uidRoot + n.String()
}

// NewUID returns a random 2.25 UID that fits in maxLen bytes. Truncation
// never leaves a trailing '.'.
func NewUID(maxLen int) string {
	return FitUID(UIDFromUUID(uuid.New()), maxLen)
}

// DeterministicUID derives a stable UID from a seed string.
func DeterministicUID(seed string) string {
	return UIDFromUUID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)))
}

// FitUID truncates uid to maxLen and strips trailing dots. Values that would
// collapse below the root arc become "2.25".
func FitUID(uid string, maxLen int) string {
	if maxLen <= 0 || maxLen > MaxUIDLength {
		maxLen = MaxUIDLength
	}
	if len(uid) > maxLen {
		uid = uid[:maxLen]
	}
	uid = strings.TrimRight(uid, ".")
	if len(uid) < len(uidRoot) {
		return strings.TrimSuffix(uidRoot, ".")
	}
	return uid
}
