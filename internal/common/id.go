package common

import (
	"github.com/google/uuid"
)

// analysisNamespace scopes name-based analysis IDs
var analysisNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/ternarybob/creditcore/analysis"))

// NewAnalysisID derives a stable analysis ID from a request fingerprint.
// The same fingerprint always yields the same ID.
// Format: run_<uuid>
func NewAnalysisID(fingerprint []byte) string {
	return "run_" + uuid.NewSHA1(analysisNamespace, fingerprint).String()
}
