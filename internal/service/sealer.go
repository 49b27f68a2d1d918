package service

import (
	"go.uber.org/zap"

	"github.com/palamut62/my-notes/internal/metrics"
)

// Sealer encrypts field values keyed by the owning user's id.
type Sealer interface {
	Seal(plaintext, keyMaterial string) (string, error)
	Unseal(ciphertext, keyMaterial string) (string, error)
}

// open unseals a stored value. A value that cannot be opened is logged
// and reported as ok == false; the caller withholds it.
func open(s Sealer, log *zap.Logger, entity, id, sealed, userID string) (string, bool) {
	plain, err := s.Unseal(sealed, userID)
	if err != nil {
		metrics.DecryptFailures.WithLabelValues(entity).Inc()
		log.Warn("Failed to decrypt stored value",
			zap.String("entity", entity), zap.String("id", id), zap.Error(err))
		return "", false
	}
	return plain, true
}
