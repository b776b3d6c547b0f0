package domain_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	pkgerrors "MedSchedulePlatform/pkg/errors"
	"MedSchedulePlatform/services/auth-service/internal/domain"
)

// Промахи справочников и снятия блокировки не совпадают друг с другом
func TestNotFoundErrorsAreDistinct(t *testing.T) {
	misses := []error{domain.ErrPrincipalNotFound, domain.ErrPatientNotFound, domain.ErrNotBlocked, domain.ErrSessionNotFound}

	for i, err := range misses {
		for j, other := range misses {
			wrapped := fmt.Errorf("lookup: %w", err)
			assert.Equal(t, i == j, errors.Is(wrapped, other), "%v vs %v", err, other)
		}
		assert.Equal(t, http.StatusNotFound, pkgerrors.FromError(err).HTTPStatus())
		assert.False(t, pkgerrors.HasCode(err, pkgerrors.ErrNotFound))
	}
}
