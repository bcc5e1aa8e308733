package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BruksfildServices01/beauty-meet/internal/httperr"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"capture from requires payment", StatusRequiresPayment, StatusCaptured, true},
		{"authorize then capture", StatusAuthorized, StatusCaptured, true},
		{"void pending", StatusRequiresPayment, StatusVoided, true},
		{"void authorization", StatusAuthorized, StatusVoided, true},
		{"refund capture", StatusCaptured, StatusRefunded, true},
		{"same state is a no-op", StatusCaptured, StatusCaptured, true},
		{"captured cannot be voided", StatusCaptured, StatusVoided, false},
		{"refunded is final", StatusRefunded, StatusCaptured, false},
		{"voided is final", StatusVoided, StatusAuthorized, false},
		{"cannot refund before capture", StatusAuthorized, StatusRefunded, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanTransition(tt.from, tt.to)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.True(t, httperr.IsKind(err, httperr.KindInvalidTransition))
		})
	}
}

func TestActiveAndTerminal(t *testing.T) {
	assert.True(t, Active(StatusCaptured))
	assert.False(t, Active(StatusVoided))
	assert.False(t, Active(StatusRefunded))

	assert.True(t, Terminal(StatusRefunded))
	assert.False(t, Terminal(StatusAuthorized))
}
