package apperr_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/hospitality-reservation/internal/apperr"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := apperr.Precondition("booking.confirm", "booking is %s", "cancelled")

	assert.True(t, errors.Is(err, apperr.ErrPrecondition))
	assert.False(t, errors.Is(err, apperr.ErrValidation))
	assert.Equal(t, "booking.confirm: booking is cancelled", err.Error())
}

func TestKindOf_WrappedError(t *testing.T) {
	err := errors.Wrap(apperr.NotFound("coupon.apply", "coupon not found"), "apply")

	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, "coupon not found", apperr.MessageOf(err))
	assert.Equal(t, apperr.Kind(0), apperr.KindOf(errors.New("boom")))
}
