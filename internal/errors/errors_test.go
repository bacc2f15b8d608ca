package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorFormatting(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := New(ErrCodeSlotTaken, "slot is taken")
		assert.Equal(t, "SLOT_TAKEN: slot is taken", err.Error())
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(ErrCodeUpstream, "upstream failed", cause)
		assert.Contains(t, err.Error(), "UPSTREAM_ERROR")
		assert.Contains(t, err.Error(), "connection refused")
		assert.Equal(t, cause, errors.Unwrap(err))
	})
}

func TestErrorWrappingChain(t *testing.T) {
	cause := errors.New("boom")
	appErr := Upstream("crm", cause)
	wrapped := fmt.Errorf("booking failed: %w", appErr)

	assert.True(t, IsAppError(wrapped))
	assert.True(t, errors.Is(wrapped, cause))

	got, ok := AsAppError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, ErrCodeUpstream, got.Code)
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeSlotTaken, GetCode(SlotTaken("2025-01-10", "16:00")))
	assert.Equal(t, ErrCodeOutsideHours, GetCode(OutsideHours("20:00")))
	assert.Equal(t, ErrCodeTimeout, GetCode(Timeout("assistant run")))
	assert.Equal(t, ErrCodeRunFailed, GetCode(RunFailed("failed")))
	assert.Equal(t, ErrCodeInternal, GetCode(errors.New("plain error")))
}

func TestConstructorMessages(t *testing.T) {
	assert.Contains(t, SlotTaken("2025-01-10", "16:00").Message, "2025-01-10")
	assert.Contains(t, OutsideHours("20:00").Message, "20:00")
	assert.Contains(t, MissingRequired("sender_id").Message, "sender_id")
	assert.Contains(t, NotFound("conversation").Message, "conversation")
}

func TestWithDetails(t *testing.T) {
	err := ValidationError("booking context incomplete").WithDetails([]string{"email", "phone"})
	assert.Equal(t, []string{"email", "phone"}, err.Details)
}
