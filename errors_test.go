package framebridge

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompositionErrorMatching(t *testing.T) {
	err := fmt.Errorf("request: %w", &CompositionError{Frame: 3, Reason: "empty object name"})

	assert.ErrorIs(t, err, ErrComposition)
	assert.NotErrorIs(t, err, ErrChannelClosed)

	var ce *CompositionError
	if assert.True(t, errors.As(err, &ce)) {
		assert.Equal(t, uint64(3), ce.Frame)
	}
	assert.Contains(t, err.Error(), "frame 3")
}

func TestCompositionErrorUnwrapsEngineError(t *testing.T) {
	cause := errors.New("unknown plugin")
	err := fmt.Errorf("request: %w", &CompositionError{Frame: 5, Reason: cause.Error(), Err: cause})

	assert.ErrorIs(t, err, ErrComposition)
	assert.ErrorIs(t, err, cause)
	assert.NoError(t, (&CompositionError{Frame: 5}).Unwrap())
}

func TestLifecycleErrorUnwrap(t *testing.T) {
	err := &LifecycleError{Resource: "texture", Op: "release", State: "released"}
	assert.ErrorIs(t, err, ErrLifecycleViolation)
	assert.Equal(t, "framebridge: resource lifecycle violation: texture release while released", err.Error())
}

func TestFrameGeometry(t *testing.T) {
	assert.Equal(t, 1920*1080*4, FrameSize)
	assert.Equal(t, 7680, FrameStride)
}
