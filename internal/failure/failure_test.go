package failure

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := errors.New("connection refused")
	err := fmt.Errorf("strategic worker: %w", Upstream("oracle.generate", base))

	assert.True(t, Is(err, UpstreamUnavailable))
	assert.False(t, Is(err, NotFound))
	assert.ErrorIs(t, err, base)
}

func TestKindOfPlainError(t *testing.T) {
	_, ok := KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestErrorString(t *testing.T) {
	assert.EqualError(t, Missing("store.get_session", errors.New("abc")), "store.get_session: not_found: abc")
	assert.EqualError(t, &Error{Kind: MalformedResponse, Op: "decode"}, "decode: malformed_response")
}
