package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := WithContext(context.Background(), "t-1")
	assert.Equal(t, "t-1", FromContext(ctx))
	assert.Empty(t, FromContext(context.Background()))
}

func TestFromHeaderGeneratesWhenEmpty(t *testing.T) {
	assert.Equal(t, "given", FromHeader("given"))
	id := FromHeader("")
	assert.Len(t, id, 32)
	assert.NotEqual(t, id, FromHeader(""))
}
