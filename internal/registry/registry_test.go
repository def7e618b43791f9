package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rishav/order-matching-engine/internal/order"
)

func TestRegistryPutGetDelete(t *testing.T) {
	r := New()
	o := order.New(1, order.Normal, order.Buy, 100, 10, 0)

	_, ok := r.Get(1)
	assert.False(t, ok)

	r.Put(o)
	got, ok := r.Get(1)
	assert.True(t, ok)
	assert.Same(t, o, got)
	assert.Equal(t, 1, r.Len())

	r.Delete(1)
	_, ok = r.Get(1)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}
