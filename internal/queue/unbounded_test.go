package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPopFIFO(t *testing.T) {
	q := New[int]()
	q.Push(1)
	q.Push(2)
	q.Push(3)

	v, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	v, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestTryPopEmpty(t *testing.T) {
	q := New[int]()
	_, ok := q.TryPop()
	assert.False(t, ok)
}

func TestCloseDrainsThenStops(t *testing.T) {
	q := New[int]()
	q.Push(1)
	q.Close()

	v, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = q.Pop()
	assert.False(t, ok)
	assert.True(t, q.Closed())
}

func TestPopBlocksUntilPush(t *testing.T) {
	q := New[int]()
	done := make(chan int, 1)

	go func() {
		v, ok := q.Pop()
		if ok {
			done <- v
		}
	}()

	time.Sleep(10 * time.Millisecond)
	q.Push(42)

	select {
	case v := <-done:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("Pop did not unblock after Push")
	}
}

func TestPopContextCancellation(t *testing.T) {
	q := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, ok := q.PopContext(ctx)
	assert.False(t, ok)
}

func TestConcurrentProducersPreserveCount(t *testing.T) {
	q := New[int]()
	var wg sync.WaitGroup
	const producers, perProducer = 10, 100

	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				q.Push(j)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, producers*perProducer, q.Len())
}
