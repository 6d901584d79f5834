package observable

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_SubscribeReplaysPresentValue(t *testing.T) {
	v := New(false)

	var got []bool
	v.Subscribe(func(b bool) { got = append(got, b) })

	assert.Equal(t, []bool{false}, got)
}

func TestValue_SubscribeSkipsAbsentValue(t *testing.T) {
	v := NewEmpty[string]()

	calls := 0
	v.Subscribe(func(string) { calls++ })
	assert.Zero(t, calls)

	v.Set("ready")
	assert.Equal(t, 1, calls)
}

func TestValue_SetSameValueNotifiesOnce(t *testing.T) {
	v := New(0)

	var got []int
	v.Subscribe(func(n int) { got = append(got, n) })
	got = nil

	v.Set(7)
	v.Set(7)

	assert.Equal(t, []int{7}, got)
	assert.Equal(t, 7, v.Get())
}

func TestValue_ClearAndPresence(t *testing.T) {
	err := errors.New("boom")
	v := NewEmpty[error]()

	var got []error
	v.Subscribe(func(e error) { got = append(got, e) })

	v.Set(err)
	v.Clear()
	v.Clear()

	assert.Equal(t, []error{err, nil}, got)
	_, present := v.Lookup()
	assert.False(t, present)

	// a present zero value is distinct from absence
	v.Set(nil)
	_, present = v.Lookup()
	assert.True(t, present)
	assert.Len(t, got, 3)
}

func TestValue_Unsubscribe(t *testing.T) {
	v := New("a")

	var first, second []string
	s1 := v.Subscribe(func(s string) { first = append(first, s) })
	v.Subscribe(func(s string) { second = append(second, s) })

	v.Unsubscribe(s1)
	v.Unsubscribe(s1)
	v.Unsubscribe(Subscription(999))
	v.Set("b")

	assert.Equal(t, []string{"a"}, first)
	assert.Equal(t, []string{"a", "b"}, second)
	assert.Equal(t, 1, v.Len())
}

func TestValue_SubscriberOrder(t *testing.T) {
	v := NewEmpty[int]()

	var order []string
	v.Subscribe(func(int) { order = append(order, "first") })
	v.Subscribe(func(int) { order = append(order, "second") })
	v.Set(1)

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestValue_SubscriberMaySetValue(t *testing.T) {
	v := New(0)
	v.Subscribe(func(n int) {
		if n == 1 {
			v.Set(2)
		}
	})

	v.Set(1)
	assert.Equal(t, 2, v.Get())
}

func TestValue_ConcurrentSet(t *testing.T) {
	v := New(0)

	var mu sync.Mutex
	seen := 0
	v.Subscribe(func(int) {
		mu.Lock()
		seen++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			v.Set(n)
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, seen, 2)
}
