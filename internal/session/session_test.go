package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSingleSessionPerChat(t *testing.T) {
	st := NewStore()

	s, err := st.Begin(1, 10, "ash")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.True(t, st.InProgress(1))

	_, err = st.Begin(1, 11, "misty")
	assert.ErrorIs(t, err, ErrActive)

	// Other chats are unaffected.
	_, err = st.Begin(2, 11, "misty")
	assert.NoError(t, err)
}

func TestStoreEndFreesChat(t *testing.T) {
	st := NewStore()

	_, err := st.Begin(1, 10, "ash")
	require.NoError(t, err)

	ended, ok := st.End(1)
	require.True(t, ok)
	assert.Equal(t, int64(1), ended.ChatID)
	assert.False(t, st.InProgress(1))

	_, err = st.Begin(1, 10, "ash")
	assert.NoError(t, err)

	_, ok = st.End(99)
	assert.False(t, ok)
}

func TestSessionTrackDeduplicates(t *testing.T) {
	s := &Session{}
	s.Track(5, 6)
	s.Track(6, 0, 7)
	s.Track(5)
	assert.Equal(t, []int{5, 6, 7}, s.Pending())

	// Pending returns a copy.
	s.Pending()[0] = 99
	assert.Equal(t, []int{5, 6, 7}, s.Pending())
}

func TestStoreDoSerializesPerChat(t *testing.T) {
	st := NewStore()

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.Do(1, func() {
				counter++
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, counter)
}
