package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanerAttemptsEveryIDOnce(t *testing.T) {
	msgr := newFakeMessenger()
	cl := NewCleaner(msgr, nil, 0)

	err := cl.Now(context.Background(), testChatID, []int{5, 6, 5, 0, 7})
	require.NoError(t, err)
	assert.Equal(t, []int{5, 6, 7}, msgr.deleted)
}

func TestCleanerContinuesPastFailures(t *testing.T) {
	msgr := newFakeMessenger()
	msgr.deleteErr[6] = errors.New("message to delete not found")
	cl := NewCleaner(msgr, nil, 0)

	err := cl.Now(context.Background(), testChatID, []int{5, 6, 7})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "message 6")
	// The failure does not stop the remaining deletions.
	assert.Equal(t, []int{5, 6, 7}, msgr.deleted)
}

func TestCleanerLaterUsesGraceDelay(t *testing.T) {
	msgr := newFakeMessenger()
	deferrer := &fakeDeferrer{}
	cl := NewCleaner(msgr, deferrer, 5*time.Second)

	cl.Later(context.Background(), testChatID, []int{5, 6})
	require.Len(t, deferrer.delays, 1)
	assert.Equal(t, 5*time.Second, deferrer.delays[0])
	assert.Equal(t, []int{5, 6}, msgr.deleted)
}

func TestCleanerLaterNoIDsIsNoop(t *testing.T) {
	msgr := newFakeMessenger()
	deferrer := &fakeDeferrer{}
	cl := NewCleaner(msgr, deferrer, time.Second)

	cl.Later(context.Background(), testChatID, nil)
	assert.Empty(t, deferrer.delays)
	assert.Empty(t, msgr.deleted)
}
