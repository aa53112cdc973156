package contactsync

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/clinicroster/internal/core"
	"github.com/JonMunkholm/clinicroster/internal/logging"
)

type fakeStream struct {
	calls []*redis.XAddArgs
	err   error
}

func (f *fakeStream) XAdd(_ context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.calls = append(f.calls, a)
	return redis.NewStringResult("1-0", f.err)
}

func TestRedisPublisher_Notify(t *testing.T) {
	fake := &fakeStream{}
	pub := newRedisPublisher(fake, "roster:contacts")
	pub.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	err := pub.Notify(context.Background(), &core.Patient{ID: "p-1", Name: "Ana", Email: "ana@example.com"}, "t1")
	require.NoError(t, err)
	require.Len(t, fake.calls, 1)

	args := fake.calls[0]
	assert.Equal(t, "roster:contacts", args.Stream)
	values, ok := args.Values.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "t1", values["tenant"])

	var ev Event
	require.NoError(t, json.Unmarshal([]byte(values["payload"].(string)), &ev))
	assert.Equal(t, "patient.imported", ev.Type)
	assert.Equal(t, "p-1", ev.PatientID)
	assert.Equal(t, "ana@example.com", ev.Email)
	assert.Equal(t, 2025, ev.OccurredAt.Year())
}

func TestRedisPublisher_PropagatesError(t *testing.T) {
	fake := &fakeStream{err: errors.New("connection refused")}
	pub := newRedisPublisher(fake, "s")

	err := pub.Notify(context.Background(), &core.Patient{ID: "p-1"}, "t1")
	assert.ErrorContains(t, err, "connection refused")
}

func TestNewRedisPublisher_BadURL(t *testing.T) {
	_, _, err := NewRedisPublisher("not a url", "s")
	assert.Error(t, err)
}

func TestLogNotifier(t *testing.T) {
	n := NewLogNotifier(logging.Discard())
	assert.NoError(t, n.Notify(context.Background(), &core.Patient{ID: "x"}, "t1"))
}
