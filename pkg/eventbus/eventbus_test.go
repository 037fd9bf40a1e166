package eventbus

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type entryMerged struct {
	key     string
	changed []string
}

type entryArchived struct {
	key string
}

func quietLogger(buf *bytes.Buffer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(buf)
	log.SetLevel(logrus.WarnLevel)
	return log
}

func TestPublisher_DeliversToMatchingHandler(t *testing.T) {
	bus := NewEventPublisher(quietLogger(&bytes.Buffer{}))

	var got *entryMerged
	bus.Subscribe(func(e *entryMerged) { got = e })

	bus.Publish(&entryMerged{key: "ivan@corp.example", changed: []string{"division"}})

	require.NotNil(t, got)
	require.Equal(t, "ivan@corp.example", got.key)
	require.Equal(t, []string{"division"}, got.changed)
}

func TestPublisher_SkipsNonMatchingHandler(t *testing.T) {
	buf := bytes.Buffer{}
	bus := NewEventPublisher(quietLogger(&buf))

	bus.Subscribe(func(e *entryMerged) { t.Error("wrong event type delivered") })
	bus.Publish(&entryArchived{key: "ivan@corp.example"})

	require.Contains(t, buf.String(), "no matching subscribers")
}

func TestPublisher_HandlerPanicIsContained(t *testing.T) {
	buf := bytes.Buffer{}
	bus := NewEventPublisher(quietLogger(&buf))

	called := false
	bus.Subscribe(func(e *entryMerged) { panic("boom") })
	bus.Subscribe(func(e *entryMerged) { called = true })

	require.NotPanics(t, func() {
		bus.Publish(&entryMerged{key: "x"})
	})
	require.True(t, called, "surviving handlers must still run")
	require.Contains(t, buf.String(), "panicked")
}

func TestPublisher_Unsubscribe(t *testing.T) {
	bus := NewEventPublisher(quietLogger(&bytes.Buffer{}))

	calls := 0
	handler := func(e *entryMerged) { calls++ }
	bus.Subscribe(handler)
	require.Equal(t, 1, bus.SubscribersCount())

	bus.Unsubscribe(handler)
	require.Zero(t, bus.SubscribersCount())
}

func TestPublisher_SubscribeRejectsNonFunction(t *testing.T) {
	bus := NewEventPublisher(quietLogger(&bytes.Buffer{}))
	require.Panics(t, func() { bus.Subscribe("not a function") })
}

func TestPublisher_ConcurrentPublish(t *testing.T) {
	bus := NewEventPublisher(quietLogger(&bytes.Buffer{}))

	var mu sync.Mutex
	seen := 0
	bus.Subscribe(func(e *entryMerged) {
		mu.Lock()
		seen++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish(&entryMerged{key: "x"})
		}()
	}
	wg.Wait()

	require.Equal(t, 16, seen)
}

func TestMatchSignature(t *testing.T) {
	tests := []struct {
		name    string
		handler interface{}
		args    []interface{}
		want    bool
	}{
		{
			name:    "exact pointer type",
			handler: func(e *entryMerged) {},
			args:    []interface{}{&entryMerged{}},
			want:    true,
		},
		{
			name:    "mismatched type",
			handler: func(e *entryMerged) {},
			args:    []interface{}{&entryArchived{}},
			want:    false,
		},
		{
			name:    "arity mismatch",
			handler: func(e *entryMerged) {},
			args:    []interface{}{&entryMerged{}, &entryMerged{}},
			want:    false,
		},
		{
			name:    "interface parameter satisfied",
			handler: func(ctx context.Context) {},
			args:    []interface{}{context.Background()},
			want:    true,
		},
		{
			name:    "nil against pointer parameter",
			handler: func(e *entryMerged) {},
			args:    []interface{}{nil},
			want:    true,
		},
		{
			name:    "nil against value parameter",
			handler: func(n int) {},
			args:    []interface{}{nil},
			want:    false,
		},
		{
			name:    "not a function",
			handler: 42,
			args:    []interface{}{&entryMerged{}},
			want:    false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, MatchSignature(tt.handler, tt.args))
		})
	}
}

func TestMatchSignature_ValueAssignability(t *testing.T) {
	handler := func(e entryMerged) {}
	require.True(t, MatchSignature(handler, []interface{}{entryMerged{}}))
	require.False(t, MatchSignature(handler, []interface{}{&entryMerged{}}))
}
