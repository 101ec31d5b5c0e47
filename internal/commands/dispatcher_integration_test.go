package commands

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
)

type retryCommand struct {
	Key string
}

func (retryCommand) Type() string { return "cms.test.retry" }

func (retryCommand) Validate() error { return nil }

func TestDispatchedHandlerRetries(t *testing.T) {
	cases := []struct {
		name      string
		retries   int
		failUntil int32
		wantCalls int32
		wantErr   bool
	}{
		{name: "recovers on retry", retries: 1, failUntil: 1, wantCalls: 2},
		{name: "exhausts retries", retries: 2, failUntil: 10, wantCalls: 3, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var calls atomic.Int32
			handler := NewHandler(func(context.Context, retryCommand) error {
				if calls.Add(1) <= tc.failUntil {
					return errors.New("store unavailable")
				}
				return nil
			}, WithTimeout[retryCommand](time.Second), WithOperation[retryCommand]("test.retry"))

			sub := dispatcher.SubscribeCommand(handler, runner.WithMaxRetries(tc.retries))
			defer sub.Unsubscribe()

			err := dispatcher.Dispatch(context.Background(), retryCommand{Key: tc.name})
			if (err != nil) != tc.wantErr {
				t.Fatalf("dispatch error = %v, want error %v", err, tc.wantErr)
			}
			if got := calls.Load(); got != tc.wantCalls {
				t.Fatalf("expected %d calls, got %d", tc.wantCalls, got)
			}
		})
	}
}
