package httpapi

import (
	"context"
	"testing"
	"time"
)

func TestJoinContextsCancelsOnEither(t *testing.T) {
	a, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	b, cancelB := context.WithCancel(context.Background())
	ctx, cancel := joinContexts(a, b)
	defer cancel()
	cancelB()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatalf("joined context not canceled by b")
	}

	ctx2, cancel2 := joinContexts(a, context.Background())
	defer cancel2()
	cancelA()
	select {
	case <-ctx2.Done():
	case <-time.After(time.Second):
		t.Fatalf("joined context not canceled by a")
	}
}

func TestSetBaseContextNil(t *testing.T) {
	SetBaseContext(nil)
	if serverBaseCtx == nil || serverBaseCtx.Err() != nil {
		t.Fatalf("nil base context should reset to Background")
	}
}
