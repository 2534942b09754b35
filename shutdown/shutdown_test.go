package shutdown

import (
	"context"
	"testing"
)

func TestContextStop(t *testing.T) {
	ctx, stop := Context(context.Background())
	select {
	case <-ctx.Done():
		t.Fatal("done before any signal")
	default:
	}
	stop()
	<-ctx.Done()
}

func TestContextFollowsParent(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := Context(parent)
	defer stop()
	cancel()
	<-ctx.Done()
}
