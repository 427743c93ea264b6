package tracing

import (
	"context"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/temporal-corpus/pkg/logger"
)

func TestStartUsesRequestID(t *testing.T) {
	ctx := logger.WithRequestID(context.Background(), "req-1")
	ctx, root := Start(ctx, "vector.query")
	_, child := Start(ctx, "vector.aggregates")
	child.SetAttr("rows", 3)
	child.End()
	root.End()

	if root.TraceID != "req-1" || child.TraceID != "req-1" {
		t.Errorf("trace ids = %q, %q", root.TraceID, child.TraceID)
	}
	if kids := root.Children(); len(kids) != 1 || kids[0] != child {
		t.Errorf("children = %v", kids)
	}
	if FromContext(ctx) != root {
		t.Error("FromContext did not return the root span")
	}
}

func TestStartGeneratesTraceID(t *testing.T) {
	_, a := Start(context.Background(), "a")
	_, b := Start(context.Background(), "b")
	if a.TraceID == "" || a.TraceID == b.TraceID {
		t.Errorf("trace ids %q and %q", a.TraceID, b.TraceID)
	}
}
