package context

import (
	"context"
	"testing"
)

func TestRequestID(t *testing.T) {
	if got := GetRequestID(context.Background()); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
	//nolint:staticcheck // nil context is tolerated
	if got := GetRequestID(nil); got != "" {
		t.Fatalf("expected empty id for nil ctx, got %q", got)
	}
	ctx := WithRequestID(context.Background(), "rid-1")
	if got := GetRequestID(ctx); got != "rid-1" {
		t.Fatalf("expected rid-1, got %q", got)
	}
}

func TestAccountID(t *testing.T) {
	if _, ok := GetAccountID(context.Background()); ok {
		t.Fatalf("expected anonymous")
	}
	if _, ok := GetAccountID(WithAccountID(context.Background(), 0)); ok {
		t.Fatalf("zero id must read as anonymous")
	}
	id, ok := GetAccountID(WithAccountID(context.Background(), 42))
	if !ok || id != 42 {
		t.Fatalf("expected 42, got %d (%v)", id, ok)
	}
}
