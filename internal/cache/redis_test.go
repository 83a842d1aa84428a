package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
)

func setupTestTier(t *testing.T) (*RedisTier, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	r, err := NewRedisTier("redis://"+mr.Addr(), "")
	if err != nil {
		mr.Close()
		t.Fatalf("NewRedisTier: %v", err)
	}
	return r, mr
}

func TestRedisTierSetGet(t *testing.T) {
	r, mr := setupTestTier(t)
	defer mr.Close()
	defer r.Close()

	ctx := context.Background()
	if _, ok := r.Get(ctx, "tvl:arbitrum"); ok {
		t.Error("Get on empty tier should miss")
	}

	r.Set(ctx, "tvl:arbitrum", []byte(`[1]`), time.Hour)
	b, ok := r.Get(ctx, "tvl:arbitrum")
	if !ok || string(b) != "[1]" {
		t.Fatalf("Get = %q, %v", b, ok)
	}
	if ttl := mr.TTL("l2showdown:tvl:arbitrum"); ttl != time.Hour {
		t.Errorf("ttl = %v, want 1h", ttl)
	}

	mr.FastForward(time.Hour)
	if _, ok := r.Get(ctx, "tvl:arbitrum"); ok {
		t.Error("entry should expire with its ttl")
	}
}

func TestRedisTierPing(t *testing.T) {
	r, mr := setupTestTier(t)
	defer r.Close()

	if err := r.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
	mr.Close()
	if err := r.Ping(context.Background()); err == nil {
		t.Error("Ping should fail once Redis is gone")
	}
}

func TestRedisTierErrorIsMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := NewRedisTierFromClient(db, "ns")

	mock.ExpectGet("ns:k").SetErr(errors.New("connection reset"))
	if _, ok := r.Get(context.Background(), "k"); ok {
		t.Error("Get should miss on Redis error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestNewRedisTierBadURL(t *testing.T) {
	if _, err := NewRedisTier("not-a-url", ""); err == nil {
		t.Error("expected error for invalid redis url")
	}
}

func TestSafe(t *testing.T) {
	if got := safe("sql:arb query\nx"); got != "sql:arb_query_x" {
		t.Errorf("safe = %q", got)
	}
}
