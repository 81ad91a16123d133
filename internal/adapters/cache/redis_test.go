package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/test/mocks"
)

func TestTokenBlacklist(t *testing.T) {
	ctx := context.Background()
	client := mocks.NewMockRedisClient()
	blacklist := NewTokenBlacklist(client, nil)

	revoked, err := blacklist.IsRevoked(ctx, "jti-1")
	if err != nil || revoked {
		t.Fatalf("fresh token reported revoked=%v err=%v", revoked, err)
	}

	if err := blacklist.Revoke(ctx, "jti-1", time.Hour); err != nil {
		t.Fatal(err)
	}
	if !client.HasKey("revoked:jti-1") {
		t.Error("expected revoked:jti-1 to be stored")
	}
	if ttl := client.ExpiresIn("revoked:jti-1"); ttl <= 59*time.Minute {
		t.Errorf("expected about an hour to live, got %s", ttl)
	}

	revoked, _ = blacklist.IsRevoked(ctx, "jti-1")
	if !revoked {
		t.Error("expected token to be revoked")
	}

	client.ExistsError = errors.New("connection reset")
	if _, err := blacklist.IsRevoked(ctx, "jti-1"); err == nil {
		t.Error("expected error when redis fails")
	}
}

func TestTextCache(t *testing.T) {
	ctx := context.Background()
	client := mocks.NewMockRedisClient()
	c := NewTextCache(client, "medinfo:", time.Minute)

	if _, ok, err := c.Get(ctx, "paracetamol"); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := c.Put(ctx, "paracetamol", "Pain relief"); err != nil {
		t.Fatal(err)
	}
	val, ok, err := c.Get(ctx, "paracetamol")
	if err != nil || !ok || val != "Pain relief" {
		t.Errorf("unexpected hit %q ok=%v err=%v", val, ok, err)
	}
	if !client.HasKey("medinfo:paracetamol") {
		t.Error("expected prefixed key")
	}
}
