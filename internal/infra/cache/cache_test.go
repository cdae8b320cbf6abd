package cache_test

import (
	"testing"
	"time"

	"github.com/boddenberg/corp-ledger-go/internal/infra/cache"
	"github.com/boddenberg/corp-ledger-go/internal/port"
)

var _ port.KeyValueStore = (*cache.InMemory[any])(nil)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	c.Set("key1", "value1")
	val, ok := c.Get("key1")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if val != "value1" {
		t.Errorf("expected 'value1', got '%s'", val)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	_, ok := c.Get("nonexistent")
	if ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)
	defer c.Close()

	c.Set("key1", "value1")
	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_NoExpiryWithZeroTTL(t *testing.T) {
	c := cache.New[string](20 * time.Millisecond)
	defer c.Close()

	c.SetWithTTL("pointer", "abc", 0)
	c.Set("payload", "xyz")
	time.Sleep(80 * time.Millisecond)

	if _, ok := c.Get("payload"); ok {
		t.Error("expected payload to expire")
	}
	if v, ok := c.Get("pointer"); !ok || v != "abc" {
		t.Errorf("expected pointer to survive, got %q %v", v, ok)
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	c.Set("key1", "value1")
	c.Delete("key1")

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected key to be deleted")
	}
}
