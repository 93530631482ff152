package cache_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/freekieb7/phantom/cache"
)

func TestMemoryStore(t *testing.T) {
	store := cache.NewMemoryStore()

	if store.KeyExists("home") {
		t.Error("empty store should not contain home")
	}
	if v := store.Get("home", nil); v != nil {
		t.Errorf("expected nil for missing key, got %q", v)
	}
	if v := store.Get("home", []byte("fallback")); string(v) != "fallback" {
		t.Errorf("expected fallback, got %q", v)
	}

	store.Put("home", []byte("<html></html>"))
	store.Put("about", []byte("about"))

	if !store.KeyExists("home") {
		t.Error("home should exist after put")
	}
	if v := store.Get("home", nil); string(v) != "<html></html>" {
		t.Errorf("unexpected value %q", v)
	}

	keys := store.Keys()
	if len(keys) != 2 || keys[0] != "about" || keys[1] != "home" {
		t.Errorf("unexpected keys %v", keys)
	}

	store.RemoveKey("about")
	store.RemoveKey("missing")
	if store.KeyExists("about") {
		t.Error("about should be removed")
	}

	store.Clear()
	if len(store.Keys()) != 0 {
		t.Error("store should be empty after clear")
	}
}

func TestMemoryStoreConcurrentPut(t *testing.T) {
	store := cache.NewMemoryStore()

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Put("home", []byte(fmt.Sprintf("v%d", i)))
			store.Get("home", nil)
		}()
	}
	wg.Wait()

	if !store.KeyExists("home") {
		t.Error("home should exist")
	}
}
