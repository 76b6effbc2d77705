package credstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"file":   NewFile(filepath.Join(t.TempDir(), "credentials.json")),
		"redis":  NewRedis(client, "afctest"),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	want := Credentials{Token: "tok-abc", User: []byte(`{"id":"u1"}`)}

	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := store.Load(ctx); err != nil || ok {
				t.Fatalf("fresh store: ok=%v err=%v", ok, err)
			}

			if err := store.Save(ctx, want); err != nil {
				t.Fatalf("save: %v", err)
			}

			got, ok, err := store.Load(ctx)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if !ok {
				t.Fatal("expected filled slot")
			}
			if got.Token != want.Token {
				t.Fatalf("token = %q, want %q", got.Token, want.Token)
			}
			if string(got.User) != string(want.User) {
				t.Fatalf("user = %q, want %q", got.User, want.User)
			}

			if err := store.Clear(ctx); err != nil {
				t.Fatalf("clear: %v", err)
			}
			if _, ok, err := store.Load(ctx); err != nil || ok {
				t.Fatalf("after clear: ok=%v err=%v", ok, err)
			}
		})
	}
}

func TestStoreClearIdempotent(t *testing.T) {
	ctx := context.Background()

	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Clear(ctx); err != nil {
				t.Fatalf("clear on empty store: %v", err)
			}
			if err := store.Clear(ctx); err != nil {
				t.Fatalf("second clear: %v", err)
			}
		})
	}
}

func TestStoreSaveOverwrites(t *testing.T) {
	ctx := context.Background()

	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Save(ctx, Credentials{Token: "first"}); err != nil {
				t.Fatalf("save: %v", err)
			}
			if err := store.Save(ctx, Credentials{Token: "second"}); err != nil {
				t.Fatalf("save: %v", err)
			}

			got, ok, err := store.Load(ctx)
			if err != nil || !ok {
				t.Fatalf("load: ok=%v err=%v", ok, err)
			}
			if got.Token != "second" {
				t.Fatalf("token = %q, want %q", got.Token, "second")
			}
		})
	}
}

func TestFileCorruptSlotReadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	store := NewFile(path)
	_, ok, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatal("corrupt slot should read as empty")
	}
}

func TestFileTokenlessSlotReadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	if err := os.WriteFile(path, []byte(`{"user":"eyJ9"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	store := NewFile(path)
	_, ok, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatal("slot without token should read as empty")
	}
}

func TestFilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	store := NewFile(path)

	if err := store.Save(context.Background(), Credentials{Token: "tok"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("perm = %o, want 600", perm)
	}
}

func TestMemoryDefensiveCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	user := []byte(`{"id":"u1"}`)
	if err := store.Save(ctx, Credentials{Token: "tok", User: user}); err != nil {
		t.Fatal(err)
	}
	user[0] = 'X'

	got, _, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.User[0] != '{' {
		t.Fatal("store shares caller's slice")
	}

	got.User[0] = 'Y'
	again, _, _ := store.Load(ctx)
	if again.User[0] != '{' {
		t.Fatal("loads share a slice")
	}
}

func TestRedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := NewRedis(client, "afctest")

	mr.Close()

	ctx := context.Background()
	if err := store.Save(ctx, Credentials{Token: "tok"}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("save error = %v, want ErrUnavailable", err)
	}
	if _, _, err := store.Load(ctx); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("load error = %v, want ErrUnavailable", err)
	}
	if err := store.Clear(ctx); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("clear error = %v, want ErrUnavailable", err)
	}
}
