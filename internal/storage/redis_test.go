package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/story-adventure/pkg/adventure"
	"github.com/jwebster45206/story-adventure/pkg/storage"
)

func newTestRedisStorage(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewRedisStorage(client, time.Hour, time.Minute, logger)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func startedAdventure(t *testing.T) *adventure.Adventure {
	t.Helper()
	a := adventure.New()
	a.AgeGroup = adventure.AgeGroup6to8
	a.Theme = adventure.ThemePirates
	node := adventure.NewStoryNode(nil, "Ahoy!", "aW1n", []adventure.Choice{{Text: "Sail"}}, false, nil)
	started, err := adventure.ApplyInitialNode(*a, node, adventure.StoryArc{Scene: "A ship."})
	if err != nil {
		t.Fatalf("ApplyInitialNode: %v", err)
	}
	return &started
}

func TestRedisStorage_SaveLoadDelete(t *testing.T) {
	s, mr := newTestRedisStorage(t)
	ctx := context.Background()

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	a := startedAdventure(t)
	if err := s.SaveAdventure(ctx, a); err != nil {
		t.Fatalf("SaveAdventure: %v", err)
	}

	if ttl := mr.TTL("adventure:" + a.ID.String()); ttl != time.Hour {
		t.Errorf("expected TTL of 1h, got %v", ttl)
	}

	loaded, err := s.LoadAdventure(ctx, a.ID)
	if err != nil {
		t.Fatalf("LoadAdventure: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected adventure, got nil")
	}
	if loaded.CurrentNodeID != a.CurrentNodeID || len(loaded.StoryTree) != 1 {
		t.Errorf("loaded adventure does not match saved one: %+v", loaded)
	}
	if loaded.StoryArc == nil || loaded.StoryArc.Scene != "A ship." {
		t.Errorf("arc not round-tripped: %+v", loaded.StoryArc)
	}

	if err := s.DeleteAdventure(ctx, a.ID); err != nil {
		t.Fatalf("DeleteAdventure: %v", err)
	}
	loaded, err = s.LoadAdventure(ctx, a.ID)
	if err != nil || loaded != nil {
		t.Errorf("expected nil, nil after delete, got %v, %v", loaded, err)
	}
}

func TestRedisStorage_LoadUnknown(t *testing.T) {
	s, _ := newTestRedisStorage(t)
	a, err := s.LoadAdventure(context.Background(), uuid.New())
	if err != nil || a != nil {
		t.Errorf("expected nil, nil for unknown id, got %v, %v", a, err)
	}
}

func TestRedisStorage_LoadCorrupt(t *testing.T) {
	s, mr := newTestRedisStorage(t)
	id := uuid.New()
	if err := mr.Set("adventure:"+id.String(), "{not json"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadAdventure(context.Background(), id); err == nil {
		t.Error("expected unmarshal error")
	}
}

func TestRedisStorage_Lock(t *testing.T) {
	s, mr := newTestRedisStorage(t)
	ctx := context.Background()
	id := uuid.New()

	token, ok, err := s.TryLock(ctx, id)
	if err != nil || !ok || token == "" {
		t.Fatalf("expected first lock to succeed, got %q %v %v", token, ok, err)
	}

	if _, ok, err := s.TryLock(ctx, id); err != nil || ok {
		t.Errorf("expected second lock to be refused, got %v %v", ok, err)
	}

	locked, err := s.IsLocked(ctx, id)
	if err != nil || !locked {
		t.Errorf("expected locked, got %v %v", locked, err)
	}

	if err := s.Unlock(ctx, id, "someone-else"); !errors.Is(err, storage.ErrLockNotHeld) {
		t.Errorf("expected ErrLockNotHeld for wrong token, got %v", err)
	}

	if err := s.Unlock(ctx, id, token); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if locked, _ := s.IsLocked(ctx, id); locked {
		t.Error("expected unlocked after release")
	}

	// An abandoned lock expires.
	if _, ok, _ := s.TryLock(ctx, id); !ok {
		t.Fatal("expected lock to be free")
	}
	mr.FastForward(2 * time.Minute)
	if _, ok, _ := s.TryLock(ctx, id); !ok {
		t.Error("expected expired lock to be reacquirable")
	}
}
