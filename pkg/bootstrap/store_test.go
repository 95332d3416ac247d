package bootstrap

import "testing"

func TestStore_SeedIsCopied(t *testing.T) {
	seed := State{"user": "ada"}
	store := NewStore(seed)

	seed["user"] = "mutated"

	if v, _ := store.Get("user"); v != "ada" {
		t.Fatalf("seed mutation leaked into store: %v", v)
	}
}

func TestStore_StateSnapshot(t *testing.T) {
	store := NewStore(State{"count": 1})

	snap := store.State()
	snap["count"] = 99

	if v, _ := store.Get("count"); v != 1 {
		t.Fatalf("snapshot mutation leaked into store: %v", v)
	}
}

func TestStore_UpdateReplacesState(t *testing.T) {
	store := NewStore(State{"count": 1})

	before := store.State()
	store.Update(func(s State) State {
		s["count"] = 2
		return s
	})

	if v, _ := store.Get("count"); v != 2 {
		t.Fatalf("count = %v, want 2", v)
	}
	if before["count"] != 1 {
		t.Fatalf("earlier snapshot changed: %v", before["count"])
	}
}

func TestStore_SubscribeAndUnsubscribe(t *testing.T) {
	store := NewStore(nil)

	var seen []State
	unsubscribe := store.Subscribe(func(s State) {
		seen = append(seen, s)
	})

	store.Update(func(s State) State {
		s["a"] = 1
		return s
	})
	unsubscribe()
	store.Update(func(s State) State {
		s["b"] = 2
		return s
	})

	if len(seen) != 1 {
		t.Fatalf("notifications = %d, want 1", len(seen))
	}
	if seen[0]["a"] != 1 {
		t.Fatalf("notification state = %v", seen[0])
	}
}

func TestStore_GetMissing(t *testing.T) {
	store := NewStore(nil)
	if _, ok := store.Get("missing"); ok {
		t.Fatal("Get reported a missing key as present")
	}
}
