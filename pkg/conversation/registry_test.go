package conversation

import (
	"fmt"
	"sync"
	"testing"
)

type fakeState struct {
	turn int
}

func TestGetAbsent(t *testing.T) {
	r := New(0)

	state, ok := r.Get(Key{Provider: "P", ConversationID: "c1"})
	if ok {
		t.Error("expected absent key to report ok=false")
	}
	if state != nil {
		t.Errorf("expected nil state for absent key, got %v", state)
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	r := New(0)
	key := Key{Provider: "P", ConversationID: "c1"}
	want := &fakeState{turn: 1}

	r.Put(key, want)

	got, ok := r.Get(key)
	if !ok {
		t.Fatal("expected stored key to be present")
	}
	if got != State(want) {
		t.Errorf("expected identical state back, got %v, want %v", got, want)
	}
}

func TestLastWriteWins(t *testing.T) {
	r := New(0)
	key := Key{Provider: "P", ConversationID: "c1"}

	first := &fakeState{turn: 1}
	second := &fakeState{turn: 2}
	r.Put(key, first)
	r.Put(key, second)

	got, _ := r.Get(key)
	if got != State(second) {
		t.Errorf("expected last written state, got %v", got)
	}
	if r.Len() != 1 {
		t.Errorf("expected single entry after overwrite, got %d", r.Len())
	}
}

func TestKeysAreScopedByProvider(t *testing.T) {
	r := New(0)
	r.Put(Key{Provider: "P", ConversationID: "c1"}, "state-p")
	r.Put(Key{Provider: "Q", ConversationID: "c1"}, "state-q")

	got, _ := r.Get(Key{Provider: "Q", ConversationID: "c1"})
	if got != "state-q" {
		t.Errorf("expected provider-scoped lookup, got %v", got)
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	r := New(2)
	k1 := Key{Provider: "P", ConversationID: "c1"}
	k2 := Key{Provider: "P", ConversationID: "c2"}
	k3 := Key{Provider: "P", ConversationID: "c3"}

	r.Put(k1, "s1")
	r.Put(k2, "s2")
	r.Put(k3, "s3")

	if _, ok := r.Get(k1); ok {
		t.Error("expected oldest entry to be evicted")
	}
	if _, ok := r.Get(k2); !ok {
		t.Error("expected newer entry to survive")
	}
	if r.Len() != 2 {
		t.Errorf("expected size held at capacity, got %d", r.Len())
	}
}

func TestGetRefreshesRecency(t *testing.T) {
	r := New(2)
	k1 := Key{Provider: "P", ConversationID: "c1"}
	k2 := Key{Provider: "P", ConversationID: "c2"}
	k3 := Key{Provider: "P", ConversationID: "c3"}

	r.Put(k1, "s1")
	r.Put(k2, "s2")
	r.Get(k1) // c2 is now the least recently used
	r.Put(k3, "s3")

	if _, ok := r.Get(k1); !ok {
		t.Error("expected recently read entry to survive eviction")
	}
	if _, ok := r.Get(k2); ok {
		t.Error("expected least recently used entry to be evicted")
	}
}

func TestUnboundedGrowth(t *testing.T) {
	r := New(0)
	for i := 0; i < 500; i++ {
		r.Put(Key{Provider: "P", ConversationID: fmt.Sprintf("c%d", i)}, i)
	}
	if r.Len() != 500 {
		t.Errorf("expected unbounded registry to keep all entries, got %d", r.Len())
	}
}

func TestConcurrentAccess(t *testing.T) {
	r := New(64)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := Key{Provider: "P", ConversationID: fmt.Sprintf("c%d", i%32)}
				r.Put(key, g)
				r.Get(key)
			}
		}(g)
	}
	wg.Wait()

	if r.Len() == 0 || r.Len() > 64 {
		t.Errorf("expected bounded non-empty registry after concurrent use, got %d", r.Len())
	}
}
