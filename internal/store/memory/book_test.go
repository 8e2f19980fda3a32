package memory

import (
	"testing"

	"github.com/ckartal/snipebot/internal/domain"
)

func TestBookPutGetRemove(t *testing.T) {
	b := NewBook()

	if _, ok := b.Get("mint1"); ok {
		t.Fatal("empty book returned a position")
	}

	b.Put(domain.Position{Mint: "mint1", Symbol: "TKN"})
	pos, ok := b.Get("mint1")
	if !ok || pos.Symbol != "TKN" {
		t.Fatalf("Get after Put = (%+v, %v)", pos, ok)
	}
	if b.Len() != 1 {
		t.Fatalf("Len = %d, want 1", b.Len())
	}

	if !b.Remove("mint1") {
		t.Fatal("Remove reported missing for existing mint")
	}
	if b.Remove("mint1") {
		t.Fatal("second Remove reported existing")
	}
	if b.Len() != 0 {
		t.Fatalf("Len after remove = %d, want 0", b.Len())
	}
}

func TestBookPutReplaces(t *testing.T) {
	b := NewBook()
	b.Put(domain.Position{Mint: "mint1", EntryPrice: 1.0})
	b.Put(domain.Position{Mint: "mint1", EntryPrice: 2.0})

	pos, _ := b.Get("mint1")
	if pos.EntryPrice != 2.0 {
		t.Errorf("EntryPrice = %v, want 2.0 after replace", pos.EntryPrice)
	}
	if b.Len() != 1 {
		t.Errorf("Len = %d, want 1", b.Len())
	}
}

func TestBookKeysStableSnapshot(t *testing.T) {
	b := NewBook()
	b.Put(domain.Position{Mint: "a"})
	b.Put(domain.Position{Mint: "b"})

	keys := b.Keys()
	if len(keys) != 2 {
		t.Fatalf("Keys = %v, want 2 mints", keys)
	}

	// Mutating the book after the snapshot must not affect it.
	b.Remove("a")
	if len(keys) != 2 {
		t.Error("key snapshot changed after mutation")
	}
}

func TestBookReplaceFromEntries(t *testing.T) {
	b := NewBook()
	b.Put(domain.Position{Mint: "stale"})

	b.Replace([]domain.PositionEntry{
		{Mint: "a", Position: domain.Position{Mint: "a", EntryPrice: 1}},
		{Mint: "b", Position: domain.Position{EntryPrice: 2}}, // mint only on the entry
	})

	if _, ok := b.Get("stale"); ok {
		t.Error("stale position survived Replace")
	}
	pos, ok := b.Get("b")
	if !ok {
		t.Fatal("entry keyed by mint missing after Replace")
	}
	if pos.Mint != "b" {
		t.Errorf("Mint = %q, want backfilled from entry key", pos.Mint)
	}
}

func TestBookEntriesRoundTrip(t *testing.T) {
	b := NewBook()
	b.Put(domain.Position{Mint: "a", EntryPrice: 1})
	b.Put(domain.Position{Mint: "b", EntryPrice: 2})

	entries := b.Entries()
	if len(entries) != 2 {
		t.Fatalf("Entries = %d, want 2", len(entries))
	}

	other := NewBook()
	other.Replace(entries)
	if other.Len() != 2 {
		t.Errorf("round-tripped book Len = %d, want 2", other.Len())
	}
}
