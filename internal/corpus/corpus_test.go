package corpus

import "testing"

func TestDefaultCatalogTotals(t *testing.T) {
	c := Default()
	if c.Len() != 66 {
		t.Fatalf("expected 66 books, got %d", c.Len())
	}
	if got := c.TotalChapters(); got != 1189 {
		t.Fatalf("expected 1189 chapters, got %d", got)
	}
	books := c.Books()
	if books[0].Name != "Genesis" || books[len(books)-1].Name != "Revelation" {
		t.Fatalf("unexpected order: first=%q last=%q", books[0].Name, books[len(books)-1].Name)
	}
}

func TestLookupIgnoresCase(t *testing.T) {
	c := Default()
	b, ok := c.Lookup("  song of solomon ")
	if !ok {
		t.Fatalf("expected lookup to succeed")
	}
	if b.Name != "Song of Solomon" || b.Chapters != 8 {
		t.Fatalf("unexpected book: %+v", b)
	}
	if _, ok := c.Lookup("Tobit"); ok {
		t.Fatalf("expected unknown book")
	}
}

func TestNewRejectsBadBooks(t *testing.T) {
	if _, err := New([]Book{{Name: "A", Chapters: 0}}); err == nil {
		t.Fatalf("expected error for zero chapters")
	}
	if _, err := New([]Book{{Name: "A", Chapters: 1}, {Name: "a", Chapters: 2}}); err == nil {
		t.Fatalf("expected error for duplicate name")
	}
}

func TestEmptyCatalogFallsBack(t *testing.T) {
	c, err := New(nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := c.TotalChapters(); got != FallbackTotalChapters {
		t.Fatalf("expected fallback %d, got %d", FallbackTotalChapters, got)
	}
}
