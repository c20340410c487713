// Package corpus describes the books of the reading corpus.
package corpus

import (
	"fmt"
	"strings"
)

// FallbackTotalChapters is used when no book list is available.
const FallbackTotalChapters = 1189

// Book is a canonical book and its chapter count.
type Book struct {
	Name     string
	Chapters int
}

// Catalog is an ordered list of books with name lookup.
type Catalog struct {
	books []Book
	index map[string]int
}

// New builds a catalog. Names must be unique (case-insensitive) and chapter
// counts positive.
func New(books []Book) (*Catalog, error) {
	c := &Catalog{
		books: make([]Book, 0, len(books)),
		index: make(map[string]int, len(books)),
	}
	for _, b := range books {
		name := strings.TrimSpace(b.Name)
		if name == "" {
			return nil, fmt.Errorf("book name is empty")
		}
		if b.Chapters <= 0 {
			return nil, fmt.Errorf("book %q: chapters must be > 0", name)
		}
		key := strings.ToLower(name)
		if _, ok := c.index[key]; ok {
			return nil, fmt.Errorf("duplicate book %q", name)
		}
		c.index[key] = len(c.books)
		c.books = append(c.books, Book{Name: name, Chapters: b.Chapters})
	}
	return c, nil
}

// Default returns the 66-book canonical catalog.
func Default() *Catalog {
	c, err := New(canonicalBooks)
	if err != nil {
		panic(err)
	}
	return c
}

// Books returns the books in canonical order.
func (c *Catalog) Books() []Book {
	if c == nil {
		return nil
	}
	return append([]Book(nil), c.books...)
}

// Len returns the number of books.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.books)
}

// Lookup finds a book by name, ignoring case and surrounding space.
func (c *Catalog) Lookup(name string) (Book, bool) {
	if c == nil {
		return Book{}, false
	}
	idx, ok := c.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Book{}, false
	}
	return c.books[idx], true
}

// TotalChapters sums chapters over all books, or returns FallbackTotalChapters
// for an empty catalog.
func (c *Catalog) TotalChapters() int {
	total := 0
	if c != nil {
		for _, b := range c.books {
			total += b.Chapters
		}
	}
	if total == 0 {
		return FallbackTotalChapters
	}
	return total
}

var canonicalBooks = []Book{
	{"Genesis", 50}, {"Exodus", 40}, {"Leviticus", 27}, {"Numbers", 36}, {"Deuteronomy", 34},
	{"Joshua", 24}, {"Judges", 21}, {"Ruth", 4}, {"1 Samuel", 31}, {"2 Samuel", 24},
	{"1 Kings", 22}, {"2 Kings", 25}, {"1 Chronicles", 29}, {"2 Chronicles", 36}, {"Ezra", 10},
	{"Nehemiah", 13}, {"Esther", 10}, {"Job", 42}, {"Psalms", 150}, {"Proverbs", 31},
	{"Ecclesiastes", 12}, {"Song of Solomon", 8}, {"Isaiah", 66}, {"Jeremiah", 52}, {"Lamentations", 5},
	{"Ezekiel", 48}, {"Daniel", 12}, {"Hosea", 14}, {"Joel", 3}, {"Amos", 9},
	{"Obadiah", 1}, {"Jonah", 4}, {"Micah", 7}, {"Nahum", 3}, {"Habakkuk", 3},
	{"Zephaniah", 3}, {"Haggai", 2}, {"Zechariah", 14}, {"Malachi", 4},
	{"Matthew", 28}, {"Mark", 16}, {"Luke", 24}, {"John", 21}, {"Acts", 28},
	{"Romans", 16}, {"1 Corinthians", 16}, {"2 Corinthians", 13}, {"Galatians", 6}, {"Ephesians", 6},
	{"Philippians", 4}, {"Colossians", 4}, {"1 Thessalonians", 5}, {"2 Thessalonians", 3}, {"1 Timothy", 6},
	{"2 Timothy", 4}, {"Titus", 3}, {"Philemon", 1}, {"Hebrews", 13}, {"James", 5},
	{"1 Peter", 5}, {"2 Peter", 3}, {"1 John", 5}, {"2 John", 1}, {"3 John", 1},
	{"Jude", 1}, {"Revelation", 22},
}
