package tui

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrNoText means no text is available for a chapter.
var ErrNoText = errors.New("chapter text not available")

// TextSource loads the verses of a chapter.
type TextSource interface {
	Verses(book string, chapter int) ([]string, error)
}

// DirSource reads chapters from <Dir>/<Book>/<chapter>.txt, one verse per
// non-empty line.
type DirSource struct {
	Dir string
}

// Verses implements TextSource.
func (d DirSource) Verses(book string, chapter int) ([]string, error) {
	if d.Dir == "" {
		return nil, ErrNoText
	}
	path := filepath.Join(d.Dir, book, strconv.Itoa(chapter)+".txt")
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoText
		}
		return nil, fmt.Errorf("open chapter text: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	var verses []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		verses = append(verses, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read chapter text: %w", err)
	}
	if len(verses) == 0 {
		return nil, ErrNoText
	}
	return verses, nil
}
