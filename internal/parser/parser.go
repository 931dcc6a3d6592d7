package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/murajaah/internal/domain"
)

// Deck entries are blocks of prefixed lines. AR: starts a new entry.
//
//	AR: بِسْمِ
//	TR: Bismi
//	EN: In the name of
//	EX: Bismillahir Rahmanir Rahim
//	---
const (
	arabicPrefix          = "AR:"
	transliterationPrefix = "TR:"
	translationPrefix     = "EN:"
	examplePrefix         = "EX:"
	separator             = "---"
)

type field int

const (
	seeking field = iota
	readingArabic
	readingTransliteration
	readingTranslation
	readingExample
)

var prefixes = []struct {
	prefix string
	field  field
}{
	{arabicPrefix, readingArabic},
	{transliterationPrefix, readingTransliteration},
	{translationPrefix, readingTranslation},
	{examplePrefix, readingExample},
}

// IsDeckFile reports whether name looks like a deck file.
func IsDeckFile(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".md")
}

// ParseFile reads a deck file from the given path and extracts all entries.
func ParseFile(path string) ([]domain.Subject, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	subjects, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return subjects, nil
}

// Parse reads from an io.Reader and extracts all entries. Entries without an
// Arabic term are dropped.
func Parse(r io.Reader) ([]domain.Subject, error) {
	scanner := bufio.NewScanner(r)
	var subjects []domain.Subject
	var current domain.Subject
	var block []string
	state := seeking

	flushBlock := func() {
		if len(block) == 0 {
			return
		}
		content := strings.TrimSpace(strings.Join(block, "\n"))
		switch state {
		case readingArabic:
			current.Arabic = content
		case readingTransliteration:
			current.Transliteration = content
		case readingTranslation:
			current.Translation = content
		case readingExample:
			current.Example = content
		}
		block = nil
	}

	finishEntry := func() {
		flushBlock()
		if current.Arabic != "" {
			subjects = append(subjects, current)
		}
		current = domain.Subject{}
		state = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		if strings.TrimSpace(line) == separator {
			finishEntry()
			continue
		}

		next, content, ok := matchPrefix(line)
		if !ok {
			if state != seeking {
				block = append(block, line)
			}
			continue
		}

		if next == readingArabic && state != seeking {
			finishEntry() // AR: always opens a new entry
		}
		flushBlock()
		state = next
		block = append(block, content)
	}

	finishEntry()

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return subjects, nil
}

func matchPrefix(line string) (field, string, bool) {
	for _, p := range prefixes {
		if rest, ok := strings.CutPrefix(line, p.prefix); ok {
			return p.field, strings.TrimPrefix(rest, " "), true
		}
	}
	return seeking, "", false
}
