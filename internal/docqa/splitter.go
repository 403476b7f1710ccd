package docqa

import (
	"strings"
	"unicode/utf8"
)

var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter cuts text into chunks of at most ChunkSize runes, trying the
// separators in order and carrying ChunkOverlap runes between neighbours.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	return &Splitter{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap, Separators: defaultSeparators}
}

func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.split(text, s.Separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var rest []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	var out, good []string
	for _, piece := range splitOn(text, separator) {
		if runeLen(piece) < s.ChunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			out = append(out, s.merge(good, separator)...)
			good = nil
		}
		if len(rest) == 0 {
			out = append(out, piece)
		} else {
			out = append(out, s.split(piece, rest)...)
		}
	}
	if len(good) > 0 {
		out = append(out, s.merge(good, separator)...)
	}
	return out
}

// merge packs small pieces into chunks and keeps a tail of at most
// ChunkOverlap runes from the previous chunk at the head of the next one.
func (s *Splitter) merge(pieces []string, separator string) []string {
	sepLen := runeLen(separator)
	var (
		out     []string
		current []string
		total   int
	)
	joinCost := func() int {
		if len(current) > 0 {
			return sepLen
		}
		return 0
	}
	for _, piece := range pieces {
		n := runeLen(piece)
		if total+n+joinCost() > s.ChunkSize && len(current) > 0 {
			if doc := strings.TrimSpace(strings.Join(current, separator)); doc != "" {
				out = append(out, doc)
			}
			for total > s.ChunkOverlap || (total > 0 && total+n+joinCost() > s.ChunkSize) {
				drop := runeLen(current[0])
				if len(current) > 1 {
					drop += sepLen
				}
				total -= drop
				current = current[1:]
			}
		}
		total += n + joinCost()
		current = append(current, piece)
	}
	if doc := strings.TrimSpace(strings.Join(current, separator)); doc != "" {
		out = append(out, doc)
	}
	return out
}

func splitOn(text, separator string) []string {
	var parts []string
	if separator == "" {
		parts = make([]string, 0, len(text))
		for _, r := range text {
			parts = append(parts, string(r))
		}
		return parts
	}
	for _, p := range strings.Split(text, separator) {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
