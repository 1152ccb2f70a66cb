package chunker

import (
	"strings"
	"testing"
)

func TestChunk_EmptyInput(t *testing.T) {
	result := Chunk("", DefaultOptions())
	if result != nil {
		t.Errorf("expected nil, got %v", result)
	}
}

func TestChunk_ShortContent(t *testing.T) {
	text := "What are the fees for CS programs? RM40,000 per year."
	result := Chunk(text, DefaultOptions())
	if len(result) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(result))
	}
	if result[0] != text {
		t.Errorf("expected %q, got %q", text, result[0])
	}
}

func TestChunk_OverlappingWindows(t *testing.T) {
	// ~1500 chars of word-separated text
	text := strings.TrimSpace(strings.Repeat("knowledge entry answer text ", 55))

	result := Chunk(text, DefaultOptions())
	if len(result) < 3 {
		t.Fatalf("expected at least 3 chunks, got %d", len(result))
	}
	for i, c := range result {
		if len(c) > DefaultSize {
			t.Errorf("chunk %d exceeds size: %d", i, len(c))
		}
	}
	// Adjacent chunks share overlapping text
	tail := strings.TrimSpace(result[0][len(result[0])-40:])
	if !strings.Contains(result[1], tail) {
		t.Errorf("expected chunk 1 to overlap with chunk 0 tail %q", tail)
	}
}

func TestChunk_WordBoundaries(t *testing.T) {
	words := strings.Fields(strings.TrimSpace(strings.Repeat("accommodation scholarship admission ", 40)))
	text := strings.Join(words, " ")

	for _, c := range Chunk(text, Options{Size: 100, Overlap: 20}) {
		for _, w := range strings.Fields(c) {
			switch w {
			case "accommodation", "scholarship", "admission":
			default:
				t.Fatalf("word cut mid-boundary: %q", w)
			}
		}
	}
}

func TestChunk_NoSpaces(t *testing.T) {
	// Unbroken text must still terminate and make forward progress.
	text := strings.Repeat("x", 2000)
	result := Chunk(text, Options{Size: 500, Overlap: 100})
	if len(result) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(result))
	}
}
