// Package chunker splits entry text into overlapping chunks for the vector
// index.
package chunker

import "strings"

const (
	DefaultSize    = 512
	DefaultOverlap = 128
)

// Options configures chunking behavior.
type Options struct {
	Size    int // characters per chunk
	Overlap int // characters shared between adjacent chunks
}

// DefaultOptions returns default chunking options.
func DefaultOptions() Options {
	return Options{Size: DefaultSize, Overlap: DefaultOverlap}
}

// Chunk splits text into overlapping chunks, trimming each chunk back to
// the last space so words are never cut. Short text returns a single chunk.
func Chunk(text string, opts Options) []string {
	if opts.Size <= 0 {
		opts = DefaultOptions()
	}
	if opts.Overlap >= opts.Size {
		opts.Overlap = opts.Size / 4
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= opts.Size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + opts.Size
		if end > len(text) {
			end = len(text)
		}
		chunk := text[start:end]

		// Trim to the last word boundary unless this is the final chunk.
		if end < len(text) {
			if last := strings.LastIndexByte(chunk, ' '); last > 0 {
				chunk = chunk[:last]
				end = start + last
			}
		}

		if c := strings.TrimSpace(chunk); c != "" {
			chunks = append(chunks, c)
		}

		if end >= len(text) {
			break
		}
		next := end - opts.Overlap
		if next <= start {
			// Guarantee forward progress on pathological input.
			next = start + 1
		}
		// The overlap rewind can land inside a word; snap forward to the
		// next word boundary.
		for next < end && text[next-1] != ' ' {
			next++
		}
		start = next
	}
	return chunks
}
