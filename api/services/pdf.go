package services

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
)

const (
	ChunkSize    = 1000 // characters per chunk
	ChunkOverlap = 200  // overlap between chunks
)

// ExtractText reads the text of every page of a PDF, e.g. a multipart upload.
func ExtractText(src io.ReaderAt, size int64) (string, error) {
	r, err := pdf.NewReader(src, size)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	return pageText(r), nil
}

func pageText(r *pdf.Reader) string {
	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		p := r.Page(pageIndex)
		if p.V.IsNull() {
			continue
		}

		text, err := p.GetPlainText(nil)
		if err != nil {
			log.Debug().Err(err).Int("page", pageIndex).Msg("Skipping unreadable PDF page")
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n\n")
	}
	return textBuilder.String()
}

// ChunkText splits text into overlapping chunks
func ChunkText(text string) []string {
	if len(text) == 0 {
		return []string{}
	}

	var chunks []string
	runes := []rune(text)
	for start := 0; start < len(runes); start += ChunkSize - ChunkOverlap {
		end := min(start+ChunkSize, len(runes))
		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}
