package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"convohub-backend/internal/models"
	"convohub-backend/internal/store"
	"convohub-backend/internal/vector"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"github.com/tmc/langchaingo/textsplitter"
)

// Custom errors for the ingest service.
var (
	ErrIngestValidation = errors.New("ingest validation failed")
)

const (
	// MaxUploadBytes caps accepted document uploads.
	MaxUploadBytes = 2 << 20 // 2 MB

	docChunkSize    = 1000
	docChunkOverlap = 200
)

// TextExtractor pulls raw text out of an uploaded document file.
type TextExtractor interface {
	ExtractText(path string) (string, error)
}

// IngestService turns an uploaded PDF into a per-(session, document) vector
// collection and registers the document in the session's chat list.
type IngestService struct {
	store     store.Store
	index     vector.Index
	extractor TextExtractor
}

// NewIngestService creates a new IngestService with the default PDF extractor.
func NewIngestService(s store.Store, index vector.Index) *IngestService {
	return &IngestService{store: s, index: index, extractor: pdfExtractor{}}
}

// NewIngestServiceWithExtractor allows substituting the text extractor.
func NewIngestServiceWithExtractor(s store.Store, index vector.Index, extractor TextExtractor) *IngestService {
	return &IngestService{store: s, index: index, extractor: extractor}
}

// UploadResult reports a completed ingestion.
type UploadResult struct {
	DocID        string
	ChunksStored int
}

// IngestPDF extracts, chunks, embeds and stores the uploaded document. The
// temporary file is removed on success and on every failure path.
func (s *IngestService) IngestPDF(ctx context.Context, sessionID string, file io.Reader, filename string) (*UploadResult, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session is required", ErrIngestValidation)
	}
	if file == nil {
		return nil, fmt.Errorf("%w: no file uploaded", ErrIngestValidation)
	}

	tmp, err := os.CreateTemp("", "convohub-upload-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if removeErr := os.Remove(tmpPath); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			log.Printf("WARN [IngestService] IngestPDF: failed to remove temp file %s: %v", tmpPath, removeErr)
		}
	}()

	written, err := io.Copy(tmp, io.LimitReader(file, MaxUploadBytes+1))
	closeErr := tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("failed to store upload: %w", closeErr)
	}
	if written > MaxUploadBytes {
		return nil, fmt.Errorf("%w: file size exceeds 2MB", ErrIngestValidation)
	}
	if written == 0 {
		return nil, fmt.Errorf("%w: uploaded file is empty", ErrIngestValidation)
	}

	text, err := s.extractor.ExtractText(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text from %s: %w", filename, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: no text found in PDF", ErrIngestValidation)
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(docChunkSize),
		textsplitter.WithChunkOverlap(docChunkOverlap),
	)
	chunks, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("failed to split document text: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no text found in PDF", ErrIngestValidation)
	}
	log.Printf("[IngestService] IngestPDF: split %s into %d chunks", filename, len(chunks))

	docID := uuid.New().String()
	collection := models.DocCollection(sessionID, docID)

	ids, err := s.index.UpsertTexts(ctx, collection, chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to index document: %w", err)
	}

	entry := store.IndexEntry{
		ConversationID: docID,
		Title:          filename,
		Timestamp:      time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := s.store.RegisterConversation(ctx, models.FeatureDocs.Name, sessionID, entry); err != nil {
		return nil, fmt.Errorf("failed to register document chat: %w", err)
	}

	log.Printf("[IngestService] IngestPDF: stored %d chunks for %s (doc %s)", len(ids), filename, docID)
	return &UploadResult{DocID: docID, ChunksStored: len(ids)}, nil
}

// pdfExtractor reads plain text from a PDF file on disk.
type pdfExtractor struct{}

func (pdfExtractor) ExtractText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}
	return buf.String(), nil
}
