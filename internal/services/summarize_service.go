package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"convohub-backend/internal/llm"
	"convohub-backend/internal/models"

	"github.com/PuerkitoBio/goquery"
)

// Custom errors for the summarize service.
var (
	ErrSummarizeValidation = errors.New("summarize validation failed")
)

const (
	// MaxAudioBytes caps accepted audio uploads for transcription.
	MaxAudioBytes = 1 << 20 // 1 MB

	// maxPageBytes bounds how much of a fetched page is read.
	maxPageBytes = 5 << 20

	fetchUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 13_5_1) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/116.0.0.0 Safari/537.36"
)

const summaryPrompt = `Provide a summary of the following content in 500 words and please use subtitles and bullet points whenever necessary.
Make sure the summary is easy to understand and captures the main points effectively.
Avoid overly technical language or jargon, and aim for clarity and conciseness.`

// SummarizeService produces structured summaries of web pages and audio
// files. It holds no per-session state.
type SummarizeService struct {
	llm        llm.Client
	httpClient *http.Client
}

// NewSummarizeService creates a new SummarizeService.
func NewSummarizeService(llmClient llm.Client) *SummarizeService {
	return &SummarizeService{
		llm:        llmClient,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SummarizeURL fetches the page, extracts its readable text and summarizes it.
func (s *SummarizeService) SummarizeURL(ctx context.Context, rawURL string) (string, error) {
	if !isValidURL(rawURL) {
		return "", fmt.Errorf("%w: URL is not valid", ErrSummarizeValidation)
	}

	content, err := s.FetchReadableText(ctx, rawURL)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: no readable content found at URL", ErrSummarizeValidation)
	}

	return s.summarize(ctx, content)
}

// SummarizeAudio transcribes the uploaded audio file and summarizes the
// transcript. The temporary file is removed on success and failure.
func (s *SummarizeService) SummarizeAudio(ctx context.Context, file io.Reader, filename string) (transcript, summary string, err error) {
	if file == nil {
		return "", "", fmt.Errorf("%w: no file uploaded", ErrSummarizeValidation)
	}

	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".mp3"
	}
	tmp, err := os.CreateTemp("", "convohub-audio-*"+ext)
	if err != nil {
		return "", "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if removeErr := os.Remove(tmpPath); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			log.Printf("WARN [SummarizeService] SummarizeAudio: failed to remove temp file %s: %v", tmpPath, removeErr)
		}
	}()

	written, copyErr := io.Copy(tmp, io.LimitReader(file, MaxAudioBytes+1))
	closeErr := tmp.Close()
	if copyErr != nil {
		return "", "", fmt.Errorf("failed to store upload: %w", copyErr)
	}
	if closeErr != nil {
		return "", "", fmt.Errorf("failed to store upload: %w", closeErr)
	}
	if written > MaxAudioBytes {
		return "", "", fmt.Errorf("%w: audio file exceeds 1MB", ErrSummarizeValidation)
	}
	if written == 0 {
		return "", "", fmt.Errorf("%w: uploaded file is empty", ErrSummarizeValidation)
	}

	transcript, err = s.llm.Transcribe(ctx, tmpPath)
	if err != nil {
		return "", "", fmt.Errorf("failed to transcribe audio: %w", err)
	}
	if strings.TrimSpace(transcript) == "" {
		return "", "", fmt.Errorf("%w: transcription produced no text", ErrSummarizeValidation)
	}

	summary, err = s.summarize(ctx, transcript)
	if err != nil {
		return "", "", err
	}
	return transcript, summary, nil
}

func (s *SummarizeService) summarize(ctx context.Context, content string) (string, error) {
	msgs := []models.Message{
		models.NewMessage(models.RoleSystem, summaryPrompt),
		models.NewMessage(models.RoleHuman, "Content:\n"+content),
	}
	summary, err := s.llm.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("failed to generate summary: %w", err)
	}
	return strings.TrimSpace(summary), nil
}

// FetchReadableText downloads a page and returns its visible text. It is
// shared with the knowledge-base crawler.
func (s *SummarizeService) FetchReadableText(ctx context.Context, rawURL string) (string, error) {
	if !isValidURL(rawURL) {
		return "", fmt.Errorf("%w: URL is not valid", ErrSummarizeValidation)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Printf("ERROR [SummarizeService] fetchReadableText: request failed for %s: %v", rawURL, err)
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	return extractReadableText(io.LimitReader(resp.Body, maxPageBytes))
}

// extractReadableText strips scripts, styles and page chrome from an HTML
// document and returns its visible text, one trimmed line per block.
func extractReadableText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, nav, footer, header, aside, noscript, iframe").Remove()

	text := doc.Find("body").Text()
	if strings.TrimSpace(text) == "" {
		text = doc.Text()
	}

	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n"), nil
}

func isValidURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
