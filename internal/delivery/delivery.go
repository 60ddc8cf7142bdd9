package delivery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrDelivery marks an artifact fetch or save failure. By the time it
// can occur the payment is already captured, so it never rolls the
// session back; the caller surfaces it with support guidance.
var ErrDelivery = errors.New("delivery: artifact fetch failed")

func IsDelivery(err error) bool { return errors.Is(err, ErrDelivery) }

type Service struct {
	http      *http.Client
	outputDir string
}

func NewService(outputDir string, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if outputDir == "" {
		outputDir = "."
	}
	return &Service{http: &http.Client{Timeout: timeout}, outputDir: outputDir}
}

// Deliver fetches the binary at url and saves it under the output
// directory, returning the final path. The download lands in a temp
// file that is removed on any failure; only a complete artifact is
// renamed into place.
func (s *Service) Deliver(ctx context.Context, url, suggestedFilename string) (string, error) {
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		log.Printf("layer=service component=delivery method=Deliver url=%s err=%v", url, err)
		return "", errors.Join(ErrDelivery, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.Join(ErrDelivery, err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		log.Printf("layer=service component=delivery method=Deliver url=%s err=%v", url, err)
		return "", errors.Join(ErrDelivery, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("layer=service component=delivery method=Deliver url=%s status=%d", url, resp.StatusCode)
		return "", errors.Join(ErrDelivery, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	tmp, err := os.CreateTemp(s.outputDir, ".cvpro-*")
	if err != nil {
		return "", errors.Join(ErrDelivery, err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		log.Printf("layer=service component=delivery method=Deliver url=%s err=%v", url, err)
		return "", errors.Join(ErrDelivery, err)
	}
	if err := tmp.Close(); err != nil {
		return "", errors.Join(ErrDelivery, err)
	}

	final := resolveConflict(filepath.Join(s.outputDir, sanitizeFilename(suggestedFilename)))
	if err := os.Rename(tmpPath, final); err != nil {
		log.Printf("layer=service component=delivery method=Deliver url=%s err=%v", url, err)
		return "", errors.Join(ErrDelivery, err)
	}
	return final, nil
}

func sanitizeFilename(name string) string {
	if name == "" {
		name = "CV.pdf"
	}
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	return name
}

// resolveConflict appends numeric suffixes rather than overwriting a
// previous download.
func resolveConflict(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), ext)
	for i := 1; ; i++ {
		next := filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, i, ext))
		if _, err := os.Stat(next); os.IsNotExist(err) {
			return next
		}
	}
}
