package delivery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestService_Deliver(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 artifact"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	svc := NewService(dir, time.Second)

	path, err := svc.Deliver(context.Background(), srv.URL+"/f/T1.pdf", "CV_Jane Doe.pdf")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "CV_Jane_Doe.pdf"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4 artifact", string(b))

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestService_Deliver_ConflictGetsSuffix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("artifact"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	svc := NewService(dir, time.Second)

	first, err := svc.Deliver(context.Background(), srv.URL, "CV_Jane.pdf")
	require.NoError(t, err)
	second, err := svc.Deliver(context.Background(), srv.URL, "CV_Jane.pdf")
	require.NoError(t, err)

	require.Equal(t, filepath.Join(dir, "CV_Jane.pdf"), first)
	require.Equal(t, filepath.Join(dir, "CV_Jane_1.pdf"), second)
}

func TestService_Deliver_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	svc := NewService(dir, time.Second)

	_, err := svc.Deliver(context.Background(), srv.URL, "CV.pdf")
	require.ErrorIs(t, err, ErrDelivery)

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	require.Empty(t, entries)
}

func TestService_Deliver_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	svc := NewService(t.TempDir(), time.Second)
	_, err := svc.Deliver(context.Background(), srv.URL, "CV.pdf")
	require.ErrorIs(t, err, ErrDelivery)
}

func TestSanitizeFilename(t *testing.T) {
	var tests = []struct {
		name     string
		in       string
		expected string
	}{
		{name: "spaces become underscores", in: "CV_Jane Doe.pdf", expected: "CV_Jane_Doe.pdf"},
		{name: "empty falls back", in: "", expected: "CV.pdf"},
		{name: "path components stripped", in: "../../etc/CV.pdf", expected: "CV.pdf"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.expected, sanitizeFilename(tt.in))
		})
	}
}
