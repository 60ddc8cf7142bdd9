package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cvpro/internal/resume"
)

var (
	// ErrNetwork marks transient transport failures. During polling the
	// engine swallows these per tick; they only count toward the deadline.
	ErrNetwork = errors.New("api: network")
	// ErrInitiation marks an initiation the server rejected, carrying
	// the server message.
	ErrInitiation = errors.New("api: initiation rejected")
)

func IsNetwork(err error) bool    { return errors.Is(err, ErrNetwork) }
func IsInitiation(err error) bool { return errors.Is(err, ErrInitiation) }

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"

	VerifySuccessful = "successful"
	VerifyPending    = "pending"
	VerifyFailed     = "failed"
)

type InitiateRequest struct {
	PhoneNumber   string          `json:"phoneNumber"`
	PaymentMethod string          `json:"paymentMethod"`
	Amount        int64           `json:"amount"`
	CVData        resume.Snapshot `json:"cvData"`
}

type InitiateResponse struct {
	TransactionID string `json:"transactionId"`
	UseGateway    bool   `json:"useGateway"`
	PaymentURL    string `json:"paymentUrl,omitempty"`
}

type StatusResponse struct {
	Status string `json:"status"`
	PDFURL string `json:"pdfUrl,omitempty"`
}

type VerifyResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	PDFURL  string `json:"pdfUrl,omitempty"`
}

type GenerateRequest struct {
	Reference string          `json:"reference"`
	CVData    resume.Snapshot `json:"cvData"`
}

type GenerateResponse struct {
	Success bool   `json:"success"`
	PDFURL  string `json:"pdfUrl,omitempty"`
}

type errorBody struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Client talks to the remote payment service. The service is opaque:
// four endpoints, no shared schema beyond the wire types above.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) InitiatePayment(ctx context.Context, req InitiateRequest) (InitiateResponse, error) {
	var out InitiateResponse
	if err := c.post(ctx, "/api/initiate-payment", req, &out); err != nil {
		return InitiateResponse{}, err
	}
	return out, nil
}

// PaymentStatus is a read-only query: safe to repeat any number of
// times for the same transaction id.
func (c *Client) PaymentStatus(ctx context.Context, transactionID string) (StatusResponse, error) {
	var out StatusResponse
	if err := c.get(ctx, "/api/payment-status/"+url.PathEscape(transactionID), &out); err != nil {
		return StatusResponse{}, err
	}
	return out, nil
}

func (c *Client) VerifyPayment(ctx context.Context, reference string) (VerifyResponse, error) {
	var out VerifyResponse
	if err := c.get(ctx, "/api/payment/verify/"+url.PathEscape(reference), &out); err != nil {
		return VerifyResponse{}, err
	}
	return out, nil
}

func (c *Client) GenerateArtifact(ctx context.Context, reference string, snap resume.Snapshot) (GenerateResponse, error) {
	var out GenerateResponse
	if err := c.post(ctx, "/api/payment/generate-cv", GenerateRequest{Reference: reference, CVData: snap}, &out); err != nil {
		return GenerateResponse{}, err
	}
	return out, nil
}

// ResolveArtifactURL turns a possibly relative pdfUrl into an absolute
// one against the service base.
func (c *Client) ResolveArtifactURL(pdfURL string) string {
	if pdfURL == "" || strings.Contains(pdfURL, "://") {
		return pdfURL
	}
	if !strings.HasPrefix(pdfURL, "/") {
		pdfURL = "/" + pdfURL
	}
	return c.baseURL + pdfURL
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return errors.Join(ErrInitiation, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return errors.Join(ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out, ErrInitiation)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Join(ErrNetwork, err)
	}
	// Queries are retried by the caller; a bad status here is transient.
	return c.do(req, out, ErrNetwork)
}

func (c *Client) do(req *http.Request, out any, onBadStatus error) error {
	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("layer=client component=api method=%s path=%s err=%v", req.Method, req.URL.Path, err)
		return errors.Join(ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.Join(ErrNetwork, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		_ = json.Unmarshal(body, &eb)
		msg := eb.Error
		if msg == "" {
			msg = eb.Message
		}
		if msg == "" {
			msg = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		}
		log.Printf("layer=client component=api method=%s path=%s status=%d message=%q", req.Method, req.URL.Path, resp.StatusCode, msg)
		return errors.Join(onBadStatus, errors.New(msg))
	}
	if err := json.Unmarshal(body, out); err != nil {
		log.Printf("layer=client component=api method=%s path=%s err=%v", req.Method, req.URL.Path, err)
		return errors.Join(onBadStatus, err)
	}
	return nil
}
