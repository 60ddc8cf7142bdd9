package session

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var ErrRegister = errors.New("session: register")

// PendingRecord is what survives a control transfer away from the
// process: enough to resume polling, nothing more. The payload is not
// needed to resume, only to display.
type PendingRecord struct {
	TransactionID string    `json:"transactionId"`
	Reference     string    `json:"reference"`
	Phone         string    `json:"phone"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Register is a single-slot durable store for the one pending session
// a browser context (here: a user profile directory) may hold. Writing
// overwrites any prior slot; only the lifecycle engine writes to it.
type Register interface {
	Put(ctx context.Context, rec PendingRecord) error
	Get(ctx context.Context) (PendingRecord, bool, error)
	Clear(ctx context.Context) error
}

type FileRegister struct {
	mu   sync.Mutex
	path string
}

func NewFileRegister(path string) (*FileRegister, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Printf("layer=repo component=session repo=FileRegister method=NewFileRegister path=%s err=%v", path, err)
		return nil, errors.Join(ErrRegister, err)
	}
	return &FileRegister{path: path}, nil
}

func (r *FileRegister) Put(ctx context.Context, rec PendingRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		log.Printf("layer=repo component=session repo=FileRegister method=Put reference=%s err=%v", rec.Reference, err)
		return errors.Join(ErrRegister, err)
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		log.Printf("layer=repo component=session repo=FileRegister method=Put reference=%s err=%v", rec.Reference, err)
		return errors.Join(ErrRegister, err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		_ = os.Remove(tmp)
		log.Printf("layer=repo component=session repo=FileRegister method=Put reference=%s err=%v", rec.Reference, err)
		return errors.Join(ErrRegister, err)
	}
	return nil
}

func (r *FileRegister) Get(ctx context.Context) (PendingRecord, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return PendingRecord{}, false, nil
		}
		log.Printf("layer=repo component=session repo=FileRegister method=Get path=%s err=%v", r.path, err)
		return PendingRecord{}, false, errors.Join(ErrRegister, err)
	}
	var rec PendingRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		log.Printf("layer=repo component=session repo=FileRegister method=Get path=%s err=%v", r.path, err)
		return PendingRecord{}, false, errors.Join(ErrRegister, err)
	}
	if rec.TransactionID == "" {
		return PendingRecord{}, false, nil
	}
	return rec, true, nil
}

func (r *FileRegister) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		log.Printf("layer=repo component=session repo=FileRegister method=Clear path=%s err=%v", r.path, err)
		return errors.Join(ErrRegister, err)
	}
	return nil
}

type InMemoryRegister struct {
	mu  sync.Mutex
	rec *PendingRecord
}

func NewInMemoryRegister() *InMemoryRegister {
	return &InMemoryRegister{}
}

func (r *InMemoryRegister) Put(ctx context.Context, rec PendingRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cpy := rec
	r.rec = &cpy
	return nil
}

func (r *InMemoryRegister) Get(ctx context.Context) (PendingRecord, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rec == nil {
		return PendingRecord{}, false, nil
	}
	return *r.rec, true, nil
}

func (r *InMemoryRegister) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rec = nil
	return nil
}
