package audit

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cvpro/kit/broker"
	"cvpro/kit/observability"
)

// Service appends one JSON line per lifecycle event, the durable trail
// for support lookups by payment reference.
type Service struct {
	logger *observability.Logger
	fileMu sync.Mutex
	f      *os.File
}

func NewService(logger *observability.Logger) *Service {
	return &Service{logger: logger}
}

func NewServiceWithFile(logger *observability.Logger, path string) (*Service, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		if logger != nil {
			logger.Error("audit error", "layer", "service", "component", "audit", "method", "NewServiceWithFile", "path", path, "error", err.Error())
		}
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		if logger != nil {
			logger.Error("audit error", "layer", "service", "component", "audit", "method", "NewServiceWithFile", "path", path, "error", err.Error())
		}
		return nil, err
	}
	return &Service{logger: logger, f: f}, nil
}

func (s *Service) Close() error {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	if err != nil && s.logger != nil {
		s.logger.Error("audit error", "layer", "service", "component", "audit", "method", "Close", "error", err.Error())
	}
	s.f = nil
	return err
}

// Handler adapts the service to a broker subscription.
func (s *Service) Handler() broker.Handler {
	return func(ctx context.Context, evt broker.Event) error {
		s.Record(ctx, evt)
		return nil
	}
}

func (s *Service) Record(_ context.Context, evt broker.Event) {
	if s.logger != nil {
		s.logger.Info("audit", "event", evt.Name())
	}

	s.fileMu.Lock()
	defer s.fileMu.Unlock()
	if s.f == nil {
		return
	}
	line := map[string]any{
		"at":    time.Now().UTC(),
		"event": evt.Name(),
		"data":  evt,
	}
	b, err := json.Marshal(line)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("audit error", "layer", "service", "component", "audit", "method", "Record", "event", evt.Name(), "error", err.Error())
		}
		return
	}
	if _, err := s.f.Write(append(b, '\n')); err != nil && s.logger != nil {
		s.logger.Error("audit error", "layer", "service", "component", "audit", "method", "Record", "event", evt.Name(), "error", err.Error())
	}
}
