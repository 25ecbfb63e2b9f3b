package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"luvv/internal/entity/db"
	"luvv/internal/llm"
)

type providerReply struct {
	raw string
	err error
}

type fakeProvider struct {
	id      string
	name    string
	replies []providerReply
	block   bool

	mu      sync.Mutex
	calls   int
	prompts []llm.Prompt
}

func (p *fakeProvider) ID() string   { return p.id }
func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Generate(ctx context.Context, prompt llm.Prompt) (string, error) {
	p.mu.Lock()
	idx := p.calls
	p.calls++
	p.prompts = append(p.prompts, prompt)
	p.mu.Unlock()

	if p.block {
		<-ctx.Done()
		return "", &llm.ProviderError{Provider: p.id, Kind: llm.ErrorKindTimeout, Err: ctx.Err()}
	}
	if len(p.replies) == 0 {
		return "", &llm.ProviderError{Provider: p.id, Kind: llm.ErrorKindNetwork, Err: errors.New("no reply scripted")}
	}
	if idx >= len(p.replies) {
		idx = len(p.replies) - 1
	}
	return p.replies[idx].raw, p.replies[idx].err
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func statusError(id string, status int) error {
	return &llm.ProviderError{Provider: id, Kind: llm.ErrorKindStatus, StatusCode: status, Err: errors.New("upstream said no")}
}

// memStore is an in-memory TemplateStore and UsageLedger.
type memStore struct {
	mu        sync.Mutex
	templates []db.MessageTemplate
	usage     []db.UsageLog

	countErr  error
	listErr   error
	createErr error
}

func (s *memStore) CreateTemplates(_ context.Context, templates []db.MessageTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	for _, t := range templates {
		t.ID = uint(len(s.templates) + 1)
		if t.CreatedAt.IsZero() {
			t.CreatedAt = time.Now()
		}
		s.templates = append(s.templates, t)
	}
	return nil
}

func (s *memStore) ListRecentTemplates(_ context.Context, relationship, tone string, limit int) ([]db.MessageTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []db.MessageTemplate
	for i := len(s.templates) - 1; i >= 0 && len(out) < limit; i-- {
		t := s.templates[i]
		if t.Relationship == relationship && t.Tone == tone {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *memStore) ListAnyTemplates(_ context.Context, limit int) ([]db.MessageTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []db.MessageTemplate
	for i := len(s.templates) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.templates[i])
	}
	return out, nil
}

func (s *memStore) CreateUsageLog(_ context.Context, entry *db.UsageLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := *entry
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	s.usage = append(s.usage, e)
	return nil
}

func (s *memStore) CountUsageSince(_ context.Context, modelName, status string, since time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countErr != nil {
		return 0, s.countErr
	}
	var n int64
	for _, e := range s.usage {
		if e.ModelName == modelName && e.Status == status && !e.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *memStore) addTemplates(relationship, tone string, texts ...string) {
	rows := make([]db.MessageTemplate, 0, len(texts))
	for _, text := range texts {
		rows = append(rows, db.MessageTemplate{Relationship: relationship, Tone: tone, MessageText: text, Provider: "seed"})
	}
	_ = s.CreateTemplates(context.Background(), rows)
}

func (s *memStore) templateRows() []db.MessageTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]db.MessageTemplate(nil), s.templates...)
}

func (s *memStore) usageEntries() []db.UsageLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]db.UsageLog(nil), s.usage...)
}

type fakeCursor struct {
	position int64
	err      error
}

func (c *fakeCursor) Next(context.Context) (int64, error) {
	if c.err != nil {
		return 0, c.err
	}
	c.position++
	return c.position, nil
}

func testOptions() GatewayOptions {
	return GatewayOptions{
		MaxAttempts:       2,
		Backoff:           Backoff{Base: time.Millisecond, Max: 2 * time.Millisecond},
		AttemptTimeout:    time.Second,
		GenerationTimeout: 5 * time.Second,
		PersistTimeout:    time.Second,
		CacheScanLimit:    50,
		Location:          time.UTC,
		DailyLimit:        func(string) int { return 250 },
	}
}
