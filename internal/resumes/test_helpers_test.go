package resumes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"resume-ingest/internal/extract"
	"resume-ingest/internal/extract/extracttest"
	"resume-ingest/internal/fetcher"
	"resume-ingest/internal/llm"
	"resume-ingest/internal/notify"
	"resume-ingest/internal/parsing"
	"resume-ingest/internal/shared/storage/object/local"
)

const validParsed = `{
  "profile": {"fullName": "Jane Doe", "email": "jane@example.com"},
  "workExperience": [
    {"company": "Acme", "position": "Engineer", "startDate": "2021-03", "endDate": "Present", "isCurrent": true, "description": "Pipelines"}
  ],
  "education": [{"institution": "TU Berlin", "degree": "BSc"}],
  "skills": {"technical": ["Go"]},
  "projects": null
}`

const missingFullName = `{
  "profile": {"email": "jane@example.com"},
  "workExperience": [],
  "skills": {"technical": []}
}`

type scriptedLLM struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	prompts   []string
}

func (s *scriptedLLM) GenerateStructured(_ context.Context, req llm.StructuredRequest) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := len(s.prompts)
	s.prompts = append(s.prompts, req.Prompt)
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i < len(s.responses) {
		return json.RawMessage(s.responses[i]), nil
	}
	return json.RawMessage(s.responses[len(s.responses)-1]), nil
}

func (s *scriptedLLM) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

// recordingRepo wraps MemoryRepo and records every status write.
type recordingRepo struct {
	*MemoryRepo
	mu       sync.Mutex
	statuses []Status
	failOn   map[Status]error
}

func newRecordingRepo() *recordingRepo {
	return &recordingRepo{MemoryRepo: NewMemoryRepo(), failOn: map[Status]error{}}
}

func (r *recordingRepo) UpdateParse(ctx context.Context, id string, update ParseUpdate) error {
	r.mu.Lock()
	failErr := r.failOn[update.Status]
	r.mu.Unlock()
	if failErr != nil {
		return failErr
	}
	if err := r.MemoryRepo.UpdateParse(ctx, id, update); err != nil {
		return err
	}
	r.mu.Lock()
	r.statuses = append(r.statuses, update.Status)
	r.mu.Unlock()
	return nil
}

func (r *recordingRepo) written() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Status(nil), r.statuses...)
}

type failingNetwork struct {
	calls int
	err   error
}

func (f *failingNetwork) GetBytes(context.Context, string) ([]byte, error) {
	f.calls++
	return nil, f.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev notify.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type pipeline struct {
	svc     *Service
	repo    *recordingRepo
	store   *local.Store
	llm     *scriptedLLM
	network *failingNetwork
	events  *recordingPublisher
}

func newPipeline(t *testing.T, responses ...string) *pipeline {
	t.Helper()
	store := local.New(t.TempDir())
	repo := newRecordingRepo()
	client := &scriptedLLM{responses: responses}
	network := &failingNetwork{err: errors.New("network unreachable")}
	events := &recordingPublisher{}
	svc := &Service{
		Repo:     repo,
		Blobs:    store,
		Fetcher:  fetcher.New(store, network, "resumes"),
		Text:     extract.New(),
		Parser:   parsing.New(client),
		Notifier: events,
		Now:      func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
	return &pipeline{svc: svc, repo: repo, store: store, llm: client, network: network, events: events}
}

// seed stores data under key and inserts a PENDING record pointing at ref.
func (p *pipeline) seed(t *testing.T, id, owner, key, ref string, data []byte) Resume {
	t.Helper()
	if data != nil {
		if _, err := p.store.Put(context.Background(), key, extract.MimePDF, bytes.NewReader(data)); err != nil {
			t.Fatalf("put blob: %v", err)
		}
	}
	res := Resume{
		ID:               id,
		OwnerID:          owner,
		StorageReference: ref,
		FileName:         "cv.pdf",
		FileSizeBytes:    int64(len(data)),
		MimeType:         extract.MimePDF,
		Status:           StatusPending,
		CreatedAt:        time.Now().UTC(),
	}
	if err := p.repo.Create(context.Background(), res); err != nil {
		t.Fatalf("create resume: %v", err)
	}
	return res
}

func samplePDF() []byte {
	return extracttest.PDF("Jane Doe", "Senior Engineer at Acme")
}
