package core

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"gardenplanner/internal/infra/persistence/memory"
	"gardenplanner/pkg/domain"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2024, time.March, 14, 9, 30, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type recordingConfirmer struct {
	mu      sync.Mutex
	answer  bool
	prompts []string
}

func (c *recordingConfirmer) Confirm(_ context.Context, prompt string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	return c.answer
}

func (c *recordingConfirmer) set(answer bool) {
	c.mu.Lock()
	c.answer = answer
	c.mu.Unlock()
}

type captureLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *captureLogger) add(level, msg string) {
	l.mu.Lock()
	l.lines = append(l.lines, level+": "+msg)
	l.mu.Unlock()
}

func (l *captureLogger) Debug(msg string, _ ...any) { l.add("debug", msg) }
func (l *captureLogger) Info(msg string, _ ...any)  { l.add("info", msg) }
func (l *captureLogger) Warn(msg string, _ ...any)  { l.add("warn", msg) }
func (l *captureLogger) Error(msg string, _ ...any) { l.add("error", msg) }

func (l *captureLogger) contains(fragment string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.Contains(line, fragment) {
			return true
		}
	}
	return false
}

// newTestService returns a loaded in-memory service that confirms every
// prompt unless opts override the confirmer.
func newTestService(t *testing.T, opts ...ServiceOption) *Service {
	t.Helper()
	return newTestServiceWithStore(t, memory.NewStore(), opts...)
}

func newTestServiceWithStore(t *testing.T, kv domain.KeyValueStore, opts ...ServiceOption) *Service {
	t.Helper()
	base := []ServiceOption{WithClock(newStepClock()), WithConfirmer(AlwaysConfirm())}
	svc := NewService(kv, append(base, opts...)...)
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return svc
}

func testCatalog() *Catalog {
	return NewCatalog([]domain.Plant{
		{ID: "p1", Name: "Morot", Source: "Impecta", SowingMonths: []int{4, 5}, HarvestMonths: []int{7, 8}},
		{ID: "p2", Name: "Ärtor", Source: "Runåbergs", SowingMonths: []int{4}, HarvestMonths: []int{7}},
		{ID: "p3", Name: "Ölandsvete", SowingMonths: []int{9}, HarvestMonths: []int{8}},
		{ID: "p4", Name: "Zucchini", Source: "Impecta", SeedlingMonths: []int{4}, HarvestMonths: []int{8, 9}},
		{ID: "p5", Name: "Basilika", Source: "Runåbergs", SeedlingMonths: []int{3}},
	})
}

func plantIDs(plants []domain.Plant) []string {
	out := make([]string, len(plants))
	for i, p := range plants {
		out[i] = p.ID
	}
	return out
}

func mustCreateBed(t *testing.T, svc *Service, name string) domain.Bed {
	t.Helper()
	bed, err := svc.Beds().Create(context.Background(), BedInput{Name: name, Width: 1.2, Length: 3})
	if err != nil {
		t.Fatalf("create bed %s: %v", name, err)
	}
	return bed
}

func mustCreatePlan(t *testing.T, svc *Service, name string) {
	t.Helper()
	if _, err := svc.Plans().CreatePlan(context.Background(), name); err != nil {
		t.Fatalf("create plan %s: %v", name, err)
	}
}

func mustToggle(t *testing.T, svc *Service, plan string, bedID int64, plantID string) {
	t.Helper()
	if _, err := svc.Plans().TogglePlantInBed(context.Background(), plan, bedID, plantID); err != nil {
		t.Fatalf("toggle %s in %d: %v", plantID, bedID, err)
	}
}
