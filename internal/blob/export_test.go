package blob

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestPutDatedSuffixesSameDayExports(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	day := time.Date(2026, time.April, 3, 9, 30, 0, 0, time.UTC)
	want := []string{
		"exports/beds-2026-04-03.json",
		"exports/beds-2026-04-03-2.json",
		"exports/beds-2026-04-03-3.json",
	}
	for i, key := range want {
		info, err := PutDated(ctx, store, "beds", day, []byte(`[]`))
		if err != nil {
			t.Fatalf("export %d: %v", i, err)
		}
		if info.Key != key || info.ContentType != JSONContentType {
			t.Fatalf("export %d = %+v, want key %s", i, info, key)
		}
	}
	data, err := ReadAll(ctx, store, want[1])
	if err != nil || string(data) != `[]` {
		t.Fatalf("ReadAll = %q %v", data, err)
	}
	list, err := ListExports(ctx, store, "beds")
	if err != nil || len(list) != 3 {
		t.Fatalf("ListExports = %+v %v", list, err)
	}
	if others, _ := ListExports(ctx, store, "gardens"); len(others) != 0 {
		t.Fatalf("expected no garden exports, got %+v", others)
	}
}

func TestPutDatedRejectsBadKind(t *testing.T) {
	if _, err := PutDated(context.Background(), NewMemory(), "../beds", time.Now(), nil); err == nil {
		t.Fatalf("expected kind validation error")
	}
}

func TestPutDatedAttachesDownloadLink(t *testing.T) {
	ctx := context.Background()
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystem: %v", err)
	}
	info, err := PutDated(ctx, store, "yearplans", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), []byte(`{}`))
	if err != nil {
		t.Fatalf("PutDated: %v", err)
	}
	if !strings.HasPrefix(info.URL, "file://") || !strings.HasSuffix(info.URL, "yearplans-2026-01-02.json") {
		t.Fatalf("url = %q", info.URL)
	}

	s3store := NewMockS3ForTests()
	info, err = PutDated(ctx, s3store, "gardens", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), []byte(`{}`))
	if err != nil {
		t.Fatalf("PutDated s3: %v", err)
	}
	if info.URL == "" || info.Key != "exports/gardens-2026-01-02.json" {
		t.Fatalf("s3 info = %+v", info)
	}
}
