package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"
)

const (
	// ExportPrefix is the key prefix shared by all export files.
	ExportPrefix = "exports/"
	// JSONContentType is attached to every export.
	JSONContentType = "application/json"

	maxExportsPerDay = 1000
)

var kindPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ExportKey returns the key for the n-th export of kind on day; n <= 1 is the
// plain name, later ones get a numeric suffix.
func ExportKey(kind string, day time.Time, n int) string {
	base := fmt.Sprintf("%s%s-%s", ExportPrefix, kind, day.Format("2006-01-02"))
	if n <= 1 {
		return base + ".json"
	}
	return fmt.Sprintf("%s-%d.json", base, n)
}

// PutDated stores data under the first free key for kind on the day of now:
// exports/<kind>-YYYY-MM-DD.json, then -2, -3 and so on. The returned Info
// carries a download link when the backend can produce one.
func PutDated(ctx context.Context, store Store, kind string, now time.Time, data []byte) (Info, error) {
	if !kindPattern.MatchString(kind) {
		return Info{}, fmt.Errorf("invalid export kind %q", kind)
	}
	opts := PutOptions{ContentType: JSONContentType, Metadata: map[string]string{"kind": kind}}
	for n := 1; n <= maxExportsPerDay; n++ {
		key := ExportKey(kind, now, n)
		info, err := store.Put(ctx, key, bytes.NewReader(data), opts)
		if errors.Is(err, ErrExists) {
			continue
		}
		if err != nil {
			return Info{}, fmt.Errorf("store export %s: %w", key, err)
		}
		if link, err := store.PresignURL(ctx, key, SignedURLOptions{}); err == nil {
			info.URL = link
		}
		return info, nil
	}
	return Info{}, fmt.Errorf("too many %s exports on %s", kind, now.Format("2006-01-02"))
}

// ReadAll returns the full content stored under key.
func ReadAll(ctx context.Context, store Store, key string) ([]byte, error) {
	_, rc, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// ListExports returns stored exports of kind, or every export when kind is empty.
func ListExports(ctx context.Context, store Store, kind string) ([]Info, error) {
	prefix := ExportPrefix
	if kind != "" {
		prefix += kind + "-"
	}
	return store.List(ctx, prefix)
}
