package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"gardenplanner/internal/blob"
	"gardenplanner/pkg/domain"
)

// RawEntry is one stored key as shown by the settings view.
type RawEntry struct {
	Key    string
	Known  bool
	Stored bool
	Size   int
}

// RawKeys lists every registry key plus any other key found in the store.
func (s *Service) RawKeys(ctx context.Context) ([]RawEntry, error) {
	stored, err := s.rt.state.Keys(ctx)
	if err != nil {
		return nil, err
	}
	present := make(map[string]struct{}, len(stored))
	for _, k := range stored {
		present[k] = struct{}{}
	}
	keys := domain.KnownKeys()
	for _, k := range stored {
		if !domain.IsKnownKey(k) {
			keys = append(keys, k)
		}
	}
	out := make([]RawEntry, 0, len(keys))
	for _, k := range keys {
		entry := RawEntry{Key: k, Known: domain.IsKnownKey(k)}
		if _, ok := present[k]; ok {
			raw, _, err := s.rt.state.Raw(ctx, k)
			if err != nil {
				return nil, err
			}
			entry.Stored = true
			entry.Size = len(raw)
		}
		out = append(out, entry)
	}
	return out, nil
}

// Raw returns the stored text of key.
func (s *Service) Raw(ctx context.Context, key string) (string, bool, error) {
	raw, ok, err := s.rt.state.Raw(ctx, key)
	if err != nil || !ok {
		return "", ok, err
	}
	return string(raw), true, nil
}

// OverwriteRaw replaces a registry key with text after confirmation and
// reloads every registry.
func (s *Service) OverwriteRaw(ctx context.Context, key, text string) error {
	return s.rt.run(ctx, "overwrite_raw", func(ctx context.Context) (string, error) {
		if !domain.IsKnownKey(key) {
			return key, &domain.ValidationError{Field: "key", Reason: fmt.Sprintf("unknown key %q", key)}
		}
		value := bytes.TrimSpace([]byte(text))
		if !json.Valid(value) {
			return key, &domain.ValidationError{Field: "value", Reason: "must be valid JSON"}
		}
		if err := s.rt.confirm(ctx, fmt.Sprintf("Overwrite %s?", key)); err != nil {
			return key, err
		}
		if err := s.rt.state.SetRaw(ctx, key, value); err != nil {
			return key, err
		}
		s.rt.changed(key)
		return key, s.Load(ctx)
	})
}

// ExportBundle writes every stored registry key into one dated JSON object.
func (s *Service) ExportBundle(ctx context.Context) (blob.Info, error) {
	var info blob.Info
	err := s.rt.run(ctx, "export_bundle", func(ctx context.Context) (string, error) {
		bundle := make(map[string]json.RawMessage)
		for _, key := range domain.KnownKeys() {
			raw, ok, err := s.rt.state.Raw(ctx, key)
			if err != nil {
				return key, err
			}
			if !ok || !json.Valid(raw) {
				continue
			}
			bundle[key] = json.RawMessage(raw)
		}
		var err error
		info, err = s.rt.export(ctx, "bundle", bundle)
		return info.Key, err
	})
	return info, err
}

// ImportBundle writes the keys of a bundle export after confirmation and
// reloads every registry. Unknown keys reject the whole file. If a write
// fails, keys already written are restored.
func (s *Service) ImportBundle(ctx context.Context, src io.Reader) (int, error) {
	var count int
	err := s.rt.run(ctx, "import_bundle", func(ctx context.Context) (string, error) {
		bundle, err := decodeImport[map[string]json.RawMessage](src)
		if err != nil {
			return "", err
		}
		keys := make([]string, 0, len(bundle))
		for key := range bundle {
			if !domain.IsKnownKey(key) {
				return key, &domain.ImportError{Err: fmt.Errorf("unknown key %q", key)}
			}
			keys = append(keys, key)
		}
		if len(keys) == 0 {
			return "", &domain.ImportError{Err: errors.New("bundle holds no keys")}
		}
		sort.Strings(keys)
		if err := s.rt.confirm(ctx, fmt.Sprintf("Replace %d stored keys?", len(keys))); err != nil {
			return "", err
		}

		type previous struct {
			raw    []byte
			stored bool
		}
		before := make(map[string]previous, len(keys))
		for _, key := range keys {
			raw, ok, err := s.rt.state.Raw(ctx, key)
			if err != nil {
				return key, err
			}
			before[key] = previous{raw: raw, stored: ok}
		}
		for i, key := range keys {
			if err := s.rt.state.SetRaw(ctx, key, bundle[key]); err != nil {
				s.restore(ctx, keys[:i], func(k string) ([]byte, bool) {
					p := before[k]
					return p.raw, p.stored
				})
				return key, err
			}
		}
		for _, key := range keys {
			s.rt.changed(key)
		}
		count = len(keys)
		return strconv.Itoa(count), s.Load(ctx)
	})
	return count, err
}

func (s *Service) restore(ctx context.Context, keys []string, prev func(string) ([]byte, bool)) {
	for _, key := range keys {
		raw, stored := prev(key)
		var err error
		if stored {
			err = s.rt.state.SetRaw(ctx, key, raw)
		} else {
			_, err = s.kv.Delete(ctx, key)
		}
		if err != nil {
			s.rt.logger.Error("restore after failed import", "key", key, "error", err)
		}
	}
}
