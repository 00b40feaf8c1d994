package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	logx "wcnotify/pkg/logx"
)

func openTestStore(t *testing.T, path string) Store {
	t.Helper()
	s, err := Open(Config{Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestContainsMissingFile(t *testing.T) {
	t.Parallel()
	s := openTestStore(t, filepath.Join(t.TempDir(), "orders_log.txt"))

	ok, err := s.Contains(context.Background(), 501)
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if ok {
		t.Fatal("expected false for missing file")
	}
}

func TestRecordThenContains(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "orders_log.txt")
	s := openTestStore(t, path)
	ctx := context.Background()

	for _, id := range []int64{501, 502} {
		if err := s.Record(ctx, id); err != nil {
			t.Fatalf("Record(%d): %v", id, err)
		}
	}
	for _, id := range []int64{501, 502} {
		ok, err := s.Contains(ctx, id)
		if err != nil || !ok {
			t.Fatalf("Contains(%d) = %v, %v; want true", id, ok, err)
		}
	}
	if ok, _ := s.Contains(ctx, 50); ok {
		t.Fatal("prefix of a recorded id must not match")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := string(b); got != "501\n502\n" {
		t.Fatalf("file = %q", got)
	}
}

func TestRecordIsolatesTornLine(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "orders_log.txt")
	if err := os.WriteFile(path, []byte("100\n20"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := openTestStore(t, path)
	ctx := context.Background()

	if ok, _ := s.Contains(ctx, 20); ok {
		t.Fatal("unterminated trailing line must not count")
	}
	if err := s.Record(ctx, 7); err != nil {
		t.Fatalf("Record: %v", err)
	}
	b, _ := os.ReadFile(path)
	if got := string(b); got != "100\n20\n7\n" {
		t.Fatalf("file = %q", got)
	}
	for _, id := range []int64{100, 7} {
		if ok, _ := s.Contains(ctx, id); !ok {
			t.Fatalf("Contains(%d) = false", id)
		}
	}
}

func TestParseIDsIgnoresNoise(t *testing.T) {
	t.Parallel()
	ids, err := parseIDs(strings.NewReader("1\n\n  2 \nabc\n3\r\n4"))
	if err != nil {
		t.Fatalf("parseIDs: %v", err)
	}
	for _, id := range []int64{1, 2, 3} {
		if _, ok := ids[id]; !ok {
			t.Fatalf("missing %d", id)
		}
	}
	if _, ok := ids[4]; ok {
		t.Fatal("unterminated 4 must be ignored")
	}
	if len(ids) != 3 {
		t.Fatalf("len = %d, want 3", len(ids))
	}
}

func TestConcurrentAppendersAcrossHandles(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "orders_log.txt")
	a := openTestStore(t, path)
	b := openTestStore(t, path)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(id int64) { defer wg.Done(); _ = a.Record(ctx, id) }(int64(i))
		go func(id int64) { defer wg.Done(); _ = b.Record(ctx, id) }(int64(1000 + i))
	}
	wg.Wait()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(string(raw), "\n"), "\n")
	if len(lines) != 100 {
		t.Fatalf("lines = %d, want 100", len(lines))
	}
	for i := 0; i < 50; i++ {
		if ok, _ := a.Contains(ctx, int64(1000+i)); !ok {
			t.Fatalf("missing %d", 1000+i)
		}
	}
}

func TestUnavailableDirectory(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "orders_log.txt")
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatal(err)
	}
	s := openTestStore(t, path)

	if _, err := s.Contains(context.Background(), 1); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Contains err = %v, want ErrUnavailable", err)
	}
	if err := s.Record(context.Background(), 1); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Record err = %v, want ErrUnavailable", err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "sqlite", Path: "x"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
	if _, err := Open(Config{}, logx.Nop()); err == nil {
		t.Fatal("expected error for empty path")
	}
}
