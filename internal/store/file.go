package store

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"wcnotify/internal/config"
	logx "wcnotify/pkg/logx"
)

const (
	defaultLockTimeout = 5 * time.Second
	lockRetryDelay     = 20 * time.Millisecond
)

type fileStore struct {
	log logx.Logger

	mu          sync.Mutex
	path        string
	lock        *flock.Flock
	lockTimeout time.Duration
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("store.path is required for file driver")
	}
	lt, err := config.ParseDurationOrDefault("store.lock_timeout", cfg.LockTimeout, defaultLockTimeout)
	if err != nil {
		return nil, err
	}
	if lt <= 0 {
		lt = defaultLockTimeout
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	s := &fileStore{
		log:         log.With(logx.String("comp", "store"), logx.String("path", path)),
		path:        path,
		lock:        flock.New(path + ".lock"),
		lockTimeout: lt,
	}
	s.log.Debug("record store opened", logx.Duration("lock_timeout", lt))
	return s, nil
}

func (s *fileStore) Contains(ctx context.Context, id int64) (bool, error) {
	ids, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	_, ok := ids[id]
	return ok, nil
}

// load reads the whole file into a set under a shared lock.
func (s *fileStore) load(ctx context.Context) (map[int64]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return map[int64]struct{}{}, nil
	}

	unlock, err := s.acquire(ctx, false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[int64]struct{}{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer f.Close()

	ids, err := parseIDs(f)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, s.path, err)
	}
	return ids, nil
}

func (s *fileStore) Record(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.acquire(ctx, true)
	if err != nil {
		return err
	}
	defer unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	line := strconv.FormatInt(id, 10) + "\n"
	torn, err := endsWithoutNewline(f)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if torn {
		s.log.Warn("isolating unterminated trailing line")
		line = "\n" + line
	}

	if _, err := f.WriteString(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: append %d: %v", ErrUnavailable, id, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: sync: %v", ErrUnavailable, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s.log.Debug("order recorded", logx.Int64("order_id", id))
	return nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lock.Close()
}

// acquire takes the advisory lock, bounded by ctx and the lock timeout.
func (s *fileStore) acquire(ctx context.Context, exclusive bool) (func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}
	lctx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	var (
		ok  bool
		err error
	)
	if exclusive {
		ok, err = s.lock.TryLockContext(lctx, lockRetryDelay)
	} else {
		ok, err = s.lock.TryRLockContext(lctx, lockRetryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: lock %s: %v", ErrUnavailable, s.lock.Path(), err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: lock %s not acquired", ErrUnavailable, s.lock.Path())
	}
	return func() {
		if err := s.lock.Unlock(); err != nil {
			s.log.Warn("unlock failed", logx.Err(err))
		}
	}, nil
}

func endsWithoutNewline(f *os.File) (bool, error) {
	st, err := f.Stat()
	if err != nil {
		return false, err
	}
	if st.Size() == 0 {
		return false, nil
	}
	var b [1]byte
	if _, err := f.ReadAt(b[:], st.Size()-1); err != nil {
		return false, err
	}
	return b[0] != '\n', nil
}

// parseIDs returns every id on a newline-terminated line.
// Blank, non-numeric and unterminated trailing lines are ignored.
func parseIDs(r io.Reader) (map[int64]struct{}, error) {
	ids := map[int64]struct{}{}
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadBytes('\n')
		if err == io.EOF {
			return ids, nil
		}
		if err != nil {
			return nil, err
		}
		v := bytes.TrimSpace(line)
		if len(v) == 0 {
			continue
		}
		id, perr := strconv.ParseInt(string(v), 10, 64)
		if perr != nil {
			continue
		}
		ids[id] = struct{}{}
	}
}
