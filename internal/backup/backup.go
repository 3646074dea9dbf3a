// Package backup takes database snapshots on demand or on a schedule and
// keeps only the newest ones.
package backup

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/M3PH1S69/warehouse-monitoring/internal/db"
	"github.com/M3PH1S69/warehouse-monitoring/internal/metrics"
	"github.com/M3PH1S69/warehouse-monitoring/internal/store"
)

const (
	filePrefix = "warehouse-"
	fileSuffix = ".db"
	timeLayout = "20060102T150405"
)

// Info describes one backup file.
type Info struct {
	File      string    `json:"file"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Runner writes backups into a directory. Runs are serialized.
type Runner struct {
	db      *sql.DB
	dir     string
	keep    int
	metrics *metrics.Metrics
	now     func() time.Time

	mu sync.Mutex
}

// Option configures a Runner.
type Option func(*Runner)

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner returns a Runner writing to dir and keeping the newest keep
// files. keep <= 0 keeps everything.
func NewRunner(database *sql.DB, dir string, keep int, opts ...Option) *Runner {
	r := &Runner{db: database, dir: dir, keep: keep, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dir returns the backup directory.
func (r *Runner) Dir() string { return r.dir }

// Run takes a backup now, prunes old ones and records it as the last backup.
func (r *Runner) Run(ctx context.Context) (*Info, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, err := r.run(ctx)
	r.metrics.BackupFinished(err)
	if err != nil {
		slog.Error("backup failed", "dir", r.dir, "error", err)
		return nil, err
	}
	slog.Info("backup created", "file", info.File, "size", info.Size)
	return info, nil
}

func (r *Runner) run(ctx context.Context) (*Info, error) {
	if err := os.MkdirAll(r.dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}

	created := r.now().UTC()
	name := filePrefix + created.Format(timeLayout) + fileSuffix
	for i := 1; fileExists(filepath.Join(r.dir, name)); i++ {
		name = fmt.Sprintf("%s%s-%d%s", filePrefix, created.Format(timeLayout), i, fileSuffix)
	}
	path := filepath.Join(r.dir, name)

	if err := db.Backup(ctx, r.db, path); err != nil {
		return nil, err
	}
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("checking backup: %w", err)
	}
	info := &Info{File: name, Size: st.Size(), CreatedAt: created}

	if err := r.prune(name); err != nil {
		slog.Warn("pruning old backups failed", "dir", r.dir, "error", err)
	}

	data, err := json.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("encoding backup info: %w", err)
	}
	if err := store.SetSetting(ctx, r.db, store.SettingLastBackup, string(data)); err != nil {
		return nil, err
	}
	return info, nil
}

// List returns the backups in the directory, newest first.
func (r *Runner) List() ([]Info, error) {
	entries, err := os.ReadDir(r.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var backups []Info
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Info{File: name, Size: fi.Size(), CreatedAt: fi.ModTime().UTC()})
	}
	sort.Slice(backups, func(i, j int) bool { return newer(backups[i].File, backups[j].File) })
	return backups, nil
}

// nameOrder splits a backup file name into its timestamp and same-second
// sequence number. The first backup of a second has sequence 0.
func nameOrder(name string) (stamp string, seq int) {
	stamp = strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
	if i := strings.LastIndexByte(stamp, '-'); i >= 0 {
		if n, err := strconv.Atoi(stamp[i+1:]); err == nil {
			return stamp[:i], n
		}
	}
	return stamp, 0
}

// newer reports whether backup a was taken after backup b.
func newer(a, b string) bool {
	sa, na := nameOrder(a)
	sb, nb := nameOrder(b)
	if sa != sb {
		return sa > sb
	}
	return na > nb
}

// Last returns the most recent backup recorded in the database.
func (r *Runner) Last(ctx context.Context) (*Info, error) {
	value, err := store.GetSetting(ctx, r.db, store.SettingLastBackup)
	if err != nil {
		return nil, err
	}
	info := &Info{}
	if err := json.Unmarshal([]byte(value), info); err != nil {
		return nil, fmt.Errorf("decoding backup info: %w", err)
	}
	return info, nil
}

// prune removes all but the newest keep backups. current is never removed.
func (r *Runner) prune(current string) error {
	if r.keep <= 0 {
		return nil
	}
	backups, err := r.List()
	if err != nil {
		return err
	}
	for _, b := range backups[min(r.keep, len(backups)):] {
		if b.File == current {
			continue
		}
		if err := os.Remove(filepath.Join(r.dir, b.File)); err != nil {
			return fmt.Errorf("removing %s: %w", b.File, err)
		}
		slog.Info("old backup removed", "file", b.File)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
