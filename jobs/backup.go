// Package jobs holds background work scheduled with cron.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/cppla/liveplus/models"
	"github.com/cppla/liveplus/storage"
	"github.com/cppla/liveplus/store"
)

// Snapshotter is satisfied by *store.Store.
type Snapshotter interface {
	Snapshot() []models.Post
}

// BackupJob copies the whole collection to a second KV backend under a
// timestamped key.
type BackupJob struct {
	src     Snapshotter
	dst     storage.KV
	prefix  string
	timeout time.Duration
	now     func() time.Time
	log     *zap.Logger
}

func NewBackupJob(src Snapshotter, dst storage.KV, prefix string, log *zap.Logger) *BackupJob {
	if log == nil {
		log = zap.NewNop()
	}
	return &BackupJob{
		src:     src,
		dst:     dst,
		prefix:  prefix,
		timeout: 30 * time.Second,
		now:     time.Now,
		log:     log,
	}
}

// Key returns the backup key for the given instant.
func (j *BackupJob) Key(t time.Time) string {
	return j.prefix + store.DefaultKey + "-" + t.UTC().Format("20060102T150405Z")
}

// Run writes one backup and returns its key.
func (j *BackupJob) Run(ctx context.Context) (string, error) {
	data, err := store.EncodeCollection(j.src.Snapshot())
	if err != nil {
		return "", fmt.Errorf("encode backup: %w", err)
	}
	key := j.Key(j.now())
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()
	if err := j.dst.Set(ctx, key, data); err != nil {
		return "", fmt.Errorf("write backup %s: %w", key, err)
	}
	return key, nil
}

// RunLogged is the cron entry point.
func (j *BackupJob) RunLogged() {
	key, err := j.Run(context.Background())
	if err != nil {
		j.log.Warn("backup failed", zap.Error(err))
		return
	}
	j.log.Info("backup written", zap.String("key", key))
}

// Schedule registers the job on c with a standard cron spec or descriptor
// such as "@every 24h".
func (j *BackupJob) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	id, err := c.AddFunc(spec, j.RunLogged)
	if err != nil {
		return 0, fmt.Errorf("schedule backup %q: %w", spec, err)
	}
	return id, nil
}
