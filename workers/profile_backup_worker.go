// workers/profile_backup_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"wildlife-progress/logger"
	"wildlife-progress/storage"
	"wildlife-progress/utils"

	"github.com/go-co-op/gocron/v2"
)

// ProfileSnapshot is the object written per backup run.
type ProfileSnapshot struct {
	TakenAt  time.Time                  `json:"takenAt"`
	Profiles map[string]json.RawMessage `json:"profiles"`
	Skipped  []string                   `json:"skipped,omitempty"`
}

// ProfileBackupWorker copies every stored profile document into one snapshot
// object in R2.
type ProfileBackupWorker struct {
	docs         storage.DocumentStore
	keyPrefix    string
	uploader     utils.ObjectUploader
	objectPrefix string
	log          *logger.Logger
	now          func() time.Time
}

func NewProfileBackupWorker(docs storage.DocumentStore, keyPrefix string, uploader utils.ObjectUploader, objectPrefix string, log *logger.Logger) *ProfileBackupWorker {
	return &ProfileBackupWorker{
		docs:         docs,
		keyPrefix:    keyPrefix,
		uploader:     uploader,
		objectPrefix: objectPrefix,
		log:          log,
		now:          time.Now,
	}
}

// RunOnce takes and uploads one snapshot, returning the object key. Documents
// that are not valid JSON are listed under Skipped instead of copied.
func (w *ProfileBackupWorker) RunOnce(ctx context.Context) (string, error) {
	keys, err := w.docs.Keys(ctx, w.keyPrefix)
	if err != nil {
		return "", fmt.Errorf("listing profiles: %w", err)
	}

	snap := ProfileSnapshot{
		TakenAt:  w.now().UTC(),
		Profiles: make(map[string]json.RawMessage, len(keys)),
	}
	for _, key := range keys {
		body, err := w.docs.Get(ctx, key)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", key, err)
		}
		if !json.Valid(body) {
			snap.Skipped = append(snap.Skipped, key)
			continue
		}
		snap.Profiles[key] = body
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}

	objectKey := path.Join(w.objectPrefix, snap.TakenAt.Format("2006-01-02T15-04-05Z")+".json")
	if err := w.uploader.PutObject(ctx, objectKey, data, "application/json"); err != nil {
		return "", err
	}

	w.log.Info("profile backup uploaded",
		"object_key", objectKey,
		"profiles", len(snap.Profiles),
		"skipped", len(snap.Skipped),
	)
	return objectKey, nil
}

// Start schedules RunOnce every interval until ctx is cancelled.
func (w *ProfileBackupWorker) Start(ctx context.Context, interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if _, err := w.RunOnce(ctx); err != nil {
				w.log.Error("profile backup failed", "error", err)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("scheduling profile backup: %w", err)
	}

	sched.Start()
	go func() {
		<-ctx.Done()
		if err := sched.Shutdown(); err != nil {
			w.log.Warn("backup scheduler shutdown", "error", err)
		}
	}()
	return sched, nil
}
