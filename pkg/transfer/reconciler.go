package transfer

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/docvault/docvault/pkg/dms"
	"github.com/docvault/docvault/pkg/observability"
	"github.com/docvault/docvault/pkg/storage"
)

// NotifyFunc delivers a due reminder. The reconciler marks the reminder sent
// only after the delivery func returns nil.
type NotifyFunc func(ctx context.Context, reminder *dms.FileReminder) error

// Reconciler runs the background sweeps: orphan blobs left behind by failed
// uploads, and due reminders waiting for delivery.
type Reconciler struct {
	store       *dms.Store
	objects     storage.ObjectStore
	logger      *observability.Logger
	notify      NotifyFunc
	orphanGrace time.Duration

	cron *cron.Cron
}

// defaultOrphanGrace is how long a blob with no file row is left alone before
// the sweep treats it as garbage. Uploads write the blob before the row, so
// the window has to comfortably cover a slow insert.
const defaultOrphanGrace = time.Hour

// ReconcilerOption customizes a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithOrphanGrace overrides how old an unreferenced blob must be before the
// orphan sweep deletes it.
func WithOrphanGrace(d time.Duration) ReconcilerOption {
	return func(r *Reconciler) { r.orphanGrace = d }
}

// NewReconciler builds a reconciler. notify may be nil, in which case due
// reminders are logged and marked sent.
func NewReconciler(store *dms.Store, objects storage.ObjectStore, logger *observability.Logger, notify NotifyFunc, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		store:       store,
		objects:     objects,
		logger:      logger,
		notify:      notify,
		orphanGrace: defaultOrphanGrace,
		cron:        cron.New(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start schedules the sweeps and starts the scheduler.
func (r *Reconciler) Start(reminderSchedule, orphanSchedule string) error {
	if _, err := r.cron.AddFunc(reminderSchedule, func() {
		if err := r.SweepDueReminders(context.Background()); err != nil {
			r.logger.WithError(err).Error("reminder sweep failed")
		}
	}); err != nil {
		return err
	}
	if _, err := r.cron.AddFunc(orphanSchedule, func() {
		if err := r.SweepOrphanBlobs(context.Background()); err != nil {
			r.logger.WithError(err).Error("orphan blob sweep failed")
		}
	}); err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish.
func (r *Reconciler) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

// SweepDueReminders delivers every pending reminder whose time has come.
// Each reminder is marked sent individually so a delivery failure does not
// block the rest of the batch.
func (r *Reconciler) SweepDueReminders(ctx context.Context) error {
	due, err := r.store.DueReminders(ctx, time.Now().UTC())
	if err != nil {
		return err
	}

	for _, reminder := range due {
		log := r.logger.WithFields(map[string]interface{}{
			"reminder_id": reminder.ID,
			"file_id":     reminder.FileID,
			"user_id":     reminder.TargetUserID,
		})

		if r.notify != nil {
			if err := r.notify(ctx, &reminder); err != nil {
				log.WithError(err).Warn("reminder delivery failed, will retry next sweep")
				continue
			}
		} else {
			log.Info("reminder due")
		}

		if err := r.store.MarkReminderSent(ctx, reminder.ID); err != nil {
			// another sweep got there first
			log.WithError(err).Debug("reminder already handled")
		}
	}
	return nil
}

// SweepOrphanBlobs deletes stored objects that no file row references.
// Uploads write the blob before the row, so a crash between the two leaves
// garbage here. Objects younger than the grace period are skipped so the
// sweep never deletes a blob whose row insert is still in flight.
func (r *Reconciler) SweepOrphanBlobs(ctx context.Context) error {
	objects, err := r.objects.List(ctx, "files/")
	if err != nil {
		return err
	}

	cutoff := time.Now().Add(-r.orphanGrace)
	var removed int
	for _, obj := range objects {
		if obj.LastModified.After(cutoff) {
			continue
		}
		referenced, err := r.store.HasFileWithStoragePath(ctx, obj.Key)
		if err != nil {
			return err
		}
		if referenced {
			continue
		}
		if err := r.objects.Delete(ctx, obj.Key); err != nil {
			r.logger.WithError(err).WithField("key", obj.Key).Warn("failed to delete orphan blob")
			continue
		}
		removed++
	}

	if removed > 0 {
		r.logger.WithField("removed", removed).Info("orphan blob sweep complete")
	}
	return nil
}
