package services

import (
	"context"
	"errors"
	"time"

	"contesthub/metrics"
	"contesthub/models"
	"contesthub/realtime"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Adjustment is one participant counter the reconciler corrected
type Adjustment struct {
	ContestID string `json:"contestId"`
	Stored    int    `json:"stored"`
	Actual    int    `json:"actual"`
}

// Reconciler repairs participant counters from the registrations table
type Reconciler struct {
	db       *gorm.DB
	cache    Cache
	notifier Notifier
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewReconciler(d Deps) *Reconciler {
	d = d.withDefaults()
	return &Reconciler{db: d.DB, cache: d.Cache, notifier: d.Notifier, log: d.Log, now: d.Now}
}

// ReconcileParticipants sets every contest's counter to its number of registrations
func (r *Reconciler) ReconcileParticipants(ctx context.Context) ([]Adjustment, error) {
	type row struct {
		ID           string
		Participants int
		Actual       int
	}
	var rows []row
	start := time.Now()
	err := r.db.WithContext(ctx).Model(&models.Contest{}).
		Select("contests.id, contests.participants, COUNT(registrations.id) AS actual").
		Joins("LEFT JOIN registrations ON registrations.contest_id = contests.id").
		Group("contests.id, contests.participants").
		Find(&rows).Error
	metrics.RecordDBOperation("reconcile", "contests", start)
	if err != nil {
		return nil, internalError("count registrations", err)
	}

	adjustments := []Adjustment{}
	for _, c := range rows {
		if c.Participants == c.Actual {
			continue
		}
		adjustment, changed, err := r.repair(ctx, c.ID)
		if err != nil {
			return adjustments, err
		}
		if !changed {
			continue
		}
		r.log.WithFields(logrus.Fields{
			"contest_id": adjustment.ContestID,
			"stored":     adjustment.Stored,
			"actual":     adjustment.Actual,
		}).Warn("Participant counter out of sync, repaired")
		metrics.ParticipantAdjustments.Inc()
		r.notifier.Publish(realtime.ContestEvent{ContestID: adjustment.ContestID, Type: realtime.EventParticipants, Participants: adjustment.Actual, At: r.now()})
		adjustments = append(adjustments, adjustment)
	}

	if len(adjustments) > 0 {
		invalidateListings(ctx, r.cache, r.log)
	}
	return adjustments, nil
}

// repair recounts one contest under its row lock. A registration committing
// concurrently is either counted here or increments after the write.
func (r *Reconciler) repair(ctx context.Context, contestID string) (Adjustment, bool, error) {
	var adjustment Adjustment
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var contest models.Contest
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "participants").
			First(&contest, "id = ?", contestID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		var actual int64
		if err := tx.Model(&models.Registration{}).Where("contest_id = ?", contestID).Count(&actual).Error; err != nil {
			return err
		}
		if int(actual) == contest.Participants {
			return nil
		}
		if err := tx.Model(&models.Contest{}).Where("id = ?", contestID).UpdateColumn("participants", actual).Error; err != nil {
			return err
		}
		adjustment = Adjustment{ContestID: contestID, Stored: contest.Participants, Actual: int(actual)}
		changed = true
		return nil
	})
	if err != nil {
		return Adjustment{}, false, internalError("repair participants", err)
	}
	return adjustment, changed, nil
}

// Run reconciles on every tick until ctx is cancelled
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.ReconcileParticipants(ctx); err != nil {
				r.log.WithError(err).Error("Participant reconciliation failed")
			}
		}
	}
}
