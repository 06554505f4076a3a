// Package reservation decides which registrations may hold a seat in a
// capacity-limited activity. Seats are held with a soft reservation that
// expires after HoldWindow unless the registration gets paid, so abandoned
// checkouts free their seats automatically.
package reservation

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/maplewood-arts/registration-api/internal/catalog"
	"github.com/maplewood-arts/registration-api/internal/models"
)

// HoldWindow is how long an unpaid reservation counts against capacity.
const HoldWindow = 15 * time.Minute

// ReasonFull is the rejection reason for a sold-out activity.
const ReasonFull = "Activity is full"

// ErrNoneFound is returned when none of the requested ids resolve to a
// registration.
var ErrNoneFound = errors.New("no registrations found")

// Seat is an accepted registration with the details the checkout page shows.
type Seat struct {
	RegistrationID uint
	ActivityID     string
	ActivityName   string
	ActivityKind   string
	FirstName      string
	LastName       string
	Cost           decimal.Decimal
	Donation       decimal.Decimal
	Note           string
	Answer         string
	TotalAmount    decimal.Decimal
}

// Rejection names a registration that could not be reserved and why.
type Rejection struct {
	RegistrationID uint
	ActivityID     string
	ActivityName   string
	FirstName      string
	LastName       string
	Reason         string
}

type Engine struct {
	db  *gorm.DB
	cat *catalog.Catalog
}

func NewEngine(db *gorm.DB, cat *catalog.Catalog) *Engine {
	return &Engine{db: db, cat: cat}
}

// Reserve partitions the requested registrations into accepted seats and
// rejections, and stamps reserved_at on the accepted unpaid rows. The
// capacity read and the reservation write share one transaction so two
// concurrent callers cannot both see the same free seat and both take it.
//
// Activities missing from the catalog have no capacity limit and are always
// accepted. All registrations rejected is a valid outcome, not an error.
func (e *Engine) Reserve(ctx context.Context, ids []uint) ([]Seat, []Rejection, error) {
	var accepted []Seat
	var rejected []Rejection

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var regs []models.Registration
		if err := tx.Preload("Student").
			Where("id IN ?", ids).
			Order("id").
			Find(&regs).Error; err != nil {
			return err
		}
		if len(regs) == 0 {
			return ErrNoneFound
		}

		byActivity := make(map[string][]models.Registration)
		for _, r := range regs {
			key := strings.ToLower(r.Activity)
			byActivity[key] = append(byActivity[key], r)
		}
		activityIDs := make([]string, 0, len(byActivity))
		for id := range byActivity {
			activityIDs = append(activityIDs, id)
		}
		sort.Strings(activityIDs)

		if err := e.lockActivityRows(tx, activityIDs); err != nil {
			return err
		}

		counts, err := activeCounts(tx, activityIDs, ids)
		if err != nil {
			return err
		}

		var reserveIDs []uint
		for _, activityID := range activityIDs {
			pending := byActivity[activityID]
			act, known := e.cat.Get(activityID)
			name := e.cat.Name(activityID)

			take := len(pending)
			if known && act.SizeMax != nil {
				available := *act.SizeMax - counts[activityID]
				if available < 0 {
					available = 0
				}
				if available < take {
					take = available
				}
			}

			for i, r := range pending {
				if i < take {
					accepted = append(accepted, Seat{
						RegistrationID: r.ID,
						ActivityID:     activityID,
						ActivityName:   name,
						ActivityKind:   act.Kind,
						FirstName:      r.Student.Firstname,
						LastName:       r.Student.Lastname,
						Cost:           r.Cost,
						Donation:       r.Donation,
						Note:           r.Note,
						Answer:         r.Answer,
						TotalAmount:    r.Cost.Add(r.Donation),
					})
					if r.PaymentID == nil {
						reserveIDs = append(reserveIDs, r.ID)
					}
				} else {
					rejected = append(rejected, Rejection{
						RegistrationID: r.ID,
						ActivityID:     activityID,
						ActivityName:   name,
						FirstName:      r.Student.Firstname,
						LastName:       r.Student.Lastname,
						Reason:         ReasonFull,
					})
				}
			}
		}

		// One batched update; paid rows keep their reservation state.
		if len(reserveIDs) > 0 {
			if err := tx.Model(&models.Registration{}).
				Where("id IN ? AND payment_id IS NULL", reserveIDs).
				Update("reserved_at", time.Now()).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return accepted, rejected, nil
}

// lockActivityRows takes row locks on every registration of the involved
// activities. Postgres needs this to stop two transactions from both reading
// a stale count before either writes; SQLite has a single writer and ignores
// the clause.
func (e *Engine) lockActivityRows(tx *gorm.DB, activityIDs []string) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	var lockedIDs []uint
	return tx.Model(&models.Registration{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("LOWER(activity) IN ?", activityIDs).
		Pluck("id", &lockedIDs).Error
}

// activeCounts returns, per lower-cased activity id, the number of rows that
// currently hold a seat: not cancelled and either paid or reserved within the
// hold window. The rows being processed in this call are excluded.
func activeCounts(tx *gorm.DB, activityIDs []string, excludeIDs []uint) (map[string]int, error) {
	cutoff := time.Now().Add(-HoldWindow)

	type row struct {
		Activity string
		Count    int
	}
	var rows []row
	q := tx.Model(&models.Registration{}).
		Select("LOWER(activity) AS activity, COUNT(*) AS count").
		Where("LOWER(activity) IN ?", activityIDs).
		Where("cancelled_at IS NULL").
		Where("payment_id IS NOT NULL OR (reserved_at IS NOT NULL AND reserved_at > ?)", cutoff).
		Group("LOWER(activity)")
	if len(excludeIDs) > 0 {
		q = q.Where("id NOT IN ?", excludeIDs)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Activity] = r.Count
	}
	return counts, nil
}

// ActiveCounts is the public read used by the activity-status endpoint.
func (e *Engine) ActiveCounts(ctx context.Context, activityIDs []string) (map[string]int, error) {
	lowered := make([]string, len(activityIDs))
	for i, id := range activityIDs {
		lowered[i] = strings.ToLower(id)
	}
	return activeCounts(e.db.WithContext(ctx), lowered, nil)
}
