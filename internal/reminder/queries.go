package reminder

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"gorm.io/gorm"
)

// QueryBuilder provides a fluent interface for building reminder queries
type QueryBuilder struct {
	db *gorm.DB
}

// NewQueryBuilder creates a new QueryBuilder
func NewQueryBuilder(db *gorm.DB) *QueryBuilder {
	return &QueryBuilder{db: db}
}

// ReminderQueryBuilder provides reminder-specific query building
type ReminderQueryBuilder struct {
	query *gorm.DB
}

// ReminderQuery creates a new ReminderQueryBuilder
func (qb *QueryBuilder) ReminderQuery() *ReminderQueryBuilder {
	return &ReminderQueryBuilder{
		query: qb.db.Model(&Reminder{}),
	}
}

// WithID filters reminders by id
func (rqb *ReminderQueryBuilder) WithID(id int64) *ReminderQueryBuilder {
	rqb.query = rqb.query.Where("id = ?", id)
	return rqb
}

// WithStatus filters reminders by status
func (rqb *ReminderQueryBuilder) WithStatus(status Status) *ReminderQueryBuilder {
	rqb.query = rqb.query.Where("status = ?", status)
	return rqb
}

// WithStatusNot excludes reminders with the given status
func (rqb *ReminderQueryBuilder) WithStatusNot(status Status) *ReminderQueryBuilder {
	rqb.query = rqb.query.Where("status <> ?", status)
	return rqb
}

// WithAgedOut matches reminders scheduled at or before scheduledBefore or
// closed at or before closedBefore; a zero time disables its half of the condition
func (rqb *ReminderQueryBuilder) WithAgedOut(scheduledBefore, closedBefore time.Time) *ReminderQueryBuilder {
	switch {
	case !scheduledBefore.IsZero() && !closedBefore.IsZero():
		rqb.query = rqb.query.Where("(scheduled_time <= ? OR (closed_at IS NOT NULL AND closed_at <= ?))",
			scheduledBefore.UTC(), closedBefore.UTC())
	case !scheduledBefore.IsZero():
		rqb.query = rqb.query.Where("scheduled_time <= ?", scheduledBefore.UTC())
	case !closedBefore.IsZero():
		rqb.query = rqb.query.Where("closed_at IS NOT NULL AND closed_at <= ?", closedBefore.UTC())
	}
	return rqb
}

// OrderByScheduledTime orders reminders by due time; ties are broken by id
func (rqb *ReminderQueryBuilder) OrderByScheduledTime(ascending bool) *ReminderQueryBuilder {
	if ascending {
		rqb.query = rqb.query.Order("scheduled_time ASC").Order("id ASC")
	} else {
		rqb.query = rqb.query.Order("scheduled_time DESC").Order("id DESC")
	}
	return rqb
}

// Find executes the query and returns reminders
func (rqb *ReminderQueryBuilder) Find() ([]*Reminder, error) {
	var reminders []*Reminder
	err := rqb.query.Find(&reminders).Error
	return reminders, err
}

// First returns the first matching reminder or gorm.ErrRecordNotFound
func (rqb *ReminderQueryBuilder) First() (*Reminder, error) {
	var reminder Reminder
	if err := rqb.query.First(&reminder).Error; err != nil {
		return nil, err
	}
	return &reminder, nil
}

// CountByStatus returns how many reminders are in each status
func CountByStatus(db *gorm.DB) (map[Status]int64, error) {
	var rows []struct {
		Status Status
		Total  int64
	}
	err := db.Model(&Reminder{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[Status]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

// containsFold reports whether substr occurs in text under full Unicode case
// folding. A Caser holds state, so each call builds its own.
func containsFold(text, substr string) bool {
	fold := cases.Fold()
	return strings.Contains(fold.String(text), fold.String(substr))
}
