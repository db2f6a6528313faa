package postgres

import (
	"time"

	recurringDatamodel "github.com/cashbookhq/cashbook/internal/core/datamodel/recurring"
	"github.com/cashbookhq/cashbook/internal/recurring"
	"gorm.io/gorm"
)

// RecurringRepository implements recurring.RepositoryAPI using GORM.
type RecurringRepository struct {
	db *gorm.DB
}

func NewRecurringRepository(db *gorm.DB) recurring.RepositoryAPI {
	return &RecurringRepository{db: db}
}

func (r *RecurringRepository) Create(re *recurring.RecurringExpense) error {
	return r.db.Create(recurring.ToDataModel(re)).Error
}

func (r *RecurringRepository) GetByID(storeID, id string) (*recurring.RecurringExpense, error) {
	var row recurringDatamodel.RecurringExpense
	err := r.db.Where("store_id = ? AND id = ?", storeID, id).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, recurring.ErrNotFound
		}
		return nil, err
	}
	return recurring.FromDataModel(&row), nil
}

func (r *RecurringRepository) List(storeID string, limit, offset int) ([]*recurring.RecurringExpense, error) {
	var rows []*recurringDatamodel.RecurringExpense
	err := r.db.Where("store_id = ?", storeID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return recurring.FromDataModelSlice(rows), nil
}

func (r *RecurringRepository) Update(re *recurring.RecurringExpense) error {
	re.UpdatedAt = time.Now()
	return r.db.Where("store_id = ?", re.StoreID).Save(recurring.ToDataModel(re)).Error
}

func (r *RecurringRepository) UpdateStatus(storeID, id, status string) error {
	return r.db.Model(&recurringDatamodel.RecurringExpense{}).
		Where("store_id = ? AND id = ?", storeID, id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

func (r *RecurringRepository) SoftDelete(storeID, id string) error {
	return r.db.Where("store_id = ? AND id = ?", storeID, id).
		Delete(&recurringDatamodel.RecurringExpense{}).Error
}

// ListDue returns active templates that may still owe occurrences as of the
// given date. Templates whose watermark already covers their end date are
// filtered out here; exact due periods are computed by the schedule.
func (r *RecurringRepository) ListDue(asOf time.Time) ([]*recurring.RecurringExpense, error) {
	var rows []*recurringDatamodel.RecurringExpense
	err := r.db.Where("status = ?", recurring.StatusActive).
		Where("start_date <= ?", recurring.DateOnly(asOf)).
		Where("end_date IS NULL OR last_generated_through IS NULL OR last_generated_through < end_date").
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return recurring.FromDataModelSlice(rows), nil
}

// AdvanceWatermark moves last_generated_through forward, never backward.
// The conditional update is the compare-and-swap that keeps a slow
// concurrent run from regressing a watermark a faster run already advanced;
// losing the race is not an error.
func (r *RecurringRepository) AdvanceWatermark(storeID, id string, through time.Time) error {
	return r.db.Model(&recurringDatamodel.RecurringExpense{}).
		Where("store_id = ? AND id = ?", storeID, id).
		Where("last_generated_through IS NULL OR last_generated_through < ?", recurring.DateOnly(through)).
		Updates(map[string]interface{}{
			"last_generated_through": recurring.DateOnly(through),
			"updated_at":             time.Now(),
		}).Error
}

func (r *RecurringRepository) MarkEnded(storeID, id string) error {
	return r.db.Model(&recurringDatamodel.RecurringExpense{}).
		Where("store_id = ? AND id = ? AND status = ?", storeID, id, recurring.StatusActive).
		Updates(map[string]interface{}{
			"status":     recurring.StatusEnded,
			"updated_at": time.Now(),
		}).Error
}
