package recurring_test

import (
	"errors"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/cashbookhq/cashbook/internal"
	"github.com/cashbookhq/cashbook/internal/recurring"
)

// Mock repository for testing
type mockRecurringRepository struct {
	templates   map[string]*recurring.RecurringExpense
	createError error
	updateError error
	deleteError error
}

func newMockRecurringRepository() *mockRecurringRepository {
	return &mockRecurringRepository{
		templates: make(map[string]*recurring.RecurringExpense),
	}
}

func (m *mockRecurringRepository) Create(re *recurring.RecurringExpense) error {
	if m.createError != nil {
		return m.createError
	}
	m.templates[re.ID] = re
	return nil
}

func (m *mockRecurringRepository) GetByID(storeID, id string) (*recurring.RecurringExpense, error) {
	re, ok := m.templates[id]
	if !ok || re.StoreID != storeID {
		return nil, recurring.ErrNotFound
	}
	copied := *re
	return &copied, nil
}

func (m *mockRecurringRepository) List(storeID string, limit, offset int) ([]*recurring.RecurringExpense, error) {
	var result []*recurring.RecurringExpense
	for _, re := range m.templates {
		if re.StoreID == storeID {
			result = append(result, re)
		}
	}
	return result, nil
}

func (m *mockRecurringRepository) Update(re *recurring.RecurringExpense) error {
	if m.updateError != nil {
		return m.updateError
	}
	m.templates[re.ID] = re
	return nil
}

func (m *mockRecurringRepository) UpdateStatus(storeID, id, status string) error {
	if m.updateError != nil {
		return m.updateError
	}
	if re, ok := m.templates[id]; ok && re.StoreID == storeID {
		re.Status = status
	}
	return nil
}

func (m *mockRecurringRepository) SoftDelete(storeID, id string) error {
	if m.deleteError != nil {
		return m.deleteError
	}
	if re, ok := m.templates[id]; ok && re.StoreID == storeID {
		delete(m.templates, id)
	}
	return nil
}

func (m *mockRecurringRepository) ListDue(asOf time.Time) ([]*recurring.RecurringExpense, error) {
	var result []*recurring.RecurringExpense
	for _, re := range m.templates {
		if re.IsActive() && !recurring.DateOnly(re.StartDate).After(recurring.DateOnly(asOf)) {
			result = append(result, re)
		}
	}
	return result, nil
}

func (m *mockRecurringRepository) AdvanceWatermark(storeID, id string, through time.Time) error {
	if re, ok := m.templates[id]; ok && re.StoreID == storeID {
		if re.LastGeneratedThrough == nil || re.LastGeneratedThrough.Before(through) {
			re.LastGeneratedThrough = &through
		}
	}
	return nil
}

func (m *mockRecurringRepository) MarkEnded(storeID, id string) error {
	if re, ok := m.templates[id]; ok && re.StoreID == storeID && re.Status == recurring.StatusActive {
		re.Status = recurring.StatusEnded
	}
	return nil
}

var _ = Describe("RecurringService", func() {
	var (
		service *recurring.Service
		repo    *mockRecurringRepository
		logger  *slog.Logger
	)

	storeID := "11111111-1111-1111-1111-111111111111"
	otherStoreID := "22222222-2222-2222-2222-222222222222"

	validDTO := func() recurring.CreateRecurringExpenseDTO {
		return recurring.CreateRecurringExpenseDTO{
			Name:          "Office rent",
			Category:      "rent",
			Amount:        decimal.NewFromInt(1500),
			Currency:      "USD",
			Frequency:     recurring.FrequencyMonthly,
			IntervalCount: 1,
			StartDate:     date(2024, time.January, 31),
		}
	}

	BeforeEach(func() {
		repo = newMockRecurringRepository()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = recurring.NewService(repo, logger)
	})

	Describe("CreateTemplate", func() {
		Context("with a valid payload", func() {
			It("should create an active template with a truncated start date", func() {
				dto := validDTO()
				dto.StartDate = time.Date(2024, time.January, 31, 18, 30, 0, 0, time.UTC)

				result, err := service.CreateTemplate(storeID, dto)

				Expect(err).ToNot(HaveOccurred())
				Expect(result.ID).ToNot(BeEmpty())
				Expect(result.StoreID).To(Equal(storeID))
				Expect(result.Status).To(Equal(recurring.StatusActive))
				Expect(result.StartDate).To(Equal(date(2024, time.January, 31)))
				Expect(result.LastGeneratedThrough).To(BeNil())
			})
		})

		Context("when validation fails", func() {
			It("should reject a zero amount", func() {
				dto := validDTO()
				dto.Amount = decimal.Zero

				_, err := service.CreateTemplate(storeID, dto)

				Expect(err).To(HaveOccurred())
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeValidation))
			})

			It("should reject an unknown frequency", func() {
				dto := validDTO()
				dto.Frequency = "quarterly"

				_, err := service.CreateTemplate(storeID, dto)

				Expect(err).To(HaveOccurred())
			})

			It("should reject an end date before the start date", func() {
				dto := validDTO()
				end := date(2023, time.December, 1)
				dto.EndDate = &end

				_, err := service.CreateTemplate(storeID, dto)

				Expect(err).To(HaveOccurred())
			})
		})

		Context("when the repository fails", func() {
			It("should return the repository error", func() {
				repo.createError = errors.New("connection refused")

				_, err := service.CreateTemplate(storeID, validDTO())

				Expect(err).To(MatchError("connection refused"))
			})
		})
	})

	Describe("GetTemplate", func() {
		It("should not return another store's template", func() {
			created, err := service.CreateTemplate(storeID, validDTO())
			Expect(err).ToNot(HaveOccurred())

			_, err = service.GetTemplate(otherStoreID, created.ID)

			Expect(err).To(MatchError(internal.ErrTemplateNotFound))
		})
	})

	Describe("UpdateTemplate", func() {
		var created *recurring.RecurringExpense

		BeforeEach(func() {
			var err error
			created, err = service.CreateTemplate(storeID, validDTO())
			Expect(err).ToNot(HaveOccurred())
		})

		It("should apply forward-looking edits", func() {
			amount := decimal.NewFromInt(1800)
			updated, err := service.UpdateTemplate(storeID, created.ID, recurring.UpdateRecurringExpenseDTO{
				Amount: &amount,
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Amount).To(Equal(amount))
			Expect(updated.StartDate).To(Equal(created.StartDate))
		})

		It("should refuse to edit an ended template", func() {
			repo.templates[created.ID].Status = recurring.StatusEnded

			name := "New name"
			_, err := service.UpdateTemplate(storeID, created.ID, recurring.UpdateRecurringExpenseDTO{
				Name: &name,
			})

			Expect(err).To(MatchError(internal.ErrInvalidStatusChange))
		})

		It("should refuse a merged end date before the start date", func() {
			end := date(2023, time.June, 1)
			_, err := service.UpdateTemplate(storeID, created.ID, recurring.UpdateRecurringExpenseDTO{
				EndDate: &end,
			})

			Expect(err).To(HaveOccurred())
		})

		It("should clear the end date when asked", func() {
			end := date(2024, time.December, 31)
			_, err := service.UpdateTemplate(storeID, created.ID, recurring.UpdateRecurringExpenseDTO{
				EndDate: &end,
			})
			Expect(err).ToNot(HaveOccurred())

			updated, err := service.UpdateTemplate(storeID, created.ID, recurring.UpdateRecurringExpenseDTO{
				ClearEndDate: true,
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(updated.EndDate).To(BeNil())
		})
	})

	Describe("PauseTemplate and ResumeTemplate", func() {
		var created *recurring.RecurringExpense

		BeforeEach(func() {
			var err error
			created, err = service.CreateTemplate(storeID, validDTO())
			Expect(err).ToNot(HaveOccurred())
		})

		It("should pause an active template", func() {
			paused, err := service.PauseTemplate(storeID, created.ID)

			Expect(err).ToNot(HaveOccurred())
			Expect(paused.Status).To(Equal(recurring.StatusPaused))
			Expect(repo.templates[created.ID].Status).To(Equal(recurring.StatusPaused))
		})

		It("should resume a paused template without touching the watermark", func() {
			wm := date(2024, time.February, 29)
			repo.templates[created.ID].LastGeneratedThrough = &wm
			repo.templates[created.ID].Status = recurring.StatusPaused

			resumed, err := service.ResumeTemplate(storeID, created.ID)

			Expect(err).ToNot(HaveOccurred())
			Expect(resumed.Status).To(Equal(recurring.StatusActive))
			Expect(repo.templates[created.ID].LastGeneratedThrough).To(Equal(&wm))
		})

		It("should refuse to pause a paused template", func() {
			repo.templates[created.ID].Status = recurring.StatusPaused

			_, err := service.PauseTemplate(storeID, created.ID)

			Expect(err).To(MatchError(internal.ErrInvalidStatusChange))
		})

		It("should refuse to resume an ended template", func() {
			repo.templates[created.ID].Status = recurring.StatusEnded

			_, err := service.ResumeTemplate(storeID, created.ID)

			Expect(err).To(MatchError(internal.ErrInvalidStatusChange))
		})
	})

	Describe("DeleteTemplate", func() {
		var created *recurring.RecurringExpense

		BeforeEach(func() {
			var err error
			created, err = service.CreateTemplate(storeID, validDTO())
			Expect(err).ToNot(HaveOccurred())
		})

		It("should refuse to delete an active template with pending periods", func() {
			err := service.DeleteTemplate(storeID, created.ID)

			Expect(err).To(MatchError(internal.ErrTemplateStillActive))
		})

		It("should delete a paused template", func() {
			repo.templates[created.ID].Status = recurring.StatusPaused

			err := service.DeleteTemplate(storeID, created.ID)

			Expect(err).ToNot(HaveOccurred())
			Expect(repo.templates).ToNot(HaveKey(created.ID))
		})

		It("should delete an active template once fully covered", func() {
			end := date(2024, time.March, 31)
			wm := date(2024, time.March, 31)
			repo.templates[created.ID].EndDate = &end
			repo.templates[created.ID].LastGeneratedThrough = &wm

			err := service.DeleteTemplate(storeID, created.ID)

			Expect(err).ToNot(HaveOccurred())
		})
	})
})
