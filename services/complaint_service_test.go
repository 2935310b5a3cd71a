package services

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"tiffin-service/models"

	apperrors "tiffin-service/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memComplaintRepo struct {
	mu         sync.Mutex
	complaints []*models.Complaint
}

func (m *memComplaintRepo) Create(ctx context.Context, complaint *models.Complaint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if complaint.ID == uuid.Nil {
		complaint.ID = uuid.New()
	}
	cp := *complaint
	m.complaints = append(m.complaints, &cp)
	return nil
}

func (m *memComplaintRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.complaints {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memComplaintRepo) ListRecent(ctx context.Context, limit int) ([]models.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Complaint, 0, len(m.complaints))
	for _, c := range m.complaints {
		out = append(out, *c)
	}
	return out, nil
}

func (m *memComplaintRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.complaints {
		if c.ID == id {
			c.Status = status
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func newComplaintFixture() (*ComplaintService, *memComplaintRepo, *memCustomerRepo, *countingNotifier) {
	complaints := &memComplaintRepo{}
	customers := &memCustomerRepo{}
	notifier := &countingNotifier{}
	svc := NewComplaintService(complaints, customers, notifier, zap.NewNop())
	return svc, complaints, customers, notifier
}

func TestSubmitComplaintPersistsAndNotifies(t *testing.T) {
	svc, complaints, customers, notifier := newComplaintFixture()

	c, err := svc.Submit(context.Background(), &SubmitComplaintRequest{
		Name:          "Asha",
		Phone:         "9999999999",
		Place:         "MG Road",
		Category:      "Lunch",
		ComplaintType: "Delivery",
		Description:   "Box arrived cold",
	})
	require.NoError(t, err)

	assert.Equal(t, models.ComplaintStatusNew, c.Status)
	require.NotNil(t, c.CustomerID)
	assert.Equal(t, 1, notifier.count())

	stored, err := complaints.FindByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Delivery", stored.ComplaintType)

	customers.mu.Lock()
	assert.Len(t, customers.customers, 1)
	customers.mu.Unlock()
}

func TestSubmitComplaintRequiresNameAndPhone(t *testing.T) {
	svc, complaints, _, notifier := newComplaintFixture()

	_, err := svc.Submit(context.Background(), &SubmitComplaintRequest{Name: "Asha"})
	assert.True(t, stderrors.Is(err, apperrors.ErrValidation))

	_, err = svc.Submit(context.Background(), &SubmitComplaintRequest{Phone: "9999999999"})
	assert.True(t, stderrors.Is(err, apperrors.ErrValidation))

	complaints.mu.Lock()
	assert.Len(t, complaints.complaints, 0)
	complaints.mu.Unlock()
	assert.Equal(t, 0, notifier.count())
}

func TestUpdateComplaintStatus(t *testing.T) {
	svc, complaints, _, _ := newComplaintFixture()

	c, err := svc.Submit(context.Background(), &SubmitComplaintRequest{
		Name: "Asha", Phone: "9999999999", ComplaintType: "Food",
	})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(context.Background(), c.ID, models.ComplaintStatusInProgress))
	stored, err := complaints.FindByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ComplaintStatusInProgress, stored.Status)

	err = svc.UpdateStatus(context.Background(), c.ID, "escalated-to-moon")
	assert.True(t, stderrors.Is(err, apperrors.ErrValidation))

	err = svc.UpdateStatus(context.Background(), uuid.New(), models.ComplaintStatusResolved)
	assert.True(t, stderrors.Is(err, apperrors.ErrNotFound))
}
