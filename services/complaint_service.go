package services

import (
	"context"
	"fmt"

	"tiffin-service/models"
	"tiffin-service/repository"

	apperrors "tiffin-service/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SubmitComplaintRequest struct {
	Name          string `json:"Name" binding:"required"`
	Phone         string `json:"Phone" binding:"required"`
	Place         string `json:"Place"`
	Category      string `json:"Category"`    // Breakfast, Lunch, Dinner
	ComplaintType string `json:"Complaint"`   // Delivery, Food, Other
	Description   string `json:"Description"`
}

// ComplaintService records delivery complaints. Complaints never touch the
// order lifecycle; the admin notification is best-effort.
type ComplaintService struct {
	complaints repository.ComplaintRepository
	customers  repository.CustomerRepository
	notifier   Notifier
	logger     *zap.Logger
}

func NewComplaintService(
	complaints repository.ComplaintRepository,
	customers repository.CustomerRepository,
	notifier Notifier,
	logger *zap.Logger,
) *ComplaintService {
	return &ComplaintService{
		complaints: complaints,
		customers:  customers,
		notifier:   notifier,
		logger:     logger,
	}
}

func (s *ComplaintService) Submit(ctx context.Context, req *SubmitComplaintRequest) (*models.Complaint, error) {
	if req.Name == "" || req.Phone == "" {
		return nil, apperrors.Wrap(apperrors.ErrValidation, fmt.Errorf("name and phone are required"))
	}

	var customerID *uuid.UUID
	cust, err := s.customers.Resolve(ctx, req.Name, "", req.Phone)
	if err != nil {
		s.logger.Error("Customer resolution failed during complaint intake", zap.Error(err))
	} else {
		customerID = &cust.ID
	}

	complaint := &models.Complaint{
		Name:          req.Name,
		Phone:         req.Phone,
		Place:         req.Place,
		Category:      req.Category,
		ComplaintType: req.ComplaintType,
		Description:   req.Description,
		Status:        models.ComplaintStatusNew,
		CustomerID:    customerID,
	}
	if err := s.complaints.Create(ctx, complaint); err != nil {
		return nil, err
	}

	subject := fmt.Sprintf("New Complaint Received - %s", req.ComplaintType)
	body := fmt.Sprintf(
		"New complaint received:\n\n"+
			"Name: %s\nPhone: %s\nPlace: %s\nCategory: %s\nType: %s\nDescription: %s\n\n"+
			"Complaint ID: %s\nTime: %s\n\n"+
			"Please check the admin dashboard.\n",
		req.Name, req.Phone, req.Place, req.Category, req.ComplaintType, req.Description,
		complaint.ID, complaint.CreatedAt,
	)
	s.notifier.Notify(ctx, subject, body)

	return complaint, nil
}

func (s *ComplaintService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	switch status {
	case models.ComplaintStatusNew, models.ComplaintStatusInProgress, models.ComplaintStatusResolved:
	default:
		return apperrors.Wrap(apperrors.ErrValidation, fmt.Errorf("unknown complaint status %q", status))
	}
	return s.complaints.UpdateStatus(ctx, id, status)
}

func (s *ComplaintService) ListRecent(ctx context.Context, limit int) ([]models.Complaint, error) {
	return s.complaints.ListRecent(ctx, limit)
}
