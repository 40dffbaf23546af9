package service

import (
	"context"
	"errors"
	"log"

	"gestorfit/personal-app/internal/domain"
	"gestorfit/personal-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationService is the notification sink. Send is fire-and-forget:
// failures are logged, never propagated to the caller.
type NotificationService interface {
	SendNotification(ctx context.Context, userID primitive.ObjectID, message string)
	ListForUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID primitive.ObjectID) error
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
}

// NewNotificationService creates a new instance of notificationService.
func NewNotificationService(notificationRepo repository.NotificationRepository) NotificationService {
	return &notificationService{notificationRepo: notificationRepo}
}

// SendNotification records a notification for the user, swallowing errors.
func (s *notificationService) SendNotification(ctx context.Context, userID primitive.ObjectID, message string) {
	notification := &domain.Notification{
		UserID:  userID,
		Message: message,
	}
	if _, err := s.notificationRepo.Create(ctx, notification); err != nil {
		log.Printf("WARN: failed to send notification to user %s: %v", userID.Hex(), err)
	}
}

// ListForUser returns the user's notifications.
func (s *notificationService) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]domain.Notification, error) {
	notifications, err := s.notificationRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []domain.Notification{}
	}
	return notifications, nil
}

// MarkRead flags one of the user's notifications as read.
func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID primitive.ObjectID) error {
	err := s.notificationRepo.MarkRead(ctx, notificationID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.ErrNotFound("notificação não encontrada")
	}
	return err
}
