package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"busbook/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationReservationCreated NotificationType = "RESERVATION_CREATED"
	NotificationReservationExpired NotificationType = "RESERVATION_EXPIRED"
	NotificationPaymentSucceeded   NotificationType = "PAYMENT_SUCCEEDED"
	NotificationPaymentFailed      NotificationType = "PAYMENT_FAILED"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService handles notification delivery. Delivery channels
// (email, SMS, push) belong to the excluded outer layers; here the events
// are emitted to the structured log.
type NotificationService struct {
	logger *logrus.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(logger *logrus.Logger) *NotificationService {
	if logger == nil {
		logger = logrus.New()
	}
	return &NotificationService{logger: logger}
}

// NotifyReservationCreated notifies the customer that seats are held,
// pending payment before the deadline.
func (s *NotificationService) NotifyReservationCreated(ctx context.Context, reservation *domain.Reservation) error {
	return s.send(ctx, Notification{
		Type:        NotificationReservationCreated,
		RecipientID: reservation.CustomerID,
		Title:       "Seats Held",
		Message: fmt.Sprintf("%d seat(s) held. Complete payment before %s.",
			reservation.Quantity, reservation.ExpiresAt.Format("15:04 Jan 02")),
		Data: map[string]interface{}{
			"reservation_id": reservation.ID,
			"trip_id":        reservation.TripID,
			"quantity":       reservation.Quantity,
			"expires_at":     reservation.ExpiresAt,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyReservationExpired notifies the customer that an unpaid reservation
// lapsed and its seats were released.
func (s *NotificationService) NotifyReservationExpired(ctx context.Context, reservation *domain.Reservation) error {
	return s.send(ctx, Notification{
		Type:        NotificationReservationExpired,
		RecipientID: reservation.CustomerID,
		Title:       "Reservation Expired",
		Message:     "Your reservation expired unpaid and the seats were released.",
		Data: map[string]interface{}{
			"reservation_id": reservation.ID,
			"trip_id":        reservation.TripID,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyPaymentSucceeded notifies the customer of a successful payment.
func (s *NotificationService) NotifyPaymentSucceeded(ctx context.Context, attempt *domain.PaymentAttempt, customerID string) error {
	return s.send(ctx, Notification{
		Type:        NotificationPaymentSucceeded,
		RecipientID: customerID,
		Title:       "Payment Successful",
		Message:     fmt.Sprintf("Payment of %.2f was successful. Your ticket is confirmed.", attempt.Amount),
		Data: map[string]interface{}{
			"payment_id":     attempt.ID,
			"reservation_id": attempt.ReservationID,
			"amount":         attempt.Amount,
		},
		CreatedAt: time.Now(),
	})
}

// NotifyPaymentFailed notifies the customer of a failed payment.
func (s *NotificationService) NotifyPaymentFailed(ctx context.Context, attempt *domain.PaymentAttempt, customerID string) error {
	return s.send(ctx, Notification{
		Type:        NotificationPaymentFailed,
		RecipientID: customerID,
		Title:       "Payment Failed",
		Message:     fmt.Sprintf("Payment of %.2f failed. Please try again before your hold expires.", attempt.Amount),
		Data: map[string]interface{}{
			"payment_id":     attempt.ID,
			"reservation_id": attempt.ReservationID,
			"amount":         attempt.Amount,
			"reason":         attempt.FailureReason,
		},
		CreatedAt: time.Now(),
	})
}

func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	s.logger.WithFields(logrus.Fields{
		"type":      notification.Type,
		"recipient": notification.RecipientID,
		"title":     notification.Title,
	}).Info(notification.Message)

	return nil
}
