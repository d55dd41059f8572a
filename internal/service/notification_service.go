package service

import (
	"fmt"

	"github.com/resend/resend-go/v2"

	"github.com/fitpulse/insights/internal/models"
	"github.com/fitpulse/insights/pkg/logger"
)

// EmailSender abstracts the outbound email channel
type EmailSender interface {
	Send(to, subject, html string) error
}

// ResendEmailSender sends email through the Resend API
type ResendEmailSender struct {
	client *resend.Client
	from   string
}

func NewResendEmailSender(apiKey, from string) *ResendEmailSender {
	return &ResendEmailSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (s *ResendEmailSender) Send(to, subject, html string) error {
	_, err := s.client.Emails.Send(&resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	})
	return err
}

// MockEmailSender logs instead of sending. Used in development and tests.
type MockEmailSender struct {
	Sent []MockEmail
}

type MockEmail struct {
	To      string
	Subject string
	HTML    string
}

func NewMockEmailSender() *MockEmailSender {
	return &MockEmailSender{}
}

func (s *MockEmailSender) Send(to, subject, html string) error {
	s.Sent = append(s.Sent, MockEmail{To: to, Subject: subject, HTML: html})
	logger.Info("MOCK EMAIL: would send", map[string]interface{}{
		"to":      to,
		"subject": subject,
	})
	return nil
}

// NotificationService is the fire-and-forget side channel for detector
// findings. Delivery is not guaranteed; a failed send is logged and never
// blocks detection.
type NotificationService struct {
	sender     EmailSender
	adminEmail string
}

func NewNotificationService(sender EmailSender, adminEmail string) *NotificationService {
	return &NotificationService{sender: sender, adminEmail: adminEmail}
}

// RequestCancellationReason queues the cancellation-reason collection flow
// for a cancelled booking. The actual collection dialogue lives in the
// portal; this side only raises the trigger.
func (n *NotificationService) RequestCancellationReason(event models.SystemEvent) error {
	logger.Info("Cancellation reason collection triggered", map[string]interface{}{
		"event_id":  event.ID,
		"client_id": event.ClientID,
		"class_id":  event.ClassID,
	})

	if n.adminEmail == "" {
		return nil
	}
	return n.sender.Send(
		n.adminEmail,
		"Booking cancelled – reason collection pending",
		fmt.Sprintf("<p>Client %s cancelled a booking for class %s. A cancellation reason has been requested.</p>",
			event.ClientID, event.ClassID),
	)
}

// NotifyAtRisk surfaces a newly detected at-risk client.
func (n *NotificationService) NotifyAtRisk(record *models.AtRiskClient) {
	if n.adminEmail == "" {
		return
	}
	err := n.sender.Send(
		n.adminEmail,
		fmt.Sprintf("At-risk client detected (%s)", record.RiskLevel),
		fmt.Sprintf("<p>Client %s has been inactive for %d days (risk level %s, revenue at risk %.2f).</p>",
			record.ClientID, record.DaysInactive, record.RiskLevel, record.RevenueAtRisk),
	)
	if err != nil {
		logger.Error("Failed to send at-risk notification", err, map[string]interface{}{
			"client_id": record.ClientID,
		})
	}
}

// NotifyLeakage surfaces a newly created leakage record.
func (n *NotificationService) NotifyLeakage(record *models.RevenueLeakageRecord) {
	if n.adminEmail == "" {
		return
	}
	err := n.sender.Send(
		n.adminEmail,
		"Revenue leakage detected",
		fmt.Sprintf("<p>Unrecovered %.2f from class %s (enrollment %s): %s</p>",
			record.AmountLost, record.ClassID, record.EnrollmentID, record.Description),
	)
	if err != nil {
		logger.Error("Failed to send leakage notification", err, map[string]interface{}{
			"record_id": record.ID,
		})
	}
}
