package services

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"strings"
	"sync"
	"time"

	"event-finance-api/config"
	"event-finance-api/models"

	"gorm.io/gorm"
)

// sendMailFunc is an indirection over config.SendMail so tests can stub
// the SMTP boundary.
var sendMailFunc = config.SendMail

// MailJob is one queued email delivery. Jobs live only in process memory;
// a restart drops whatever is still queued. Email here is a convenience
// copy of the in-app notification, not a record of truth.
type MailJob struct {
	UserID   uint
	Type     string
	Title    string
	Message  string
	Metadata map[string]interface{}
}

// MailQueue is an unbounded in-process FIFO drained by the mail worker.
type MailQueue struct {
	mu   sync.Mutex
	jobs []MailJob
}

func (q *MailQueue) Enqueue(job MailJob) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
}

// DrainAll pops every queued job.
func (q *MailQueue) DrainAll() []MailJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	jobs := q.jobs
	q.jobs = nil
	return jobs
}

func (q *MailQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// NotificationService creates in-app notification rows and optionally
// queues best-effort email copies. All dispatch entry points are safe to
// call with a failing mailer: a failed send is logged and the job dropped.
type NotificationService struct {
	db    *gorm.DB
	queue *MailQueue
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db, queue: &MailQueue{}}
}

// Queue exposes the mail queue, mainly for tests and the worker loop.
func (s *NotificationService) Queue() *MailQueue { return s.queue }

type NotifyInput struct {
	UserID         uint
	OrganizationID *uint
	Type           string // info|success|warning|error
	Title          string
	Message        string
	Metadata       map[string]interface{}
	SendEmail      bool
}

// Notify creates the notification row synchronously and, when requested,
// enqueues an email job for the polling worker.
func (s *NotificationService) Notify(in NotifyInput) (*models.Notification, error) {
	metadata := ""
	if in.Metadata != nil {
		raw, err := json.Marshal(in.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshal notification metadata: %w", err)
		}
		metadata = string(raw)
	}

	n := models.Notification{
		UserID:         in.UserID,
		OrganizationID: in.OrganizationID,
		Type:           in.Type,
		Title:          in.Title,
		Message:        in.Message,
		Metadata:       metadata,
		IsRead:         false,
		CreateAt:       time.Now(),
	}
	if err := s.db.Create(&n).Error; err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	if in.SendEmail {
		s.queue.Enqueue(MailJob{
			UserID:   in.UserID,
			Type:     in.Type,
			Title:    in.Title,
			Message:  in.Message,
			Metadata: in.Metadata,
		})
	}

	return &n, nil
}

// NotifyOrgAdmins fans one notification out to every admin of the
// organization.
func (s *NotificationService) NotifyOrgAdmins(orgID uint, notifType, title, message string, metadata map[string]interface{}, sendEmail bool) error {
	var admins []models.User
	if err := s.db.Where("organization_id = ? AND role = ? AND delete_at IS NULL", orgID, models.RoleAdmin).
		Find(&admins).Error; err != nil {
		return fmt.Errorf("load organization %d admins: %w", orgID, err)
	}

	for _, admin := range admins {
		if _, err := s.Notify(NotifyInput{
			UserID:         admin.UserID,
			OrganizationID: &orgID,
			Type:           notifType,
			Title:          title,
			Message:        message,
			Metadata:       metadata,
			SendEmail:      sendEmail,
		}); err != nil {
			return err
		}
	}

	return nil
}

// NotifyEventManagers fans one notification out to the event creator and
// every event manager of the organization, deduplicated.
func (s *NotificationService) NotifyEventManagers(eventID uint, notifType, title, message string, metadata map[string]interface{}, sendEmail bool) error {
	var event models.Event
	if err := s.db.Where("event_id = ? AND delete_at IS NULL", eventID).First(&event).Error; err != nil {
		return fmt.Errorf("load event %d: %w", eventID, err)
	}

	var managers []models.User
	if err := s.db.Where("organization_id = ? AND role = ? AND delete_at IS NULL",
		event.OrganizationID, models.RoleEventManager).
		Find(&managers).Error; err != nil {
		return fmt.Errorf("load organization %d managers: %w", event.OrganizationID, err)
	}

	seen := map[uint]bool{}
	recipients := make([]uint, 0, len(managers)+1)
	if event.CreatedBy != 0 {
		recipients = append(recipients, event.CreatedBy)
		seen[event.CreatedBy] = true
	}
	for _, m := range managers {
		if !seen[m.UserID] {
			recipients = append(recipients, m.UserID)
			seen[m.UserID] = true
		}
	}

	orgID := event.OrganizationID
	for _, uid := range recipients {
		if _, err := s.Notify(NotifyInput{
			UserID:         uid,
			OrganizationID: &orgID,
			Type:           notifType,
			Title:          title,
			Message:        message,
			Metadata:       metadata,
			SendEmail:      sendEmail,
		}); err != nil {
			return err
		}
	}

	return nil
}

// StartMailWorker drains the queue on a fixed interval until the returned
// stop function is called. Delivery is at-most-once: a failed send is
// logged and the job dropped, with no retry.
func (s *NotificationService) StartMailWorker(interval time.Duration) (stop func()) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.DeliverQueued()
			}
		}
	}()
	return func() { close(done) }
}

// DeliverQueued sends every currently queued mail job. Exposed separately
// from the worker loop so tests can drain synchronously.
func (s *NotificationService) DeliverQueued() {
	for _, job := range s.queue.DrainAll() {
		var user models.User
		if err := s.db.Where("user_id = ? AND delete_at IS NULL", job.UserID).First(&user).Error; err != nil {
			log.Printf("notification email skipped, user %d not found: %v", job.UserID, err)
			continue
		}
		if user.Email == "" {
			continue
		}

		html := buildNotificationEmailHTML(job.Title, user.FullName, job.Message)
		if err := sendMailFunc([]string{user.Email}, job.Title, html); err != nil {
			log.Printf("notification email send failed (subject=%q to=%s): %v", job.Title, user.Email, err)
		}
	}
}

// buildNotificationEmailHTML renders the formal HTML body for notification
// emails. The message is escaped and newlines become <br />.
func buildNotificationEmailHTML(subject, recipientName, message string) string {
	name := strings.TrimSpace(recipientName)
	if name == "" {
		name = "there"
	}

	escapedSubject := template.HTMLEscapeString(subject)
	escapedGreeting := template.HTMLEscapeString(fmt.Sprintf("Dear %s,", name))
	escapedMessage := template.HTMLEscapeString(strings.TrimSpace(message))
	escapedMessage = strings.ReplaceAll(strings.ReplaceAll(escapedMessage, "\r\n", "\n"), "\r", "\n")
	escapedMessage = strings.ReplaceAll(escapedMessage, "\n", "<br />")

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
</head>
<body style="margin:0;padding:0;background-color:#f9fafb;font-family:'Segoe UI',Tahoma,Arial,sans-serif;">
<div style="max-width:640px;margin:0 auto;padding:24px 20px;">
  <div style="background-color:#ffffff;border:1px solid #e5e7eb;border-radius:12px;padding:24px 24px 28px 24px;">
    <p style="margin:0 0 16px 0;font-size:16px;line-height:1.7;color:#111827;">%s</p>
    <p style="margin:0 0 0 0;font-size:16px;line-height:1.7;color:#111827;word-break:break-word;">%s</p>
  </div>
</div>
</body>
</html>`, escapedSubject, escapedGreeting, escapedMessage)
}
