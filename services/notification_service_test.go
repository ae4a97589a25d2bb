package services

import (
	"errors"
	"strings"
	"testing"

	"event-finance-api/models"
)

func TestNotifyCreatesRowAndQueuesEmail(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService(db)

	org := seedOrganization(t, db, "org")
	user := seedUser(t, db, org.OrgID, "user@test.io", models.RoleViewer)

	orgID := org.OrgID
	n, err := svc.Notify(NotifyInput{
		UserID:         user.UserID,
		OrganizationID: &orgID,
		Type:           "info",
		Title:          "Budget updated",
		Message:        "The venue budget changed.",
		Metadata:       map[string]interface{}{"event_id": 7},
		SendEmail:      true,
	})
	if err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if n.NotificationID == 0 {
		t.Error("notification row not persisted")
	}
	if n.IsRead {
		t.Error("new notification marked read")
	}
	if !strings.Contains(n.Metadata, `"event_id":7`) {
		t.Errorf("metadata = %q, want embedded event_id", n.Metadata)
	}
	if svc.Queue().Len() != 1 {
		t.Errorf("queue len = %d, want 1", svc.Queue().Len())
	}

	// Without SendEmail the row is created but nothing is queued.
	if _, err := svc.Notify(NotifyInput{
		UserID: user.UserID,
		Type:   "info",
		Title:  "Quiet",
	}); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if svc.Queue().Len() != 1 {
		t.Errorf("queue len = %d, want still 1", svc.Queue().Len())
	}

	var rows int64
	if err := db.Model(&models.Notification{}).Count(&rows).Error; err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	if rows != 2 {
		t.Errorf("notification rows = %d, want 2", rows)
	}
}

func TestDeliverQueuedSendsOnce(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService(db)

	org := seedOrganization(t, db, "org")
	user := seedUser(t, db, org.OrgID, "user@test.io", models.RoleViewer)

	var sent []string
	orig := sendMailFunc
	sendMailFunc = func(to []string, subject, html string) error {
		sent = append(sent, strings.Join(to, ","))
		if !strings.Contains(html, "Dear") {
			t.Errorf("body missing greeting: %q", html)
		}
		return nil
	}
	defer func() { sendMailFunc = orig }()

	if _, err := svc.Notify(NotifyInput{
		UserID: user.UserID, Type: "info", Title: "Hello", Message: "line one\nline two", SendEmail: true,
	}); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	svc.DeliverQueued()
	if len(sent) != 1 || sent[0] != "user@test.io" {
		t.Fatalf("sent = %v, want one delivery to user@test.io", sent)
	}
	if svc.Queue().Len() != 0 {
		t.Errorf("queue len after drain = %d, want 0", svc.Queue().Len())
	}

	// A second drain finds nothing.
	svc.DeliverQueued()
	if len(sent) != 1 {
		t.Errorf("sent after second drain = %d, want still 1", len(sent))
	}
}

func TestDeliverQueuedDropsFailedSends(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService(db)

	org := seedOrganization(t, db, "org")
	user := seedUser(t, db, org.OrgID, "user@test.io", models.RoleViewer)

	attempts := 0
	orig := sendMailFunc
	sendMailFunc = func(to []string, subject, html string) error {
		attempts++
		return errors.New("smtp down")
	}
	defer func() { sendMailFunc = orig }()

	if _, err := svc.Notify(NotifyInput{
		UserID: user.UserID, Type: "error", Title: "Oops", SendEmail: true,
	}); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	svc.DeliverQueued()
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
	// At-most-once: the failed job is gone, not requeued.
	if svc.Queue().Len() != 0 {
		t.Errorf("queue len after failed send = %d, want 0", svc.Queue().Len())
	}
	svc.DeliverQueued()
	if attempts != 1 {
		t.Errorf("attempts after second drain = %d, want still 1", attempts)
	}
}

func TestDeliverQueuedSkipsMissingUser(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService(db)

	attempts := 0
	orig := sendMailFunc
	sendMailFunc = func(to []string, subject, html string) error {
		attempts++
		return nil
	}
	defer func() { sendMailFunc = orig }()

	svc.Queue().Enqueue(MailJob{UserID: 9999, Title: "Ghost"})
	svc.DeliverQueued()
	if attempts != 0 {
		t.Errorf("attempts = %d, want 0 for unknown recipient", attempts)
	}
}

func TestNotifyOrgAdminsFanOut(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService(db)

	org := seedOrganization(t, db, "org")
	seedUser(t, db, org.OrgID, "a1@test.io", models.RoleAdmin)
	seedUser(t, db, org.OrgID, "a2@test.io", models.RoleAdmin)
	seedUser(t, db, org.OrgID, "viewer@test.io", models.RoleViewer)

	other := seedOrganization(t, db, "other")
	seedUser(t, db, other.OrgID, "outsider@test.io", models.RoleAdmin)

	if err := svc.NotifyOrgAdmins(org.OrgID, "info", "Pending decision", "msg", nil, true); err != nil {
		t.Fatalf("NotifyOrgAdmins() error = %v", err)
	}

	var rows int64
	if err := db.Model(&models.Notification{}).Count(&rows).Error; err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	if rows != 2 {
		t.Errorf("notification rows = %d, want 2 (own-org admins only)", rows)
	}
	if svc.Queue().Len() != 2 {
		t.Errorf("queue len = %d, want 2", svc.Queue().Len())
	}
}

func TestNotifyEventManagersDedupesCreator(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService(db)

	org := seedOrganization(t, db, "org")
	creator := seedUser(t, db, org.OrgID, "mgr1@test.io", models.RoleEventManager)
	seedUser(t, db, org.OrgID, "mgr2@test.io", models.RoleEventManager)
	event := seedEvent(t, db, org.OrgID, creator.UserID, "gala")

	if err := svc.NotifyEventManagers(event.EventID, "info", "Status changed", "msg", nil, false); err != nil {
		t.Fatalf("NotifyEventManagers() error = %v", err)
	}

	// The creator is also a manager and must be notified exactly once.
	var rows int64
	if err := db.Model(&models.Notification{}).Count(&rows).Error; err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	if rows != 2 {
		t.Errorf("notification rows = %d, want 2", rows)
	}
	var creatorRows int64
	if err := db.Model(&models.Notification{}).
		Where("user_id = ?", creator.UserID).Count(&creatorRows).Error; err != nil {
		t.Fatalf("count creator notifications: %v", err)
	}
	if creatorRows != 1 {
		t.Errorf("creator notification rows = %d, want 1", creatorRows)
	}
}
