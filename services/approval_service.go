package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"event-finance-api/models"

	"gorm.io/gorm"
)

// Approval workflow errors. Controllers map these to 400/403/404; all of
// them are raised before any write, so a failed call leaves no trace.
var (
	ErrExpenseNotFound         = errors.New("expense not found")
	ErrExpenseNotPending       = errors.New("expense is not pending")
	ErrInvalidApprovalAction   = errors.New("action must be approve or reject")
	ErrApproverRoleForbidden   = errors.New("only admins and event managers can approve or reject expenses")
	ErrManagerAlreadyApproved  = errors.New("already approved by manager")
	ErrManagerApprovalRequired = errors.New("manager must approve first")
	ErrAdminAlreadyApproved    = errors.New("already approved by admin")
)

// Actions accepted by ApproveOrReject.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// ApprovalService enforces the two-tier expense approval workflow:
//
//	Pending --reject (manager or admin)--------------> Rejected
//	Pending --approve (manager)--> Pending (logged) --approve (admin)--> Approved
//
// A manager-tier approval is recorded in the approval log but does not
// change the expense status; only the admin-tier approval does. Approved
// and Rejected are terminal.
type ApprovalService struct {
	db            *gorm.DB
	notifications *NotificationService
}

func NewApprovalService(db *gorm.DB, notifications *NotificationService) *ApprovalService {
	return &ApprovalService{db: db, notifications: notifications}
}

// ManagerApproved reports whether a manager-tier approval has been recorded
// for the expense. This is the derived intermediate state between the two
// tiers.
func (s *ApprovalService) ManagerApproved(expenseID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.ApprovalRecord{}).
		Where("expense_id = ? AND approver_role = ? AND action = ?",
			expenseID, models.RoleEventManager, models.ApprovalActionApproved).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count manager approvals for expense %d: %w", expenseID, err)
	}
	return count > 0, nil
}

func (s *ApprovalService) adminApproved(expenseID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.ApprovalRecord{}).
		Where("expense_id = ? AND approver_role = ? AND action = ?",
			expenseID, models.RoleAdmin, models.ApprovalActionApproved).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count admin approvals for expense %d: %w", expenseID, err)
	}
	return count > 0, nil
}

// ApproveOrReject runs one approval-workflow transition. Every validation
// happens before the first write; notification failures after the writes
// are logged and never roll the transition back.
func (s *ApprovalService) ApproveOrReject(expenseID uint, action string, actorID uint, actorRole, comments string) (*models.Expense, error) {
	if action != ActionApprove && action != ActionReject {
		return nil, ErrInvalidApprovalAction
	}
	if actorRole != models.RoleAdmin && actorRole != models.RoleEventManager {
		return nil, ErrApproverRoleForbidden
	}

	var expense models.Expense
	if err := s.db.Where("expense_id = ?", expenseID).First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("load expense %d: %w", expenseID, err)
	}
	if expense.Status != models.ExpenseStatusPending {
		return nil, ErrExpenseNotPending
	}

	if action == ActionReject {
		return s.reject(&expense, actorID, actorRole, comments)
	}

	managerDone, err := s.ManagerApproved(expenseID)
	if err != nil {
		return nil, err
	}

	switch actorRole {
	case models.RoleEventManager:
		if managerDone {
			return nil, ErrManagerAlreadyApproved
		}
		return s.approveManagerTier(&expense, actorID, comments)
	default: // admin
		if !managerDone {
			return nil, ErrManagerApprovalRequired
		}
		adminDone, err := s.adminApproved(expenseID)
		if err != nil {
			return nil, err
		}
		if adminDone {
			return nil, ErrAdminAlreadyApproved
		}
		return s.approveAdminTier(&expense, actorID, comments)
	}
}

func (s *ApprovalService) reject(expense *models.Expense, actorID uint, actorRole, comments string) (*models.Expense, error) {
	now := time.Now()
	record := models.ApprovalRecord{
		ExpenseID:    expense.ExpenseID,
		ApproverID:   actorID,
		ApproverRole: actorRole,
		Action:       models.ApprovalActionRejected,
		Comments:     comments,
		ActionAt:     now,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return nil, fmt.Errorf("record rejection for expense %d: %w", expense.ExpenseID, err)
	}

	expense.Status = models.ExpenseStatusRejected
	expense.UpdateAt = now
	if err := s.db.Save(expense).Error; err != nil {
		return nil, fmt.Errorf("update expense %d status: %w", expense.ExpenseID, err)
	}

	s.notifyCreator(expense, "warning", "Expense rejected",
		fmt.Sprintf("Your expense %q (%.2f) was rejected. %s", expense.Description, expense.Amount, comments))

	return expense, nil
}

// approveManagerTier records the first-tier sign-off. The expense stays
// Pending until an admin completes the second tier.
func (s *ApprovalService) approveManagerTier(expense *models.Expense, actorID uint, comments string) (*models.Expense, error) {
	record := models.ApprovalRecord{
		ExpenseID:    expense.ExpenseID,
		ApproverID:   actorID,
		ApproverRole: models.RoleEventManager,
		Action:       models.ApprovalActionApproved,
		Comments:     comments,
		ActionAt:     time.Now(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		return nil, fmt.Errorf("record manager approval for expense %d: %w", expense.ExpenseID, err)
	}

	s.notifyCreator(expense, "info", "Expense approved by manager",
		fmt.Sprintf("Your expense %q (%.2f) passed manager review and is awaiting final approval.",
			expense.Description, expense.Amount))

	if err := s.notifications.NotifyOrgAdmins(expense.OrganizationID, "info",
		"Expense awaiting final approval",
		fmt.Sprintf("Expense %q (%.2f) has manager approval and needs an admin decision.",
			expense.Description, expense.Amount),
		map[string]interface{}{"expense_id": expense.ExpenseID},
		true,
	); err != nil {
		log.Printf("admin fan-out failed for expense %d: %v", expense.ExpenseID, err)
	}

	return expense, nil
}

func (s *ApprovalService) approveAdminTier(expense *models.Expense, actorID uint, comments string) (*models.Expense, error) {
	now := time.Now()
	record := models.ApprovalRecord{
		ExpenseID:    expense.ExpenseID,
		ApproverID:   actorID,
		ApproverRole: models.RoleAdmin,
		Action:       models.ApprovalActionApproved,
		Comments:     comments,
		ActionAt:     now,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return nil, fmt.Errorf("record admin approval for expense %d: %w", expense.ExpenseID, err)
	}

	expense.Status = models.ExpenseStatusApproved
	expense.UpdateAt = now
	if err := s.db.Save(expense).Error; err != nil {
		return nil, fmt.Errorf("update expense %d status: %w", expense.ExpenseID, err)
	}

	if expense.BudgetItemID != nil {
		if err := s.rollupBudgetItem(*expense.BudgetItemID); err != nil {
			return nil, err
		}
		s.warnIfCategoryOverBudget(expense)
	}

	s.notifyCreator(expense, "success", "Expense approved",
		fmt.Sprintf("Your expense %q (%.2f) received final approval.", expense.Description, expense.Amount))

	return expense, nil
}

// rollupBudgetItem recomputes the item's actual_cost as the full sum of its
// Approved expenses. A full rescan every time avoids drift from incremental
// updates.
func (s *ApprovalService) rollupBudgetItem(budgetItemID uint) error {
	var total float64
	err := s.db.Model(&models.Expense{}).
		Where("budget_item_id = ? AND status = ?", budgetItemID, models.ExpenseStatusApproved).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return fmt.Errorf("sum approved expenses for budget item %d: %w", budgetItemID, err)
	}

	err = s.db.Model(&models.BudgetItem{}).
		Where("budget_item_id = ?", budgetItemID).
		Updates(map[string]interface{}{"actual_cost": total, "update_at": time.Now()}).Error
	if err != nil {
		return fmt.Errorf("update budget item %d actual cost: %w", budgetItemID, err)
	}

	return nil
}

// warnIfCategoryOverBudget logs (never blocks) when the event's approved
// spend in the expense's category exceeds the category's estimated budget.
func (s *ApprovalService) warnIfCategoryOverBudget(expense *models.Expense) {
	var estimated float64
	if err := s.db.Model(&models.BudgetItem{}).
		Where("event_id = ? AND category = ? AND delete_at IS NULL", expense.EventID, expense.Category).
		Select("COALESCE(SUM(estimated_cost), 0)").
		Scan(&estimated).Error; err != nil {
		log.Printf("category budget check failed for expense %d: %v", expense.ExpenseID, err)
		return
	}

	var approved float64
	if err := s.db.Model(&models.Expense{}).
		Where("event_id = ? AND category = ? AND status = ?",
			expense.EventID, expense.Category, models.ExpenseStatusApproved).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&approved).Error; err != nil {
		log.Printf("category budget check failed for expense %d: %v", expense.ExpenseID, err)
		return
	}

	if approved > estimated {
		log.Printf("warning: event %d category %s approved spend %.2f exceeds estimated budget %.2f",
			expense.EventID, expense.Category, approved, estimated)
	}
}

func (s *ApprovalService) notifyCreator(expense *models.Expense, notifType, title, message string) {
	orgID := expense.OrganizationID
	if _, err := s.notifications.Notify(NotifyInput{
		UserID:         expense.CreatedBy,
		OrganizationID: &orgID,
		Type:           notifType,
		Title:          title,
		Message:        message,
		Metadata:       map[string]interface{}{"expense_id": expense.ExpenseID},
		SendEmail:      true,
	}); err != nil {
		log.Printf("creator notification failed for expense %d: %v", expense.ExpenseID, err)
	}
}
