package employee

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Service は社員とロール割り当ての書き込み・参照をまとめます。
// created_at / updated_at / assigned_at / revoked_at は書き込み時に clock から明示的に設定します。
type Service struct {
	repo   Repository
	roles  RoleRepository
	clock  Clock
	tx     TransactionManager
	logger *slog.Logger
}

// NewService は Service を生成します。clock, tx, logger が nil の場合は既定値を使います。
func NewService(repo Repository, roles RoleRepository, clock Clock, tx TransactionManager, logger *slog.Logger) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, roles: roles, clock: clock, tx: tx, logger: logger}
}

// NewEmployee は入社時の必須項目と既定値を設定した社員を返します。
func NewEmployee(employeeID, firstName, lastName, email, username string, dateJoined time.Time) *Employee {
	return &Employee{
		EmployeeID:       employeeID,
		FirstName:        firstName,
		LastName:         lastName,
		Email:            email,
		Username:         username,
		DateJoined:       dateJoined,
		EmploymentType:   EmploymentTypeFullTime,
		Status:           StatusActive,
		NoticePeriodDays: DefaultNoticePeriodDays,
		IsActive:         true,
		IsSystemUser:     true,
	}
}

// CreateEmployee は社員を登録します。ID は draft の値にかかわらず常に採番します。
func (s *Service) CreateEmployee(ctx context.Context, draft *Employee) (*Employee, error) {
	if draft == nil {
		return nil, missingField("employee")
	}

	emp := *draft
	emp.ID = uuid.New()
	if emp.Status == "" {
		emp.Status = StatusActive
	}
	if emp.EmploymentType == "" {
		emp.EmploymentType = EmploymentTypeFullTime
	}

	normalizeEmployee(&emp)
	if err := validateEmployee(&emp); err != nil {
		return nil, err
	}

	var created *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		now := s.clock.Now()
		emp.CreatedAt = now
		emp.UpdatedAt = now

		result, err := s.repo.Create(txCtx, &emp)
		if err != nil {
			return err
		}
		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.logger.Info("employee created", "employeeId", created.EmployeeID, "id", created.ID.String())
	return created, nil
}

// UpdateEmployee は行ロックを取得した社員に mutate を適用して保存します。
// ID と created_at は mutate の内容にかかわらず保持されます。
func (s *Service) UpdateEmployee(ctx context.Context, id uuid.UUID, mutate func(*Employee) error) (*Employee, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}
	if mutate == nil {
		return nil, errors.New("employee: mutate function is required")
	}

	var updated *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByIDForUpdate(txCtx, id)
		if err != nil {
			return err
		}

		createdAt := existing.CreatedAt
		if err := mutate(existing); err != nil {
			return err
		}
		existing.ID = id
		existing.CreatedAt = createdAt

		normalizeEmployee(existing)
		if err := validateEmployee(existing); err != nil {
			return err
		}

		existing.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}
		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// TerminateEmployeeInput は退職処理の入力です。
type TerminateEmployeeInput struct {
	ID     uuid.UUID
	Date   time.Time
	Reason string
}

// TerminateEmployee は状態と退職日で退職を表現します。行は削除しません。
func (s *Service) TerminateEmployee(ctx context.Context, in TerminateEmployeeInput) (*Employee, error) {
	if in.Date.IsZero() {
		return nil, missingField("termination_date")
	}

	terminated, err := s.UpdateEmployee(ctx, in.ID, func(e *Employee) error {
		date := in.Date
		e.Status = StatusTerminated
		e.TerminationDate = &date
		if reason := strings.TrimSpace(in.Reason); reason != "" {
			e.TerminationReason = &reason
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("employee terminated", "employeeId", terminated.EmployeeID, "terminationDate", terminated.TerminationDate.Format(time.DateOnly))
	return terminated, nil
}

// DeleteEmployee は社員を物理削除します。ロール割り当ては連鎖削除されます。
func (s *Service) DeleteEmployee(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, id)
	})
}

// GetEmployee は社員を取得します。
func (s *Service) GetEmployee(ctx context.Context, id uuid.UUID) (*Employee, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}
	return s.readOne(ctx, func(txCtx context.Context) (*Employee, error) {
		return s.repo.FindByID(txCtx, id)
	})
}

// GetEmployeeByEmployeeID は社員番号 (employee_id) で社員を取得します。
func (s *Service) GetEmployeeByEmployeeID(ctx context.Context, employeeID string) (*Employee, error) {
	key := strings.TrimSpace(employeeID)
	if key == "" {
		return nil, missingField("employee_id")
	}
	return s.readOne(ctx, func(txCtx context.Context) (*Employee, error) {
		return s.repo.FindByEmployeeID(txCtx, key)
	})
}

func (s *Service) GetEmployeeByEmail(ctx context.Context, email string) (*Employee, error) {
	key := normalizeEmail(email)
	if key == "" {
		return nil, missingField("email")
	}
	return s.readOne(ctx, func(txCtx context.Context) (*Employee, error) {
		return s.repo.FindByEmail(txCtx, key)
	})
}

func (s *Service) GetEmployeeByUsername(ctx context.Context, username string) (*Employee, error) {
	key := strings.TrimSpace(username)
	if key == "" {
		return nil, missingField("username")
	}
	return s.readOne(ctx, func(txCtx context.Context) (*Employee, error) {
		return s.repo.FindByUsername(txCtx, key)
	})
}

// ReportingLinkTarget は e が link で参照する社員を返します。参照がなければ nil を返します。
func (s *Service) ReportingLinkTarget(ctx context.Context, e *Employee, link ReportingLink) (*Employee, error) {
	if !link.IsValid() {
		return nil, fmt.Errorf("reporting link %q: %w", link, ErrInvalidEnum)
	}
	if e == nil {
		return nil, nil
	}
	target := link.Target(e)
	if target == nil {
		return nil, nil
	}

	found, err := s.GetEmployee(ctx, *target)
	if errors.Is(err, ErrEmployeeNotFound) {
		// 参照先が読み取り後に削除された場合は参照なしとして扱う
		s.logger.Warn("reporting link target missing", "employeeId", e.EmployeeID, "link", string(link), "targetId", target.String(), "err", err)
		return nil, nil
	}
	return found, err
}

// Manager は直属の上長を返します。
func (s *Service) Manager(ctx context.Context, e *Employee) (*Employee, error) {
	return s.ReportingLinkTarget(ctx, e, LinkManagerL1)
}

// SkipLevelManager は上長の上長を返します。
func (s *Service) SkipLevelManager(ctx context.Context, e *Employee) (*Employee, error) {
	return s.ReportingLinkTarget(ctx, e, LinkManagerL2)
}

func (s *Service) HRPartner(ctx context.Context, e *Employee) (*Employee, error) {
	return s.ReportingLinkTarget(ctx, e, LinkHRPartner)
}

func (s *Service) Creator(ctx context.Context, e *Employee) (*Employee, error) {
	return s.ReportingLinkTarget(ctx, e, LinkCreatedBy)
}

// DirectReports は manager_l1 が id の社員を返します。
func (s *Service) DirectReports(ctx context.Context, id uuid.UUID) ([]*Employee, error) {
	return s.reverse(ctx, LinkManagerL1, id)
}

// SkipReports は manager_l2 が id の社員を返します。
func (s *Service) SkipReports(ctx context.Context, id uuid.UUID) ([]*Employee, error) {
	return s.reverse(ctx, LinkManagerL2, id)
}

// HRManagedEmployees は hr_partner が id の社員を返します。
func (s *Service) HRManagedEmployees(ctx context.Context, id uuid.UUID) ([]*Employee, error) {
	return s.reverse(ctx, LinkHRPartner, id)
}

// CreatedEmployees は id の社員が登録した社員を返します。
func (s *Service) CreatedEmployees(ctx context.Context, id uuid.UUID) ([]*Employee, error) {
	return s.reverse(ctx, LinkCreatedBy, id)
}

// AssignRoleInput はロール割り当ての入力です。
type AssignRoleInput struct {
	EmployeeID    uuid.UUID
	RoleID        uuid.UUID
	ContextType   *ContextType
	ContextID     *string
	EffectiveFrom *time.Time
	EffectiveTo   *time.Time
	IsPrimary     bool
	AssignedBy    *uuid.UUID
}

// AssignRole は社員にロールを割り当てます。
// 同一 (社員, ロール, コンテキスト種別, コンテキスト ID) の重複はストレージが ErrRoleAlreadyAssigned で拒否します。
func (s *Service) AssignRole(ctx context.Context, in AssignRoleInput) (*EmployeeRole, error) {
	if in.EmployeeID == uuid.Nil {
		return nil, missingField("employee_id")
	}
	if in.RoleID == uuid.Nil {
		return nil, missingField("role_id")
	}
	if in.ContextType != nil && !in.ContextType.IsValid() {
		return nil, fmt.Errorf("context_type %q: %w", *in.ContextType, ErrInvalidEnum)
	}
	if err := validateEffectivePeriod(in.EffectiveFrom, in.EffectiveTo); err != nil {
		return nil, err
	}

	role := &EmployeeRole{
		ID:            uuid.New(),
		EmployeeID:    in.EmployeeID,
		RoleID:        in.RoleID,
		ContextType:   cloneContextType(in.ContextType),
		ContextID:     normalizeOptional(in.ContextID),
		EffectiveFrom: cloneTime(in.EffectiveFrom),
		EffectiveTo:   cloneTime(in.EffectiveTo),
		IsActive:      true,
		IsPrimary:     in.IsPrimary,
		AssignedBy:    cloneUUID(in.AssignedBy),
	}

	var created *EmployeeRole
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		role.AssignedAt = s.clock.Now()
		result, err := s.roles.Create(txCtx, role)
		if err != nil {
			return err
		}
		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.logger.Info("role assigned", "employeeId", created.EmployeeID.String(), "roleId", created.RoleID.String(), "assignmentId", created.ID.String())
	return created, nil
}

// RevokeRoleInput はロール失効の入力です。
type RevokeRoleInput struct {
	ID        uuid.UUID
	RevokedBy *uuid.UUID
}

// RevokeRole はロール割り当てを論理的に失効させます。
func (s *Service) RevokeRole(ctx context.Context, in RevokeRoleInput) (*EmployeeRole, error) {
	if in.ID == uuid.Nil {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var revoked *EmployeeRole
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.roles.FindByIDForUpdate(txCtx, in.ID)
		if err != nil {
			return err
		}
		if existing.IsRevoked() {
			return ErrRoleAlreadyRevoked
		}

		now := s.clock.Now()
		existing.IsActive = false
		existing.RevokedAt = &now
		existing.RevokedBy = cloneUUID(in.RevokedBy)

		result, err := s.roles.Update(txCtx, existing)
		if err != nil {
			return err
		}
		revoked = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.logger.Info("role revoked", "employeeId", revoked.EmployeeID.String(), "roleId", revoked.RoleID.String(), "assignmentId", revoked.ID.String())
	return revoked, nil
}

// ListRoles は社員のロール割り当てを返します。
func (s *Service) ListRoles(ctx context.Context, employeeID uuid.UUID, activeOnly bool) ([]*EmployeeRole, error) {
	if employeeID == uuid.Nil {
		return nil, fmt.Errorf("employee_id: %w", ErrInvalidID)
	}

	var roles []*EmployeeRole
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.roles.ListByEmployee(txCtx, employeeID, activeOnly)
		if err != nil {
			return err
		}
		roles = result
		return nil
	}); err != nil {
		return nil, err
	}
	return roles, nil
}

func (s *Service) readOne(ctx context.Context, find func(context.Context) (*Employee, error)) (*Employee, error) {
	var result *Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := find(txCtx)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) reverse(ctx context.Context, link ReportingLink, id uuid.UUID) ([]*Employee, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var employees []*Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.ListByReportingLink(txCtx, link, id)
		if err != nil {
			return err
		}
		employees = result
		return nil
	}); err != nil {
		return nil, err
	}
	return employees, nil
}

func normalizeEmployee(e *Employee) {
	e.EmployeeID = strings.TrimSpace(e.EmployeeID)
	e.FirstName = strings.TrimSpace(e.FirstName)
	e.LastName = strings.TrimSpace(e.LastName)
	e.Email = normalizeEmail(e.Email)
	e.Username = strings.TrimSpace(e.Username)
	e.EmployeeNumber = normalizeOptional(e.EmployeeNumber)

	if !e.DateJoined.IsZero() {
		e.DateJoined = truncateDate(e.DateJoined)
	}
	e.DateOfConfirmation = normalizeDate(e.DateOfConfirmation)
	e.TerminationDate = normalizeDate(e.TerminationDate)
	e.DateOfBirth = normalizeDate(e.DateOfBirth)
}

func validateEmployee(e *Employee) error {
	switch {
	case e.EmployeeID == "":
		return missingField("employee_id")
	case e.FirstName == "":
		return missingField("first_name")
	case e.LastName == "":
		return missingField("last_name")
	case e.Email == "":
		return missingField("email")
	case e.Username == "":
		return missingField("username")
	case e.DateJoined.IsZero():
		return missingField("date_joined")
	}

	if !e.Status.IsValid() {
		return ErrInvalidStatus
	}
	if !e.EmploymentType.IsValid() {
		return fmt.Errorf("employment_type %q: %w", e.EmploymentType, ErrInvalidEnum)
	}
	if e.Gender != nil && !e.Gender.IsValid() {
		return fmt.Errorf("gender %q: %w", *e.Gender, ErrInvalidEnum)
	}
	if e.MaritalStatus != nil && !e.MaritalStatus.IsValid() {
		return fmt.Errorf("marital_status %q: %w", *e.MaritalStatus, ErrInvalidEnum)
	}

	if e.DateOfConfirmation != nil && e.DateOfConfirmation.Before(e.DateJoined) {
		return fmt.Errorf("date_of_confirmation: %w", ErrInvalidDateRange)
	}
	if e.TerminationDate != nil && e.TerminationDate.Before(e.DateJoined) {
		return fmt.Errorf("termination_date: %w", ErrInvalidDateRange)
	}

	for _, link := range []ReportingLink{LinkManagerL1, LinkManagerL2, LinkHRPartner, LinkCreatedBy} {
		if target := link.Target(e); target != nil && *target == e.ID {
			return fmt.Errorf("%s: %w", link, ErrSelfReference)
		}
	}

	return nil
}

func validateEffectivePeriod(from, to *time.Time) error {
	if from == nil || to == nil {
		return nil
	}
	if to.Before(*from) {
		return ErrInvalidEffectivePeriod
	}
	return nil
}

func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func normalizeDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	normalized := truncateDate(*t)
	return &normalized
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	clone := *id
	return &clone
}

func cloneContextType(c *ContextType) *ContextType {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}
