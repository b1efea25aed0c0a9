package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/hr-employee-model/internal/core/employee"
	pgdb "github.com/ogurasousui/hr-employee-model/internal/platform/db/postgres"
)

// employeeColumns の並びは employeeArgs と scanEmployee の並びと一致させること。
var employeeColumns = []string{
	"id",
	"employee_id",
	"employee_number",
	"title",
	"first_name",
	"middle_name",
	"last_name",
	"suffix",
	"preferred_name",
	"email",
	"personal_email",
	"phone",
	"mobile",
	"emergency_contact_name",
	"emergency_contact_phone",
	"emergency_contact_relation",
	"username",
	"password_hash",
	"is_password_set",
	"password_reset_token",
	"password_reset_expires",
	"last_login",
	"login_attempts",
	"is_locked",
	"date_of_birth",
	"gender",
	"marital_status",
	"nationality",
	"date_joined",
	"date_of_confirmation",
	"employment_type",
	"status",
	"termination_date",
	"termination_reason",
	"notice_period_days",
	"department_id",
	"grade_id",
	"base_location_id",
	"current_project_id",
	"work_location_id",
	"manager_l1_id",
	"manager_l2_id",
	"hr_partner_id",
	"created_by",
	"job_title",
	"job_description",
	"skills",
	"certifications",
	"is_remote_eligible",
	"work_from_home_days",
	"is_active",
	"is_admin",
	"is_hr",
	"is_manager",
	"is_finance",
	"is_system_user",
	"bio",
	"profile_picture_url",
	"linkedin_url",
	"created_at",
	"updated_at",
}

// enum 型のカラムはテキストとして送り、PostgreSQL 側でキャストさせます。
var employeeColumnCasts = map[string]string{
	"gender":          "::gender",
	"marital_status":  "::marital_status",
	"employment_type": "::employment_type",
	"status":          "::employee_status",
}

var reportingLinkColumns = map[employee.ReportingLink]string{
	employee.LinkManagerL1: "manager_l1_id",
	employee.LinkManagerL2: "manager_l2_id",
	employee.LinkHRPartner: "hr_partner_id",
	employee.LinkCreatedBy: "created_by",
}

var (
	employeeSelectList = strings.Join(employeeColumns, ", ")
	insertEmployeeSQL  = buildInsertEmployeeSQL()
	updateEmployeeSQL  = buildUpdateEmployeeSQL()
)

func buildInsertEmployeeSQL() string {
	placeholders := make([]string, len(employeeColumns))
	for i, col := range employeeColumns {
		placeholders[i] = "$" + strconv.Itoa(i+1) + employeeColumnCasts[col]
	}
	return "INSERT INTO employees (" + employeeSelectList + ") VALUES (" + strings.Join(placeholders, ", ") + ") RETURNING " + employeeSelectList
}

// id は WHERE 句に、created_at を除くカラムは SET 句に割り当てます。引数は updateEmployeeArgs で組み立てます。
func buildUpdateEmployeeSQL() string {
	sets := make([]string, 0, len(employeeColumns))
	n := 1
	for _, col := range employeeColumns {
		if col == "created_at" {
			continue
		}
		if col != "id" {
			sets = append(sets, col+" = $"+strconv.Itoa(n)+employeeColumnCasts[col])
		}
		n++
	}
	return "UPDATE employees SET " + strings.Join(sets, ", ") + " WHERE id = $1 RETURNING " + employeeSelectList
}

// EmployeeRepository は PostgreSQL を利用した社員永続化の実装です。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// Create は社員を新規作成します。
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	created, err := scanEmployee(exec.QueryRow(ctx, insertEmployeeSQL, employeeArgs(e)...))
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return created, nil
}

// Update は社員情報を更新します。
func (r *EmployeeRepository) Update(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	updated, err := scanEmployee(exec.QueryRow(ctx, updateEmployeeSQL, updateEmployeeArgs(e)...))
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return updated, nil
}

// Delete は社員を削除します。employee_roles は ON DELETE CASCADE で削除されます。
func (r *EmployeeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return translateEmployeePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// FindByID は ID で社員を取得します。
func (r *EmployeeRepository) FindByID(ctx context.Context, id uuid.UUID) (*employee.Employee, error) {
	return r.findOne(ctx, "id = $1", "", id)
}

// FindByIDForUpdate は行ロック付きで社員を取得します。トランザクション内で呼び出してください。
func (r *EmployeeRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*employee.Employee, error) {
	return r.findOne(ctx, "id = $1", " FOR UPDATE", id)
}

func (r *EmployeeRepository) FindByEmployeeID(ctx context.Context, employeeID string) (*employee.Employee, error) {
	return r.findOne(ctx, "employee_id = $1", "", employeeID)
}

func (r *EmployeeRepository) FindByEmail(ctx context.Context, email string) (*employee.Employee, error) {
	return r.findOne(ctx, "email = $1", "", email)
}

func (r *EmployeeRepository) FindByUsername(ctx context.Context, username string) (*employee.Employee, error) {
	return r.findOne(ctx, "username = $1", "", username)
}

// ListByReportingLink は link の外部キーが id を指す社員を氏名順に返します。
func (r *EmployeeRepository) ListByReportingLink(ctx context.Context, link employee.ReportingLink, id uuid.UUID) ([]*employee.Employee, error) {
	column, ok := reportingLinkColumns[link]
	if !ok {
		return nil, fmt.Errorf("reporting link %q: %w", link, employee.ErrInvalidEnum)
	}

	query := `SELECT ` + employeeSelectList + `
          FROM employees
         WHERE ` + column + ` = $1
         ORDER BY last_name, first_name, id`

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, id)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	defer rows.Close()

	employees := make([]*employee.Employee, 0)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, translateEmployeePgError(err)
		}
		employees = append(employees, emp)
	}

	if err := rows.Err(); err != nil {
		return nil, translateEmployeePgError(err)
	}

	return employees, nil
}

func (r *EmployeeRepository) findOne(ctx context.Context, where, suffix string, arg any) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT `+employeeSelectList+`
          FROM employees
         WHERE `+where+`
         LIMIT 1`+suffix, arg)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

func employeeArgs(e *employee.Employee) []any {
	return []any{
		e.ID,
		e.EmployeeID,
		e.EmployeeNumber,
		e.Title,
		e.FirstName,
		e.MiddleName,
		e.LastName,
		e.Suffix,
		e.PreferredName,
		e.Email,
		e.PersonalEmail,
		e.Phone,
		e.Mobile,
		e.EmergencyContactName,
		e.EmergencyContactPhone,
		e.EmergencyContactRelation,
		e.Username,
		e.PasswordHash,
		e.IsPasswordSet,
		e.PasswordResetToken,
		nullableTimestamp(e.PasswordResetExpires),
		nullableTimestamp(e.LastLogin),
		e.LoginAttempts,
		e.IsLocked,
		nullableDate(e.DateOfBirth),
		enumText(e.Gender),
		enumText(e.MaritalStatus),
		e.Nationality,
		dateOnly(e.DateJoined),
		nullableDate(e.DateOfConfirmation),
		string(e.EmploymentType),
		string(e.Status),
		nullableDate(e.TerminationDate),
		e.TerminationReason,
		e.NoticePeriodDays,
		e.DepartmentID,
		e.GradeID,
		e.BaseLocationID,
		e.CurrentProjectID,
		e.WorkLocationID,
		e.ManagerL1ID,
		e.ManagerL2ID,
		e.HRPartnerID,
		e.CreatedBy,
		e.JobTitle,
		e.JobDescription,
		e.Skills,
		e.Certifications,
		e.IsRemoteEligible,
		e.WorkFromHomeDays,
		e.IsActive,
		e.IsAdmin,
		e.IsHR,
		e.IsManager,
		e.IsFinance,
		e.IsSystemUser,
		e.Bio,
		e.ProfilePictureURL,
		e.LinkedInURL,
		e.CreatedAt,
		e.UpdatedAt,
	}
}

func updateEmployeeArgs(e *employee.Employee) []any {
	all := employeeArgs(e)
	args := make([]any, 0, len(all)-1)
	for i, col := range employeeColumns {
		if col == "created_at" {
			continue
		}
		args = append(args, all[i])
	}
	return args
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var (
		e              employee.Employee
		gender         *string
		maritalStatus  *string
		employmentType string
		status         string
	)

	if err := row.Scan(
		&e.ID,
		&e.EmployeeID,
		&e.EmployeeNumber,
		&e.Title,
		&e.FirstName,
		&e.MiddleName,
		&e.LastName,
		&e.Suffix,
		&e.PreferredName,
		&e.Email,
		&e.PersonalEmail,
		&e.Phone,
		&e.Mobile,
		&e.EmergencyContactName,
		&e.EmergencyContactPhone,
		&e.EmergencyContactRelation,
		&e.Username,
		&e.PasswordHash,
		&e.IsPasswordSet,
		&e.PasswordResetToken,
		&e.PasswordResetExpires,
		&e.LastLogin,
		&e.LoginAttempts,
		&e.IsLocked,
		&e.DateOfBirth,
		&gender,
		&maritalStatus,
		&e.Nationality,
		&e.DateJoined,
		&e.DateOfConfirmation,
		&employmentType,
		&status,
		&e.TerminationDate,
		&e.TerminationReason,
		&e.NoticePeriodDays,
		&e.DepartmentID,
		&e.GradeID,
		&e.BaseLocationID,
		&e.CurrentProjectID,
		&e.WorkLocationID,
		&e.ManagerL1ID,
		&e.ManagerL2ID,
		&e.HRPartnerID,
		&e.CreatedBy,
		&e.JobTitle,
		&e.JobDescription,
		&e.Skills,
		&e.Certifications,
		&e.IsRemoteEligible,
		&e.WorkFromHomeDays,
		&e.IsActive,
		&e.IsAdmin,
		&e.IsHR,
		&e.IsManager,
		&e.IsFinance,
		&e.IsSystemUser,
		&e.Bio,
		&e.ProfilePictureURL,
		&e.LinkedInURL,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}

	e.EmploymentType = employee.EmploymentType(employmentType)
	e.Status = employee.Status(status)
	if gender != nil {
		g := employee.Gender(*gender)
		e.Gender = &g
	}
	if maritalStatus != nil {
		m := employee.MaritalStatus(*maritalStatus)
		e.MaritalStatus = &m
	}

	e.DateJoined = dateOnly(e.DateJoined)
	e.DateOfBirth = scannedDate(e.DateOfBirth)
	e.DateOfConfirmation = scannedDate(e.DateOfConfirmation)
	e.TerminationDate = scannedDate(e.TerminationDate)
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()

	return &e, nil
}

func translateEmployeePgError(err error) error {
	return translatePgError(err, employee.ErrEmployeeNotFound)
}

func enumText[T ~string](value *T) any {
	if value == nil {
		return nil
	}
	return string(*value)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func nullableDate(value *time.Time) any {
	if value == nil {
		return nil
	}
	return dateOnly(*value)
}

func nullableTimestamp(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC()
}

func scannedDate(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	d := dateOnly(*value)
	return &d
}
