package employee

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status は社員の在籍状態を表します。
type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusInactive   Status = "INACTIVE"
	StatusOnLeave    Status = "ON_LEAVE"
	StatusSuspended  Status = "SUSPENDED"
	StatusTerminated Status = "TERMINATED"
	StatusResigned   Status = "RESIGNED"
)

// IsValid は定義済みの状態かを判定します。
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusOnLeave, StatusSuspended, StatusTerminated, StatusResigned:
		return true
	default:
		return false
	}
}

// EmploymentType は雇用形態です。
type EmploymentType string

const (
	EmploymentTypeFullTime   EmploymentType = "FULL_TIME"
	EmploymentTypePartTime   EmploymentType = "PART_TIME"
	EmploymentTypeContract   EmploymentType = "CONTRACT"
	EmploymentTypeIntern     EmploymentType = "INTERN"
	EmploymentTypeConsultant EmploymentType = "CONSULTANT"
	EmploymentTypeTemporary  EmploymentType = "TEMPORARY"
)

func (t EmploymentType) IsValid() bool {
	switch t {
	case EmploymentTypeFullTime, EmploymentTypePartTime, EmploymentTypeContract,
		EmploymentTypeIntern, EmploymentTypeConsultant, EmploymentTypeTemporary:
		return true
	default:
		return false
	}
}

// Gender は性別です。
type Gender string

const (
	GenderMale           Gender = "MALE"
	GenderFemale         Gender = "FEMALE"
	GenderNonBinary      Gender = "NON_BINARY"
	GenderOther          Gender = "OTHER"
	GenderPreferNotToSay Gender = "PREFER_NOT_TO_SAY"
)

func (g Gender) IsValid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderNonBinary, GenderOther, GenderPreferNotToSay:
		return true
	default:
		return false
	}
}

// MaritalStatus は婚姻状況です。
type MaritalStatus string

const (
	MaritalStatusSingle              MaritalStatus = "SINGLE"
	MaritalStatusMarried             MaritalStatus = "MARRIED"
	MaritalStatusDivorced            MaritalStatus = "DIVORCED"
	MaritalStatusWidowed             MaritalStatus = "WIDOWED"
	MaritalStatusSeparated           MaritalStatus = "SEPARATED"
	MaritalStatusDomesticPartnership MaritalStatus = "DOMESTIC_PARTNERSHIP"
)

func (m MaritalStatus) IsValid() bool {
	switch m {
	case MaritalStatusSingle, MaritalStatusMarried, MaritalStatusDivorced,
		MaritalStatusWidowed, MaritalStatusSeparated, MaritalStatusDomesticPartnership:
		return true
	default:
		return false
	}
}

const (
	// DefaultNoticePeriodDays は退職予告期間の既定日数です。
	DefaultNoticePeriodDays = 30

	probationDays = 90
	daysPerYear   = 365.25
)

// Employee は社員エンティティです。
// 部署・等級・拠点・プロジェクトへの参照は外部エンティティの ID としてのみ保持します。
type Employee struct {
	ID             uuid.UUID
	EmployeeID     string
	EmployeeNumber *string

	Title         *string
	FirstName     string
	MiddleName    *string
	LastName      string
	Suffix        *string
	PreferredName *string

	Email                    string
	PersonalEmail            *string
	Phone                    *string
	Mobile                   *string
	EmergencyContactName     *string
	EmergencyContactPhone    *string
	EmergencyContactRelation *string

	Username             string
	PasswordHash         *string
	IsPasswordSet        bool
	PasswordResetToken   *string
	PasswordResetExpires *time.Time
	LastLogin            *time.Time
	LoginAttempts        int
	IsLocked             bool

	DateOfBirth   *time.Time
	Gender        *Gender
	MaritalStatus *MaritalStatus
	Nationality   *string

	DateJoined         time.Time
	DateOfConfirmation *time.Time
	EmploymentType     EmploymentType
	Status             Status
	TerminationDate    *time.Time
	TerminationReason  *string
	NoticePeriodDays   int

	DepartmentID     *uuid.UUID
	GradeID          *uuid.UUID
	BaseLocationID   *uuid.UUID
	CurrentProjectID *uuid.UUID
	WorkLocationID   *uuid.UUID

	ManagerL1ID *uuid.UUID
	ManagerL2ID *uuid.UUID
	HRPartnerID *uuid.UUID
	CreatedBy   *uuid.UUID

	JobTitle       *string
	JobDescription *string
	Skills         *string
	Certifications *string

	IsRemoteEligible bool
	WorkFromHomeDays int

	IsActive     bool
	IsAdmin      bool
	IsHR         bool
	IsManager    bool
	IsFinance    bool
	IsSystemUser bool

	Bio               *string
	ProfilePictureURL *string
	LinkedInURL       *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName は敬称・ミドルネーム・接尾辞を含む氏名を返します。
func (e *Employee) FullName() string {
	parts := make([]string, 0, 5)
	if present(e.Title) {
		parts = append(parts, *e.Title)
	}
	parts = append(parts, e.FirstName)
	if present(e.MiddleName) {
		parts = append(parts, *e.MiddleName)
	}
	parts = append(parts, e.LastName)
	if present(e.Suffix) {
		parts = append(parts, *e.Suffix)
	}
	return strings.Join(parts, " ")
}

// DisplayName は呼び名があればそれを、なければ「名 姓」を返します。
func (e *Employee) DisplayName() string {
	if present(e.PreferredName) {
		return *e.PreferredName
	}
	return e.FirstName + " " + e.LastName
}

// YearsOfService は入社日から asOf (退職済みなら退職日) までの勤続年数を小数第2位で返します。
func (e *Employee) YearsOfService(asOf time.Time) float64 {
	end := asOf
	if e.TerminationDate != nil {
		end = *e.TerminationDate
	}
	days := daysBetween(e.DateJoined, end)
	return math.Round(float64(days)/daysPerYear*100) / 100
}

// IsNewHire は試用期間中 (確定日未登録かつ入社90日未満) かを判定します。
func (e *Employee) IsNewHire(asOf time.Time) bool {
	if e.DateOfConfirmation != nil {
		return false
	}
	return daysBetween(e.DateJoined, asOf) < probationDays
}

// NeedsPasswordSetup は初回パスワード設定が必要かを判定します。
func (e *Employee) NeedsPasswordSetup() bool {
	return !e.IsPasswordSet || e.PasswordHash == nil
}

// CanLogin はシステムへのログイン可否を判定します。
func (e *Employee) CanLogin() bool {
	return e.IsSystemUser &&
		e.IsActive &&
		!e.IsLocked &&
		e.Status == StatusActive
}

func (e *Employee) String() string {
	return fmt.Sprintf("<Employee %s: %s (%s)>", e.EmployeeID, e.FullName(), e.PermissionLevel())
}

func present(s *string) bool {
	return s != nil && *s != ""
}

// daysBetween は日付部分のみで from から to までの日数を数えます。
func daysBetween(from, to time.Time) int {
	f := truncateDate(from)
	t := truncateDate(to)
	return int(t.Sub(f).Hours() / 24)
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
