package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/fintrack/backend/internal/domain/shared"
)

// Role represents a user's role in the system
type Role string

const (
	RoleAdmin             Role = "ADMIN"
	RoleFinancialDirector Role = "FINANCIAL_DIRECTOR"
	RoleRector            Role = "RECTOR"
	RoleUser              Role = "USER"
)

// IsValid checks if the role is a known Role
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleFinancialDirector, RoleRector, RoleUser:
		return true
	}
	return false
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// User represents a system user aggregate root.
// Explicit permissions and permission groups are additive on top of the
// role's default permission set, never subtractive.
type User struct {
	shared.BaseAggregateRoot
	Username         string   `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name             string   `gorm:"type:varchar(200);not null"`
	Email            string   `gorm:"type:varchar(200)"`
	PasswordHash     string   `gorm:"type:varchar(200)"`
	Role             Role     `gorm:"type:varchar(30);not null"`
	Permissions      []string `gorm:"serializer:json"`
	PermissionGroups []string `gorm:"serializer:json"`
	IsActive         bool     `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (User) TableName() string {
	return "users"
}

// NewUser creates a new user with the given role
func NewUser(username, name string, role Role) (*User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "User name cannot be empty")
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Role is not valid")
	}

	u := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          strings.TrimSpace(username),
		Name:              strings.TrimSpace(name),
		Role:              role,
		Permissions:       make([]string, 0),
		PermissionGroups:  make([]string, 0),
		IsActive:          true,
	}

	u.AddDomainEvent(NewUserCreatedEvent(u))

	return u, nil
}

// GrantPermission grants an explicit permission tag to the user
func (u *User) GrantPermission(tag string) error {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Permission tag cannot be empty")
	}
	for _, p := range u.Permissions {
		if p == tag {
			return shared.NewDomainError(shared.CodeDuplicateKey, "User already has this permission")
		}
	}

	u.Permissions = append(u.Permissions, tag)
	u.UpdatedAt = time.Now()
	u.IncrementVersion()

	return nil
}

// RevokePermission removes an explicit permission tag from the user.
// Role and group permissions are unaffected.
func (u *User) RevokePermission(tag string) error {
	found := false
	kept := make([]string, 0, len(u.Permissions))
	for _, p := range u.Permissions {
		if p != tag {
			kept = append(kept, p)
		} else {
			found = true
		}
	}
	if !found {
		return shared.NewDomainError(shared.CodeNotFound, "User does not have this permission")
	}

	u.Permissions = kept
	u.UpdatedAt = time.Now()
	u.IncrementVersion()

	return nil
}

// AddToGroup adds the user to a permission group
func (u *User) AddToGroup(groupID string) error {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Group ID cannot be empty")
	}
	for _, g := range u.PermissionGroups {
		if g == groupID {
			return shared.NewDomainError(shared.CodeDuplicateKey, "User is already in this group")
		}
	}

	u.PermissionGroups = append(u.PermissionGroups, groupID)
	u.UpdatedAt = time.Now()
	u.IncrementVersion()

	return nil
}

// RemoveFromGroup removes the user from a permission group
func (u *User) RemoveFromGroup(groupID string) error {
	found := false
	kept := make([]string, 0, len(u.PermissionGroups))
	for _, g := range u.PermissionGroups {
		if g != groupID {
			kept = append(kept, g)
		} else {
			found = true
		}
	}
	if !found {
		return shared.NewDomainError(shared.CodeNotFound, "User is not in this group")
	}

	u.PermissionGroups = kept
	u.UpdatedAt = time.Now()
	u.IncrementVersion()

	return nil
}

// ChangeRole changes the user's role
func (u *User) ChangeRole(role Role) error {
	if !role.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidInput, "Role is not valid")
	}

	u.Role = role
	u.UpdatedAt = time.Now()
	u.IncrementVersion()

	return nil
}

// Deactivate deactivates the user
func (u *User) Deactivate() error {
	if !u.IsActive {
		return shared.NewDomainError(shared.CodeIllegalTransition, "User is already inactive")
	}

	u.IsActive = false
	u.UpdatedAt = time.Now()
	u.IncrementVersion()

	u.AddDomainEvent(NewUserDeactivatedEvent(u))

	return nil
}

// Activate reactivates the user
func (u *User) Activate() error {
	if u.IsActive {
		return shared.NewDomainError(shared.CodeIllegalTransition, "User is already active")
	}

	u.IsActive = true
	u.UpdatedAt = time.Now()
	u.IncrementVersion()

	return nil
}

// SetEmail sets the user's email address
func (u *User) SetEmail(email string) {
	u.Email = strings.TrimSpace(email)
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
}

// SetPasswordHash sets the stored password hash
func (u *User) SetPasswordHash(hash string) {
	u.PasswordHash = hash
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
}

// IsAdmin returns true if the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9._-]*$`)

func validateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Username cannot be empty")
	}
	if len(username) < 3 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Username must be at least 3 characters")
	}
	if len(username) > 50 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Username cannot exceed 50 characters")
	}
	if !usernameRegex.MatchString(username) {
		return shared.NewDomainError(shared.CodeInvalidInput, "Username must start with a letter and contain only letters, numbers, dots, hyphens, and underscores")
	}
	return nil
}
