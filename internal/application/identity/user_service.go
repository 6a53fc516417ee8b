package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/fintrack/backend/internal/domain/audit"
	"github.com/fintrack/backend/internal/domain/identity"
	"github.com/fintrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserService manages user accounts and authentication
type UserService struct {
	userRepo    identity.UserRepository
	permissions *identity.PermissionTable
	auditor     audit.Recorder
	eventBus    shared.EventPublisher
	logger      *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	userRepo identity.UserRepository,
	permissions *identity.PermissionTable,
	auditor audit.Recorder,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		permissions: permissions,
		auditor:     auditor,
		eventBus:    eventBus,
		logger:      logger,
	}
}

// CreateUserRequest represents a request to register a user
type CreateUserRequest struct {
	Username string
	Name     string
	Email    string
	Password string
	Role     identity.Role
	ActorID  uuid.UUID
}

// CreateUser registers a new user with a hashed password
func (s *UserService) CreateUser(ctx context.Context, req CreateUserRequest) (*identity.User, error) {
	actor, err := s.authorize(ctx, req.ActorID, identity.PermUserManage)
	if err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeDuplicateKey, fmt.Sprintf("Username %s is already taken", req.Username))
	}

	u, err := identity.NewUser(req.Username, req.Name, req.Role)
	if err != nil {
		return nil, err
	}
	if req.Email != "" {
		u.SetEmail(req.Email)
	}
	if len(req.Password) < 8 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	u.SetPasswordHash(string(hash))

	if err := s.userRepo.Save(ctx, u); err != nil {
		return nil, err
	}
	if err := s.recordAudit(ctx, u.ID, "user.created", actor.ID, fmt.Sprintf("User %s created with role %s", u.Username, u.Role)); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, u)
	s.logger.Info("user created",
		zap.String("user_id", u.ID.String()),
		zap.String("username", u.Username))

	return u, nil
}

// Authenticate verifies credentials and returns the user on success
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*identity.User, error) {
	u, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil || !u.IsActive {
		return nil, shared.NewDomainError(shared.CodeUnauthorized, "Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, shared.NewDomainError(shared.CodeUnauthorized, "Invalid credentials")
	}
	return u, nil
}

// ChangeRole changes a user's role
func (s *UserService) ChangeRole(ctx context.Context, userID uuid.UUID, role identity.Role, actorID uuid.UUID) (*identity.User, error) {
	return s.mutate(ctx, userID, actorID, "user.role_changed", fmt.Sprintf("Role set to %s", role), func(u *identity.User) error {
		return u.ChangeRole(role)
	})
}

// GrantPermission grants an explicit permission to a user
func (s *UserService) GrantPermission(ctx context.Context, userID uuid.UUID, permission string, actorID uuid.UUID) (*identity.User, error) {
	return s.mutate(ctx, userID, actorID, "user.permission_granted", fmt.Sprintf("Granted %s", permission), func(u *identity.User) error {
		return u.GrantPermission(permission)
	})
}

// RevokePermission revokes an explicit permission from a user
func (s *UserService) RevokePermission(ctx context.Context, userID uuid.UUID, permission string, actorID uuid.UUID) (*identity.User, error) {
	return s.mutate(ctx, userID, actorID, "user.permission_revoked", fmt.Sprintf("Revoked %s", permission), func(u *identity.User) error {
		return u.RevokePermission(permission)
	})
}

// AddToGroup adds a user to a permission group
func (s *UserService) AddToGroup(ctx context.Context, userID uuid.UUID, groupID string, actorID uuid.UUID) (*identity.User, error) {
	return s.mutate(ctx, userID, actorID, "user.group_added", fmt.Sprintf("Added to group %s", groupID), func(u *identity.User) error {
		return u.AddToGroup(groupID)
	})
}

// RemoveFromGroup removes a user from a permission group
func (s *UserService) RemoveFromGroup(ctx context.Context, userID uuid.UUID, groupID string, actorID uuid.UUID) (*identity.User, error) {
	return s.mutate(ctx, userID, actorID, "user.group_removed", fmt.Sprintf("Removed from group %s", groupID), func(u *identity.User) error {
		return u.RemoveFromGroup(groupID)
	})
}

// DeactivateUser deactivates a user account
func (s *UserService) DeactivateUser(ctx context.Context, userID, actorID uuid.UUID) (*identity.User, error) {
	return s.mutate(ctx, userID, actorID, "user.deactivated", "Account deactivated", func(u *identity.User) error {
		return u.Deactivate()
	})
}

// GetUser loads a user by id. Users may always read their own record;
// reading anyone else requires the user management permission.
func (s *UserService) GetUser(ctx context.Context, userID, actorID uuid.UUID) (*identity.User, error) {
	if userID != actorID {
		if _, err := s.authorize(ctx, actorID, identity.PermUserManage); err != nil {
			return nil, err
		}
	}
	return s.loadUser(ctx, userID)
}

// ListUsers lists users with filtering
func (s *UserService) ListUsers(ctx context.Context, actorID uuid.UUID, filter identity.UserFilter) (shared.Paginated[identity.User], error) {
	var empty shared.Paginated[identity.User]
	if _, err := s.authorize(ctx, actorID, identity.PermUserManage); err != nil {
		return empty, err
	}

	items, err := s.userRepo.FindAll(ctx, filter)
	if err != nil {
		return empty, err
	}
	total, err := s.userRepo.Count(ctx, filter)
	if err != nil {
		return empty, err
	}

	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// mutate loads a user, applies a domain mutation, and persists with
// optimistic locking
func (s *UserService) mutate(ctx context.Context, userID, actorID uuid.UUID, action, detail string, fn func(*identity.User) error) (*identity.User, error) {
	actor, err := s.authorize(ctx, actorID, identity.PermUserManage)
	if err != nil {
		return nil, err
	}

	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(u); err != nil {
		return nil, err
	}
	if err := s.userRepo.SaveWithLock(ctx, u); err != nil {
		return nil, err
	}
	if err := s.recordAudit(ctx, u.ID, action, actor.ID, detail); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, u)
	return u, nil
}

func (s *UserService) loadUser(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "User not found")
	}
	return u, nil
}

func (s *UserService) authorize(ctx context.Context, actorID uuid.UUID, permission string) (*identity.User, error) {
	actor, err := s.userRepo.FindByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !s.permissions.Authorize(actor, permission) {
		return nil, shared.NewDomainError(shared.CodeUnauthorized, fmt.Sprintf("Missing permission %s", permission))
	}
	return actor, nil
}

func (s *UserService) recordAudit(ctx context.Context, userID uuid.UUID, action string, actorID uuid.UUID, detail string) error {
	entry, err := audit.NewAuditEntry("User", userID, action, actorID, detail, time.Now())
	if err != nil {
		return err
	}
	return s.auditor.Record(ctx, entry)
}

func (s *UserService) publishEvents(ctx context.Context, u *identity.User) {
	events := u.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events", zap.Error(err))
	}
	u.ClearDomainEvents()
}
