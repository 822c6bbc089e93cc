package auth

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/shopcore/backend/domain"
	"github.com/shopcore/backend/pkg/token"
	"github.com/shopcore/backend/pkg/validate"
	"github.com/shopcore/backend/repository"
	"github.com/shopcore/backend/usecase"
)

// Service is the authoritative auth provider: credential verification, token
// issuance, session validation against the ledger, logout and registration.
type Service struct {
	users      repository.UserRepository
	roles      repository.RoleRepository
	sessions   repository.SessionRepository
	cache      repository.SessionCache
	signer     *token.Signer
	audit      usecase.AuditRecorder
	bcryptCost int
	logger     *zap.Logger

	now func() time.Time
}

// Config tunes the service; zero values fall back to sane defaults.
type Config struct {
	BcryptCost int
}

// New wires the service. The cache and audit recorder may be nil; everything
// else is required.
func New(
	users repository.UserRepository,
	roles repository.RoleRepository,
	sessions repository.SessionRepository,
	cache repository.SessionCache,
	signer *token.Signer,
	audit usecase.AuditRecorder,
	logger *zap.Logger,
	cfg Config,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = 12
	}
	return &Service{
		users:      users,
		roles:      roles,
		sessions:   sessions,
		cache:      cache,
		signer:     signer,
		audit:      audit,
		bcryptCost: cost,
		logger:     logger,
		now:        time.Now,
	}
}

var _ usecase.AuthProvider = (*Service)(nil)

// Login verifies credentials, issues a token and records the session in the
// ledger. The ledger insert is the one step that must not fail silently; it
// is the sole revocation mechanism.
func (s *Service) Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginResult, error) {
	user, err := s.users.GetByLogin(ctx, in.Login)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Warn("login attempt for unknown account", zap.String("login", in.Login))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, domain.WrapError(domain.ErrCodePersistence, "look up user", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		s.logger.Warn("failed login attempt", zap.String("user_id", user.ID))
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		// A deactivated account answers exactly like a bad password; the
		// distinct account-inactive cause only surfaces on validation, where
		// the caller already holds a once-valid session.
		s.logger.Warn("login attempt on deactivated account", zap.String("user_id", user.ID))
		return nil, domain.ErrInvalidCredentials
	}

	roleNames, err := s.roles.ListForUser(ctx, user.ID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodePersistence, "load roles", err)
	}
	if len(roleNames) == 0 {
		s.logger.Warn("login rejected, no roles assigned", zap.String("user_id", user.ID))
		return nil, domain.ErrNoRolesAssigned
	}

	now := s.now()
	signed, expiresAt, err := s.signer.Issue(user.ID, user.Username, roleNames, now)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "sign token", err)
	}

	session := &domain.Session{
		UserID:    user.ID,
		Token:     signed,
		ExpiresAt: expiresAt,
		IsActive:  true,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	s.mirrorSession(ctx, session)

	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to update last login", zap.String("user_id", user.ID), zap.Error(err))
	}
	s.recordAudit(ctx, user.ID, domain.AuditActionLogin)

	s.logger.Info("login succeeded", zap.String("user_id", user.ID))
	return &usecase.LoginResult{
		Token:     signed,
		ExpiresAt: expiresAt,
		User:      identityOf(user, roleNames),
	}, nil
}

// Validate checks signature and expiry, cross-checks the session ledger for
// revocation, then re-reads current roles so a role change takes effect
// without a fresh login.
func (s *Service) Validate(ctx context.Context, tokenString string) (*domain.Identity, error) {
	if _, err := s.signer.Parse(tokenString); err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	session, err := s.lookupSession(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	if !session.IsUsable(s.now()) {
		return nil, domain.ErrSessionRevoked
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrSessionRevoked
		}
		return nil, domain.WrapError(domain.ErrCodePersistence, "load user", err)
	}
	if !user.IsActive {
		return nil, domain.ErrAccountInactive
	}

	// Current roles, never the token's snapshot.
	roleNames, err := s.roles.ListForUser(ctx, user.ID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodePersistence, "load roles", err)
	}

	identity := identityOf(user, roleNames)
	return &identity, nil
}

// Logout verifies the token to recover the owning session, removes the cache
// mirror and deactivates the ledger row. Logging out twice is not an error;
// the JWT itself stays signature-valid until natural expiry.
func (s *Service) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.signer.Parse(tokenString)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return domain.ErrTokenExpired
		}
		return domain.ErrTokenInvalid
	}

	if s.cache != nil {
		// The mirror goes first so a concurrent validate cannot hit a stale
		// active entry after the ledger flip.
		if err := s.cache.Remove(ctx, tokenString); err != nil {
			s.logger.Warn("failed to drop session cache entry", zap.Error(err))
		}
	}
	if err := s.sessions.Deactivate(ctx, tokenString); err != nil {
		return domain.WrapError(domain.ErrCodePersistence, "deactivate session", err)
	}

	s.recordAudit(ctx, claims.UserID, domain.AuditActionLogout)
	s.logger.Info("logout succeeded", zap.String("user_id", claims.UserID))
	return nil
}

// Register validates the form (first failing rule wins), hashes the password
// and creates the account atomically. Uniqueness of username/email is
// enforced by the storage layer, not by a prior SELECT.
func (s *Service) Register(ctx context.Context, in usecase.RegisterInput) (*domain.User, error) {
	if err := validate.Username(in.Username); err != nil {
		return nil, domain.ValidationError(err.Error())
	}
	if err := validate.Email(in.Email); err != nil {
		return nil, domain.ValidationError(err.Error())
	}
	if err := validate.Password(in.Password); err != nil {
		return nil, domain.ValidationError(err.Error())
	}
	if err := validate.Phone(in.Phone); err != nil {
		return nil, domain.ValidationError(err.Error())
	}

	roleName := in.Role
	if roleName == "" {
		roleName = domain.RoleCustomer
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "hash password", err)
	}

	user, err := s.users.Create(ctx, repository.NewUser{
		User: &domain.User{
			Username:     in.Username,
			Email:        in.Email,
			PasswordHash: string(hash),
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			Phone:        in.Phone,
		},
		RoleName: roleName,
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, user.ID, domain.AuditActionRegister)
	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", roleName))
	return user, nil
}

// lookupSession consults the Redis mirror first and falls through to the
// ledger. Ledger rows found on a miss are re-mirrored.
func (s *Service) lookupSession(ctx context.Context, tokenString string) (*domain.Session, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, tokenString)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			s.logger.Warn("session cache read failed", zap.Error(err))
		}
	}

	session, err := s.sessions.GetByToken(ctx, tokenString)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrSessionRevoked
		}
		return nil, domain.WrapError(domain.ErrCodePersistence, "look up session", err)
	}

	if session.IsUsable(s.now()) {
		s.mirrorSession(ctx, session)
	}
	return session, nil
}

func (s *Service) mirrorSession(ctx context.Context, session *domain.Session) {
	if s.cache == nil {
		return
	}
	// Best effort; the ledger stays authoritative either way.
	if err := s.cache.Put(ctx, session); err != nil {
		s.logger.Warn("session cache write failed", zap.Error(err))
	}
}

func (s *Service) recordAudit(ctx context.Context, userID, action string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, domain.AuditEntry{
		UserID:       userID,
		Action:       action,
		ResourceType: domain.AuditResourceUser,
		ResourceID:   userID,
	})
}

func identityOf(user *domain.User, roles []string) domain.Identity {
	return domain.Identity{
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Roles:     roles,
	}
}
