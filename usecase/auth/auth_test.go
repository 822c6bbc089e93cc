package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/shopcore/backend/domain"
	"github.com/shopcore/backend/pkg/token"
	"github.com/shopcore/backend/repository"
	"github.com/shopcore/backend/usecase"
	authUC "github.com/shopcore/backend/usecase/auth"
)

const (
	testSecret   = "test-secret-key-for-unit-tests"
	testIssuer   = "shopcore-auth-test"
	testValidity = 24 * time.Hour
)

// memStore is a single in-memory backing store shared by the repository
// fakes, so registration can mimic the transactional create semantics.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*domain.User // by id
	roles    map[string]int64        // name -> id
	userRole map[string][]string     // user id -> role names
	sessions map[string]*domain.Session
	loyalty  map[string]*domain.CustomerLoyalty
	tiers    map[string]int64 // name -> id
	audit    []domain.AuditEntry
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]*domain.User),
		roles:    map[string]int64{domain.RoleCustomer: 1, domain.RoleAdmin: 2, domain.RoleSeller: 3},
		userRole: make(map[string][]string),
		sessions: make(map[string]*domain.Session),
		loyalty:  make(map[string]*domain.CustomerLoyalty),
		tiers:    map[string]int64{domain.TierBronze: 1},
	}
}

type memUsers struct{ s *memStore }

func (r memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r memUsers) GetByLogin(_ context.Context, login string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == login || u.Email == login {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r memUsers) Create(_ context.Context, nu repository.NewUser) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == nu.User.Username || u.Email == nu.User.Email {
			return nil, domain.ErrDuplicateAccount
		}
	}
	if _, ok := r.s.roles[nu.RoleName]; !ok {
		return nil, domain.ErrRoleNotFound
	}
	user := *nu.User
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.IsActive = true
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.s.users[user.ID] = &user
	r.s.userRole[user.ID] = []string{nu.RoleName}
	if nu.RoleName == domain.RoleCustomer {
		if tierID, ok := r.s.tiers[domain.TierBronze]; ok {
			r.s.loyalty[user.ID] = &domain.CustomerLoyalty{
				UserID: user.ID,
				TierID: tierID,
			}
		}
	}
	copied := user
	return &copied, nil
}

func (r memUsers) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

type memRoles struct{ s *memStore }

func (r memRoles) ListForUser(_ context.Context, userID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]string(nil), r.s.userRole[userID]...), nil
}

func (r memRoles) Assign(_ context.Context, userID string, roleID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for name, id := range r.s.roles {
		if id == roleID {
			r.s.userRole[userID] = append(r.s.userRole[userID], name)
		}
	}
	return nil
}

func (r memRoles) Revoke(_ context.Context, userID string, roleID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var kept []string
	for _, name := range r.s.userRole[userID] {
		if r.s.roles[name] != roleID {
			kept = append(kept, name)
		}
	}
	r.s.userRole[userID] = kept
	return nil
}

type memSessions struct{ s *memStore }

func (r memSessions) GetByToken(_ context.Context, tok string) (*domain.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if sess, ok := r.s.sessions[tok]; ok {
		copied := *sess
		return &copied, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (r memSessions) Save(_ context.Context, session *domain.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	session.CreatedAt = time.Now()
	copied := *session
	r.s.sessions[session.Token] = &copied
	return nil
}

func (r memSessions) Deactivate(_ context.Context, tok string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if sess, ok := r.s.sessions[tok]; ok {
		sess.IsActive = false
	}
	return nil
}

type memAudit struct{ s *memStore }

func (r memAudit) Record(_ context.Context, entry domain.AuditEntry) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.audit = append(r.s.audit, entry)
}

func newService(t *testing.T, store *memStore) (*authUC.Service, *token.Signer) {
	t.Helper()
	signer, err := token.NewSigner(testSecret, testIssuer, testValidity)
	require.NoError(t, err)
	svc := authUC.New(
		memUsers{store},
		memRoles{store},
		memSessions{store},
		nil,
		signer,
		memAudit{store},
		nil,
		// MinCost keeps the hashing fast in tests.
		authUC.Config{BcryptCost: bcrypt.MinCost},
	)
	return svc, signer
}

func seedUser(t *testing.T, store *memStore, username, email, password string, roles ...string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	store.users[user.ID] = user
	store.userRole[user.ID] = roles
	return user
}

func TestLoginSuccessIssuesLedgerBackedToken(t *testing.T) {
	store := newMemStore()
	user := seedUser(t, store, "bob", "bob@example.com", "Password123", domain.RoleCustomer)
	svc, signer := newService(t, store)

	before := time.Now()
	result, err := svc.Login(context.Background(), usecase.LoginInput{Login: "bob", Password: "Password123"})
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	assert.Equal(t, []string{domain.RoleCustomer}, result.User.Roles)

	claims, err := signer.Parse(result.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "bob", claims.Username)
	// Embedded expiry must be issued-at plus the configured validity.
	assert.Equal(t, testValidity, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
	assert.WithinDuration(t, before.Add(testValidity), result.ExpiresAt, 5*time.Second)

	sess, ok := store.sessions[result.Token]
	require.True(t, ok, "ledger row must be recorded at issuance")
	assert.True(t, sess.IsActive)
	assert.Equal(t, user.ID, sess.UserID)

	require.NotNil(t, store.users[user.ID].LastLoginAt)
	require.Len(t, store.audit, 1)
	assert.Equal(t, domain.AuditActionLogin, store.audit[0].Action)
}

func TestLoginByEmail(t *testing.T) {
	store := newMemStore()
	seedUser(t, store, "bob", "bob@example.com", "Password123", domain.RoleCustomer)
	svc, _ := newService(t, store)

	result, err := svc.Login(context.Background(), usecase.LoginInput{Login: "bob@example.com", Password: "Password123"})
	require.NoError(t, err)
	assert.Equal(t, "bob", result.User.Username)
}

func TestLoginFailures(t *testing.T) {
	store := newMemStore()
	seedUser(t, store, "bob", "bob@example.com", "Password123", domain.RoleCustomer)
	inactive := seedUser(t, store, "carol", "carol@example.com", "Password123", domain.RoleCustomer)
	inactive.IsActive = false
	seedUser(t, store, "dave", "dave@example.com", "Password123") // no roles

	svc, _ := newService(t, store)
	ctx := context.Background()

	tests := []struct {
		name    string
		login   string
		pass    string
		wantErr error
	}{
		{"unknown user", "nobody", "Password123", domain.ErrInvalidCredentials},
		{"wrong password", "bob", "wrongpass", domain.ErrInvalidCredentials},
		// A deactivated account must be indistinguishable from a bad password.
		{"inactive account", "carol", "Password123", domain.ErrInvalidCredentials},
		{"zero roles", "dave", "Password123", domain.ErrNoRolesAssigned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Login(ctx, usecase.LoginInput{Login: tt.login, Password: tt.pass})
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, result)
		})
	}
	assert.Empty(t, store.sessions, "failed logins must not record sessions")
}

func TestValidateReflectsRoleChangesWithoutRelogin(t *testing.T) {
	store := newMemStore()
	user := seedUser(t, store, "bob", "bob@example.com", "Password123", domain.RoleCustomer)
	svc, _ := newService(t, store)
	roles := memRoles{store}
	ctx := context.Background()

	result, err := svc.Login(ctx, usecase.LoginInput{Login: "bob", Password: "Password123"})
	require.NoError(t, err)

	identity, err := svc.Validate(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.RoleCustomer}, identity.Roles)

	// Grant a role after issuance; the next validate must see it with the
	// same token.
	require.NoError(t, roles.Assign(ctx, user.ID, store.roles[domain.RoleSeller]))

	identity, err = svc.Validate(ctx, result.Token)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{domain.RoleCustomer, domain.RoleSeller}, identity.Roles)

	// And a revocation takes effect the same way.
	require.NoError(t, roles.Revoke(ctx, user.ID, store.roles[domain.RoleCustomer]))

	identity, err = svc.Validate(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.RoleSeller}, identity.Roles)
}

func TestValidateRejectsDeactivatedAccount(t *testing.T) {
	store := newMemStore()
	user := seedUser(t, store, "bob", "bob@example.com", "Password123", domain.RoleCustomer)
	svc, _ := newService(t, store)
	ctx := context.Background()

	result, err := svc.Login(ctx, usecase.LoginInput{Login: "bob", Password: "Password123"})
	require.NoError(t, err)

	// Deactivation mid-session is the one place the distinct cause surfaces.
	store.users[user.ID].IsActive = false

	_, err = svc.Validate(ctx, result.Token)
	assert.ErrorIs(t, err, domain.ErrAccountInactive)
}

func TestValidateRejectsForgedAndExpiredTokens(t *testing.T) {
	store := newMemStore()
	user := seedUser(t, store, "bob", "bob@example.com", "Password123", domain.RoleCustomer)
	svc, signer := newService(t, store)
	ctx := context.Background()

	_, err := svc.Validate(ctx, "not-a-token")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	expired, _, err := signer.Issue(user.ID, user.Username, []string{domain.RoleCustomer}, time.Now().Add(-2*testValidity))
	require.NoError(t, err)
	_, err = svc.Validate(ctx, expired)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)

	// Signature-valid but never issued through login: no ledger row.
	ghost, _, err := signer.Issue(user.ID, user.Username, []string{domain.RoleCustomer}, time.Now())
	require.NoError(t, err)
	_, err = svc.Validate(ctx, ghost)
	assert.ErrorIs(t, err, domain.ErrSessionRevoked)
}

func TestLogoutRevokesDespiteValidSignature(t *testing.T) {
	store := newMemStore()
	seedUser(t, store, "bob", "bob@example.com", "Password123", domain.RoleCustomer)
	svc, signer := newService(t, store)
	ctx := context.Background()

	result, err := svc.Login(ctx, usecase.LoginInput{Login: "bob", Password: "Password123"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, result.Token))

	// The JWT itself still parses; only the ledger rejects it.
	_, err = signer.Parse(result.Token)
	require.NoError(t, err)
	_, err = svc.Validate(ctx, result.Token)
	assert.ErrorIs(t, err, domain.ErrSessionRevoked)

	// Idempotent: a second logout is not an error.
	require.NoError(t, svc.Logout(ctx, result.Token))
}

func TestConcurrentSessionsStayIndependent(t *testing.T) {
	store := newMemStore()
	seedUser(t, store, "bob", "bob@example.com", "Password123", domain.RoleCustomer)
	svc, _ := newService(t, store)
	ctx := context.Background()

	first, err := svc.Login(ctx, usecase.LoginInput{Login: "bob", Password: "Password123"})
	require.NoError(t, err)
	second, err := svc.Login(ctx, usecase.LoginInput{Login: "bob", Password: "Password123"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, first.Token))

	_, err = svc.Validate(ctx, first.Token)
	assert.ErrorIs(t, err, domain.ErrSessionRevoked)
	_, err = svc.Validate(ctx, second.Token)
	assert.NoError(t, err, "revoking one session must not touch the other")
}

func TestRegisterValidationFirstFailureWins(t *testing.T) {
	store := newMemStore()
	svc, _ := newService(t, store)
	ctx := context.Background()

	base := usecase.RegisterInput{
		Username:  "alice",
		Email:     "alice@example.com",
		Password:  "Password123",
		FirstName: "Alice",
		LastName:  "Smith",
	}

	tests := []struct {
		name    string
		mutate  func(*usecase.RegisterInput)
		message string
	}{
		{"short username", func(in *usecase.RegisterInput) { in.Username = "ab" }, "username must be at least 3 characters long"},
		{"bad username chars", func(in *usecase.RegisterInput) { in.Username = "al ice!" }, "username may only contain letters, digits and underscores"},
		{"bad email", func(in *usecase.RegisterInput) { in.Email = "not-an-email" }, "invalid email format"},
		{"password missing digit", func(in *usecase.RegisterInput) { in.Password = "Passwordonly" }, "password must contain at least one digit"},
		{"password too short", func(in *usecase.RegisterInput) { in.Password = "Pw1" }, "password must be at least 8 characters long"},
		{"bad phone", func(in *usecase.RegisterInput) { in.Phone = "abc" }, "invalid phone number format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			user, err := svc.Register(ctx, in)
			require.Error(t, err)
			assert.True(t, domain.IsDomainError(err, domain.ErrCodeValidation))
			assert.Equal(t, tt.message, err.Error())
			assert.Nil(t, user)
		})
	}
	assert.Empty(t, store.users, "failed registrations must leave no partial row")
}

func TestRegisterDuplicateAccount(t *testing.T) {
	store := newMemStore()
	seedUser(t, store, "alice", "alice@example.com", "Password123", domain.RoleCustomer)
	svc, _ := newService(t, store)
	ctx := context.Background()

	_, err := svc.Register(ctx, usecase.RegisterInput{
		Username: "alice2",
		Email:    "alice@example.com",
		Password: "Password123",
	})
	require.ErrorIs(t, err, domain.ErrDuplicateAccount)
	assert.Len(t, store.users, 1)
}

func TestRegisterLoginLogoutScenario(t *testing.T) {
	store := newMemStore()
	svc, _ := newService(t, store)
	ctx := context.Background()

	user, err := svc.Register(ctx, usecase.RegisterInput{
		Username:  "alice",
		Email:     "alice@example.com",
		Password:  "Password123",
		FirstName: "Alice",
		LastName:  "Smith",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{domain.RoleCustomer}, store.userRole[user.ID])

	loyalty, ok := store.loyalty[user.ID]
	require.True(t, ok, "customer registration must initialize loyalty")
	assert.Equal(t, store.tiers[domain.TierBronze], loyalty.TierID)
	assert.Zero(t, loyalty.CurrentPoints)

	result, err := svc.Login(ctx, usecase.LoginInput{Login: "alice", Password: "Password123"})
	require.NoError(t, err)
	assert.Equal(t, []string{domain.RoleCustomer}, result.User.Roles)

	_, err = svc.Login(ctx, usecase.LoginInput{Login: "alice", Password: "wrongpass"})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	require.NoError(t, svc.Logout(ctx, result.Token))
	_, err = svc.Validate(ctx, result.Token)
	require.Error(t, err)
}
