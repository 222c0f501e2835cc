// Package service contains the business logic layer.
//
// Handlers parse HTTP and write responses; services validate input, enforce
// business rules, and talk to the repositories; repositories run SQL. A
// service method accepts primitives and a context, never an *http.Request,
// and returns domain errors (apperror), never status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/quotes-api/internal/apperror"
	"github.com/sakif/quotes-api/internal/auth"
	"github.com/sakif/quotes-api/internal/model"
	"github.com/sakif/quotes-api/internal/repository"
)

// rateLimitWindow is the minimum spacing between authenticated requests per
// user: a 1-slot bucket with no burst allowance.
const rateLimitWindow = time.Second

// registrationFieldCap bounds the free-text fields of the API-key signup
// form before they reach the database.
const registrationFieldCap = 1000

var handlePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{1,20}$`)

// KeyCredentials is what a successful API-key registration hands back.
// The secret key exists in plaintext only inside this struct, exactly once;
// the store keeps the hash.
type KeyCredentials struct {
	IdentityKey string `json:"identityKey"`
	SecretKey   string `json:"secretKey"`
}

// AccountService owns registration, authentication, the per-user rate limit,
// and the portal operations.
type AccountService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewAccountService wires the account service. The "handle" rule used for
// usernames is registered here so validation tags stay declarative.
func NewAccountService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AccountService {
	v := validator.New()
	// Usernames: 1-20 chars, alphanumerics and underscores only.
	_ = v.RegisterValidation("handle", func(fl validator.FieldLevel) bool {
		return handlePattern.MatchString(fl.Field().String())
	})

	return &AccountService{
		users:     users,
		passwords: passwords,
		validate:  v,
		logger:    logger,
	}
}

// IsSpam is the honeypot pre-check for the API-key signup form. The reason
// field is hidden in the real form; humans leave it empty, bots fill it.
// Callers answer spam with a fake success and never touch the store.
func (s *AccountService) IsSpam(reason string) bool {
	return reason != ""
}

// RegisterWithKeys creates an API-key account and returns the one-time
// credentials. The caller has already applied the honeypot check.
//
// The identity key is re-rolled until it is unused. With 256 bits of entropy
// the loop body effectively runs once; the check exists so a collision is
// impossible rather than merely improbable.
func (s *AccountService) RegisterWithKeys(ctx context.Context, name, email string) (*KeyCredentials, error) {
	if name == "" || email == "" {
		return nil, apperror.ValidationFailed("body", `invalid "name" and/or "email" inputs`)
	}
	if len(name) > registrationFieldCap {
		name = name[:registrationFieldCap]
	}
	if len(email) > registrationFieldCap {
		email = email[:registrationFieldCap]
	}

	taken, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("checking email: %w", err)
	}
	if taken {
		return nil, apperror.Conflict(fmt.Sprintf("user already exists with given email: %s", email))
	}

	identityKey, err := s.uniqueIdentityKey(ctx)
	if err != nil {
		return nil, err
	}
	secretKey, err := auth.GenerateSecretKey()
	if err != nil {
		return nil, fmt.Errorf("generating secret key: %w", err)
	}
	secretHash, err := s.passwords.Hash(secretKey)
	if err != nil {
		return nil, fmt.Errorf("hashing secret key: %w", err)
	}

	user := &model.User{
		Identifier: identityKey,
		Name:       name,
		Email:      email,
		SecretHash: secretHash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("api-key account registered", slog.String("userID", user.ID))

	return &KeyCredentials{IdentityKey: identityKey, SecretKey: secretKey}, nil
}

// RegisterWithPassword creates a username/password account for the portal.
func (s *AccountService) RegisterWithPassword(ctx context.Context, username, email, password string) error {
	if err := s.validate.Var(username, "required,handle"); err != nil {
		return apperror.ValidationFailed("username",
			"username must be 1-20 characters of alphanumerics and underscores")
	}
	if err := s.validateEmail(email); err != nil {
		return err
	}
	if err := s.validatePassword(password); err != nil {
		return err
	}

	taken, err := s.users.IdentifierExists(ctx, username)
	if err != nil {
		return fmt.Errorf("checking username: %w", err)
	}
	if taken {
		return apperror.Conflict(fmt.Sprintf("username already exists: %s", username))
	}
	taken, err = s.users.EmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("checking email: %w", err)
	}
	if taken {
		return apperror.Conflict(fmt.Sprintf("user already exists with given email: %s", email))
	}

	secretHash, err := s.passwords.Hash(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{
		Identifier: username,
		Email:      email,
		SecretHash: secretHash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("portal account registered", slog.String("userID", user.ID))
	return nil
}

// Authenticate resolves a validated identifier and secret against the store.
//
// An unknown identifier and a wrong secret both come back as
// apperror.ErrUnauthenticated (the API never answers 404 for identities).
// A corrupt stored hash is a plain internal error so the HTTP layer reports
// 500 instead of blaming the client's credentials.
func (s *AccountService) Authenticate(ctx context.Context, identifier, secret string) (*model.User, error) {
	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthenticated("identity is not recognized")
		}
		return nil, fmt.Errorf("looking up identity: %w", err)
	}

	if err := s.passwords.Verify(user.SecretHash, secret); err != nil {
		if errors.Is(err, auth.ErrMismatch) {
			return nil, apperror.Unauthenticated("secret is invalid")
		}
		s.logger.Error("stored hash failed verification",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("verifying secret: %w", err)
	}

	return user, nil
}

// Allow applies the per-user rate limit: one request per second, enforced as
// a single atomic check-then-set on the stored last-call timestamp. On
// refusal the timestamp is left untouched, so a client hammering the API
// still gets through once the original window elapses.
func (s *AccountService) Allow(ctx context.Context, identifier string, now time.Time) error {
	ok, err := s.users.TouchLastCall(ctx, identifier, now.UnixMilli(), rateLimitWindow.Milliseconds())
	if err != nil {
		return fmt.Errorf("recording call time: %w", err)
	}
	if !ok {
		return apperror.RateLimited("rate limit is one request every second")
	}
	return nil
}

// CurrentEmail returns the stored contact email for the authenticated user.
func (s *AccountService) CurrentEmail(ctx context.Context, identifier string) (string, error) {
	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		return "", fmt.Errorf("fetching user: %w", err)
	}
	return user.Email, nil
}

// ChangeEmail validates and stores a new contact email. On validation
// failure the stored value is untouched.
func (s *AccountService) ChangeEmail(ctx context.Context, identifier, newEmail string) error {
	if err := s.validateEmail(newEmail); err != nil {
		return err
	}
	if err := s.users.UpdateEmail(ctx, identifier, newEmail); err != nil {
		return fmt.Errorf("updating email: %w", err)
	}
	s.logger.Info("email updated", slog.String("identifier", identifier))
	return nil
}

// ChangePassword validates, hashes, and stores a new password. The old
// password stops authenticating the moment the update lands.
func (s *AccountService) ChangePassword(ctx context.Context, identifier, newPassword string) error {
	if err := s.validatePassword(newPassword); err != nil {
		return err
	}
	secretHash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := s.users.UpdateSecretHash(ctx, identifier, secretHash); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	s.logger.Info("password updated", slog.String("identifier", identifier))
	return nil
}

// DeleteAccount removes the user row unconditionally.
func (s *AccountService) DeleteAccount(ctx context.Context, identifier string) error {
	if err := s.users.Delete(ctx, identifier); err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	s.logger.Info("account deleted", slog.String("identifier", identifier))
	return nil
}

// validateEmail enforces the registration email rules: at most 254 chars and
// containing an "@". Deliberately loose beyond that — full RFC 5322
// validation rejects real addresses.
func (s *AccountService) validateEmail(email string) error {
	if err := s.validate.Var(email, "required,max=254,contains=@"); err != nil {
		return apperror.ValidationFailed("email", "email address is invalid")
	}
	return nil
}

// validatePassword enforces 8-128 alphanumeric characters.
func (s *AccountService) validatePassword(password string) error {
	if err := s.validate.Var(password, "required,alphanum,min=8,max=128"); err != nil {
		return apperror.ValidationFailed("password", "password does not meet requirements")
	}
	return nil
}

// uniqueIdentityKey draws identity keys until one is unused.
func (s *AccountService) uniqueIdentityKey(ctx context.Context) (string, error) {
	for {
		key, err := auth.GenerateIdentityKey()
		if err != nil {
			return "", fmt.Errorf("generating identity key: %w", err)
		}
		taken, err := s.users.IdentifierExists(ctx, key)
		if err != nil {
			return "", fmt.Errorf("checking identity key: %w", err)
		}
		if !taken {
			return key, nil
		}
	}
}
