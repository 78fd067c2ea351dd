// Package auth issues, verifies, rotates and revokes session tokens and owns
// the role to capability table.
package auth

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/example/marketplace/internal/apperr"
	"github.com/example/marketplace/internal/config"
	"github.com/example/marketplace/internal/models"
	"github.com/example/marketplace/internal/utils"
)

const minPasswordLength = 8

// Store is the persistence the manager needs.
type Store interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User, verification *models.Verification) error
	CreateVerification(ctx context.Context, verification *models.Verification) error
	ConsumeVerification(ctx context.Context, id uuid.UUID, email string) (*models.User, error)
	CreateSession(ctx context.Context, session *models.AuthSession) error
	FindSession(ctx context.Context, accessToken string, userID uuid.UUID) (*models.AuthSession, error)
	FindSessionByRefresh(ctx context.Context, refreshToken string) (*models.AuthSession, error)
	RotateSession(ctx context.Context, id uuid.UUID, oldRefresh, access, refresh string) error
	DeleteSession(ctx context.Context, accessToken string) error
}

// Mailer delivers verification links.
type Mailer interface {
	SendVerification(ctx context.Context, user *models.User, link string) error
}

// TokenPair is a freshly minted access and refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// SignUpInput carries a new account. Role is honoured only when the creator
// may assign roles.
type SignUpInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      models.Role
}

// Manager implements sign-up, sign-in, token verification, refresh and
// sign-out against persisted AuthSession rows.
type Manager struct {
	store  Store
	mailer Mailer
	cfg    *config.Config
	log    *logrus.Entry
	now    func() time.Time
}

// NewManager constructs a Manager.
func NewManager(store Store, mailer Mailer, cfg *config.Config, log *logrus.Logger) *Manager {
	return &Manager{
		store:  store,
		mailer: mailer,
		cfg:    cfg,
		log:    log.WithField("component", "auth"),
		now:    time.Now,
	}
}

// SignUp creates a PENDING user and emails a verification link.
func (m *Manager) SignUp(ctx context.Context, in SignUpInput, creator *utils.TokenClaims) (*models.User, error) {
	email := utils.NormalizeEmail(in.Email)

	if !utils.ValidName(in.FirstName) || !utils.ValidName(in.LastName) {
		return nil, apperr.Validation("Invalid first_name or last_name. first_name and last_name expected to be greater than length 1.")
	}
	if !utils.ValidEmail(email) {
		return nil, apperr.Validation("Invalid email. please check the email and try again.")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperr.Validation("Invalid password. Password expected to be at least 8 characters.")
	}

	role := models.RoleUser
	if in.Role != "" && in.Role != models.RoleUser {
		if !in.Role.Valid() {
			return nil, apperr.Validation("Invalid role.")
		}
		if err := Authorize(creator, CapAssignRoles); err != nil {
			return nil, err
		}
		role = in.Role
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         role,
		Status:       models.UserStatusPending,
	}
	verification := &models.Verification{ExpiresAt: m.now().Add(m.cfg.VerificationTTL)}
	if err := m.store.CreateUser(ctx, user, verification); err != nil {
		return nil, err
	}

	m.sendVerification(ctx, user, verification)
	return user, nil
}

// ValidateEmail consumes a verification record and activates its user.
func (m *Manager) ValidateEmail(ctx context.Context, id uuid.UUID, email string) (*models.User, error) {
	return m.store.ConsumeVerification(ctx, id, utils.NormalizeEmail(email))
}

// SignIn checks credentials and account status and opens a session.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*TokenPair, *models.User, error) {
	user, err := m.store.FindUserByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, nil, apperr.Auth("Invalid email or password.")
		}
		return nil, nil, err
	}

	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, nil, apperr.Auth("Invalid email or password.")
	}

	switch user.Status {
	case models.UserStatusActive:
	case models.UserStatusInactive:
		return nil, nil, apperr.Auth("Your account has been deactivated. Please contact support.")
	default:
		verification := &models.Verification{
			UserID:    user.ID,
			Email:     user.Email,
			ExpiresAt: m.now().Add(m.cfg.VerificationTTL),
		}
		if err := m.store.CreateVerification(ctx, verification); err != nil {
			return nil, nil, err
		}
		m.sendVerification(ctx, user, verification)
		return nil, nil, apperr.Auth("Your email is not verified. A new verification link has been sent to your inbox.")
	}

	pair, err := m.mint(user)
	if err != nil {
		return nil, nil, err
	}

	session := &models.AuthSession{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		UserID:       user.ID,
	}
	if err := m.store.CreateSession(ctx, session); err != nil {
		return nil, nil, err
	}

	m.log.WithField("user_id", user.ID).Info("user signed in")
	return pair, user, nil
}

// Verify authenticates an Authorization header. With optional set, a missing
// header yields nil claims and no error. The raw access token is returned for
// sign-out.
func (m *Manager) Verify(ctx context.Context, header string, optional bool) (*utils.TokenClaims, string, error) {
	if strings.TrimSpace(header) == "" {
		if optional {
			return nil, "", nil
		}
		return nil, "", apperr.Auth("Authorization header is required.")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return nil, "", apperr.Auth("Invalid authorization header.")
	}
	token := strings.TrimSpace(parts[1])

	claims, err := utils.ParseToken(m.cfg.AccessTokenSecret, token)
	if err != nil {
		return nil, "", apperr.Auth("Invalid or expired access token.")
	}

	if _, err := m.store.FindSession(ctx, token, claims.ID); err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, "", apperr.Auth("Session has been revoked. Please sign in again.")
		}
		return nil, "", err
	}

	return claims, token, nil
}

// Refresh exchanges a refresh token for a new pair. Each refresh token can be
// exchanged once; the loser of a concurrent exchange gets an AuthError.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, apperr.Auth("Refresh token is required.")
	}

	claims, err := utils.ParseToken(m.cfg.RefreshTokenSecret, refreshToken)
	if err != nil {
		return nil, apperr.Auth("Invalid or expired refresh token.")
	}

	session, err := m.store.FindSessionByRefresh(ctx, refreshToken)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.Auth("Invalid or expired refresh token.")
		}
		return nil, err
	}
	if session.UserID != claims.ID {
		return nil, apperr.Auth("Invalid or expired refresh token.")
	}

	user, err := m.store.FindUserByID(ctx, claims.ID)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.Auth("Invalid or expired refresh token.")
		}
		return nil, err
	}
	if user.Status != models.UserStatusActive {
		return nil, apperr.Auth("Your account is not active.")
	}

	pair, err := m.mint(user)
	if err != nil {
		return nil, err
	}

	if err := m.store.RotateSession(ctx, session.ID, refreshToken, pair.AccessToken, pair.RefreshToken); err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.Auth("Refresh token has already been used.")
		}
		return nil, err
	}

	return pair, nil
}

// SignOut revokes the session owning accessToken.
func (m *Manager) SignOut(ctx context.Context, accessToken string) error {
	return m.store.DeleteSession(ctx, accessToken)
}

func (m *Manager) mint(user *models.User) (*TokenPair, error) {
	claims := utils.ClaimsFor(user)

	access, err := utils.GenerateToken(m.cfg.AccessTokenSecret, claims, m.cfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := utils.GenerateToken(m.cfg.RefreshTokenSecret, claims, m.cfg.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerificationLink builds the URL mailed to a new user.
func (m *Manager) VerificationLink(verification *models.Verification) string {
	query := url.Values{}
	query.Set("email", verification.Email)
	query.Set("id", verification.ID.String())
	return m.cfg.AppBaseURL + "/users/validate?" + query.Encode()
}

// sendVerification is best effort; the account exists either way and the
// user can request another link by signing in.
func (m *Manager) sendVerification(ctx context.Context, user *models.User, verification *models.Verification) {
	if m.mailer == nil {
		return
	}
	if err := m.mailer.SendVerification(ctx, user, m.VerificationLink(verification)); err != nil {
		m.log.WithError(err).WithField("user_id", user.ID).Warn("failed to send verification email")
	}
}
