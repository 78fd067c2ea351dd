package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/example/marketplace/internal/apperr"
	"github.com/example/marketplace/internal/auth"
	"github.com/example/marketplace/internal/config"
	"github.com/example/marketplace/internal/metrics"
	"github.com/example/marketplace/internal/middleware"
	"github.com/example/marketplace/internal/models"
	"github.com/example/marketplace/internal/response"
	"github.com/example/marketplace/internal/utils"
)

const refreshCookieName = "refresh_token"

// Authenticator is the account and session API the user routes expose.
type Authenticator interface {
	SignUp(ctx context.Context, in auth.SignUpInput, creator *utils.TokenClaims) (*models.User, error)
	ValidateEmail(ctx context.Context, id uuid.UUID, email string) (*models.User, error)
	SignIn(ctx context.Context, email, password string) (*auth.TokenPair, *models.User, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	SignOut(ctx context.Context, accessToken string) error
}

// UserStore is the user persistence the handler touches directly.
type UserStore interface {
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateUserStatus(ctx context.Context, id uuid.UUID, status models.UserStatus) error
	DeleteUserSessions(ctx context.Context, userID uuid.UUID) error
}

// UserHandler bundles dependencies for account endpoints.
type UserHandler struct {
	auth  Authenticator
	store UserStore
	cfg   *config.Config
	log   *logrus.Entry
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(authenticator Authenticator, store UserStore, cfg *config.Config, log *logrus.Logger) *UserHandler {
	return &UserHandler{auth: authenticator, store: store, cfg: cfg, log: log.WithField("component", "users")}
}

type signUpRequest struct {
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	Role      models.Role `json:"role"`
}

// Create registers a new account. A SUPER caller may choose its role.
func (h *UserHandler) Create(c *fiber.Ctx) error {
	var req signUpRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	user, err := h.auth.SignUp(c.UserContext(), auth.SignUpInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	}, middleware.GetClaims(c))
	if err != nil {
		return err
	}

	return response.OK(c, "Successfully created user. Check your email to verify your account.", user)
}

// Validate consumes an emailed verification link and redirects to the
// success or failure page.
func (h *UserHandler) Validate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Query("id"))
	if err != nil {
		return c.Redirect(h.cfg.ValidateFailureURL, fiber.StatusMovedPermanently)
	}

	if _, err := h.auth.ValidateEmail(c.UserContext(), id, c.Query("email")); err != nil {
		if !apperr.IsKind(err, apperr.KindNotFound) {
			h.log.WithError(err).Error("email validation failed")
		}
		return c.Redirect(h.cfg.ValidateFailureURL, fiber.StatusMovedPermanently)
	}

	return c.Redirect(h.cfg.ValidateSuccessURL, fiber.StatusMovedPermanently)
}

type signInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SignIn returns an access token and sets the refresh token cookie.
func (h *UserHandler) SignIn(c *fiber.Ctx) error {
	if middleware.GetClaims(c) != nil {
		return apperr.Auth("You are already signed in.")
	}

	var req signInRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	pair, user, err := h.auth.SignIn(c.UserContext(), req.Email, req.Password)
	metrics.RecordAuth("signin", err)
	if err != nil {
		return err
	}

	h.setRefreshCookie(c, pair.RefreshToken)
	return response.OK(c, "Successfully signed in.", fiber.Map{
		"access_token": pair.AccessToken,
		"user":         user,
	})
}

// Refresh rotates the token pair using the refresh cookie.
func (h *UserHandler) Refresh(c *fiber.Ctx) error {
	pair, err := h.auth.Refresh(c.UserContext(), c.Cookies(refreshCookieName))
	metrics.RecordAuth("refresh", err)
	if err != nil {
		return err
	}

	h.setRefreshCookie(c, pair.RefreshToken)
	return response.OK(c, "Successfully refreshed token.", fiber.Map{"access_token": pair.AccessToken})
}

// SignOut revokes the caller's session and clears the refresh cookie.
func (h *UserHandler) SignOut(c *fiber.Ctx) error {
	err := h.auth.SignOut(c.UserContext(), middleware.GetAccessToken(c))
	metrics.RecordAuth("signout", err)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     h.cfg.RefreshCookiePath,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
	return response.OK(c, "Successfully signed out.", nil)
}

// Me returns the caller's account.
func (h *UserHandler) Me(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	user, err := h.store.FindUserByID(c.UserContext(), claims.ID)
	if err != nil {
		return err
	}

	return response.OK(c, "Successfully retrieved user.", user)
}

// Delete marks an account DELETED and revokes its sessions. Users may delete
// themselves; staff may delete anyone.
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	id, err := parseID(c.Params("id"), "user_id")
	if err != nil {
		return err
	}
	if !auth.CanActOn(claims, id, auth.CapManageUsers) {
		return apperr.Auth("You are not authorized to delete this user.")
	}

	if err := h.setStatus(c.UserContext(), id, models.UserStatusDeleted); err != nil {
		return err
	}

	return response.OK(c, "Successfully deleted user.", nil)
}

type userStatusRequest struct {
	Status models.UserStatus `json:"status" validate:"required,oneof=ACTIVE INACTIVE"`
}

// SetStatus activates or deactivates an account.
func (h *UserHandler) SetStatus(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"), "user_id")
	if err != nil {
		return err
	}

	var req userStatusRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	if err := h.setStatus(c.UserContext(), id, req.Status); err != nil {
		return err
	}

	return response.OK(c, "Successfully updated user status.", fiber.Map{"id": id, "status": req.Status})
}

func (h *UserHandler) setStatus(ctx context.Context, id uuid.UUID, status models.UserStatus) error {
	if err := h.store.UpdateUserStatus(ctx, id, status); err != nil {
		return err
	}
	if status == models.UserStatusActive {
		return nil
	}
	return h.store.DeleteUserSessions(ctx, id)
}

func (h *UserHandler) setRefreshCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     h.cfg.RefreshCookiePath,
		Expires:  time.Now().Add(h.cfg.RefreshTokenTTL),
		HTTPOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}
