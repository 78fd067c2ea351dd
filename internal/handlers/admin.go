package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/marketplace/internal/models"
	"github.com/example/marketplace/internal/response"
	"github.com/example/marketplace/internal/store"
	"github.com/example/marketplace/internal/utils"
)

// AdminStore backs the staff dashboard.
type AdminStore interface {
	Stats(ctx context.Context, now time.Time) (*store.DashboardStats, error)
	ListUsers(ctx context.Context, pg utils.Pagination, search string) ([]models.User, int64, error)
}

// AdminHandler manages staff-only endpoints.
type AdminHandler struct {
	store AdminStore
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(s AdminStore) *AdminHandler {
	return &AdminHandler{store: s}
}

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	stats, err := h.store.Stats(c.UserContext(), time.Now())
	if err != nil {
		return err
	}
	return response.OK(c, "Successfully retrieved stats.", stats)
}

// ListUsers returns registered users with pagination and search.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	users, total, err := h.store.ListUsers(c.UserContext(), pg, strings.TrimSpace(c.Query("search")))
	if err != nil {
		return err
	}
	return response.OK(c, "Successfully retrieved users.", paginated(users, pg, total))
}
