package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/example/marketplace/internal/apperr"
	"github.com/example/marketplace/internal/models"
	"github.com/example/marketplace/internal/utils"
)

func TestRoleCapabilities(t *testing.T) {
	assert.False(t, Has(models.RoleUser, CapSell))
	assert.True(t, Has(models.RoleVendor, CapSell))
	assert.False(t, Has(models.RoleVendor, CapManageCategories))
	assert.True(t, Has(models.RoleAdmin, CapViewDiscounts))
	assert.False(t, Has(models.RoleAdmin, CapManageDiscounts))
	assert.False(t, Has(models.RoleAdmin, CapManageOrdersAny))
	assert.True(t, Has(models.RoleSuper, CapManageOrdersAny))
	assert.True(t, Has(models.RoleSuper, CapAssignRoles))
	assert.False(t, Has(models.Role("UNKNOWN"), CapSell))
}

func TestAuthorize(t *testing.T) {
	err := Authorize(nil, CapSell)
	assert.True(t, apperr.IsKind(err, apperr.KindAuth))

	err = Authorize(&utils.TokenClaims{Role: models.RoleUser}, CapManageDiscounts)
	assert.True(t, apperr.IsKind(err, apperr.KindAuth))

	assert.NoError(t, Authorize(&utils.TokenClaims{Role: models.RoleSuper}, CapManageDiscounts))
}

func TestCanActOn(t *testing.T) {
	owner := uuid.New()

	assert.True(t, CanActOn(&utils.TokenClaims{ID: owner, Role: models.RoleVendor}, owner, CapManageCatalogAny))
	assert.False(t, CanActOn(&utils.TokenClaims{ID: uuid.New(), Role: models.RoleAdmin}, owner, CapManageCatalogAny))
	assert.True(t, CanActOn(&utils.TokenClaims{ID: uuid.New(), Role: models.RoleSuper}, owner, CapManageCatalogAny))
	assert.False(t, CanActOn(nil, owner, CapManageCatalogAny))
}
