package auth

import (
	"github.com/google/uuid"

	"github.com/example/marketplace/internal/apperr"
	"github.com/example/marketplace/internal/models"
	"github.com/example/marketplace/internal/utils"
)

// Capability names a single permission. Roles are granted capabilities through
// roleCapabilities; handlers never compare role strings directly.
type Capability string

const (
	CapAssignRoles      Capability = "users:assign-role"
	CapManageUsers      Capability = "users:manage"
	CapManageCategories Capability = "categories:manage"
	CapSell             Capability = "catalog:sell"
	CapManageCatalogAny Capability = "catalog:manage-any"
	CapManageOrdersAny  Capability = "orders:manage-any"
	CapViewAllOrders    Capability = "orders:view-all"
	CapManageDiscounts  Capability = "discounts:manage"
	CapViewDiscounts    Capability = "discounts:view"
	CapSettleInvoices   Capability = "invoices:settle"
	CapViewAllWishlists Capability = "wishlists:view-all"
)

var roleCapabilities = map[models.Role][]Capability{
	models.RoleUser: nil,
	models.RoleVendor: {
		CapSell,
	},
	models.RoleAdmin: {
		CapManageUsers,
		CapManageCategories,
		CapSell,
		CapViewAllOrders,
		CapViewDiscounts,
		CapSettleInvoices,
		CapViewAllWishlists,
	},
	models.RoleSuper: {
		CapAssignRoles,
		CapManageUsers,
		CapManageCategories,
		CapSell,
		CapManageCatalogAny,
		CapManageOrdersAny,
		CapViewAllOrders,
		CapManageDiscounts,
		CapViewDiscounts,
		CapSettleInvoices,
		CapViewAllWishlists,
	},
}

// Has reports whether role grants capability.
func Has(role models.Role, capability Capability) bool {
	for _, granted := range roleCapabilities[role] {
		if granted == capability {
			return true
		}
	}
	return false
}

// Authorize fails with an AuthError unless claims grant capability.
func Authorize(claims *utils.TokenClaims, capability Capability) error {
	if claims == nil || !Has(claims.Role, capability) {
		return apperr.Auth("You are not authorized to perform this action.")
	}
	return nil
}

// CanActOn allows the owner of a resource or a holder of capability.
func CanActOn(claims *utils.TokenClaims, owner uuid.UUID, capability Capability) bool {
	if claims == nil {
		return false
	}
	return claims.ID == owner || Has(claims.Role, capability)
}
