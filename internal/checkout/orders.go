package checkout

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/example/marketplace/internal/apperr"
	"github.com/example/marketplace/internal/auth"
	"github.com/example/marketplace/internal/models"
	"github.com/example/marketplace/internal/store"
	"github.com/example/marketplace/internal/utils"
)

// UpdateOrderStatus moves a PENDING order to FULFILLED or CANCELLED. Only the
// product's vendor or a holder of CapManageOrdersAny may do so. Fulfilment
// also marks the invoice paid.
func (o *Orchestrator) UpdateOrderStatus(ctx context.Context, claims *utils.TokenClaims, orderID uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	if status != models.OrderStatusFulfilled && status != models.OrderStatusCancelled {
		return nil, apperr.Validation("Invalid status. Expected FULFILLED or CANCELLED.")
	}

	var order *models.Order
	err := o.store.Transaction(ctx, func(tx store.Tx) error {
		var err error
		order, err = tx.FindOrder(orderID)
		if err != nil {
			return err
		}
		if order.Product == nil {
			return apperr.NotFound("Order not found.")
		}
		if !auth.CanActOn(claims, order.Product.UserID, auth.CapManageOrdersAny) {
			return apperr.Auth("You are not authorized to update this order.")
		}
		if order.Status != models.OrderStatusPending {
			return apperr.Conflict("Only pending orders can be updated.")
		}

		if err := tx.UpdateOrderStatus(order.ID, status); err != nil {
			return err
		}
		order.Status = status

		if status == models.OrderStatusFulfilled {
			if err := tx.MarkInvoicePaid(order.ID); err != nil {
				return err
			}
			if order.Invoice != nil {
				order.Invoice.PaymentStatus = models.PaymentStatusPaid
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.log.WithFields(logrus.Fields{"order_id": order.ID, "status": status}).Info("order status updated")
	return order, nil
}
