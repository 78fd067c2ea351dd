package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const notifyTimeout = 30 * time.Second

// notifyVendors emails each vendor whose products were bought. It runs in the
// background and never affects the checkout result.
func (o *Orchestrator) notifyVendors(purchased map[uuid.UUID]int) {
	if o.notifier == nil || len(purchased) == 0 {
		return
	}

	o.notifications.Add(1)
	go func() {
		defer o.notifications.Done()

		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		ids := make([]uuid.UUID, 0, len(purchased))
		for id := range purchased {
			ids = append(ids, id)
		}

		products, err := o.store.FindProductsByIDs(ctx, ids)
		if err != nil {
			o.log.WithError(err).Warn("failed to load products for vendor notification")
			return
		}

		perVendor := map[uuid.UUID]int{}
		for _, product := range products {
			perVendor[product.UserID] += purchased[product.ID]
		}

		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(4)
		for vendorID, lines := range perVendor {
			g.Go(func() error {
				vendor, err := o.store.FindUserByID(ctx, vendorID)
				if err != nil {
					return err
				}
				return o.notifier.SendOrderNotification(ctx, vendor, lines)
			})
		}
		if err := g.Wait(); err != nil {
			o.log.WithError(err).Warn("vendor notification failed")
		}
	}()
}

// Wait blocks until background vendor notifications have finished.
func (o *Orchestrator) Wait() {
	o.notifications.Wait()
}
