package catalog

import (
	"context"

	"go.uber.org/zap"
)

// SetInventory makes quantity the available stock of an inventory item at
// the configured location. The item is activated there first; activation
// of an already-stocked item is not an error. The write is last-writer-wins.
func (c *Client) SetInventory(ctx context.Context, inventoryItemID string, quantity int) error {
	locationID, err := c.location(ctx)
	if err != nil {
		return err
	}
	itemID := InventoryItemGID(inventoryItemID)

	var act struct {
		InventoryActivate struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"inventoryActivate"`
	}
	vars := map[string]any{"inventoryItemId": itemID, "locationId": locationID}
	if err := c.do(ctx, "inventoryActivate", inventoryActivateMutation, vars, &act); err != nil {
		return err
	}
	if len(act.InventoryActivate.UserErrors) > 0 {
		c.log.Debug("inventory activate returned user errors",
			zap.String("inventory_item_id", itemID),
			zap.Any("user_errors", act.InventoryActivate.UserErrors))
	}

	var set struct {
		InventorySetQuantities struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"inventorySetQuantities"`
	}
	input := map[string]any{
		"name":                  "available",
		"reason":                "correction",
		"ignoreCompareQuantity": true,
		"quantities": []map[string]any{{
			"inventoryItemId": itemID,
			"locationId":      locationID,
			"quantity":        quantity,
		}},
	}
	if err := c.do(ctx, "inventorySetQuantities", inventorySetQuantitiesMutation, map[string]any{"input": input}, &set); err != nil {
		return err
	}
	return userErrorsToError("inventorySetQuantities", set.InventorySetQuantities.UserErrors)
}

// location returns the configured location, or the store's first one,
// looked up once and remembered. Concurrent first callers share a single
// lookup and no lock is held while it is in flight.
func (c *Client) location(ctx context.Context) (string, error) {
	c.locMu.RLock()
	id := c.locationID
	c.locMu.RUnlock()
	if id != "" {
		return LocationGID(id), nil
	}

	v, err, _ := c.locGroup.Do("location", func() (any, error) {
		// a caller that gives up must not fail the others waiting on it
		ctx := context.WithoutCancel(ctx)
		var out struct {
			Locations connection[idRef] `json:"locations"`
		}
		if err := c.do(ctx, "locations", locationsQuery, nil, &out); err != nil {
			return "", err
		}
		nodes := out.Locations.nodes()
		if len(nodes) == 0 || nodes[0].ID == "" {
			return "", newError(KindProtocol, "locations", "store has no inventory location")
		}
		c.locMu.Lock()
		c.locationID = nodes[0].ID
		c.locMu.Unlock()
		return nodes[0].ID, nil
	})
	if err != nil {
		return "", err
	}
	return LocationGID(v.(string)), nil
}
