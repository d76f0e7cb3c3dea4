package catalog

import "strings"

const gidPrefix = "gid://shopify/"

// ShortID strips a global id down to its numeric tail. Short ids pass
// through unchanged.
func ShortID(id string) string {
	id = strings.TrimSpace(id)
	if strings.HasPrefix(id, gidPrefix) {
		if i := strings.LastIndexByte(id, '/'); i >= 0 {
			id = id[i+1:]
		}
		// gids may carry query parameters
		if i := strings.IndexByte(id, '?'); i >= 0 {
			id = id[:i]
		}
	}
	return id
}

func globalID(resource, id string) string {
	id = strings.TrimSpace(id)
	if strings.HasPrefix(id, gidPrefix) {
		return id
	}
	return gidPrefix + resource + "/" + id
}

// ProductGID returns the fully-qualified product id.
func ProductGID(id string) string { return globalID("Product", id) }

// VariantGID returns the fully-qualified variant id.
func VariantGID(id string) string { return globalID("ProductVariant", id) }

// InventoryItemGID returns the fully-qualified inventory item id.
func InventoryItemGID(id string) string { return globalID("InventoryItem", id) }

// LocationGID returns the fully-qualified location id.
func LocationGID(id string) string { return globalID("Location", id) }
