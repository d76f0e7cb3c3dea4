package catalog

// Metafield is one extension field as read from the remote.
type Metafield struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Type      string `json:"type"`
	Value     string `json:"value"`
}

// Lookup returns the first metafield matching namespace and key.
func Lookup(fields []Metafield, namespace, key string) (Metafield, bool) {
	for _, f := range fields {
		if f.Namespace == namespace && f.Key == key {
			return f, true
		}
	}
	return Metafield{}, false
}

// Product is the raw remote product. Status is upper-case as the remote
// returns it (DRAFT, ACTIVE, ARCHIVED).
type Product struct {
	ID              string
	Title           string
	DescriptionHTML string
	Handle          string
	Status          string
	ProductType     string
	Tags            []string
	TotalInventory  int
	Metafields      []Metafield
	Variants        []Variant
}

// Variant is the raw remote variant. InventoryQuantity is the live
// available quantity at the remote.
type Variant struct {
	ID                string
	ProductID         string
	Title             string
	Price             string
	CompareAtPrice    string
	InventoryQuantity int
	InventoryItemID   string
	Metafields        []Metafield
}

// ProductPage is one cursor page of a product listing.
type ProductPage struct {
	Products    []Product
	EndCursor   string
	HasNextPage bool
}

// MetafieldInput is one extension write. OwnerID is empty when the field
// is sent inline with a create mutation.
type MetafieldInput struct {
	OwnerID   string `json:"ownerId,omitempty"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Type      string `json:"type"`
	Value     string `json:"value"`
}

// MetafieldRef identifies an extension field to clear.
type MetafieldRef struct {
	OwnerID   string `json:"ownerId"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
}

// ProductInput carries native product fields. Nil pointers are omitted.
type ProductInput struct {
	ID              string           `json:"id,omitempty"`
	Title           *string          `json:"title,omitempty"`
	DescriptionHTML *string          `json:"descriptionHtml,omitempty"`
	Handle          *string          `json:"handle,omitempty"`
	Status          *string          `json:"status,omitempty"`
	ProductType     *string          `json:"productType,omitempty"`
	Tags            *[]string        `json:"tags,omitempty"`
	Metafields      []MetafieldInput `json:"metafields,omitempty"`
}

// Empty reports whether the input changes nothing.
func (p ProductInput) Empty() bool {
	return p.Title == nil && p.DescriptionHTML == nil && p.Handle == nil &&
		p.Status == nil && p.ProductType == nil && p.Tags == nil && len(p.Metafields) == 0
}

type OptionValue struct {
	OptionName string `json:"optionName"`
	Name       string `json:"name"`
}

type InventoryItemInput struct {
	Tracked *bool `json:"tracked,omitempty"`
}

// VariantInput carries native variant fields for the bulk variant mutations.
type VariantInput struct {
	ID              string              `json:"id,omitempty"`
	OptionValues    []OptionValue       `json:"optionValues,omitempty"`
	Price           *string             `json:"price,omitempty"`
	CompareAtPrice  *string             `json:"compareAtPrice,omitempty"`
	InventoryPolicy string              `json:"inventoryPolicy,omitempty"`
	InventoryItem   *InventoryItemInput `json:"inventoryItem,omitempty"`
	Metafields      []MetafieldInput    `json:"metafields,omitempty"`
}

func (v VariantInput) Empty() bool {
	return len(v.OptionValues) == 0 && v.Price == nil && v.CompareAtPrice == nil &&
		v.InventoryPolicy == "" && v.InventoryItem == nil && len(v.Metafields) == 0
}

// TitleOption is the option every ticket variant uses for its name.
const TitleOption = "Title"
