package catalog

const productFields = `
fragment ProductFields on Product {
  id
  title
  descriptionHtml
  handle
  status
  productType
  tags
  totalInventory
  metafields(first: 50) {
    edges { node { namespace key type value } }
  }
  variants(first: 100) {
    edges { node { ...VariantFields } }
  }
}
`

const variantFields = `
fragment VariantFields on ProductVariant {
  id
  title
  price
  compareAtPrice
  inventoryQuantity
  inventoryItem { id }
  product { id }
  metafields(first: 20, namespace: "ticket") {
    edges { node { namespace key type value } }
  }
}
`

const productQuery = `
query Product($id: ID!) {
  product(id: $id) { ...ProductFields }
}
` + productFields + variantFields

const productsQuery = `
query Products($first: Int!, $after: String, $query: String) {
  products(first: $first, after: $after, query: $query, sortKey: CREATED_AT, reverse: true) {
    edges { node { ...ProductFields } }
    pageInfo { hasNextPage endCursor }
  }
}
` + productFields + variantFields

const productCreateMutation = `
mutation ProductCreate($product: ProductCreateInput!) {
  productCreate(product: $product) {
    product { ...ProductFields }
    userErrors { field message }
  }
}
` + productFields + variantFields

const productUpdateMutation = `
mutation ProductUpdate($product: ProductUpdateInput!) {
  productUpdate(product: $product) {
    product { ...ProductFields }
    userErrors { field message }
  }
}
` + productFields + variantFields

const productDeleteMutation = `
mutation ProductDelete($input: ProductDeleteInput!) {
  productDelete(input: $input) {
    deletedProductId
    userErrors { field message }
  }
}
`

const metafieldsSetMutation = `
mutation MetafieldsSet($metafields: [MetafieldsSetInput!]!) {
  metafieldsSet(metafields: $metafields) {
    metafields { namespace key }
    userErrors { field message code }
  }
}
`

const metafieldsDeleteMutation = `
mutation MetafieldsDelete($metafields: [MetafieldIdentifierInput!]!) {
  metafieldsDelete(metafields: $metafields) {
    deletedMetafields { ownerId namespace key }
    userErrors { field message }
  }
}
`

const variantQuery = `
query Variant($id: ID!) {
  productVariant(id: $id) { ...VariantFields }
}
` + variantFields

const variantsBulkCreateMutation = `
mutation VariantsBulkCreate($productId: ID!, $variants: [ProductVariantsBulkInput!]!) {
  productVariantsBulkCreate(productId: $productId, variants: $variants, strategy: REMOVE_STANDALONE_VARIANT) {
    productVariants { ...VariantFields }
    userErrors { field message }
  }
}
` + variantFields

const variantsBulkUpdateMutation = `
mutation VariantsBulkUpdate($productId: ID!, $variants: [ProductVariantsBulkInput!]!) {
  productVariantsBulkUpdate(productId: $productId, variants: $variants) {
    productVariants { ...VariantFields }
    userErrors { field message }
  }
}
` + variantFields

const variantsBulkDeleteMutation = `
mutation VariantsBulkDelete($productId: ID!, $variantsIds: [ID!]!) {
  productVariantsBulkDelete(productId: $productId, variantsIds: $variantsIds) {
    product { id }
    userErrors { field message }
  }
}
`

const inventoryActivateMutation = `
mutation InventoryActivate($inventoryItemId: ID!, $locationId: ID!) {
  inventoryActivate(inventoryItemId: $inventoryItemId, locationId: $locationId) {
    inventoryLevel { id }
    userErrors { field message }
  }
}
`

const inventorySetQuantitiesMutation = `
mutation InventorySet($input: InventorySetQuantitiesInput!) {
  inventorySetQuantities(input: $input) {
    inventoryAdjustmentGroup { reason }
    userErrors { field message code }
  }
}
`

const locationsQuery = `
query Locations {
  locations(first: 1) {
    edges { node { id } }
  }
}
`

// connection decodes the edges/node/pageInfo envelope.
type connection[T any] struct {
	Edges []struct {
		Node T `json:"node"`
	} `json:"edges"`
	PageInfo struct {
		HasNextPage bool   `json:"hasNextPage"`
		EndCursor   string `json:"endCursor"`
	} `json:"pageInfo"`
}

func (c connection[T]) nodes() []T {
	out := make([]T, 0, len(c.Edges))
	for _, e := range c.Edges {
		out = append(out, e.Node)
	}
	return out
}

type idRef struct {
	ID string `json:"id"`
}

type wireVariant struct {
	ID                string                `json:"id"`
	Title             string                `json:"title"`
	Price             string                `json:"price"`
	CompareAtPrice    *string               `json:"compareAtPrice"`
	InventoryQuantity *int                  `json:"inventoryQuantity"`
	InventoryItem     *idRef                `json:"inventoryItem"`
	Product           *idRef                `json:"product"`
	Metafields        connection[Metafield] `json:"metafields"`
}

type wireProduct struct {
	ID              string                  `json:"id"`
	Title           string                  `json:"title"`
	DescriptionHTML string                  `json:"descriptionHtml"`
	Handle          string                  `json:"handle"`
	Status          string                  `json:"status"`
	ProductType     string                  `json:"productType"`
	Tags            []string                `json:"tags"`
	TotalInventory  int                     `json:"totalInventory"`
	Metafields      connection[Metafield]   `json:"metafields"`
	Variants        connection[wireVariant] `json:"variants"`
}

func (w wireVariant) toVariant(productID string) Variant {
	v := Variant{
		ID:         ShortID(w.ID),
		ProductID:  ShortID(productID),
		Title:      w.Title,
		Price:      w.Price,
		Metafields: w.Metafields.nodes(),
	}
	if w.Product != nil && w.Product.ID != "" {
		v.ProductID = ShortID(w.Product.ID)
	}
	if w.CompareAtPrice != nil {
		v.CompareAtPrice = *w.CompareAtPrice
	}
	if w.InventoryQuantity != nil {
		v.InventoryQuantity = *w.InventoryQuantity
	}
	if w.InventoryItem != nil {
		v.InventoryItemID = ShortID(w.InventoryItem.ID)
	}
	return v
}

func (w wireProduct) toProduct() Product {
	p := Product{
		ID:              ShortID(w.ID),
		Title:           w.Title,
		DescriptionHTML: w.DescriptionHTML,
		Handle:          w.Handle,
		Status:          w.Status,
		ProductType:     w.ProductType,
		Tags:            w.Tags,
		TotalInventory:  w.TotalInventory,
		Metafields:      w.Metafields.nodes(),
	}
	for _, wv := range w.Variants.nodes() {
		p.Variants = append(p.Variants, wv.toVariant(w.ID))
	}
	return p
}
