package catalog

import (
	"context"
	"strings"
)

// FetchProduct loads one product with its metafields and variants.
func (c *Client) FetchProduct(ctx context.Context, id string) (*Product, error) {
	var out struct {
		Product *wireProduct `json:"product"`
	}
	if err := c.do(ctx, "product", productQuery, map[string]any{"id": ProductGID(id)}, &out); err != nil {
		return nil, err
	}
	if out.Product == nil {
		return nil, newError(KindNotFound, "product", "product %s not found", ShortID(id))
	}
	p := out.Product.toProduct()
	return &p, nil
}

// ListProducts returns one cursor page. query uses the remote search
// syntax and may be empty.
func (c *Client) ListProducts(ctx context.Context, query, cursor string, pageSize int) (ProductPage, error) {
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	vars := map[string]any{"first": pageSize}
	if cursor != "" {
		vars["after"] = cursor
	}
	if query != "" {
		vars["query"] = query
	}
	var out struct {
		Products *connection[wireProduct] `json:"products"`
	}
	if err := c.do(ctx, "products", productsQuery, vars, &out); err != nil {
		return ProductPage{}, err
	}
	if out.Products == nil {
		return ProductPage{}, newError(KindProtocol, "products", "missing products connection")
	}
	page := ProductPage{
		Products:    make([]Product, 0, len(out.Products.Edges)),
		EndCursor:   out.Products.PageInfo.EndCursor,
		HasNextPage: out.Products.PageInfo.HasNextPage,
	}
	for _, wp := range out.Products.nodes() {
		page.Products = append(page.Products, wp.toProduct())
	}
	return page, nil
}

// ListAllProducts walks pages sequentially until the listing is exhausted
// or MaxListItems products have been collected.
func (c *Client) ListAllProducts(ctx context.Context, query string) ([]Product, error) {
	var (
		all    []Product
		cursor string
	)
	for len(all) < MaxListItems {
		size := MaxListItems - len(all)
		if size > maxPageSize {
			size = maxPageSize
		}
		page, err := c.ListProducts(ctx, query, cursor, size)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Products...)
		if !page.HasNextPage || page.EndCursor == "" {
			break
		}
		cursor = page.EndCursor
	}
	if len(all) > MaxListItems {
		all = all[:MaxListItems]
	}
	return all, nil
}

type productPayload struct {
	Product    *wireProduct `json:"product"`
	UserErrors []UserError  `json:"userErrors"`
}

// CreateProduct creates a product. Metafields in the input are written
// inline with the same mutation.
func (c *Client) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	in.ID = ""
	var out struct {
		ProductCreate productPayload `json:"productCreate"`
	}
	if err := c.do(ctx, "productCreate", productCreateMutation, map[string]any{"product": in}, &out); err != nil {
		return nil, err
	}
	return productResult("productCreate", out.ProductCreate)
}

// UpdateProduct applies the native fields in the input. Nil fields are
// not sent.
func (c *Client) UpdateProduct(ctx context.Context, id string, in ProductInput) (*Product, error) {
	in.ID = ProductGID(id)
	var out struct {
		ProductUpdate productPayload `json:"productUpdate"`
	}
	if err := c.do(ctx, "productUpdate", productUpdateMutation, map[string]any{"product": in}, &out); err != nil {
		return nil, err
	}
	return productResult("productUpdate", out.ProductUpdate)
}

func productResult(op string, p productPayload) (*Product, error) {
	if err := userErrorsToError(op, p.UserErrors); err != nil {
		return nil, err
	}
	if p.Product == nil {
		return nil, newError(KindProtocol, op, "mutation returned no product")
	}
	prod := p.Product.toProduct()
	return &prod, nil
}

// DeleteProduct removes a product and all of its variants.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	var out struct {
		ProductDelete struct {
			DeletedProductID *string     `json:"deletedProductId"`
			UserErrors       []UserError `json:"userErrors"`
		} `json:"productDelete"`
	}
	vars := map[string]any{"input": map[string]any{"id": ProductGID(id)}}
	if err := c.do(ctx, "productDelete", productDeleteMutation, vars, &out); err != nil {
		return err
	}
	if err := userErrorsToError("productDelete", out.ProductDelete.UserErrors); err != nil {
		return err
	}
	if out.ProductDelete.DeletedProductID == nil {
		return newError(KindNotFound, "productDelete", "product %s not found", ShortID(id))
	}
	return nil
}

// metafieldsSet accepts at most 25 entries per call.
const metafieldsBatch = 25

// SetMetafields writes extension fields. Owner ids must be global ids.
func (c *Client) SetMetafields(ctx context.Context, fields []MetafieldInput) error {
	for start := 0; start < len(fields); start += metafieldsBatch {
		end := start + metafieldsBatch
		if end > len(fields) {
			end = len(fields)
		}
		var out struct {
			MetafieldsSet struct {
				UserErrors []UserError `json:"userErrors"`
			} `json:"metafieldsSet"`
		}
		vars := map[string]any{"metafields": fields[start:end]}
		if err := c.do(ctx, "metafieldsSet", metafieldsSetMutation, vars, &out); err != nil {
			return err
		}
		if err := userErrorsToError("metafieldsSet", out.MetafieldsSet.UserErrors); err != nil {
			return err
		}
	}
	return nil
}

// SetMetafield writes a single extension field.
func (c *Client) SetMetafield(ctx context.Context, ownerID, namespace, key string, v Value) error {
	return c.SetMetafields(ctx, []MetafieldInput{{
		OwnerID:   ownerID,
		Namespace: namespace,
		Key:       key,
		Type:      v.Type(),
		Value:     v.Raw(),
	}})
}

// DeleteMetafields clears extension fields. Missing fields are ignored.
func (c *Client) DeleteMetafields(ctx context.Context, refs []MetafieldRef) error {
	if len(refs) == 0 {
		return nil
	}
	var out struct {
		MetafieldsDelete struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"metafieldsDelete"`
	}
	if err := c.do(ctx, "metafieldsDelete", metafieldsDeleteMutation, map[string]any{"metafields": refs}, &out); err != nil {
		return err
	}
	var errs []UserError
	for _, ue := range out.MetafieldsDelete.UserErrors {
		if !strings.Contains(strings.ToLower(ue.Message), "not found") {
			errs = append(errs, ue)
		}
	}
	return userErrorsToError("metafieldsDelete", errs)
}
