package catalog

import "context"

// FetchVariant loads one variant together with its parent product id.
func (c *Client) FetchVariant(ctx context.Context, id string) (*Variant, error) {
	var out struct {
		ProductVariant *wireVariant `json:"productVariant"`
	}
	if err := c.do(ctx, "productVariant", variantQuery, map[string]any{"id": VariantGID(id)}, &out); err != nil {
		return nil, err
	}
	if out.ProductVariant == nil {
		return nil, newError(KindNotFound, "productVariant", "variant %s not found", ShortID(id))
	}
	v := out.ProductVariant.toVariant("")
	return &v, nil
}

type variantsPayload struct {
	ProductVariants []wireVariant `json:"productVariants"`
	UserErrors      []UserError   `json:"userErrors"`
}

func variantResult(op, productID string, p variantsPayload) (*Variant, error) {
	if err := userErrorsToError(op, p.UserErrors); err != nil {
		return nil, err
	}
	if len(p.ProductVariants) == 0 {
		return nil, newError(KindProtocol, op, "mutation returned no variant")
	}
	v := p.ProductVariants[0].toVariant(productID)
	return &v, nil
}

// CreateVariant adds a variant to a product. The placeholder variant a
// new product is created with is replaced by the first real one.
func (c *Client) CreateVariant(ctx context.Context, productID string, in VariantInput) (*Variant, error) {
	in.ID = ""
	var out struct {
		Payload variantsPayload `json:"productVariantsBulkCreate"`
	}
	vars := map[string]any{
		"productId": ProductGID(productID),
		"variants":  []VariantInput{in},
	}
	if err := c.do(ctx, "productVariantsBulkCreate", variantsBulkCreateMutation, vars, &out); err != nil {
		return nil, err
	}
	return variantResult("productVariantsBulkCreate", productID, out.Payload)
}

// UpdateVariant applies the native fields in the input.
func (c *Client) UpdateVariant(ctx context.Context, productID, variantID string, in VariantInput) (*Variant, error) {
	in.ID = VariantGID(variantID)
	var out struct {
		Payload variantsPayload `json:"productVariantsBulkUpdate"`
	}
	vars := map[string]any{
		"productId": ProductGID(productID),
		"variants":  []VariantInput{in},
	}
	if err := c.do(ctx, "productVariantsBulkUpdate", variantsBulkUpdateMutation, vars, &out); err != nil {
		return nil, err
	}
	return variantResult("productVariantsBulkUpdate", productID, out.Payload)
}

// DeleteVariant removes one variant from a product.
func (c *Client) DeleteVariant(ctx context.Context, productID, variantID string) error {
	var out struct {
		Payload struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"productVariantsBulkDelete"`
	}
	vars := map[string]any{
		"productId":   ProductGID(productID),
		"variantsIds": []string{VariantGID(variantID)},
	}
	if err := c.do(ctx, "productVariantsBulkDelete", variantsBulkDeleteMutation, vars, &out); err != nil {
		return err
	}
	return userErrorsToError("productVariantsBulkDelete", out.Payload.UserErrors)
}
