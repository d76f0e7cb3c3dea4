// Package catalogtest provides an in-memory stand-in for the remote
// catalog, for tests of code that depends on the gateway.
package catalogtest

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/iliyamo/event-ticketing-admin/internal/catalog"
)

// Fake stores products, variants and metafields in memory and applies
// writes the way the remote does. Safe for concurrent use.
type Fake struct {
	mu       sync.Mutex
	products map[string]*catalog.Product
	nextID   int
	calls    map[string]int
	failOn   map[string]error
}

func New() *Fake {
	return &Fake{
		products: map[string]*catalog.Product{},
		nextID:   1000,
		calls:    map[string]int{},
		failOn:   map[string]error{},
	}
}

// FailOn makes every later call of op return err. A nil err clears it.
func (f *Fake) FailOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failOn, op)
		return
	}
	f.failOn[op] = err
}

// Calls returns how many times op was invoked.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *Fake) enter(op string) error {
	f.calls[op]++
	return f.failOn[op]
}

func (f *Fake) newID() string {
	f.nextID++
	return strconv.Itoa(f.nextID)
}

func notFound(op, what, id string) error {
	return &catalog.Error{Kind: catalog.KindNotFound, Op: op, Message: what + " " + id + " not found"}
}

// Put stores a product as-is, replacing any previous one with the same id.
func (f *Fake) Put(p catalog.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := clone(p)
	for i := range cp.Variants {
		cp.Variants[i].ProductID = cp.ID
	}
	f.products[cp.ID] = &cp
}

// Sell simulates external purchases by lowering a variant's live stock.
func (f *Fake) Sell(variantID string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v := f.variant(catalog.ShortID(variantID)); v != nil {
		v.InventoryQuantity -= n
	}
}

func (f *Fake) FetchProduct(_ context.Context, id string) (*catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("FetchProduct"); err != nil {
		return nil, err
	}
	p, ok := f.products[catalog.ShortID(id)]
	if !ok {
		return nil, notFound("product", "product", id)
	}
	out := f.snapshot(p)
	return &out, nil
}

func (f *Fake) ListAllProducts(_ context.Context, _ string) ([]catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListAllProducts"); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(f.products))
	for id := range f.products {
		ids = append(ids, id)
	}
	// newest first, like the remote listing
	sort.Slice(ids, func(i, j int) bool {
		a, _ := strconv.Atoi(ids[i])
		b, _ := strconv.Atoi(ids[j])
		return a > b
	})
	out := make([]catalog.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.snapshot(f.products[id]))
		if len(out) == catalog.MaxListItems {
			break
		}
	}
	return out, nil
}

func (f *Fake) CreateProduct(_ context.Context, in catalog.ProductInput) (*catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateProduct"); err != nil {
		return nil, err
	}
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" {
		return nil, &catalog.Error{Kind: catalog.KindValidation, Op: "productCreate", Message: "Title can't be blank"}
	}
	p := &catalog.Product{ID: f.newID(), Status: "DRAFT"}
	applyProduct(p, in)
	f.products[p.ID] = p
	out := f.snapshot(p)
	return &out, nil
}

func (f *Fake) UpdateProduct(_ context.Context, id string, in catalog.ProductInput) (*catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpdateProduct"); err != nil {
		return nil, err
	}
	p, ok := f.products[catalog.ShortID(id)]
	if !ok {
		return nil, notFound("productUpdate", "product", id)
	}
	applyProduct(p, in)
	out := f.snapshot(p)
	return &out, nil
}

func (f *Fake) DeleteProduct(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteProduct"); err != nil {
		return err
	}
	if _, ok := f.products[catalog.ShortID(id)]; !ok {
		return notFound("productDelete", "product", id)
	}
	delete(f.products, catalog.ShortID(id))
	return nil
}

func (f *Fake) SetMetafields(_ context.Context, fields []catalog.MetafieldInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("SetMetafields"); err != nil {
		return err
	}
	for _, in := range fields {
		target := f.owner(in.OwnerID)
		if target == nil {
			return notFound("metafieldsSet", "owner", in.OwnerID)
		}
		*target = upsert(*target, in)
	}
	return nil
}

func (f *Fake) DeleteMetafields(_ context.Context, refs []catalog.MetafieldRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteMetafields"); err != nil {
		return err
	}
	for _, r := range refs {
		target := f.owner(r.OwnerID)
		if target == nil {
			continue
		}
		kept := (*target)[:0]
		for _, m := range *target {
			if m.Namespace != r.Namespace || m.Key != r.Key {
				kept = append(kept, m)
			}
		}
		*target = kept
	}
	return nil
}

func (f *Fake) FetchVariant(_ context.Context, id string) (*catalog.Variant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("FetchVariant"); err != nil {
		return nil, err
	}
	v := f.variant(catalog.ShortID(id))
	if v == nil {
		return nil, notFound("productVariant", "variant", id)
	}
	out := cloneVariant(*v)
	return &out, nil
}

func (f *Fake) CreateVariant(_ context.Context, productID string, in catalog.VariantInput) (*catalog.Variant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateVariant"); err != nil {
		return nil, err
	}
	p, ok := f.products[catalog.ShortID(productID)]
	if !ok {
		return nil, notFound("productVariantsBulkCreate", "product", productID)
	}
	id := f.newID()
	v := catalog.Variant{ID: id, ProductID: p.ID, InventoryItemID: "9" + id}
	applyVariant(&v, in)
	p.Variants = append(p.Variants, v)
	out := cloneVariant(v)
	return &out, nil
}

func (f *Fake) UpdateVariant(_ context.Context, productID, variantID string, in catalog.VariantInput) (*catalog.Variant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpdateVariant"); err != nil {
		return nil, err
	}
	v := f.variant(catalog.ShortID(variantID))
	if v == nil || v.ProductID != catalog.ShortID(productID) {
		return nil, notFound("productVariantsBulkUpdate", "variant", variantID)
	}
	applyVariant(v, in)
	out := cloneVariant(*v)
	return &out, nil
}

func (f *Fake) DeleteVariant(_ context.Context, productID, variantID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteVariant"); err != nil {
		return err
	}
	p, ok := f.products[catalog.ShortID(productID)]
	if !ok {
		return notFound("productVariantsBulkDelete", "product", productID)
	}
	for i, v := range p.Variants {
		if v.ID == catalog.ShortID(variantID) {
			p.Variants = append(p.Variants[:i], p.Variants[i+1:]...)
			return nil
		}
	}
	return notFound("productVariantsBulkDelete", "variant", variantID)
}

func (f *Fake) SetInventory(_ context.Context, inventoryItemID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("SetInventory"); err != nil {
		return err
	}
	item := catalog.ShortID(inventoryItemID)
	for _, p := range f.products {
		for i := range p.Variants {
			if p.Variants[i].InventoryItemID == item {
				p.Variants[i].InventoryQuantity = quantity
				return nil
			}
		}
	}
	return notFound("inventorySetQuantities", "inventory item", inventoryItemID)
}

func (f *Fake) variant(id string) *catalog.Variant {
	for _, p := range f.products {
		for i := range p.Variants {
			if p.Variants[i].ID == id {
				return &p.Variants[i]
			}
		}
	}
	return nil
}

// owner resolves a global id to the metafield list it owns.
func (f *Fake) owner(gid string) *[]catalog.Metafield {
	id := catalog.ShortID(gid)
	switch {
	case strings.Contains(gid, "/ProductVariant/"):
		if v := f.variant(id); v != nil {
			return &v.Metafields
		}
	default:
		if p, ok := f.products[id]; ok {
			return &p.Metafields
		}
	}
	return nil
}

// snapshot copies p with the remote-computed total inventory filled in.
func (f *Fake) snapshot(p *catalog.Product) catalog.Product {
	out := clone(*p)
	out.TotalInventory = 0
	for _, v := range out.Variants {
		out.TotalInventory += v.InventoryQuantity
	}
	return out
}

func applyProduct(p *catalog.Product, in catalog.ProductInput) {
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.DescriptionHTML != nil {
		p.DescriptionHTML = *in.DescriptionHTML
	}
	if in.Handle != nil {
		p.Handle = *in.Handle
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.ProductType != nil {
		p.ProductType = *in.ProductType
	}
	if in.Tags != nil {
		p.Tags = append([]string{}, (*in.Tags)...)
	}
	for _, m := range in.Metafields {
		p.Metafields = upsert(p.Metafields, m)
	}
}

func applyVariant(v *catalog.Variant, in catalog.VariantInput) {
	for _, o := range in.OptionValues {
		if o.OptionName == catalog.TitleOption {
			v.Title = o.Name
		}
	}
	if in.Price != nil {
		v.Price = *in.Price
	}
	if in.CompareAtPrice != nil {
		v.CompareAtPrice = *in.CompareAtPrice
	}
	for _, m := range in.Metafields {
		v.Metafields = upsert(v.Metafields, m)
	}
}

func upsert(list []catalog.Metafield, in catalog.MetafieldInput) []catalog.Metafield {
	m := catalog.Metafield{Namespace: in.Namespace, Key: in.Key, Type: in.Type, Value: in.Value}
	for i := range list {
		if list[i].Namespace == in.Namespace && list[i].Key == in.Key {
			list[i] = m
			return list
		}
	}
	return append(list, m)
}

func clone(p catalog.Product) catalog.Product {
	out := p
	out.Tags = append([]string(nil), p.Tags...)
	out.Metafields = append([]catalog.Metafield(nil), p.Metafields...)
	out.Variants = make([]catalog.Variant, len(p.Variants))
	for i, v := range p.Variants {
		out.Variants[i] = cloneVariant(v)
	}
	return out
}

func cloneVariant(v catalog.Variant) catalog.Variant {
	out := v
	out.Metafields = append([]catalog.Metafield(nil), v.Metafields...)
	return out
}
