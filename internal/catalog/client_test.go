package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// newTestClient serves every GraphQL call through respond.
func newTestClient(t *testing.T, respond func(r recordedRequest) (int, string)) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-token", r.Header.Get("X-Shopify-Access-Token"))
		var req recordedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		status, body := respond(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return New(Config{Endpoint: srv.URL, AccessToken: "secret-token", LocationID: "77", Timeout: time.Second}, nil)
}

const productJSON = `{
  "id": "gid://shopify/Product/101",
  "title": "Jazz Night",
  "descriptionHtml": "<p>Live</p>",
  "handle": "jazz-night",
  "status": "ACTIVE",
  "productType": "Music & Concerts",
  "tags": ["jazz", "live"],
  "totalInventory": 40,
  "metafields": {"edges": [
    {"node": {"namespace": "event", "key": "city", "type": "single_line_text_field", "value": "Berlin"}}
  ]},
  "variants": {"edges": [
    {"node": {
      "id": "gid://shopify/ProductVariant/201",
      "title": "VIP",
      "price": "50.00",
      "compareAtPrice": null,
      "inventoryQuantity": 40,
      "inventoryItem": {"id": "gid://shopify/InventoryItem/301"},
      "product": {"id": "gid://shopify/Product/101"},
      "metafields": {"edges": [
        {"node": {"namespace": "ticket", "key": "inventory_quantity", "type": "number_integer", "value": "100"}}
      ]}
    }}
  ]}
}`

func TestFetchProduct(t *testing.T) {
	c := newTestClient(t, func(r recordedRequest) (int, string) {
		assert.Equal(t, "gid://shopify/Product/101", r.Variables["id"])
		return http.StatusOK, `{"data": {"product": ` + productJSON + `}}`
	})

	p, err := c.FetchProduct(context.Background(), "101")
	require.NoError(t, err)
	assert.Equal(t, "101", p.ID)
	assert.Equal(t, "ACTIVE", p.Status)
	assert.Equal(t, []string{"jazz", "live"}, p.Tags)
	require.Len(t, p.Metafields, 1)
	require.Len(t, p.Variants, 1)
	v := p.Variants[0]
	assert.Equal(t, "201", v.ID)
	assert.Equal(t, "101", v.ProductID)
	assert.Equal(t, "301", v.InventoryItemID)
	assert.Equal(t, 40, v.InventoryQuantity)
	assert.Empty(t, v.CompareAtPrice)
}

func TestFetchProduct_NullIsNotFound(t *testing.T) {
	c := newTestClient(t, func(recordedRequest) (int, string) {
		return http.StatusOK, `{"data": {"product": null}}`
	})
	_, err := c.FetchProduct(context.Background(), "gid://shopify/Product/9")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Kind
	}{
		{"unauthorized", http.StatusUnauthorized, `{}`, KindAuth},
		{"forbidden", http.StatusForbidden, `{}`, KindAuth},
		{"too many requests", http.StatusTooManyRequests, `{}`, KindRateLimited},
		{"not found", http.StatusNotFound, `{}`, KindNotFound},
		{"unprocessable", http.StatusUnprocessableEntity, `{}`, KindValidation},
		{"server error", http.StatusBadGateway, `oops`, KindTransient},
		{"bad request", http.StatusBadRequest, `{}`, KindProtocol},
		{"malformed body", http.StatusOK, `{"data": `, KindProtocol},
		{"no data", http.StatusOK, `{"data": null}`, KindProtocol},
		{"wrong shape", http.StatusOK, `{"data": {"product": "nope"}}`, KindProtocol},
		{"throttled", http.StatusOK, `{"errors": [{"message": "Throttled", "extensions": {"code": "THROTTLED"}}]}`, KindRateLimited},
		{"access denied", http.StatusOK, `{"errors": [{"message": "denied", "extensions": {"code": "ACCESS_DENIED"}}]}`, KindAuth},
		{"other graphql error", http.StatusOK, `{"errors": [{"message": "Field 'x' doesn't exist"}]}`, KindProtocol},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(recordedRequest) (int, string) { return tt.status, tt.body })
			_, err := c.FetchProduct(context.Background(), "1")
			require.Error(t, err)
			assert.Equal(t, tt.want, KindOf(err), err.Error())
		})
	}
}

func TestTimeoutIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL, Timeout: 50 * time.Millisecond}, nil)
	_, err := c.FetchProduct(context.Background(), "1")
	assert.ErrorIs(t, err, ErrTransient)
}

func TestConnectionRefusedIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Config{Endpoint: url}, nil)
	err := c.DeleteProduct(context.Background(), "1")
	assert.Equal(t, KindTransient, KindOf(err))
}

func TestUserErrors(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		c := newTestClient(t, func(recordedRequest) (int, string) {
			return http.StatusOK, `{"data": {"productCreate": {"product": null, "userErrors": [{"field": ["title"], "message": "Title can't be blank"}]}}}`
		})
		_, err := c.CreateProduct(context.Background(), ProductInput{})
		assert.ErrorIs(t, err, ErrValidation)
		var ce *Error
		require.True(t, errors.As(err, &ce))
		assert.Contains(t, ce.Message, "Title can't be blank")
		assert.Len(t, ce.UserErrors, 1)
	})
	t.Run("does not exist", func(t *testing.T) {
		c := newTestClient(t, func(recordedRequest) (int, string) {
			return http.StatusOK, `{"data": {"productUpdate": {"product": null, "userErrors": [{"field": ["id"], "message": "Product does not exist"}]}}}`
		})
		_, err := c.UpdateProduct(context.Background(), "5", ProductInput{})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUpdateProduct_SendsGlobalIDAndOmitsNil(t *testing.T) {
	title := "New title"
	c := newTestClient(t, func(r recordedRequest) (int, string) {
		prod := r.Variables["product"].(map[string]any)
		assert.Equal(t, "gid://shopify/Product/101", prod["id"])
		assert.Equal(t, "New title", prod["title"])
		_, hasTags := prod["tags"]
		assert.False(t, hasTags)
		return http.StatusOK, `{"data": {"productUpdate": {"product": ` + productJSON + `, "userErrors": []}}}`
	})
	p, err := c.UpdateProduct(context.Background(), "101", ProductInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "101", p.ID)
}

func TestDeleteProduct_NotFound(t *testing.T) {
	c := newTestClient(t, func(recordedRequest) (int, string) {
		return http.StatusOK, `{"data": {"productDelete": {"deletedProductId": null, "userErrors": []}}}`
	})
	assert.ErrorIs(t, c.DeleteProduct(context.Background(), "1"), ErrNotFound)
}

func TestListAllProducts_CapsAtMaxItems(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(r recordedRequest) (int, string) {
		n := int(calls.Add(1))
		first := int(r.Variables["first"].(float64))
		edges := make([]string, first)
		for i := range edges {
			edges[i] = fmt.Sprintf(`{"node": {"id": "gid://shopify/Product/%d%04d", "title": "e"}}`, n, i)
		}
		return http.StatusOK, fmt.Sprintf(`{"data": {"products": {"edges": [%s], "pageInfo": {"hasNextPage": true, "endCursor": "c%d"}}}}`,
			strings.Join(edges, ","), n)
	})

	all, err := c.ListAllProducts(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, MaxListItems)
	assert.Equal(t, int32(2), calls.Load())
}

func TestListProducts_PassesCursorAndQuery(t *testing.T) {
	c := newTestClient(t, func(r recordedRequest) (int, string) {
		assert.Equal(t, "abc", r.Variables["after"])
		assert.Equal(t, "status:active", r.Variables["query"])
		return http.StatusOK, `{"data": {"products": {"edges": [], "pageInfo": {"hasNextPage": false, "endCursor": ""}}}}`
	})
	page, err := c.ListProducts(context.Background(), "status:active", "abc", 10)
	require.NoError(t, err)
	assert.False(t, page.HasNextPage)
	assert.Empty(t, page.Products)
}

func TestSetInventory_ActivationErrorsIgnored(t *testing.T) {
	var ops []string
	c := newTestClient(t, func(r recordedRequest) (int, string) {
		switch {
		case strings.Contains(r.Query, "inventoryActivate("):
			ops = append(ops, "activate")
			assert.Equal(t, "gid://shopify/Location/77", r.Variables["locationId"])
			return http.StatusOK, `{"data": {"inventoryActivate": {"inventoryLevel": null, "userErrors": [{"message": "already active"}]}}}`
		case strings.Contains(r.Query, "inventorySetQuantities("):
			ops = append(ops, "set")
			in := r.Variables["input"].(map[string]any)
			q := in["quantities"].([]any)[0].(map[string]any)
			assert.Equal(t, float64(60), q["quantity"])
			assert.Equal(t, "gid://shopify/InventoryItem/301", q["inventoryItemId"])
			return http.StatusOK, `{"data": {"inventorySetQuantities": {"userErrors": []}}}`
		}
		t.Errorf("unexpected query %s", r.Query)
		return 0, ""
	})
	require.NoError(t, c.SetInventory(context.Background(), "301", 60))
	assert.Equal(t, []string{"activate", "set"}, ops)
}

func TestSetInventory_LooksUpLocationOnce(t *testing.T) {
	var lookups atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req recordedRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		switch {
		case strings.Contains(req.Query, "locations("):
			lookups.Add(1)
			_, _ = w.Write([]byte(`{"data": {"locations": {"edges": [{"node": {"id": "gid://shopify/Location/5"}}]}}}`))
		case strings.Contains(req.Query, "inventoryActivate("):
			assert.Equal(t, "gid://shopify/Location/5", req.Variables["locationId"])
			_, _ = w.Write([]byte(`{"data": {"inventoryActivate": {"userErrors": []}}}`))
		default:
			_, _ = w.Write([]byte(`{"data": {"inventorySetQuantities": {"userErrors": []}}}`))
		}
	}))
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL}, nil)
	require.NoError(t, c.SetInventory(context.Background(), "1", 5))
	require.NoError(t, c.SetInventory(context.Background(), "2", 5))
	assert.Equal(t, int32(1), lookups.Load())
}

func TestSetInventory_ConcurrentCallersShareLocationLookup(t *testing.T) {
	var lookups atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req recordedRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		switch {
		case strings.Contains(req.Query, "locations("):
			lookups.Add(1)
			<-release
			_, _ = w.Write([]byte(`{"data": {"locations": {"edges": [{"node": {"id": "gid://shopify/Location/9"}}]}}}`))
		case strings.Contains(req.Query, "inventoryActivate("):
			_, _ = w.Write([]byte(`{"data": {"inventoryActivate": {"userErrors": []}}}`))
		default:
			_, _ = w.Write([]byte(`{"data": {"inventorySetQuantities": {"userErrors": []}}}`))
		}
	}))
	defer srv.Close()

	c := New(Config{Endpoint: srv.URL}, nil)
	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- c.SetInventory(context.Background(), strconv.Itoa(100+i), 1)
		}(i)
	}
	require.Eventually(t, func() bool { return lookups.Load() == 1 }, time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), lookups.Load())
}

func TestSetMetafields_Batches(t *testing.T) {
	var sizes []int
	c := newTestClient(t, func(r recordedRequest) (int, string) {
		sizes = append(sizes, len(r.Variables["metafields"].([]any)))
		return http.StatusOK, `{"data": {"metafieldsSet": {"metafields": [], "userErrors": []}}}`
	})
	fields := make([]MetafieldInput, 30)
	for i := range fields {
		fields[i] = MetafieldInput{OwnerID: ProductGID("1"), Namespace: "event", Key: fmt.Sprintf("k%d", i), Type: TypeSingleLine, Value: "v"}
	}
	require.NoError(t, c.SetMetafields(context.Background(), fields))
	assert.Equal(t, []int{25, 5}, sizes)
}

func TestCreateVariant(t *testing.T) {
	c := newTestClient(t, func(r recordedRequest) (int, string) {
		assert.Equal(t, "gid://shopify/Product/101", r.Variables["productId"])
		return http.StatusOK, `{"data": {"productVariantsBulkCreate": {"productVariants": [{"id": "gid://shopify/ProductVariant/9", "price": "10.00", "inventoryItem": {"id": "gid://shopify/InventoryItem/19"}}], "userErrors": []}}}`
	})
	price := "10.00"
	v, err := c.CreateVariant(context.Background(), "101", VariantInput{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "9", v.ID)
	assert.Equal(t, "101", v.ProductID)
	assert.Equal(t, "19", v.InventoryItemID)
}
