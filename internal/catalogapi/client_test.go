package catalogapi_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"

	"github.com/nextall/admincore/internal/catalogapi"
	"github.com/nextall/admincore/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func payloadFixture() catalogapi.ProductPayload {
	return catalogapi.ProductPayload{
		Name:      "Canvas Sneaker",
		Code:      "SNK-01",
		SKU:       "SKU-SNK-01",
		Brand:     "Acme",
		Price:     100,
		PriceSale: 80,
		Status:    "sale",
		Gender:    "Unisex",
		Category:  "Shoes",
		Available: 3,
		Tags:      []string{"Shoes"},
		Images: []domain.ImageRef{
			{RemoteID: "img-1", URL: "https://cdn.test/img-1.jpg"},
		},
		CreatedAt: "2026-08-30T10:00:00Z",
	}
}

func TestCreateProduct(t *testing.T) {
	var (
		gotPath string
		gotBody map[string]interface{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		gotPath = r.URL.Path
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"message": "created",
			"data": {
				"_id": "66f1a2",
				"name": "Canvas Sneaker",
				"price": 100,
				"priceSale": 80,
				"available": 3,
				"images": [{"_id": "img-1", "url": "https://cdn.test/img-1.jpg"}],
				"createdAt": "2026-08-30T10:00:00Z"
			}
		}`))
	}))
	defer srv.Close()

	client := catalogapi.NewClient(srv.URL, 5*time.Second)
	persisted, err := client.CreateProduct(context.Background(), payloadFixture())
	require.NoError(t, err)
	require.Equal(t, "/products", gotPath)
	require.Equal(t, "Canvas Sneaker", gotBody["name"])
	require.Equal(t, float64(80), gotBody["priceSale"])
	require.NotContains(t, gotBody["images"].([]interface{})[0], "Preview")

	require.Equal(t, "66f1a2", persisted.ID)
	require.Equal(t, float64(80), persisted.PriceSale)
	require.Equal(t, 3, persisted.Available)
	require.Len(t, persisted.Images, 1)
	require.Equal(t, "img-1", persisted.Images[0].RemoteID)
	require.Equal(t, time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC), persisted.CreatedAt)
}

func TestUpdateProduct(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"success": true, "data": {"_id": "p-9", "name": "Canvas Sneaker"}}`))
	}))
	defer srv.Close()

	client := catalogapi.NewClient(srv.URL, 5*time.Second)
	persisted, err := client.UpdateProduct(context.Background(), "p-9", payloadFixture())
	require.NoError(t, err)
	require.Equal(t, "/products/p-9", gotPath)
	require.Equal(t, "p-9", persisted.ID)
}

func TestCreateProduct_EnvelopeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The backend reports business failures inside a 200 envelope.
		_, _ = w.Write([]byte(`{"success": false, "message": "SKU already exists"}`))
	}))
	defer srv.Close()

	client := catalogapi.NewClient(srv.URL, 5*time.Second)
	_, err := client.CreateProduct(context.Background(), payloadFixture())
	require.Error(t, err)
	require.Contains(t, err.Error(), "SKU already exists")
}

func TestCreateProduct_HTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success": false, "message": "boom"}`))
	}))
	defer srv.Close()

	client := catalogapi.NewClient(srv.URL, 5*time.Second)
	_, err := client.CreateProduct(context.Background(), payloadFixture())
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}

func TestListSubCategories(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/sub-categories", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"success": true,
			"data": [
				{"_id": "c1", "name": "Sneakers", "parentCategory": "Shoes"},
				{"_id": "c2", "name": "Boots", "parentCategory": "Shoes"},
				{"_id": "c3", "name": "Belts", "parentCategory": "Accessories"}
			]
		}`))
	}))
	defer srv.Close()

	client := catalogapi.NewClient(srv.URL, 5*time.Second)
	cats, err := client.ListSubCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 3)
	require.Equal(t, "Sneakers", cats[0].Name)
	require.Equal(t, "Shoes", cats[0].ParentCategory)

	grouped := domain.GroupByParent(cats)
	require.Len(t, grouped, 2)
	require.Len(t, grouped[0], 2)
	require.Equal(t, "Accessories", grouped[1][0].ParentCategory)
}
