package assetstore_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"

	"github.com/nextall/admincore/internal/assetstore"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func TestUpload_SendsMultipartAndDecodesAsset(t *testing.T) {
	var (
		gotFileName string
		gotContent  []byte
		gotPreset   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotPreset = r.FormValue("upload_preset")

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		gotFileName = header.Filename
		gotContent, err = io.ReadAll(file)
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"public_id":"folder/abc123","secure_url":"https://cdn.test/folder/abc123.png"}`))
	}))
	defer srv.Close()

	client := assetstore.NewClient(srv.URL, srv.URL+"/delete", "my-uploads", 5*time.Second)
	info, err := client.Upload(context.Background(), assetstore.File{
		Name:    "shoe.png",
		Content: []byte("png-bytes"),
	}, nil)
	require.NoError(t, err)
	require.Equal(t, "folder/abc123", info.RemoteID)
	require.Equal(t, "https://cdn.test/folder/abc123.png", info.URL)
	require.Equal(t, "shoe.png", gotFileName)
	require.Equal(t, []byte("png-bytes"), gotContent)
	require.Equal(t, "my-uploads", gotPreset)
}

func TestUpload_ReportsMonotonicProgress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = w.Write([]byte(`{"public_id":"p","secure_url":"https://cdn.test/p"}`))
	}))
	defer srv.Close()

	var (
		mu      sync.Mutex
		loads   []int64
		lastTot int64
	)
	client := assetstore.NewClient(srv.URL, srv.URL, "my-uploads", 5*time.Second)
	_, err := client.Upload(context.Background(), assetstore.File{
		Name:    "big.jpg",
		Content: make([]byte, 256<<10),
	}, func(loaded, total int64) {
		mu.Lock()
		defer mu.Unlock()
		loads = append(loads, loaded)
		lastTot = total
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, loads)
	for i := 1; i < len(loads); i++ {
		require.GreaterOrEqual(t, loads[i], loads[i-1])
	}
	require.Equal(t, lastTot, loads[len(loads)-1], "final callback covers the whole body")
}

func TestUpload_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upload preset not found", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := assetstore.NewClient(srv.URL, srv.URL, "bogus", 5*time.Second)
	_, err := client.Upload(context.Background(), assetstore.File{Name: "x.png", Content: []byte("x")}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 400")
}

func TestUpload_IncompleteAssetInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"public_id":"p"}`))
	}))
	defer srv.Close()

	client := assetstore.NewClient(srv.URL, srv.URL, "my-uploads", 5*time.Second)
	_, err := client.Upload(context.Background(), assetstore.File{Name: "x.png", Content: []byte("x")}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "incomplete asset info")
}

func TestDelete_PostsRemoteID(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := assetstore.NewClient(srv.URL, srv.URL+"/destroy", "my-uploads", 5*time.Second)
	require.NoError(t, client.Delete(context.Background(), "folder/abc123"))
	require.Equal(t, map[string]string{"_id": "folder/abc123"}, got)
}

func TestDelete_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := assetstore.NewClient(srv.URL, srv.URL+"/destroy", "my-uploads", 5*time.Second)
	err := client.Delete(context.Background(), "missing")
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 404")
}
