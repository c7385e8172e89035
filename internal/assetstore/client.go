// Package assetstore is the client for the remote object-storage endpoint
// product images are uploaded to. Uploads go out as multipart form posts
// carrying the file and the configured upload preset; the store answers with
// the assigned public id and delivery URL.
package assetstore

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/guonaihong/gout"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// File is a locally selected file handed to Upload.
type File struct {
	Name    string
	Content []byte
}

// AssetInfo identifies a stored asset.
type AssetInfo struct {
	RemoteID string
	URL      string
}

// ProgressFunc receives byte-level upload progress. total covers the whole
// encoded request body and is known up front.
type ProgressFunc func(loaded, total int64)

// Client talks to the object-storage API.
type Client struct {
	uploadURL    string
	deleteURL    string
	uploadPreset string
	httpc        *http.Client
}

func NewClient(uploadURL, deleteURL, uploadPreset string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		uploadURL:    uploadURL,
		deleteURL:    deleteURL,
		uploadPreset: uploadPreset,
		httpc:        &http.Client{Timeout: timeout},
	}
}

type uploadResponse struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
}

// Upload posts one file to the storage endpoint. onProgress, when non-nil, is
// invoked as request bytes are consumed by the transport.
//
// The upload path uses net/http directly: byte progress requires wrapping the
// request body in a counting reader, which the fluent client used elsewhere
// does not expose.
func (c *Client) Upload(ctx context.Context, f File, onProgress ProgressFunc) (AssetInfo, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", f.Name)
	if err != nil {
		return AssetInfo{}, errors.Wrap(err, "assetstore: encode upload")
	}
	if _, err := part.Write(f.Content); err != nil {
		return AssetInfo{}, errors.Wrap(err, "assetstore: encode upload")
	}
	if err := mw.WriteField("upload_preset", c.uploadPreset); err != nil {
		return AssetInfo{}, errors.Wrap(err, "assetstore: encode upload")
	}
	if err := mw.Close(); err != nil {
		return AssetInfo{}, errors.Wrap(err, "assetstore: encode upload")
	}

	body := io.Reader(&buf)
	total := int64(buf.Len())
	if onProgress != nil {
		body = &progressReader{r: body, total: total, fn: onProgress}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, body)
	if err != nil {
		return AssetInfo{}, errors.Wrap(err, "assetstore: build upload request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.ContentLength = total

	resp, err := c.httpc.Do(req)
	if err != nil {
		return AssetInfo{}, errors.Wrapf(err, "assetstore: upload %s", f.Name)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return AssetInfo{}, errors.Wrapf(err, "assetstore: read upload response for %s", f.Name)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return AssetInfo{}, errors.Errorf("assetstore: upload %s failed with status %d", f.Name, resp.StatusCode)
	}

	var ur uploadResponse
	if err := json.Unmarshal(raw, &ur); err != nil {
		return AssetInfo{}, errors.Wrapf(err, "assetstore: decode upload response for %s", f.Name)
	}
	if ur.PublicID == "" || ur.SecureURL == "" {
		return AssetInfo{}, errors.Errorf("assetstore: upload %s returned incomplete asset info", f.Name)
	}
	return AssetInfo{RemoteID: ur.PublicID, URL: ur.SecureURL}, nil
}

// Delete removes a stored asset by its remote identifier.
func (c *Client) Delete(ctx context.Context, remoteID string) error {
	var code int
	err := gout.POST(c.deleteURL).
		WithContext(ctx).
		SetJSON(gout.H{"_id": remoteID}).
		Code(&code).
		Do()
	if err != nil {
		return errors.Wrapf(err, "assetstore: delete %s", remoteID)
	}
	if code < 200 || code >= 300 {
		return errors.Errorf("assetstore: delete %s failed with status %d", remoteID, code)
	}
	return nil
}

// progressReader reports cumulative bytes consumed from the wrapped reader.
type progressReader struct {
	r      io.Reader
	loaded int64
	total  int64
	fn     ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.loaded += int64(n)
		p.fn(p.loaded, p.total)
	}
	return n, err
}
