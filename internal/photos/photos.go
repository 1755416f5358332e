// Package photos uploads captures into Google Photos albums.
package photos

import (
	"context"
	"fmt"
	"time"

	gphotos "github.com/gphotosuploader/google-photos-api-client-go/v3"
	"github.com/gphotosuploader/google-photos-api-client-go/v3/albums"
	"github.com/gphotosuploader/google-photos-api-client-go/v3/media_items"
	"golang.org/x/oauth2"

	"github.com/sweeney/grow-monitor/internal/oauth"
)

// Album is a Photos album.
type Album struct {
	ID    string
	Title string
}

// AlbumService creates and lists albums.
type AlbumService interface {
	Create(ctx context.Context, title string) (*albums.Album, error)
	List(ctx context.Context) ([]albums.Album, error)
}

// MediaItemService turns upload tokens into media items.
type MediaItemService interface {
	CreateToAlbum(ctx context.Context, albumID string, item media_items.SimpleMediaItem) (*media_items.MediaItem, error)
}

// Uploader sends a file's bytes and returns an upload token.
type Uploader interface {
	UploadFile(ctx context.Context, filePath string) (string, error)
}

// Client calls the Photos Library API. Tokens is checked before any call so
// an authentication failure is reported on its own.
type Client struct {
	Albums     AlbumService
	MediaItems MediaItemService
	Uploader   Uploader
	Tokens     oauth.Provider
}

// NewClient creates a Client whose requests are authorized by tokens.
func NewClient(ctx context.Context, tokens oauth.Provider) (*Client, error) {
	hc := oauth2.NewClient(ctx, oauth.TokenSource(ctx, tokens))
	hc.Timeout = 60 * time.Second

	gc, err := gphotos.NewClient(hc)
	if err != nil {
		return nil, fmt.Errorf("photos: create client: %w", err)
	}
	return &Client{
		Albums:     gc.Albums,
		MediaItems: gc.MediaItems,
		Uploader:   gc.Uploader,
		Tokens:     tokens,
	}, nil
}

// Upload sends the file at path and returns the upload token used to create
// a media item.
func (c *Client) Upload(ctx context.Context, path string) (string, error) {
	token, err := c.Uploader.UploadFile(ctx, path)
	if err != nil {
		return "", fmt.Errorf("photos: upload %s: %w", path, err)
	}
	if token == "" {
		return "", fmt.Errorf("photos: upload %s: empty upload token", path)
	}
	return token, nil
}

// CreateAlbum creates a new album. Titles need not be unique.
func (c *Client) CreateAlbum(ctx context.Context, title string) (Album, error) {
	a, err := c.Albums.Create(ctx, title)
	if err != nil {
		return Album{}, fmt.Errorf("photos: create album: %w", err)
	}
	if a == nil || a.ID == "" {
		return Album{}, fmt.Errorf("photos: create album: response has no id")
	}
	return Album{ID: a.ID, Title: a.Title}, nil
}

// AddToAlbum turns an upload token into a media item inside albumID.
func (c *Client) AddToAlbum(ctx context.Context, albumID, uploadToken string) error {
	item := media_items.SimpleMediaItem{UploadToken: uploadToken}
	if _, err := c.MediaItems.CreateToAlbum(ctx, albumID, item); err != nil {
		return fmt.Errorf("photos: create media item: %w", err)
	}
	return nil
}

// ListAlbums returns every album created by this app.
func (c *Client) ListAlbums(ctx context.Context) ([]Album, error) {
	list, err := c.Albums.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("photos: list albums: %w", err)
	}
	out := make([]Album, 0, len(list))
	for _, a := range list {
		out = append(out, Album{ID: a.ID, Title: a.Title})
	}
	return out, nil
}
