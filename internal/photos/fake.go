package photos

import (
	"context"
	"fmt"
	"os"

	"github.com/gphotosuploader/google-photos-api-client-go/v3/albums"
	"github.com/gphotosuploader/google-photos-api-client-go/v3/media_items"
	"golang.org/x/oauth2"

	"github.com/sweeney/grow-monitor/internal/oauth"
)

// FakeLibrary is an in-memory photo library. It implements AlbumService,
// MediaItemService and Uploader.
type FakeLibrary struct {
	// Albums are returned by List; created albums are appended.
	Albums []albums.Album

	// Uploads holds the contents of every uploaded file, by upload token.
	Uploads map[string][]byte

	// Attached records "albumID/uploadToken" per media item created.
	Attached []string

	// Calls records method names in call order.
	Calls []string

	UploadError error
	CreateError error
	AttachError error
	ListError   error
}

// Client returns a Client backed by f. A nil tokens uses a fixed valid token.
func (f *FakeLibrary) Client(tokens oauth.Provider) *Client {
	if tokens == nil {
		tokens = oauth.StaticProvider{Tok: &oauth2.Token{AccessToken: "fake", TokenType: "Bearer"}}
	}
	return &Client{Albums: f, MediaItems: f, Uploader: f, Tokens: tokens}
}

// UploadFile reads the file at path and stores it under a new upload token.
func (f *FakeLibrary) UploadFile(_ context.Context, path string) (string, error) {
	f.Calls = append(f.Calls, "UploadFile")
	if f.UploadError != nil {
		return "", f.UploadError
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if f.Uploads == nil {
		f.Uploads = make(map[string][]byte)
	}
	token := fmt.Sprintf("upload-token-%d", len(f.Uploads)+1)
	f.Uploads[token] = data
	return token, nil
}

// Create adds an album.
func (f *FakeLibrary) Create(_ context.Context, title string) (*albums.Album, error) {
	f.Calls = append(f.Calls, "Create")
	if f.CreateError != nil {
		return nil, f.CreateError
	}
	a := albums.Album{ID: fmt.Sprintf("album-%d", len(f.Albums)+1), Title: title}
	f.Albums = append(f.Albums, a)
	return &a, nil
}

// List returns Albums.
func (f *FakeLibrary) List(context.Context) ([]albums.Album, error) {
	f.Calls = append(f.Calls, "List")
	if f.ListError != nil {
		return nil, f.ListError
	}
	return f.Albums, nil
}

// CreateToAlbum records the upload token against albumID.
func (f *FakeLibrary) CreateToAlbum(_ context.Context, albumID string, item media_items.SimpleMediaItem) (*media_items.MediaItem, error) {
	f.Calls = append(f.Calls, "CreateToAlbum")
	if f.AttachError != nil {
		return nil, f.AttachError
	}
	if _, ok := f.Uploads[item.UploadToken]; !ok {
		return nil, fmt.Errorf("unknown upload token %q", item.UploadToken)
	}
	f.Attached = append(f.Attached, albumID+"/"+item.UploadToken)
	return &media_items.MediaItem{ID: fmt.Sprintf("item-%d", len(f.Attached))}, nil
}
