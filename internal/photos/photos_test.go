package photos

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/gphotosuploader/google-photos-api-client-go/v3/albums"
	"golang.org/x/oauth2"

	"github.com/sweeney/grow-monitor/internal/oauth"
)

func writePhoto(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.jpg")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewClient(t *testing.T) {
	tokens := oauth.StaticProvider{Tok: &oauth2.Token{AccessToken: "a"}}
	c, err := NewClient(context.Background(), tokens)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.Albums == nil || c.MediaItems == nil || c.Uploader == nil || c.Tokens == nil {
		t.Errorf("client not fully wired: %+v", c)
	}
}

func TestUploadToNewAlbum(t *testing.T) {
	lib := &FakeLibrary{}
	c := lib.Client(nil)
	path := writePhoto(t, "jpegdata")

	res, err := c.UploadToNewAlbum(context.Background(), path, "Photo_2025-11-04_12-00-00")
	if err != nil {
		t.Fatalf("UploadToNewAlbum: %v", err)
	}

	if res.Path != path || res.UploadToken != "upload-token-1" || res.Album.ID != "album-1" {
		t.Errorf("unexpected result: %+v", res)
	}
	if res.Album.Title != "Photo_2025-11-04_12-00-00" {
		t.Errorf("album title: got %q", res.Album.Title)
	}
	if string(lib.Uploads["upload-token-1"]) != "jpegdata" {
		t.Errorf("uploaded bytes: got %q", lib.Uploads["upload-token-1"])
	}
	if !reflect.DeepEqual(lib.Attached, []string{"album-1/upload-token-1"}) {
		t.Errorf("attached: got %v", lib.Attached)
	}
	if !reflect.DeepEqual(lib.Calls, []string{"UploadFile", "Create", "CreateToAlbum"}) {
		t.Errorf("calls: got %v", lib.Calls)
	}
}

func TestUploadToNewAlbumAuthFailure(t *testing.T) {
	lib := &FakeLibrary{}
	c := lib.Client(oauth.StaticProvider{Err: errors.New("no credentials")})

	_, err := c.UploadToNewAlbum(context.Background(), writePhoto(t, "x"), "title")

	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageAuthenticate {
		t.Fatalf("expected AUTHENTICATE stage error, got %v", err)
	}
	if !errors.Is(err, oauth.ErrAuth) {
		t.Error("expected error to match oauth.ErrAuth")
	}
	if len(lib.Calls) != 0 {
		t.Errorf("expected no API calls, got %v", lib.Calls)
	}
}

func TestUploadToNewAlbumUploadFailure(t *testing.T) {
	quota := errors.New("quota exceeded")
	lib := &FakeLibrary{UploadError: quota}
	c := lib.Client(nil)

	_, err := c.UploadToNewAlbum(context.Background(), writePhoto(t, "x"), "title")

	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageUpload {
		t.Fatalf("expected UPLOAD stage error, got %v", err)
	}
	if !errors.Is(err, quota) {
		t.Errorf("expected wrapped upload error, got %v", err)
	}
	if len(lib.Calls) != 1 {
		t.Errorf("album stages ran after upload failure: %v", lib.Calls)
	}
}

func TestUploadToNewAlbumMissingFile(t *testing.T) {
	lib := &FakeLibrary{}
	c := lib.Client(nil)

	_, err := c.UploadToNewAlbum(context.Background(), filepath.Join(t.TempDir(), "gone.jpg"), "title")

	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageUpload {
		t.Fatalf("expected UPLOAD stage error, got %v", err)
	}
}

func TestUploadToNewAlbumAlbumFailure(t *testing.T) {
	lib := &FakeLibrary{CreateError: errors.New("denied")}
	c := lib.Client(nil)

	res, err := c.UploadToNewAlbum(context.Background(), writePhoto(t, "x"), "title")

	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageCreateAlbum {
		t.Fatalf("expected CREATE_ALBUM stage error, got %v", err)
	}
	if res.UploadToken != "upload-token-1" {
		t.Errorf("upload token lost: %+v", res)
	}
	for _, call := range lib.Calls {
		if call == "CreateToAlbum" {
			t.Error("attach ran after album failure")
		}
	}
}

func TestUploadToNewAlbumAttachFailure(t *testing.T) {
	lib := &FakeLibrary{AttachError: errors.New("invalid token")}
	c := lib.Client(nil)

	res, err := c.UploadToNewAlbum(context.Background(), writePhoto(t, "x"), "title")

	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageAttach {
		t.Fatalf("expected ATTACH stage error, got %v", err)
	}
	if !strings.Contains(err.Error(), "invalid token") {
		t.Errorf("error should carry the cause: %v", err)
	}
	if res.Album.ID != "album-1" {
		t.Errorf("album lost: %+v", res)
	}
}

func TestListAlbums(t *testing.T) {
	lib := &FakeLibrary{Albums: []albums.Album{
		{ID: "a1", Title: "one"},
		{ID: "a2", Title: "two"},
	}}

	got, err := lib.Client(nil).ListAlbums(context.Background())
	if err != nil {
		t.Fatalf("ListAlbums: %v", err)
	}
	want := []Album{{ID: "a1", Title: "one"}, {ID: "a2", Title: "two"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestListAlbumsEmpty(t *testing.T) {
	got, err := (&FakeLibrary{}).Client(nil).ListAlbums(context.Background())
	if err != nil {
		t.Fatalf("ListAlbums: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no albums, got %+v", got)
	}
}

func TestListAlbumsError(t *testing.T) {
	lib := &FakeLibrary{ListError: errors.New("403")}
	if _, err := lib.Client(nil).ListAlbums(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestStageErrorMessage(t *testing.T) {
	err := &StageError{Stage: StageCapture, Err: errors.New("no device")}
	if err.Error() != "CAPTURE failed: no device" {
		t.Errorf("got %q", err.Error())
	}
}

type stubCamera struct {
	path string
	err  error
}

func (s stubCamera) CaptureFile(context.Context) (string, error) { return s.path, s.err }

func TestCaptureToNewAlbum(t *testing.T) {
	lib := &FakeLibrary{}
	path := writePhoto(t, "img")

	res, err := lib.Client(nil).CaptureToNewAlbum(context.Background(), stubCamera{path: path}, "t")
	if err != nil {
		t.Fatalf("CaptureToNewAlbum: %v", err)
	}
	if res.Path != path || string(lib.Uploads[res.UploadToken]) != "img" {
		t.Errorf("unexpected upload: %+v", res)
	}
}

func TestCaptureFailureStopsFlow(t *testing.T) {
	lib := &FakeLibrary{}

	_, err := lib.Client(nil).CaptureToNewAlbum(context.Background(), stubCamera{err: errors.New("no camera")}, "t")

	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageCapture {
		t.Fatalf("expected CAPTURE stage error, got %v", err)
	}
	if len(lib.Calls) != 0 {
		t.Errorf("expected no API calls, got %v", lib.Calls)
	}
}
