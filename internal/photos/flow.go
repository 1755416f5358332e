package photos

import (
	"context"
	"fmt"
	"log"
)

// Stage names a step of the capture-and-upload flow.
type Stage string

const (
	StageCapture      Stage = "CAPTURE"
	StageAuthenticate Stage = "AUTHENTICATE"
	StageUpload       Stage = "UPLOAD"
	StageCreateAlbum  Stage = "CREATE_ALBUM"
	StageAttach       Stage = "ATTACH"
)

// StageError reports the stage that stopped the flow. Later stages were not attempted.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Result describes a completed upload.
type Result struct {
	Path        string
	UploadToken string
	Album       Album
}

// UploadToNewAlbum authenticates, uploads the file at path, creates a fresh
// album titled title and attaches the upload to it. Each stage runs only if
// the previous one succeeded.
func (c *Client) UploadToNewAlbum(ctx context.Context, path, title string) (Result, error) {
	res := Result{Path: path}
	if _, err := c.Tokens.Token(ctx); err != nil {
		return res, &StageError{Stage: StageAuthenticate, Err: err}
	}

	uploadToken, err := c.Upload(ctx, path)
	if err != nil {
		return res, &StageError{Stage: StageUpload, Err: err}
	}
	res.UploadToken = uploadToken

	album, err := c.CreateAlbum(ctx, title)
	if err != nil {
		return res, &StageError{Stage: StageCreateAlbum, Err: err}
	}
	res.Album = album
	log.Printf("photos: created album %q (%s)", album.Title, album.ID)

	if err := c.AddToAlbum(ctx, album.ID, uploadToken); err != nil {
		return res, &StageError{Stage: StageAttach, Err: err}
	}
	log.Printf("photos: uploaded %s into album %q", path, title)

	return res, nil
}

// Capturer produces one image file and returns its path.
type Capturer interface {
	CaptureFile(ctx context.Context) (string, error)
}

// CaptureToNewAlbum captures an image and runs UploadToNewAlbum with it. A
// capture failure stops the flow before any network call.
func (c *Client) CaptureToNewAlbum(ctx context.Context, cam Capturer, title string) (Result, error) {
	path, err := cam.CaptureFile(ctx)
	if err != nil {
		return Result{}, &StageError{Stage: StageCapture, Err: err}
	}
	return c.UploadToNewAlbum(ctx, path, title)
}
