// Command photo-upload takes a still photo and uploads it into a new Google
// Photos album named after the capture time, or lists the app's albums.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/sweeney/grow-monitor/internal/camera"
	"github.com/sweeney/grow-monitor/internal/oauth"
	"github.com/sweeney/grow-monitor/internal/photos"
)

// titleLayout names albums and saved files after the capture time.
const titleLayout = "2006-01-02_15-04-05"

type config struct {
	device      string
	settle      time.Duration
	dir         string
	credentials string
	token       string
	listAlbums  bool
}

func main() {
	device := flag.String("device", camera.DefaultDevice, "V4L2 camera device")
	settle := flag.Duration("settle", camera.DefaultSettle, "Time to let the camera adjust exposure")
	dir := flag.String("dir", "/home/pi/Desktop", "Directory the photo is saved in")
	credentials := flag.String("credentials", oauth.DefaultCredentialsPath, "Google OAuth client secrets file")
	token := flag.String("token", "/home/pi/project/photos_token.json", "OAuth token cache file")
	listAlbums := flag.Bool("list-albums", false, "List albums created by this app and exit")

	flag.Parse()

	cfg := config{
		device:      *device,
		settle:      *settle,
		dir:         *dir,
		credentials: *credentials,
		token:       *token,
		listAlbums:  *listAlbums,
	}
	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(ctx context.Context, cfg config) error {
	provider, err := oauth.NewInstalledApp(cfg.credentials, cfg.token,
		oauth.ScopePhotosAppend, oauth.ScopePhotosLibrary)
	if err != nil {
		return err
	}
	client, err := photos.NewClient(ctx, provider)
	if err != nil {
		return err
	}

	if cfg.listAlbums {
		return printAlbums(ctx, client, os.Stdout)
	}

	cam := camera.NewWebcam(cfg.device)
	cam.Settle = cfg.settle
	_, err = capture(ctx, client, cam, cfg.dir, time.Now())
	return err
}

// capture saves a photo into dir and uploads it into a new album titled
// Photo_<time>. A failure is reported with the stage that failed.
func capture(ctx context.Context, client *photos.Client, cam camera.Capturer, dir string, now time.Time) (photos.Result, error) {
	title := "Photo_" + now.Format(titleLayout)
	src := &savingCapturer{cam: cam, dir: dir, now: now}

	res, err := client.CaptureToNewAlbum(ctx, src, title)
	if err != nil {
		return res, err
	}
	log.Printf("uploaded %s into new album %q", res.Path, title)
	return res, nil
}

// savingCapturer writes every capture into dir before it is uploaded.
type savingCapturer struct {
	cam camera.Capturer
	dir string
	now time.Time
}

func (s *savingCapturer) CaptureFile(ctx context.Context) (string, error) {
	path, _, err := camera.SaveCapture(ctx, s.cam, s.dir, s.now)
	if err != nil {
		return "", err
	}
	log.Printf("saved photo: %s", path)
	return path, nil
}

// albumLister is satisfied by *photos.Client.
type albumLister interface {
	ListAlbums(ctx context.Context) ([]photos.Album, error)
}

func printAlbums(ctx context.Context, l albumLister, w io.Writer) error {
	albums, err := l.ListAlbums(ctx)
	if err != nil {
		return err
	}
	if len(albums) == 0 {
		fmt.Fprintln(w, "No albums found.")
		return nil
	}
	for _, a := range albums {
		fmt.Fprintf(w, "%s\t%s\n", a.Title, a.ID)
	}
	return nil
}
