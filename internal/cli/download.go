package cli

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"contentgen/internal/localfs"
	"contentgen/internal/model"
)

type videoDownloader interface {
	DownloadVideo(ctx context.Context, filename string, w io.Writer) (int64, error)
}

type downloadResult struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Bytes    int64  `json:"bytes"`
}

// videoFilename is the download name of a job's video.
func videoFilename(j model.Job) string {
	if !j.HasVideo() {
		return ""
	}
	return path.Base(filepath.ToSlash(strings.TrimSpace(j.VideoPath)))
}

// downloadVideo streams filename into dir. The target is written through a
// temp file and guarded by a lock so two downloads of one file cannot race.
func downloadVideo(ctx context.Context, client videoDownloader, filename, dir string) (downloadResult, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return downloadResult{}, fmt.Errorf("invalid video filename %q", filename)
	}
	if err := localfs.Mkdir(dir); err != nil {
		return downloadResult{}, err
	}
	target := filepath.Join(dir, name)

	lock, err := localfs.LockDownload(target, name)
	if err != nil {
		return downloadResult{}, err
	}
	defer func() {
		_ = lock.Release()
	}()

	pr, pw := io.Pipe()
	errc := make(chan error, 1)
	go func() {
		_, err := client.DownloadVideo(ctx, name, pw)
		_ = pw.CloseWithError(err)
		errc <- err
	}()

	n, writeErr := localfs.WriteStream(target, pr)
	if writeErr != nil {
		_ = pr.CloseWithError(writeErr)
	}
	if err := <-errc; err != nil {
		return downloadResult{}, err
	}
	if writeErr != nil {
		return downloadResult{}, writeErr
	}
	return downloadResult{Filename: name, Path: target, Bytes: n}, nil
}
