package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.klb.dev/pinpaste/internal/history"
	"go.klb.dev/pinpaste/internal/imagedata"
	"go.klb.dev/pinpaste/internal/message"
)

// saveTimeout bounds one dialog plus write.
const saveTimeout = 2 * time.Minute

// Save starts writing the image selected by req to disk. It returns once the
// image has been resolved; the dialog and the write run off the loop and
// report through save-success and save-error, or save-image-result for
// edited images. A cancelled dialog is a normal outcome.
func (a *App) Save(req message.SaveRequest) error {
	switch req.Source {
	case message.SourceClipboard:
		data, err := a.clipboard.ReadImage()
		if err != nil {
			return fmt.Errorf("read clipboard: %w", err)
		}
		if len(data) == 0 {
			return ErrNoImage
		}
		a.saveAsync(req.Source, data, req.Path)
		return nil

	case message.SourceHistory:
		uri := req.ImageData
		if req.ID != "" {
			rec, ok := a.store.Get(req.ID)
			if !ok {
				return fmt.Errorf("save %s: %w", req.ID, history.ErrNotFound)
			}
			uri = rec.ImageData
		}
		data, err := imageBytes(uri)
		if err != nil {
			return err
		}
		a.saveAsync(req.Source, data, req.Path)
		return nil

	case message.SourceEdited:
		if req.Cancelled {
			a.hub.Publish(message.EventSaveImageResult, message.SaveResult{OK: false, Message: "cancelled"})
			return nil
		}
		data, err := imageBytes(req.ImageData)
		if err != nil {
			return err
		}
		a.saveAsync(req.Source, data, req.Path)
		return nil

	default:
		return fmt.Errorf("%w: unknown save source %q", ErrBadRequest, req.Source)
	}
}

func imageBytes(uri string) ([]byte, error) {
	if uri == "" {
		return nil, fmt.Errorf("%w: no image data", ErrBadRequest)
	}
	_, data, err := imagedata.Decode(uri)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, &imagedata.DecodeError{Err: imagedata.ErrEmptyImage}
	}
	return data, nil
}

func (a *App) saveAsync(source string, data []byte, path string) {
	a.saves.Add(1)
	go func() {
		defer a.saves.Done()
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()

		written, err := a.write(ctx, data, path)
		a.reportSave(source, written, err)
	}()
}

// write asks the dialog for a destination when path is empty. It returns ""
// with no error if the dialog was cancelled.
func (a *App) write(ctx context.Context, data []byte, path string) (string, error) {
	if path == "" {
		p, ok, err := a.dialog.SavePath(ctx)
		if err != nil {
			return "", fmt.Errorf("save dialog: %w", err)
		}
		if !ok {
			return "", nil
		}
		path = p
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (a *App) reportSave(source, path string, err error) {
	cancelled := err == nil && path == ""
	switch {
	case err != nil:
		slog.Error("save image failed", "source", source, "err", err)
	case cancelled:
		slog.Info("save image cancelled", "source", source)
	default:
		slog.Info("image saved", "source", source, "path", path, "size_bytes", fileSize(path))
	}

	if source == message.SourceEdited {
		res := message.SaveResult{OK: err == nil && !cancelled, Path: path}
		switch {
		case err != nil:
			res.Message = err.Error()
		case cancelled:
			res.Message = "cancelled"
		}
		a.hub.Publish(message.EventSaveImageResult, res)
		return
	}

	switch {
	case err != nil:
		a.hub.Publish(message.EventSaveError, err.Error())
	case !cancelled:
		a.hub.Publish(message.EventSaveSuccess, filepath.Base(path))
	}
}

func fileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}
