package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	croonhttp "github.com/croonlabs/croon/internal/http"
	"github.com/croonlabs/croon/internal/identity"
	"github.com/croonlabs/croon/internal/progress"
	"github.com/croonlabs/croon/internal/studio"
)

// Options configures the downloader.
type Options struct {
	// BufferSize is the copy buffer size in bytes.
	// Default: 512KB
	BufferSize int64

	// Progress is an optional progress reporter.
	Progress *progress.Reporter
}

// Result describes one finished download.
type Result struct {
	ID    string
	Key   string
	Bytes int64

	// Skipped is true when the asset already existed in the bucket and
	// was left untouched. Downloaded assets are write-once.
	Skipped bool
}

// Downloader streams finished assets into a bucket. Writes are incremental
// with a bounded buffer; the whole asset is never held in memory.
type Downloader struct {
	http     *croonhttp.Client
	identity *identity.Client
	studio   *studio.Client
	bucket   *blob.Bucket
	opts     Options
	logger   *slog.Logger
}

// New creates a downloader writing into the given bucket.
func New(hc *croonhttp.Client, idc *identity.Client, sc *studio.Client, bucket *blob.Bucket, opts Options, logger *slog.Logger) *Downloader {
	if opts.BufferSize <= 0 {
		opts.BufferSize = 512 * 1024
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Downloader{
		http:     hc,
		identity: idc,
		studio:   sc,
		bucket:   bucket,
		opts:     opts,
		logger:   logger,
	}
}

// Key returns the deterministic storage key for an asset id.
func Key(id string) string {
	return "Croon-" + id + ".mp3"
}

// Fetch downloads one asset. It renews the owning session's credential
// immediately before the fetch (credentials may have expired during the
// completion wait), resolves the asset's source URL, and streams the bytes
// into the bucket. When the remote side reports a content length the
// written byte count must match it.
func (d *Downloader) Fetch(ctx context.Context, s *identity.Session, id string) (*Result, error) {
	key := Key(id)

	exists, err := d.bucket.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", key, err)
	}
	if exists {
		d.logger.Info("asset already downloaded", "id", id, "key", key)
		return &Result{ID: id, Key: key, Skipped: true}, nil
	}

	if err := d.identity.Renew(ctx, s); err != nil {
		return nil, err
	}

	clip, err := d.studio.Metadata(ctx, s, id)
	if err != nil {
		return nil, err
	}

	if d.opts.Progress != nil {
		d.opts.Progress.AssetStarted()
	}

	n, err := d.copyToBucket(ctx, clip.AudioURL, key)
	if err != nil {
		if d.opts.Progress != nil {
			d.opts.Progress.AssetFailed()
		}
		return nil, fmt.Errorf("download asset %s: %w", id, err)
	}

	if d.opts.Progress != nil {
		d.opts.Progress.AssetCompleted(n)
	}

	d.logger.Info("asset downloaded", "id", id, "key", key, "bytes", n)
	return &Result{ID: id, Key: key, Bytes: n}, nil
}

// FetchAll downloads every asset in ids sequentially. A failing asset is
// logged and the remaining assets are still attempted; the per-asset errors
// are joined into the returned error.
func (d *Downloader) FetchAll(ctx context.Context, s *identity.Session, ids []string) ([]Result, error) {
	var results []Result
	var errs []error

	for _, id := range ids {
		res, err := d.Fetch(ctx, s, id)
		if err != nil {
			d.logger.Error("asset download failed", "id", id, "error", err)
			errs = append(errs, fmt.Errorf("asset %s: %w", id, err))
			continue
		}
		results = append(results, *res)
	}

	return results, errors.Join(errs...)
}

func (d *Downloader) copyToBucket(ctx context.Context, sourceURL, key string) (int64, error) {
	stream, err := d.http.GetStream(ctx, sourceURL)
	if err != nil {
		return 0, err
	}
	defer stream.Body.Close()

	w, err := d.bucket.NewWriter(ctx, key, &blob.WriterOptions{
		ContentType: "audio/mpeg",
	})
	if err != nil {
		return 0, fmt.Errorf("open writer: %w", err)
	}

	buf := make([]byte, d.opts.BufferSize)
	n, copyErr := io.CopyBuffer(w, stream.Body, buf)
	closeErr := w.Close()

	if copyErr != nil {
		d.discard(ctx, key)
		return 0, fmt.Errorf("copy: %w", copyErr)
	}
	if closeErr != nil {
		d.discard(ctx, key)
		return 0, fmt.Errorf("finalize write: %w", closeErr)
	}

	if stream.ContentLength >= 0 && n != stream.ContentLength {
		d.discard(ctx, key)
		return 0, fmt.Errorf("size mismatch: expected %d, got %d", stream.ContentLength, n)
	}

	return n, nil
}

// discard removes a partially written object so a rerun starts clean.
func (d *Downloader) discard(ctx context.Context, key string) {
	if err := d.bucket.Delete(ctx, key); err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		d.logger.Warn("failed to remove partial object", "key", key, "error", err)
	}
}
