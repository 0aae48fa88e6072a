package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Opener resolves a listing location (local path, http(s) URL or ftp URL)
// to its contents.
type Opener struct {
	HTTP *HTTPFetcher
	FTP  *FTPFetcher
}

// NewOpener creates an Opener.
func NewOpener(h *HTTPFetcher, f *FTPFetcher) *Opener {
	return &Opener{HTTP: h, FTP: f}
}

func scheme(src string) string {
	u, err := url.Parse(src)
	if err != nil || len(u.Scheme) < 2 {
		// Single-letter schemes are Windows drive letters.
		return ""
	}
	return strings.ToLower(u.Scheme)
}

// Open returns a reader for src. The caller must close it.
func (o *Opener) Open(ctx context.Context, src string) (io.ReadCloser, error) {
	switch scheme(src) {
	case "":
		f, err := os.Open(src)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: open %s", src)
		}
		return f, nil
	case "http", "https":
		if o.HTTP == nil {
			return nil, eris.New("fetcher: no http fetcher configured")
		}
		return o.HTTP.Download(ctx, src)
	case "ftp":
		if o.FTP == nil {
			return nil, eris.New("fetcher: no ftp fetcher configured")
		}
		return o.FTP.Download(ctx, src)
	case "file":
		u, _ := url.Parse(src)
		return o.Open(ctx, u.Path)
	default:
		return nil, eris.Errorf("fetcher: unsupported scheme in %q", src)
	}
}

// Localize returns a local path for src, downloading remote files into a
// temp directory. cleanup removes anything Localize created.
func (o *Opener) Localize(ctx context.Context, src string) (string, func(), error) {
	noop := func() {}
	if scheme(src) == "" {
		return src, noop, nil
	}

	dir, err := os.MkdirTemp("", "leadgen-listing-*")
	if err != nil {
		return "", noop, eris.Wrap(err, "fetcher: create temp dir")
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	rc, err := o.Open(ctx, src)
	if err != nil {
		cleanup()
		return "", noop, err
	}
	defer rc.Close() //nolint:errcheck

	dst := filepath.Join(dir, "listing"+ListingExt(src))
	if _, err := writeFile(dst, rc); err != nil {
		cleanup()
		return "", noop, err
	}
	return dst, cleanup, nil
}

// ListingExt returns the lower-cased file extension of a path or URL.
func ListingExt(src string) string {
	if u, err := url.Parse(src); err == nil && scheme(src) != "" {
		return strings.ToLower(path.Ext(u.Path))
	}
	return strings.ToLower(filepath.Ext(src))
}

// StreamListing streams rows from a CSV, TSV or XLSX listing. The format is
// chosen by extension; anything unrecognized is read as CSV.
func (o *Opener) StreamListing(ctx context.Context, src string) (<-chan Row, <-chan error) {
	switch ListingExt(src) {
	case ".xlsx":
		local, cleanup, err := o.Localize(ctx, src)
		if err != nil {
			return failed(err)
		}
		rows, errs := StreamXLSX(ctx, local, XLSXOptions{})
		return rows, afterDone(errs, cleanup)
	default:
		rc, err := o.Open(ctx, src)
		if err != nil {
			return failed(err)
		}
		opts := CSVOptions{LazyQuotes: true}
		if ListingExt(src) == ".tsv" {
			opts.Delimiter = '\t'
		}
		rows, errs := StreamCSV(ctx, rc, opts)
		return rows, afterDone(errs, func() { _ = rc.Close() })
	}
}

func failed(err error) (<-chan Row, <-chan error) {
	rows := make(chan Row)
	errs := make(chan error, 1)
	close(rows)
	errs <- err
	close(errs)
	return rows, errs
}

// afterDone runs fn once errs is closed, forwarding any error.
func afterDone(errs <-chan error, fn func()) <-chan error {
	out := make(chan error, 1)
	go func() {
		defer close(out)
		defer fn()
		for err := range errs {
			out <- err
		}
	}()
	return out
}
