// Package catalog discovers simulations in a remote waveform catalog and
// mirrors their metadata and waveform files into the local cache.
//
// The Builder resolves each simulation index through three tiers, stopping
// at the first hit: a metadata file already in the disk cache, a record
// already in the in-memory index, and finally network probing over the
// configured resolutions and identifiers. Every change to the index is
// persisted immediately, so an interrupted crawl keeps all earlier progress.
//
// Everything runs sequentially on the calling goroutine. Two processes must
// not crawl into the same cache root at once.
package catalog

import (
	"context"
	"io"
	"net/url"
	"strings"
)

// Transport is the remote side of the mirror: existence checks and content
// retrieval. Implementations absorb transient failures themselves; Exists
// reports false when a resource cannot be confirmed.
type Transport interface {
	Exists(ctx context.Context, url string) bool
	Fetch(ctx context.Context, url string) ([]byte, error)
	Open(ctx context.Context, url string) (io.ReadCloser, error)
}

// Remote directory names under the catalog base URL.
const (
	remoteMetadataDir = "Metadata"
	remoteDataDir     = "Data"
)

// remoteURL joins the catalog base URL, a directory and a file name. The file
// name is path-escaped since padded resolutions put spaces in names.
func remoteURL(base, dir, fileName string) string {
	return strings.TrimRight(base, "/") + "/" + dir + "/" + url.PathEscape(fileName)
}
