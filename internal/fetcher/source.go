package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Options configures remote retrieval.
type Options struct {
	Timeout        time.Duration
	RequestsPerSec float64
}

// Fetch resolves a workbook source to a local file path. Local paths
// are returned as-is; http(s):// and ftp:// sources are downloaded
// into destDir. Remote downloads are the caller's files to clean up.
func Fetch(ctx context.Context, source, destDir string, opts Options) (string, error) {
	u, err := url.Parse(source)
	if err != nil || u.Scheme == "" {
		return source, nil // plain local path
	}

	switch u.Scheme {
	case "file":
		return u.Path, nil
	case "ftp":
		rc, err := openFTP(ctx, source, opts.Timeout)
		if err != nil {
			return "", err
		}
		return saveToDir(rc, destDir, path.Base(u.Path))
	case "http", "https":
		rc, err := newHTTPClient(opts.Timeout, opts.RequestsPerSec).openHTTP(ctx, source)
		if err != nil {
			return "", err
		}
		name := path.Base(u.Path)
		if name == "/" || name == "." || name == "" {
			name = "workbook.xlsx"
		}
		return saveToDir(rc, destDir, name)
	default:
		// Windows drive letters parse as single-letter schemes.
		if len(u.Scheme) == 1 {
			return source, nil
		}
		return "", eris.Errorf("fetcher: unsupported source scheme %q", u.Scheme)
	}
}

func saveToDir(rc io.ReadCloser, destDir, name string) (string, error) {
	defer func() { _ = rc.Close() }()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", eris.Wrap(err, "fetcher: create dest dir")
	}
	dest := filepath.Join(destDir, sanitizeFilename(name))

	f, err := os.Create(dest)
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: create %s", dest)
	}
	n, err := io.Copy(f, rc)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dest)
		return "", eris.Wrapf(err, "fetcher: write %s", dest)
	}

	zap.L().Info("fetcher: workbook downloaded",
		zap.String("dest", dest),
		zap.Int64("bytes", n),
	)
	return dest, nil
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, string(os.PathSeparator), "_")
	if name == "" {
		return "workbook.xlsx"
	}
	return name
}
