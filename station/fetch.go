package station

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hhkbp2/go-logging"
)

// Fetch downloads the named station files from baseURL into dir, skipping
// files already present. It returns the local paths.
func Fetch(ctx context.Context, client *http.Client, baseURL, dir string, names []string) ([]string, error) {
	logger := logging.GetLogger("ptjpl.station")
	if client == nil {
		client = http.DefaultClient
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, err
	}

	paths := make([]string, len(names))
	for i, name := range names {
		path := filepath.Join(dir, name)
		paths[i] = path
		if fileExists(path) {
			logger.Debugf("station file cached: %s", path)
			continue
		}

		src := baseURL + name
		logger.Infof("downloading %s => %s", src, path)
		if err := download(ctx, client, src, path); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

func download(ctx context.Context, client *http.Client, src, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", src, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s: %s", src, resp.Status)
	}

	// write to a temporary name so that a failed download is not cached
	tmp := path + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to download %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
