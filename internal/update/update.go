// Package update checks GitHub releases for a newer tessera version.
// Results are cached on disk so repeated CLI invocations do not hit
// the network more than once a day.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tessera-dev/tessera/internal/version"
)

const (
	releaseURL = "https://api.github.com/repos/tessera-dev/tessera/releases/latest"
	cacheTTL   = 24 * time.Hour
	cacheName  = "version-check.json"
)

// Info is the outcome of one version check.
type Info struct {
	Latest    string    `json:"latest"`
	Current   string    `json:"current"`
	CheckedAt time.Time `json:"checked_at"`
	Outdated  bool      `json:"outdated"`
}

// Check reports whether a newer release exists. A cached result
// younger than the TTL short-circuits the network call; the comparison
// against the running version is always recomputed.
func Check(ctx context.Context) (*Info, error) {
	if info, err := readCache(); err == nil && time.Since(info.CheckedAt) < cacheTTL {
		info.Current = version.Version
		info.Outdated = older(info.Current, info.Latest)
		return info, nil
	}

	info, err := fetchLatest(ctx)
	if err != nil {
		return nil, err
	}

	// Cache failures are not worth failing the check over.
	_ = writeCache(info)

	return info, nil
}

func fetchLatest(ctx context.Context) (*Info, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, releaseURL, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "tessera/"+version.Version)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, err
	}

	latest := strings.TrimPrefix(release.TagName, "v")
	current := version.Version

	return &Info{
		Latest:    latest,
		Current:   current,
		CheckedAt: time.Now(),
		Outdated:  older(current, latest),
	}, nil
}

// cachePath honors XDG_CACHE_HOME and falls back to ~/.cache.
func cachePath() (string, error) {
	cacheHome := os.Getenv("XDG_CACHE_HOME")
	if cacheHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		cacheHome = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheHome, "tessera", cacheName), nil
}

func readCache() (*Info, error) {
	path, err := cachePath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func writeCache(info *Info) error {
	path, err := cachePath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// older reports whether version a predates version b. Development
// builds never count as outdated.
func older(a, b string) bool {
	if a == "dev" {
		return false
	}
	if b == "dev" {
		return true
	}
	return compare(numbers(a), numbers(b)) < 0
}

// numbers extracts the numeric release parts, ignoring a leading v and
// any pre-release suffix ("1.2.0-beta" reads as [1 2 0]).
func numbers(v string) []int {
	v = strings.TrimPrefix(v, "v")
	parts := strings.Split(v, ".")
	nums := make([]int, len(parts))
	for i, p := range parts {
		p = strings.SplitN(p, "-", 2)[0]
		nums[i], _ = strconv.Atoi(p)
	}
	return nums
}

func compare(a, b []int) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		var av, bv int
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}
