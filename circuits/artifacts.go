package circuits

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/arbor-audio/arbor-node/log"
	"github.com/arbor-audio/arbor-node/types"
)

// CheckHashes controls whether artifact content is verified against its
// expected hash on load and download. Set ARBOR_CHECK_HASHES=false (or 0) to
// disable verification, for instance when iterating on locally built circuits.
var CheckHashes = true

// BaseDir is the on-disk artifact cache. It defaults to
// $ARBOR_ARTIFACTS_DIR, then ~/.cache/arbor-artifacts, then a temp directory.
var BaseDir string

func init() {
	if v := os.Getenv("ARBOR_CHECK_HASHES"); strings.EqualFold(v, "false") || v == "0" {
		CheckHashes = false
	}
	BaseDir = os.Getenv("ARBOR_ARTIFACTS_DIR")
	if BaseDir == "" {
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			BaseDir = filepath.Join(home, ".cache", "arbor-artifacts")
		} else {
			log.Warnf("no user home directory, caching artifacts under tmp: %v", err)
			BaseDir = filepath.Join(os.TempDir(), "arbor-artifacts")
		}
	}
	if err := os.MkdirAll(BaseDir, 0o755); err != nil {
		log.Errorf("cannot create artifact cache dir %s: %v", BaseDir, err)
	}
}

// Artifact is a single hash-addressed circuit file. Load reads it from the
// cache into Content; Download fetches it from RemoteURL into the cache.
type Artifact struct {
	RemoteURL string
	Hash      []byte
	Content   []byte
}

func (a *Artifact) cachePath() string {
	return filepath.Join(BaseDir, hex.EncodeToString(a.Hash))
}

// Load fills a.Content from the local cache. An artifact without a hash
// cannot be located or verified, so Load rejects it. A cache miss is an
// error; call Download first.
func (a *Artifact) Load() error {
	if len(a.Content) != 0 {
		return nil
	}
	if len(a.Hash) == 0 {
		return fmt.Errorf("key hash not provided")
	}
	content, err := os.ReadFile(a.cachePath())
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no content found")
		}
		return fmt.Errorf("cannot read cached artifact: %w", err)
	}
	if CheckHashes {
		if sum := sha256.Sum256(content); !bytes.Equal(sum[:], a.Hash) {
			return fmt.Errorf("hash mismatch for %s: expected %x, got %x", a.cachePath(), a.Hash, sum)
		}
	}
	a.Content = content
	return nil
}

// Download fetches the artifact from its remote URL and stores it in the
// cache. It does not load the content into memory; follow with Load.
func (a *Artifact) Download(ctx context.Context) error {
	if a.RemoteURL == "" {
		return fmt.Errorf("key not loaded and remote url not provided")
	}
	if _, err := url.Parse(a.RemoteURL); err != nil {
		return fmt.Errorf("invalid artifact URL: %w", err)
	}
	return fetchToCache(ctx, a.RemoteURL, a.Hash, a.cachePath())
}

// fetchToCache downloads url into path, hashing the stream as it is written.
// The bytes land in a .partial file first so an interrupted transfer never
// shadows a valid cache entry.
func fetchToCache(ctx context.Context, fileURL string, expectedHash []byte, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return fmt.Errorf("cannot build artifact request: %w", err)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("artifact request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("artifact download %s: http status %d", fileURL, res.StatusCode)
	}

	partial := path + ".partial"
	fd, err := os.OpenFile(partial, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("cannot open artifact file: %w", err)
	}
	hasher := sha256.New()
	n, err := io.Copy(io.MultiWriter(fd, hasher), res.Body)
	if cerr := fd.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(partial)
		return fmt.Errorf("artifact write failed: %w", err)
	}
	if CheckHashes {
		if got := hasher.Sum(nil); !bytes.Equal(got, expectedHash) {
			os.Remove(partial)
			return fmt.Errorf("hash mismatch: expected %x, got %x", expectedHash, got)
		}
	}
	if err := os.Rename(partial, path); err != nil {
		return fmt.Errorf("cannot move artifact into cache: %w", err)
	}
	log.Debugw("artifact downloaded", "url", fileURL,
		"size", fmt.Sprintf("%.2fMiB", float64(n)/(1024*1024)))
	return nil
}

// CircuitArtifacts bundles the three artifacts of one circuit.
type CircuitArtifacts struct {
	circuitDefinition *Artifact
	provingKey        *Artifact
	verifyingKey      *Artifact
}

func NewCircuitArtifacts(circuit, provingKey, verifyingKey *Artifact) *CircuitArtifacts {
	return &CircuitArtifacts{
		circuitDefinition: circuit,
		provingKey:        provingKey,
		verifyingKey:      verifyingKey,
	}
}

func (ca *CircuitArtifacts) each() map[string]*Artifact {
	return map[string]*Artifact{
		"circuit definition": ca.circuitDefinition,
		"proving key":        ca.provingKey,
		"verifying key":      ca.verifyingKey,
	}
}

// LoadAll reads every artifact from the local cache into memory.
func (ca *CircuitArtifacts) LoadAll() error {
	for name, a := range ca.each() {
		if a == nil {
			continue
		}
		if err := a.Load(); err != nil {
			return fmt.Errorf("loading %s: %w", name, err)
		}
	}
	return nil
}

// DownloadAll fetches every artifact concurrently. The first failure cancels
// the remaining transfers.
func (ca *CircuitArtifacts) DownloadAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for name, a := range ca.each() {
		if a == nil {
			continue
		}
		g.Go(func() error {
			if err := a.Download(ctx); err != nil {
				return fmt.Errorf("downloading %s: %w", name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// CircuitDefinition returns the loaded circuit bytes, or nil if not loaded.
func (ca *CircuitArtifacts) CircuitDefinition() types.HexBytes {
	if ca.circuitDefinition == nil {
		return nil
	}
	return ca.circuitDefinition.Content
}

// ProvingKey returns the loaded proving key bytes, or nil if not loaded.
func (ca *CircuitArtifacts) ProvingKey() types.HexBytes {
	if ca.provingKey == nil {
		return nil
	}
	return ca.provingKey.Content
}

// VerifyingKey returns the loaded verification key bytes, or nil if not loaded.
func (ca *CircuitArtifacts) VerifyingKey() types.HexBytes {
	if ca.verifyingKey == nil {
		return nil
	}
	return ca.verifyingKey.Content
}
