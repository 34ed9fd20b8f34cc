// Package abisource loads contract interface documents referenced from the
// bond catalog.
//
// A reference is one of:
//
//	erc20                    the built-in ERC-20 interface
//	s3://bucket/path/X.json  an object in S3 (bucket may be empty: s3:///path)
//	path/to/X.json           a local file, relative to the base directory
package abisource

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alanyoungcy/bondregistry/internal/contract"
	"github.com/alanyoungcy/bondregistry/internal/domain"
)

// BuiltinERC20 is the reference that selects contract.ERC20.
const BuiltinERC20 = "erc20"

// maxDocumentSize bounds ABI documents; build artifacts with bytecode can be
// large but never this large.
const maxDocumentSize = 16 << 20

// Resolver turns references into parsed interfaces.
type Resolver struct {
	baseDir string
	blobs   domain.BlobReader
}

// NewResolver creates a Resolver reading local references relative to
// baseDir. blobs may be nil, in which case s3:// references fail.
func NewResolver(baseDir string, blobs domain.BlobReader) *Resolver {
	return &Resolver{baseDir: baseDir, blobs: blobs}
}

// Resolve loads and parses the document behind ref.
func (r *Resolver) Resolve(ctx context.Context, ref string) (*contract.Interface, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("abisource: empty reference: %w", domain.ErrConfig)
	}
	if strings.EqualFold(ref, BuiltinERC20) {
		return contract.ERC20, nil
	}

	raw, err := r.read(ctx, ref)
	if err != nil {
		return nil, err
	}
	return contract.ParseInterface(interfaceName(ref), raw)
}

func (r *Resolver) read(ctx context.Context, ref string) ([]byte, error) {
	if rest, ok := strings.CutPrefix(ref, "s3://"); ok {
		if r.blobs == nil {
			return nil, fmt.Errorf("abisource: %s: object storage is not configured: %w", ref, domain.ErrConfig)
		}
		bucket, key, _ := strings.Cut(rest, "/")
		if key == "" {
			return nil, fmt.Errorf("abisource: %s: missing object key: %w", ref, domain.ErrConfig)
		}
		ok, err := r.blobs.Exists(ctx, bucket, key)
		if err != nil {
			return nil, fmt.Errorf("abisource: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("abisource: abi object %s is missing: %w", ref, domain.ErrNotFound)
		}
		body, err := r.blobs.Get(ctx, bucket, key)
		if err != nil {
			return nil, fmt.Errorf("abisource: %w", err)
		}
		defer body.Close()
		return readLimited(ref, body)
	}

	path := strings.TrimPrefix(ref, "file://")
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("abisource: %w", err)
	}
	defer f.Close()
	return readLimited(ref, f)
}

func readLimited(ref string, rd io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(rd, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("abisource: read %s: %w", ref, err)
	}
	if len(data) > maxDocumentSize {
		return nil, fmt.Errorf("abisource: %s exceeds %d bytes: %w", ref, maxDocumentSize, domain.ErrMalformedABI)
	}
	return data, nil
}

// interfaceName derives a display name from a reference: the file name
// without extension.
func interfaceName(ref string) string {
	base := ref
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
