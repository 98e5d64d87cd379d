// Package safety implements the archive- and filesystem-level checks
// shared by the archive and repository ingestors: ZIP signature
// validation, path-traversal containment, symlink rejection, dangerous
// file extensions, and repository walk ceilings. Transliterated from
// original_source/backend/utils/{zip_safety,content_safety,repo_safety}.py
// into explicit Go error returns.
package safety

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/flate"
)

// dangerousExtensions mirrors BLOCKED_EXTENSIONS in content_safety.py.
var dangerousExtensions = map[string]bool{
	".exe": true, ".dll": true, ".so": true, ".dylib": true,
	".bin": true, ".class": true, ".jar": true,
	".msi": true, ".app": true,
	".deb": true, ".rpm": true,
	".iso": true, ".img": true,
}

// IsDangerousExtension reports whether name's extension (case-insensitive)
// is on the blocked list.
func IsDangerousExtension(name string) bool {
	return dangerousExtensions[strings.ToLower(filepath.Ext(name))]
}

// zipSignatures are the first four bytes of a well-formed ZIP stream:
// local file header, end-of-central-directory, and spanned-archive
// data-descriptor markers.
var zipSignatures = [][]byte{
	{'P', 'K', 0x03, 0x04},
	{'P', 'K', 0x05, 0x06},
	{'P', 'K', 0x07, 0x08},
}

// IsValidZipSignature reports whether data begins with a recognized ZIP
// magic number.
func IsValidZipSignature(data []byte) bool {
	for _, sig := range zipSignatures {
		if len(data) >= len(sig) && string(data[:len(sig)]) == string(sig) {
			return true
		}
	}
	return false
}

// PathDepth counts non-empty segments of path after normalizing
// backslash separators to forward slashes.
func PathDepth(path string) int {
	normalized := strings.ReplaceAll(path, "\\", "/")
	depth := 0
	for _, seg := range strings.Split(normalized, "/") {
		if seg != "" {
			depth++
		}
	}
	return depth
}

// SafeExtractPath resolves base/name and fails unless the result is base
// itself or strictly below it, defeating "..", absolute paths, and
// drive-letter escapes.
func SafeExtractPath(base, name string) (string, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("safety: resolve base: %w", err)
	}
	target, err := filepath.Abs(filepath.Join(absBase, name))
	if err != nil {
		return "", fmt.Errorf("safety: resolve target: %w", err)
	}
	if target != absBase && !strings.HasPrefix(target, absBase+string(os.PathSeparator)) {
		return "", fmt.Errorf("safety: path traversal detected: %s", name)
	}
	return target, nil
}

// unixSymlinkMode is 0o120000 shifted into zip.FileHeader.ExternalAttrs'
// upper 16 bits, matching Python's `external_attr >> 16`.
const unixSymlinkMode = 0o120000
const unixModeMask = 0o170000

// IsSymlinkEntry reports whether a ZIP entry's external attributes mark
// it as a Unix symlink.
func IsSymlinkEntry(externalAttrs uint32) bool {
	return (externalAttrs>>16)&unixModeMask == unixSymlinkMode
}

// RegisterFastDeflate installs klauspost/compress's flate implementation
// as the zip package's Deflate decompressor, used by the archive
// ingestor for faster large-archive streaming than compress/flate's
// stdlib implementation.
func RegisterFastDeflate(r *zip.Reader) {
	r.RegisterDecompressor(zip.Deflate, func(rd io.Reader) io.ReadCloser {
		return flate.NewReader(rd)
	})
}

// WalkLimits bounds a materialized repository or archive tree.
type WalkLimits struct {
	MaxFiles             int
	MaxUncompressedBytes int64
	MaxDepth             int
}

// ScanTree walks root applying the repository-walk ceilings of §4.1:
// file count, cumulative byte size, per-entry depth, and dangerous
// extensions. Grounded on repo_safety.py's scan_repo, generalized to
// also cover a freshly-extracted archive tree (the archive ingestor
// re-validates post-extraction for defense in depth against
// symlink-like tricks the ZIP-level check might miss on some
// platforms).
func ScanTree(root string, limits WalkLimits) error {
	var fileCount int
	var totalSize int64

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		fileCount++
		if fileCount > limits.MaxFiles {
			return fmt.Errorf("safety: repository contains too many files")
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if PathDepth(rel) > limits.MaxDepth {
			return fmt.Errorf("safety: repository directory depth exceeded")
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("safety: symlink detected: %s", rel)
		}
		totalSize += info.Size()
		if totalSize > limits.MaxUncompressedBytes {
			return fmt.Errorf("safety: repository size limit exceeded")
		}
		if IsDangerousExtension(path) {
			return fmt.Errorf("safety: dangerous file type detected: %s", d.Name())
		}
		return nil
	})
	return err
}
