// Package imagex validates player texture uploads. Textures are small PNG
// files with exact dimension contracts, so only the 8-byte PNG signature and
// the IHDR chunk are inspected; pixel data is never decoded.
package imagex

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/polarmc/yggdrasil/internal/common"
)

// MaxTextureBytes is the upload size ceiling (1 MiB).
const MaxTextureBytes = 1 << 20

// Kind selects the dimension contract to validate against.
type Kind string

const (
	KindSkin Kind = "skin"
	KindCape Kind = "cape"
)

// Skin model variants as they appear on the wire. The classic model is the
// default and is omitted from texture property metadata.
const (
	ModelClassic = "classic"
	ModelSlim    = "slim"
)

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// Info describes a validated texture.
type Info struct {
	Hash   string // SHA-256 of the raw bytes, hex-encoded
	Width  int
	Height int
	Model  string // skins only; ModelClassic or ModelSlim
}

// IsPNG reports whether b starts with the PNG signature.
func IsPNG(b []byte) bool {
	if len(b) < len(pngSignature) {
		return false
	}
	for i, c := range pngSignature {
		if b[i] != c {
			return false
		}
	}
	return true
}

// Dimensions reads width and height from the IHDR chunk. The IHDR chunk is
// required to be first, so the dimensions sit at fixed offsets 16 and 20.
func Dimensions(b []byte) (int, int, error) {
	if !IsPNG(b) {
		return 0, 0, fmt.Errorf("%w: not a PNG file", common.ErrInvalidImage)
	}
	if len(b) < 24 {
		return 0, 0, fmt.Errorf("%w: truncated PNG header", common.ErrInvalidImage)
	}
	w := int(binary.BigEndian.Uint32(b[16:20]))
	h := int(binary.BigEndian.Uint32(b[20:24]))
	return w, h, nil
}

// HashBytes returns the hex-encoded SHA-256 of b. Texture content addressing
// and deduplication key off this value.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Validate checks b against the contract for the given kind and returns the
// texture's content hash, dimensions and (for skins) the detected model.
//
// Dimension failures deliberately include the observed and expected sizes:
// unlike credential failures, this detail helps client integration and
// discloses nothing sensitive.
func Validate(b []byte, kind Kind) (*Info, error) {
	if len(b) > MaxTextureBytes {
		return nil, fmt.Errorf("%w: file too large (%d bytes, max %d)", common.ErrInvalidImage, len(b), MaxTextureBytes)
	}

	w, h, err := Dimensions(b)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindSkin:
		// Standard skin 64x64; legacy skin 64x32.
		if w != 64 || (h != 64 && h != 32) {
			return nil, fmt.Errorf("%w: invalid skin dimensions %dx%d, expected 64x64 or 64x32", common.ErrInvalidImage, w, h)
		}
	case KindCape:
		if w != 64 || h != 32 {
			return nil, fmt.Errorf("%w: invalid cape dimensions %dx%d, expected 64x32", common.ErrInvalidImage, w, h)
		}
	default:
		return nil, fmt.Errorf("%w: unknown texture kind %q", common.ErrInvalidImage, kind)
	}

	info := &Info{Hash: HashBytes(b), Width: w, Height: h}
	if kind == KindSkin {
		info.Model = DetectModel(b, w, h)
	}
	return info, nil
}

// DetectModel guesses the skin model from byte density. Slim-arm skins carry
// more transparent area, which compresses to fewer bytes per pixel. The
// signal is best-effort and advisory only; callers must not treat it as
// authoritative. Legacy 64x32 skins always classify as classic.
func DetectModel(b []byte, w, h int) string {
	if h == 32 || w == 0 || h == 0 {
		return ModelClassic
	}
	if float64(len(b))/float64(w*h) < 3.5 {
		return ModelSlim
	}
	return ModelClassic
}
