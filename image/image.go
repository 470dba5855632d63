// Package image stores lowered programs on disk so that they can run without
// being compiled again.
//
// Format: MAGIC(4) | BODY_LEN(8, little-endian) | BODY | DIGEST(32)
//
// BODY is canonical CBOR holding the format version, the digest of the source
// text and the modules. DIGEST is the BLAKE2b-256 hash of BODY.
package image

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/mod/semver"

	"github.com/sergev/sbasic/lang"
)

const (
	// Magic is the file magic number "SBIM".
	Magic = "SBIM"

	// Version is the image format version. Readers accept any image with
	// the same major version.
	Version = "v1.0.0"

	// Extension is the conventional file name suffix for images.
	Extension = ".sbi"

	maxBodyLen = 32 * 1024 * 1024
)

var (
	ErrBadMagic     = errors.New("not a program image")
	ErrCorrupt      = errors.New("image digest mismatch")
	ErrIncompatible = errors.New("incompatible image version")
)

// Image is a decoded program image.
type Image struct {
	Version      string
	SourceDigest [32]byte
	Program      *lang.Program
}

type body struct {
	Version      string                        `cbor:"1,keyasint"`
	SourceDigest []byte                        `cbor:"2,keyasint"`
	Modules      map[string][]lang.Instruction `cbor:"3,keyasint"`
}

// SourceDigest hashes program source text.
func SourceDigest(source []byte) [32]byte {
	return blake2b.Sum256(source)
}

// Write encodes program, compiled from source, to w. It returns the digest
// of the body, which is identical for identical programs.
func Write(w io.Writer, program *lang.Program, source []byte) ([32]byte, error) {
	digest := SourceDigest(source)
	return writeBody(w, &body{
		Version:      Version,
		SourceDigest: digest[:],
		Modules:      program.Modules,
	})
}

func writeBody(w io.Writer, b *body) ([32]byte, error) {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return [32]byte{}, fmt.Errorf("create encoder: %w", err)
	}
	data, err := encMode.Marshal(b)
	if err != nil {
		return [32]byte{}, fmt.Errorf("encode body: %w", err)
	}
	digest := blake2b.Sum256(data)

	var buf bytes.Buffer
	buf.WriteString(Magic)
	if err := binary.Write(&buf, binary.LittleEndian, uint64(len(data))); err != nil {
		return [32]byte{}, err
	}
	buf.Write(data)
	buf.Write(digest[:])
	if _, err := w.Write(buf.Bytes()); err != nil {
		return [32]byte{}, err
	}
	return digest, nil
}

// Read decodes an image from r, verifying its digest, its version and the
// consistency of the program it holds.
func Read(r io.Reader) (*Image, error) {
	var preamble [12]byte
	if _, err := io.ReadFull(r, preamble[:]); err != nil {
		return nil, fmt.Errorf("read preamble: %w", err)
	}
	if magic := string(preamble[:4]); magic != Magic {
		return nil, fmt.Errorf("%w: magic %q", ErrBadMagic, magic)
	}
	bodyLen := binary.LittleEndian.Uint64(preamble[4:])
	if bodyLen > maxBodyLen {
		return nil, fmt.Errorf("body length %d exceeds maximum %d", bodyLen, maxBodyLen)
	}

	data := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	var want [32]byte
	if _, err := io.ReadFull(r, want[:]); err != nil {
		return nil, fmt.Errorf("read digest: %w", err)
	}
	if blake2b.Sum256(data) != want {
		return nil, ErrCorrupt
	}

	var b body
	if err := cbor.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if !semver.IsValid(b.Version) || semver.Major(b.Version) != semver.Major(Version) {
		return nil, fmt.Errorf("%w: %q, expected %s.x", ErrIncompatible, b.Version, semver.Major(Version))
	}
	if _, ok := b.Modules[lang.MainModule]; !ok {
		return nil, fmt.Errorf("decode body: missing main module")
	}
	if err := verify(b.Modules); err != nil {
		return nil, err
	}

	img := &Image{
		Version: b.Version,
		Program: &lang.Program{Modules: b.Modules},
	}
	copy(img.SourceDigest[:], b.SourceDigest)
	return img, nil
}

// Matches reports whether the image was built from source.
func (img *Image) Matches(source []byte) bool {
	return img.SourceDigest == SourceDigest(source)
}
