package buffer

import (
	"bytes"
	"os"
	"unicode/utf8"

	"github.com/google/renameio/v2"
	"github.com/pkg/errors"

	"github.com/yididiel7/fresh/utils"
)

const (
	// binarySniffLen bounds the NUL scan on load.
	binarySniffLen = 8 * 1024

	// binaryInvalidRatio: above this share of invalid UTF-8 bytes the file is
	// treated as binary rather than repaired.
	binaryInvalidRatio = 0.1
)

// SaveOptions come from the per-language config.
type SaveOptions struct {
	TrimTrailingWhitespace bool
	EnsureFinalNewline     bool
}

// Load reads a file into a buffer, detecting the line ending and binary
// content. Binary buffers are read-only and keep their raw bytes.
func Load(path string) (*Buffer, *Metadata, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "reading %s", path)
	}
	meta := NewFileMetadata(path)

	if isBinary(raw) {
		meta.Binary = true
		meta.ReadOnly = true
		meta.LSPEnabled = false
		b := FromBytes(raw)
		return b, meta, nil
	}

	le := DetectLineEnding(raw)
	content := NormalizeLineEndings(raw)
	b := FromBytes(content)
	b.SetLineEnding(le)
	if b.IsLarge() {
		meta.LSPEnabled = false
	}
	return b, meta, nil
}

// Save serializes the buffer with its recorded line ending and writes it
// atomically. The buffer is left unchanged on failure.
func Save(b *Buffer, path string, opts SaveOptions) error {
	data := Serialize(b, opts)
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "saving %s", path)
	}
	return nil
}

// Serialize renders buffer content as on-disk bytes: recorded line endings
// restored, optional whitespace trimming and final newline.
func Serialize(b *Buffer, opts SaveOptions) []byte {
	content := b.Bytes()
	if opts.TrimTrailingWhitespace {
		content = trimTrailingWhitespace(content)
	}
	if opts.EnsureFinalNewline && len(content) > 0 && content[len(content)-1] != '\n' {
		content = append(content, '\n')
	}
	if b.LineEnding() != LineEndingLF {
		content = bytes.ReplaceAll(content, []byte("\n"), b.LineEnding().Bytes())
	}
	return content
}

func trimTrailingWhitespace(content []byte) []byte {
	var out []byte
	lines := bytes.Split(content, []byte("\n"))
	for i, line := range lines {
		end := utils.IndexLastNonSpace(line)
		out = append(out, line[:end+1]...)
		if i < len(lines)-1 {
			out = append(out, '\n')
		}
	}
	return out
}

// isBinary applies the load heuristic: any NUL in the first 8 KiB, or too
// high a share of invalid UTF-8.
func isBinary(data []byte) bool {
	sniff := data
	if len(sniff) > binarySniffLen {
		sniff = sniff[:binarySniffLen]
	}
	if bytes.IndexByte(sniff, 0) != -1 {
		return true
	}
	if utf8.Valid(data) {
		return false
	}
	invalid := 0
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			invalid++
		}
		i += size
	}
	return float64(invalid) > binaryInvalidRatio*float64(len(data))
}
