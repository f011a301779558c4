package buffer

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"

	"github.com/google/uuid"
)

// Kind says whether a buffer is backed by a file or created virtually by a
// plugin (structured output, scratch content).
type Kind int

const (
	KindFile Kind = iota
	KindVirtual
)

// Metadata is coupled 1:1 to a BufferState.
type Metadata struct {
	Kind        Kind
	Path        string // absolute path; empty for virtual buffers
	URI         string // file:// URI handed to LSP collaborators
	VirtualMode string // plugin mode tag for virtual buffers
	DisplayName string
	LSPEnabled  bool
	ReadOnly    bool
	Binary      bool

	recoveryID string
}

func NewFileMetadata(path string) *Metadata {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &Metadata{
		Kind:        KindFile,
		Path:        abs,
		URI:         "file://" + abs,
		DisplayName: filepath.Base(abs),
		LSPEnabled:  true,
	}
}

func NewVirtualMetadata(name, mode string) *Metadata {
	return &Metadata{
		Kind:        KindVirtual,
		VirtualMode: mode,
		DisplayName: name,
	}
}

// RecoveryID names this buffer's auto-save file: a stable hash of the path
// for file buffers, a generated UUID for unnamed ones. The id is computed
// once and reused for the buffer's lifetime.
func (m *Metadata) RecoveryID() string {
	if m.recoveryID != "" {
		return m.recoveryID
	}
	if m.Kind == KindFile && m.Path != "" {
		sum := sha256.Sum256([]byte(m.Path))
		m.recoveryID = hex.EncodeToString(sum[:16])
	} else {
		m.recoveryID = uuid.NewString()
	}
	return m.recoveryID
}
