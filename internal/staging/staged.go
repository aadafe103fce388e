package staging

import "github.com/gabriel-vasile/mimetype"

// Variant discriminates the two staged representations. Consumers must
// switch exhaustively so a future variant cannot pass silently.
type Variant int

const (
	// VariantMemory holds the full file content in a buffer.
	VariantMemory Variant = iota
	// VariantDisk references the original source file on disk; ownership of
	// the file is never taken.
	VariantDisk
)

// StagedFile is an upload-ready representation of a source file.
type StagedFile struct {
	variant Variant

	// memory variant
	buffer     []byte
	originPath string

	// disk variant
	path string
}

// NewMemoryStaged builds the in-memory variant.
func NewMemoryStaged(buffer []byte, originPath string) *StagedFile {
	return &StagedFile{variant: VariantMemory, buffer: buffer, originPath: originPath}
}

// NewDiskStaged builds the disk variant referencing the original source path.
func NewDiskStaged(path string) *StagedFile {
	return &StagedFile{variant: VariantDisk, path: path}
}

// Variant returns the representation discriminator.
func (s *StagedFile) Variant() Variant {
	return s.variant
}

// Buffer returns the staged bytes. Valid only for the memory variant.
func (s *StagedFile) Buffer() []byte {
	return s.buffer
}

// OriginPath returns the source path the staged content came from.
func (s *StagedFile) OriginPath() string {
	switch s.variant {
	case VariantMemory:
		return s.originPath
	case VariantDisk:
		return s.path
	}
	return ""
}

// Path returns the on-disk path. Valid only for the disk variant.
func (s *StagedFile) Path() string {
	return s.path
}

// ContentType detects the media type of the staged content.
func (s *StagedFile) ContentType() string {
	switch s.variant {
	case VariantMemory:
		return mimetype.Detect(s.buffer).String()
	case VariantDisk:
		mtype, err := mimetype.DetectFile(s.path)
		if err != nil {
			return "application/octet-stream"
		}
		return mtype.String()
	}
	return "application/octet-stream"
}

// Release drops the staged content. The memory buffer is zeroed before the
// reference is cleared since it may hold sensitive bytes; the disk variant
// requires no action because the source file is not owned. Safe to call
// more than once.
func (s *StagedFile) Release() {
	if s.variant != VariantMemory {
		return
	}
	for i := range s.buffer {
		s.buffer[i] = 0
	}
	s.buffer = nil
}
