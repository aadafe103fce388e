package staging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/dorogoy/zipline-mcp-sub003/internal/logging"
)

// DefaultMemoryThreshold is the size below which files stage in memory.
const DefaultMemoryThreshold = 5 * 1024 * 1024 // 5 MiB

// ErrBufferTooLarge reports a source that no longer fits the in-memory path
// at read time. The source may grow between the routing stat and the read.
var ErrBufferTooLarge = errors.New("source exceeds in-memory staging threshold")

// Stager converts on-disk files into upload-ready StagedFiles. Sources below
// the threshold are buffered in memory after passing content inspection;
// larger sources stay on disk and are inspected in place.
type Stager struct {
	Threshold int64

	inspector Inspector
	log       *logging.Logger
}

// NewStager creates a stager. A nil inspector selects the default rule set.
func NewStager(inspector Inspector, log *logging.Logger) *Stager {
	if inspector == nil {
		inspector = NewRegexpInspector()
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Stager{
		Threshold: DefaultMemoryThreshold,
		inspector: inspector,
		log:       log.Named("stager"),
	}
}

// Stage prepares the file at path for upload. A missing source fails with an
// error satisfying errors.Is(err, fs.ErrNotExist); a sensitive match fails
// with SecretDetectedError and leaves no staged artifact behind.
func (s *Stager) Stage(path string) (*StagedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("source file %s: %w", path, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to stat source file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("source %s is a directory", path)
	}

	if info.Size() < s.Threshold {
		staged, err := s.stageMemory(path)
		if errors.Is(err, ErrBufferTooLarge) {
			// The source grew past the threshold after the routing stat.
			return s.stageDisk(path)
		}
		return staged, err
	}
	return s.stageDisk(path)
}

func (s *Stager) stageMemory(path string) (*StagedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat source file: %w", err)
	}
	if info.Size() >= s.Threshold {
		return nil, ErrBufferTooLarge
	}

	buffer, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file: %w", err)
	}

	finding, err := s.inspector.Scan(buffer)
	if err != nil {
		return nil, fmt.Errorf("content inspection failed: %w", err)
	}
	if finding != nil {
		// Discard the buffer; no partially staged artifact escapes.
		for i := range buffer {
			buffer[i] = 0
		}
		s.log.Warn("staging refused",
			logging.PathField(path),
			zap.String("category", finding.Category),
			zap.String("pattern", finding.Pattern))
		return nil, &SecretDetectedError{Category: finding.Category, Pattern: finding.Pattern}
	}

	s.log.Debug("staged in memory", logging.PathField(path), zap.Int("size", len(buffer)))
	return NewMemoryStaged(buffer, path), nil
}

func (s *Stager) stageDisk(path string) (*StagedFile, error) {
	finding, err := s.inspector.ScanFile(path)
	if err != nil {
		return nil, fmt.Errorf("content inspection failed: %w", err)
	}
	if finding != nil {
		s.log.Warn("staging refused",
			logging.PathField(path),
			zap.String("category", finding.Category),
			zap.String("pattern", finding.Pattern))
		return nil, &SecretDetectedError{Category: finding.Category, Pattern: finding.Pattern}
	}

	s.log.Debug("staged on disk", logging.PathField(path))
	return NewDiskStaged(path), nil
}
