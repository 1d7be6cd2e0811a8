package convert

import (
	"fmt"
	"os"
	"path/filepath"

	"bitbucket.org/mmdatafocus/ratings_backend/utils"
)

// Scratch is the private working directory of one generation request.
// Every intermediate file of the request lives below Dir.
type Scratch struct {
	Dir       string
	RequestId string
}

// NewScratch creates base/docgen-<requestId>. It fails if the directory
// already exists, so two requests can never share one.
func NewScratch(base string, requestId string) (*Scratch, error) {
	segment := utils.SanitizeSegment(requestId)
	if segment == "" {
		return nil, fmt.Errorf("scratch: invalid request id %q", requestId)
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("scratch: %w", err)
	}
	dir := filepath.Join(base, "docgen-"+segment)
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("scratch: %w", err)
	}
	return &Scratch{Dir: dir, RequestId: segment}, nil
}

// Path returns name inside the scratch directory.
func (s *Scratch) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

// File returns the request-tagged file name with the given extension.
func (s *Scratch) File(ext string) string {
	return s.Path(s.RequestId + "." + ext)
}

func (s *Scratch) Close() error {
	return os.RemoveAll(s.Dir)
}
