package interfaces

import "io"

// FileStorage is the narrow save/get/delete contract for document blobs.
// Implementations must reject paths that escape the configured storage root.
type FileStorage interface {
	// Save stores the stream under fileName (optionally inside subfolder)
	// and returns the relative stored path and the number of bytes written.
	Save(r io.Reader, fileName, subfolder string) (path string, size int64, err error)

	// Exists reports whether a stored path already exists.
	Exists(path string) bool

	// Get reads a stored file back.
	Get(path string) ([]byte, error)

	// Delete removes a stored file. Deleting a missing file is not an error.
	Delete(path string) error
}
