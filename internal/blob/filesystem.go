package blob

import (
	"gardenplanner/internal/infra/blob/fs"
)

// NewFilesystem returns an archive writing below root.
func NewFilesystem(root string) (Store, error) {
	return fs.New(root)
}
