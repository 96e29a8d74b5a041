package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-gota/gota/dataframe"

	"github.com/couchcryptid/fars-census-service/internal/domain"
)

// Dir resolves yearly accident files under a directory.
type Dir string

// Path returns the location of the year's file.
func (d Dir) Path(year int) string {
	return filepath.Join(string(d), domain.Filename(year))
}

// ReadYear reads the year's file.
func (d Dir) ReadYear(year int) (dataframe.DataFrame, error) {
	return Read(d.Path(year))
}

// CheckReadiness reports whether the data directory can be listed.
func (d Dir) CheckReadiness(_ context.Context) error {
	if _, err := os.ReadDir(string(d)); err != nil {
		return fmt.Errorf("data directory: %w", err)
	}
	return nil
}
