// Package dataset reads FARS accident files into gota data frames and
// projects them onto the typed columns the service consumes.
package dataset

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/go-gota/gota/dataframe"

	"github.com/couchcryptid/fars-census-service/internal/domain"
)

// naValues are the cell spellings parsed as missing.
var naValues = []string{"", "NA", "NaN", "<nil>"}

// Read loads a delimited text file into a data frame. The schema comes from
// the header row; column names and detected types are passed through as
// authored. Files ending in .bz2 or .gz are decompressed.
func Read(path string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return dataframe.DataFrame{}, fmt.Errorf("%w: file '%s' does not exist", domain.ErrFileNotFound, path)
		}
		return dataframe.DataFrame{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r, closeFn, err := decompress(path, f)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("decompress %s: %w", path, err)
	}
	defer closeFn()

	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(naValues),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("parse %s: %w", path, df.Err)
	}
	return df, nil
}

func decompress(path string, r io.Reader) (io.Reader, func(), error) {
	switch {
	case strings.HasSuffix(path, ".bz2"):
		zr, err := bzip2.NewReader(r, nil)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() { _ = zr.Close() }, nil
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() { _ = zr.Close() }, nil
	default:
		return r, func() {}, nil
	}
}
