package dataset

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/integrity-cli/internal/model"
)

// Load reads a tabular file into a dataset, dispatching on extension.
func Load(path string) (*model.Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return LoadXLSX(path, XLSXOptions{})
	case ".csv":
		return LoadCSV(path)
	default:
		return nil, eris.Errorf("dataset: unsupported file type %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}
