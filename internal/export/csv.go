package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV streams rows to w in the downstream CSV contract: exact header
// names, exact column order.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, row := range rows {
		if err := cw.Write(row.fields()); err != nil {
			return fmt.Errorf("write row %s: %w", row.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
