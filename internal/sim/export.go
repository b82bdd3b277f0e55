package sim

import (
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/crypto/blake2b"

	"github.com/doppelganger/rewind/internal/core/ecs"
	"github.com/doppelganger/rewind/internal/core/timeline"
)

// ExportTSV writes the recorded timelines as a table: one row per recorded
// step, one column per entity field named "<id>.<field>". Cells of an entity
// that does not exist at a step are empty.
func (c *Controller) ExportTSV(w io.Writer) error {
	st := c.state
	type column struct {
		id    ecs.EntityID
		field timeline.Field
	}
	var cols []column
	header := []string{"step"}
	for _, id := range st.Histories.IDs() {
		h, _ := st.Histories.Get(id)
		for _, name := range h.Names() {
			cols = append(cols, column{id: id, field: h.Field(name)})
			header = append(header, fmt.Sprintf("%d.%s", id, name))
		}
	}

	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export header: %w", err)
	}
	row := make([]string, len(header))
	for step := 0; step < st.Frontier; step++ {
		row[0] = strconv.Itoa(step)
		for i, col := range cols {
			row[i+1] = ""
			if st.ExistsAt(col.id, step) {
				row[i+1] = col.field.Format(step)
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export step %d: %w", step, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Fingerprint hashes the exported timelines. Two runs fed the same level and
// inputs produce the same fingerprint.
func (c *Controller) Fingerprint() (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if err := c.ExportTSV(h); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
