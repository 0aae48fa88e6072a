package export

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/leadgen-cli/internal/model"
)

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "isp.xlsx")
	table := ISPTable([]model.Record{
		{model.FieldBusinessName: "Yadtel", model.FieldQualityScore: 0.75},
		{model.FieldBusinessName: "Viasat"},
	})
	require.NoError(t, WriteXLSX(path, "ISP Leads", table))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	sheet, ok := f.Sheet["ISP Leads"]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "company_name", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "Yadtel", sheet.Rows[1].Cells[0].String())
	assert.Equal(t, "0.75", sheet.Rows[1].Cells[9].String())
	assert.Equal(t, "Viasat", sheet.Rows[2].Cells[0].String())
}
