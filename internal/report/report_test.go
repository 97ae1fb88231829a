package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/integrity-cli/internal/model"
	"github.com/sells-group/integrity-cli/internal/recon"
	"github.com/sells-group/integrity-cli/internal/summary"
)

func reportFixture(t *testing.T) (*model.JoinedSet, *model.Dataset, *model.Dataset, *model.Summary) {
	t.Helper()

	target := &model.Dataset{Name: "ns.xlsx", Columns: []model.Column{
		{Name: "id", Cells: []model.Cell{model.NumberCell(1), model.NumberCell(2)}},
		{Name: "amt", Cells: []model.Cell{model.NumberCell(10), model.NumberCell(20)}},
	}}
	source := &model.Dataset{Name: "sf.csv", Columns: []model.Column{
		{Name: "id", Cells: []model.Cell{model.NumberCell(1), model.NumberCell(3)}},
		{Name: "amt", Cells: []model.Cell{model.NumberCell(99), model.NumberCell(30)}},
	}}

	js, err := recon.Reconcile(target, source, &model.RunConfig{
		KeyField:      "id",
		CompareFields: []string{"amt"},
	})
	require.NoError(t, err)

	return js, target, source, summary.Summarize(js, target, source)
}

func TestWriteOrphans(t *testing.T) {
	js, target, _, _ := reportFixture(t)

	var buf bytes.Buffer
	require.NoError(t, WriteOrphans(&buf, target, OrphanRows(js, model.ClassTargetOnly)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,amt", lines[0])
	assert.Equal(t, "2,20", lines[1])
}

func TestWriteFieldSummary(t *testing.T) {
	_, _, _, s := reportFixture(t)

	var buf bytes.Buffer
	require.NoError(t, WriteFieldSummary(&buf, s.Fields))

	out := buf.String()
	assert.Contains(t, out, "field,matches,mismatches")
	assert.Contains(t, out, "amt,0,1")
}

func TestRenderHTML(t *testing.T) {
	_, _, _, s := reportFixture(t)
	s.RunAt = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, s))

	out := buf.String()
	assert.Contains(t, out, "ns.xlsx")
	assert.Contains(t, out, "sf.csv")
	assert.Contains(t, out, "Quality score")
	assert.Contains(t, out, "amt")
}

func TestWriteAll(t *testing.T) {
	js, target, source, s := reportFixture(t)

	dir := filepath.Join(t.TempDir(), "reports")
	written, err := WriteAll(dir, js, target, source, s)
	require.NoError(t, err)
	require.Len(t, written, 5)

	for _, name := range []string{
		"target_orphans.csv", "source_orphans.csv",
		"field_summary.csv", "quality_checks.csv", "report.html",
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}
