package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, []string{"Backend", "Prefix"}, &TableOptions{NoColor: true})
	table.AddRow("catalog1", "/catalog1")
	table.AddRow("c2", "/c2")
	assert.Equal(t, 2, table.Len())

	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Backend   Prefix", lines[0])
	assert.Equal(t, "────────  ─────────", lines[1])
	assert.Equal(t, "catalog1  /catalog1", lines[2])
	assert.Equal(t, "c2        /c2", lines[3])
}

func TestTableDropsExtraCells(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, []string{"A"}, &TableOptions{NoColor: true})
	table.AddRow("x", "extra")
	table.Render()

	assert.NotContains(t, buf.String(), "extra")
}

func TestTableWithoutHeaders(t *testing.T) {
	var buf bytes.Buffer
	NewTable(&buf, nil, nil).Render()
	assert.Empty(t, buf.String())
}

func TestPropertiesTableSortsKeys(t *testing.T) {
	var buf bytes.Buffer
	PropertiesTable(&buf, map[string]string{"warehouse": "/tmp/wh", "catalog-impl": "hadoop"}, true)

	out := buf.String()
	assert.Less(t, strings.Index(out, "catalog-impl"), strings.Index(out, "warehouse"))
	assert.Contains(t, out, "/tmp/wh")
}

func TestHeader(t *testing.T) {
	var buf bytes.Buffer
	Header(&buf, "Routes", true)
	assert.Equal(t, "Routes\n──────\n", buf.String())
}
