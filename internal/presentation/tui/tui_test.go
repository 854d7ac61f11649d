package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/parkdash/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToRecords(t *testing.T) {
	t.Run("Page", func(t *testing.T) {
		page := domain.Page[domain.Arrival]{
			Data:  []domain.Arrival{{ID: domain.ID("1"), RFID: "A1"}, {ID: domain.ID("2"), RFID: "B2"}},
			Total: 40,
		}
		rec, err := ToRecords(page)
		require.NoError(t, err)
		assert.True(t, rec.Page)
		assert.Equal(t, 40, rec.Total)
		require.Len(t, rec.Rows, 2)
		assert.Equal(t, "B2", rec.Rows[1]["rfid"])
	})

	t.Run("Object", func(t *testing.T) {
		rec, err := ToRecords(domain.Chart{"labels": []string{"Mon"}, "series": []int{3}})
		require.NoError(t, err)
		assert.False(t, rec.Page)
		require.Len(t, rec.Rows, 1)
		assert.Contains(t, rec.Rows[0], "labels")
	})

	t.Run("Scalar", func(t *testing.T) {
		rec, err := ToRecords("plain")
		require.NoError(t, err)
		assert.Empty(t, rec.Rows)
	})
}

func TestRender_CSV(t *testing.T) {
	page := map[string]any{
		"data": []map[string]any{
			{"id": 1, "gate": "north", "status": "open"},
			{"id": 2, "gate": "south", "status": "rejected"},
		},
		"total": 2,
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatCSV, "", page, []string{"id", "gate", "status"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Equal(t, "id,gate,status", lines[0])
	assert.Equal(t, "1,north,open", lines[1])
	assert.Equal(t, "2,south,rejected", lines[2])
}

func TestRender_Fields(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, FormatMarkdown, "", domain.VehicleType{ID: domain.ID("7"), VehicleTypeName: "Truck"}, nil)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "| field | value |")
	assert.Contains(t, out, "| vehicleTypeName | Truck |")
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatJSON, "ignored", map[string]any{"total": 1}, nil))
	assert.JSONEq(t, `{"total":1}`, buf.String())
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, f)

	f, err = ParseFormat(" CSV ")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("yaml")
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	md := Summary("Dashboard", []SliceStatus{
		{Name: "arrival", Status: domain.Status{}},
		{Name: "parking", Status: domain.Status{Error: true, Message: "rfid not found"}},
		{Name: "log-gate", Status: domain.Status{Pending: true}},
	})

	assert.True(t, strings.HasPrefix(md, "# Dashboard"))
	assert.Contains(t, md, "| arrival | ✅ ok |")
	assert.Contains(t, md, "| parking | ❌ error | rfid not found |")
	assert.Contains(t, md, "| log-gate | ⏳ loading |")

	assert.Contains(t, Summary("Empty", nil), "No slices loaded")
}

func TestNewRenderer(t *testing.T) {
	render, err := NewRenderer(0)
	require.NoError(t, err)

	out, err := render("# parkdash")
	require.NoError(t, err)
	assert.Contains(t, out, "parkdash")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, " 1.2.3\n")
	assert.Contains(t, buf.String(), "v1.2.3")
	assert.Contains(t, buf.String(), "|_|")
}

func TestSanitizeInput(t *testing.T) {
	out, err := SanitizeInput("ad\x1b[31mmin\x07\tok")
	require.NoError(t, err)
	assert.Equal(t, "ad[31mmin\tok", out)

	_, err = SanitizeInput(strings.Repeat("a", MaxInputSize+1))
	assert.ErrorIs(t, err, ErrInputTooLarge)

	_, err = SanitizeInput("\xff")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestRender_StripsControlCharacters(t *testing.T) {
	var buf bytes.Buffer
	page := map[string]any{"data": []map[string]any{{"id": 1, "message": "gate\x1b]0;pwned\x07 open"}}, "total": 1}
	require.NoError(t, Render(&buf, FormatCSV, "", page, []string{"id", "message"}))
	assert.NotContains(t, buf.String(), "\x1b")
	assert.Contains(t, buf.String(), "gate]0;pwned open")
}
