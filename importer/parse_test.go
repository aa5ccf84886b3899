package importer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = `Title,First Name,Last Name,Email,Phone Number,Role
Dr,Ada,Lovelace,ada@example.com,+441234567890,speaker
,Grace,Hopper,grace@example.com,,vip
,,Turing,,,
`

func TestParseCSV(t *testing.T) {
	records, err := Parse(strings.NewReader(sampleCSV), "guests.csv")
	require.NoError(t, err)
	require.Len(t, records, 3)

	first := records[0]
	require.NotNil(t, first.Title)
	assert.Equal(t, "Dr", *first.Title)
	require.NotNil(t, first.FirstName)
	assert.Equal(t, "Ada", *first.FirstName)
	assert.Equal(t, "Lovelace", first.LastName)
	require.NotNil(t, first.Email)
	assert.Equal(t, "ada@example.com", *first.Email)
	require.NotNil(t, first.Role)
	assert.Equal(t, "speaker", *first.Role)

	// Blank cells map to nil, not empty strings
	second := records[1]
	assert.Nil(t, second.Title)
	assert.Nil(t, second.PhoneNumber)

	// Only a last name; all optional columns absent
	third := records[2]
	assert.Equal(t, "Turing", third.LastName)
	assert.Nil(t, third.FirstName)
	assert.Nil(t, third.Email)
}

func TestParseCSVMissingLastNameColumn(t *testing.T) {
	csv := "first_name,email\nAda,ada@example.com\n"
	records, err := Parse(strings.NewReader(csv), "guests.csv")
	require.NoError(t, err)
	require.Len(t, records, 1)

	// last_name falls back to the empty string rather than failing the row
	assert.Equal(t, "", records[0].LastName)
	require.NotNil(t, records[0].FirstName)
	assert.Equal(t, "Ada", *records[0].FirstName)
}

func TestParseCSVSkipsMalformedRows(t *testing.T) {
	csv := "first_name,last_name\nAda,Lovelace\n\"unclosed,row,with,too,many,cells\",x,y,z\nGrace,Hopper\n"
	records, err := Parse(strings.NewReader(csv), "guests.csv")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Lovelace", records[0].LastName)
	assert.Equal(t, "Hopper", records[1].LastName)
}

func TestParseCSVEmptyFile(t *testing.T) {
	_, err := Parse(strings.NewReader(""), "guests.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestParseCSVHeaderOnly(t *testing.T) {
	records, err := Parse(strings.NewReader("first_name,last_name\n"), "guests.csv")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParseRejectsUnknownExtension(t *testing.T) {
	_, err := Parse(strings.NewReader("a,b\n1,2\n"), "guests.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}

func TestParseRejectsLegacyXLS(t *testing.T) {
	// OLE compound-file signature followed by an empty sector, as a real
	// BIFF workbook would start.
	payload := append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, make([]byte, 512)...)
	_, err := Parse(bytes.NewReader(payload), "guests.xls")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "re-save the file as .xlsx")
}

func buildXLSX(t *testing.T, rows [][]string) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, cell := range row {
			name, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, name, cell))
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func TestParseXLSXMatchesCSV(t *testing.T) {
	rows := [][]string{
		{"Title", "First Name", "Last Name", "Email", "Phone Number", "Role"},
		{"Dr", "Ada", "Lovelace", "ada@example.com", "+441234567890", "speaker"},
		{"", "Grace", "Hopper", "grace@example.com", "", "vip"},
	}

	fromXLSX, err := Parse(buildXLSX(t, rows), "guests.xlsx")
	require.NoError(t, err)

	csv := "Title,First Name,Last Name,Email,Phone Number,Role\n" +
		"Dr,Ada,Lovelace,ada@example.com,+441234567890,speaker\n" +
		",Grace,Hopper,grace@example.com,,vip\n"
	fromCSV, err := Parse(strings.NewReader(csv), "guests.csv")
	require.NoError(t, err)

	// The two formats must map to identical records
	assert.Equal(t, fromCSV, fromXLSX)
}

func TestParseXLSXPadsShortRows(t *testing.T) {
	// Spreadsheet rows with trailing blanks come back truncated; the parser
	// treats the missing cells as empty
	rows := [][]string{
		{"first_name", "last_name", "email"},
		{"Alan", "Turing"},
	}

	records, err := Parse(buildXLSX(t, rows), "guests.xlsx")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Turing", records[0].LastName)
	assert.Nil(t, records[0].Email)
}

func TestParsePreview(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("first_name,last_name\n")
	for i := 0; i < 12; i++ {
		sb.WriteString("Guest,Example\n")
	}

	preview, err := ParsePreview(strings.NewReader(sb.String()), "guests.csv")
	require.NoError(t, err)

	assert.Equal(t, 12, preview.TotalRows)
	assert.Len(t, preview.Rows, PreviewRowLimit)
	assert.Contains(t, preview.Header, "last_name")
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "first_name", normalizeHeader("  First Name "))
	assert.Equal(t, "email", normalizeHeader("EMAIL"))
	assert.Equal(t, "phone_number", normalizeHeader("Phone Number"))
}
