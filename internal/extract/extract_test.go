package extract_test

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf16"

	"extractor/internal/extract"
	"extractor/pkg/domain"
	"extractor/pkg/serrors"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	return path
}

func writeZip(t *testing.T, name string, entries map[string]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	for entry, body := range entries {
		w, err := zw.Create(entry)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	return path
}

func utf16LE(s string) []byte {
	out := []byte{0xFF, 0xFE}
	for _, u := range utf16.Encode([]rune(s)) {
		out = append(out, byte(u), byte(u>>8))
	}

	return out
}

func TestRegistry_Supports(t *testing.T) {
	r := extract.NewRegistry()

	for _, name := range []string{"a.txt", "a.csv", "a.sql", "a.xlsx", "a.xls", "a.docx", "a.zip", "A.TXT", "b.Docx"} {
		require.True(t, r.Supports(name), name)
	}
	for _, name := range []string{"a.pdf", "a", "a.txt.bak", ".txt.swp"} {
		require.False(t, r.Supports(name), name)
	}

	require.Equal(t, []string{".csv", ".docx", ".sql", ".txt", ".xls", ".xlsx", ".zip"}, r.Extensions())
}

func TestRegistry_Text(t *testing.T) {
	r := extract.NewRegistry()
	ctx := context.Background()

	path := writeFile(t, "people.csv", []byte("name,email\nann,ann@x.com\nbob,bob@y.org\nann,ann@x.com\n"))
	emails, err := r.Extract(ctx, path, nil)
	require.NoError(t, err)
	require.Equal(t, []domain.Email{"ann@x.com", "bob@y.org", "ann@x.com"}, emails)

	emails, err = r.Extract(ctx, path, []string{"org"})
	require.NoError(t, err)
	require.Equal(t, []domain.Email{"bob@y.org"}, emails)
}

func TestRegistry_TextDropsInvalidBytes(t *testing.T) {
	path := writeFile(t, "dump.sql", []byte("INSERT 'a\xffb@x.com' \xfe\xfe"))

	emails, err := extract.NewRegistry().Extract(context.Background(), path, nil)
	require.NoError(t, err)
	require.Equal(t, []domain.Email{"ab@x.com"}, emails)
}

func TestRegistry_TextUTF16(t *testing.T) {
	path := writeFile(t, "export.txt", utf16LE("contact: zoe@z.io\r\n"))

	emails, err := extract.NewRegistry().Extract(context.Background(), path, nil)
	require.NoError(t, err)
	require.Equal(t, []domain.Email{"zoe@z.io"}, emails)
}

func TestRegistry_XLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "owner@header.com"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "Email"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "a@x.com"))
	require.NoError(t, f.SetCellValue("Sheet1", "A3", "c@x.com"))
	require.NoError(t, f.SetCellValue("Sheet1", "B4", "b@y.org"))
	_, err := f.NewSheet("Archive")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Archive", "A2", "old@z.net"))

	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	// header row and other sheets are not scanned
	emails, err := extract.NewRegistry().Extract(context.Background(), path, nil)
	require.NoError(t, err)
	require.Equal(t, []domain.Email{"a@x.com", "c@x.com", "b@y.org"}, emails)

	emails, err = extract.NewRegistry().Extract(context.Background(), path, []string{"x.com"})
	require.NoError(t, err)
	require.Equal(t, []domain.Email{"a@x.com", "c@x.com"}, emails)
}

func TestRegistry_XLSXHeaderOnly(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "only@header.com"))

	path := filepath.Join(t.TempDir(), "header.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	emails, err := extract.NewRegistry().Extract(context.Background(), path, nil)
	require.NoError(t, err)
	require.Empty(t, emails)
}

// testdata/contacts.xls is a BIFF8 workbook. Sheet "Contacts":
//
//	row 0: owner@header.com | Email
//	row 1: alice@x.com      | note
//	row 2: (no record)
//	row 3:                  | bob@y.org
//
// Sheet "Archive" holds old@z.net and older@z.net in column A.
func TestRegistry_XLS(t *testing.T) {
	path := filepath.Join("testdata", "contacts.xls")

	emails, err := extract.NewRegistry().Extract(context.Background(), path, nil)
	require.NoError(t, err)
	require.Equal(t, []domain.Email{"alice@x.com", "bob@y.org"}, emails)

	emails, err = extract.NewRegistry().Extract(context.Background(), path, []string{"y.org"})
	require.NoError(t, err)
	require.Equal(t, []domain.Email{"bob@y.org"}, emails)
}

func TestRegistry_CorruptSpreadsheets(t *testing.T) {
	r := extract.NewRegistry()

	for _, name := range []string{"broken.xlsx", "broken.xls"} {
		path := writeFile(t, name, []byte("definitely not a workbook a@x.com"))

		emails, err := r.Extract(context.Background(), path, nil)
		require.Error(t, err, name)
		require.ErrorIs(t, err, serrors.ErrCorrupt, name)
		require.Contains(t, err.Error(), path)
		require.Empty(t, emails)
	}
}

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"
            xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Write to </w:t></w:r><w:r><w:t>first@x.com</w:t></w:r></w:p>
    <w:p><w:r><w:t>second</w:t></w:r></w:p>
    <w:p><w:r><w:t>@y.org</w:t><w:tab/><w:t>third@y.org</w:t></w:r></w:p>
    <a:p><a:t>drawing@ignored.com</a:t></a:p>
    <w:tbl><w:tr><w:tc><w:p><w:r><w:t>cell@table.com</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
    <w:p><w:r><w:t>see </w:t></w:r><w:r><w:pict><w:txbxContent><w:p><w:r><w:t>box@text.com</w:t></w:r></w:p></w:txbxContent></w:pict></w:r><w:r><w:t>last@x.com</w:t></w:r></w:p>
  </w:body>
</w:document>`

func TestRegistry_DOCX(t *testing.T) {
	path := writeZip(t, "letter.docx", map[string]string{
		"[Content_Types].xml": "<Types/>",
		"word/document.xml":   documentXML,
	})

	emails, err := extract.NewRegistry().Extract(context.Background(), path, nil)
	require.NoError(t, err)
	// paragraphs are matched independently, so "second" and "@y.org" never join;
	// table cells and text boxes are not body paragraphs
	require.Equal(t, []domain.Email{"first@x.com", "third@y.org", "last@x.com"}, emails)
}

func TestRegistry_DOCXWithoutBody(t *testing.T) {
	path := writeZip(t, "empty.docx", map[string]string{"[Content_Types].xml": "<Types/>"})

	_, err := extract.NewRegistry().Extract(context.Background(), path, nil)
	require.ErrorIs(t, err, serrors.ErrCorrupt)
}

func TestRegistry_ZIP(t *testing.T) {
	path := writeZip(t, "export.zip", map[string]string{
		"2024/valid.csv":       "id,email\n1,a@x.com\n",
		"2024/users_valid.csv": "2,b@y.org\n",
		"2024/valid.csv.bak":   "3,c@z.net\n",
		"notes.txt":            "d@w.com",
		"nested.zip":           "e@v.com",
		"2024/VALID.CSV":       "f@u.com",
		"2024/invalid.csv":     "g@t.com",
	})

	emails, err := extract.NewRegistry().Extract(context.Background(), path, nil)
	require.NoError(t, err)
	require.ElementsMatch(t, []domain.Email{"a@x.com", "b@y.org", "g@t.com"}, emails)
}

func TestRegistry_ZIPIgnoresOtherEntries(t *testing.T) {
	path := writeZip(t, "notes.zip", map[string]string{"notes.txt": "someone@x.com"})

	emails, err := extract.NewRegistry().Extract(context.Background(), path, nil)
	require.NoError(t, err)
	require.Empty(t, emails)
}

func TestRegistry_CorruptZIP(t *testing.T) {
	path := writeFile(t, "bad.zip", []byte("PK\x03\x04 truncated"))

	_, err := extract.NewRegistry().Extract(context.Background(), path, nil)
	require.ErrorIs(t, err, serrors.ErrCorrupt)
}

func TestRegistry_MissingFile(t *testing.T) {
	_, err := extract.NewRegistry().Extract(context.Background(), filepath.Join(t.TempDir(), "gone.txt"), nil)
	require.ErrorIs(t, err, serrors.ErrCorrupt)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestRegistry_Unsupported(t *testing.T) {
	_, err := extract.NewRegistry().Extract(context.Background(), "report.pdf", nil)
	require.ErrorIs(t, err, serrors.ErrUnsupported)
}

func TestRegistry_RecoversFromPanics(t *testing.T) {
	r := extract.NewRegistry()
	r.Register(extract.Func(func(context.Context, string, []string) ([]domain.Email, error) {
		panic("index out of range")
	}), "TXT")

	emails, err := r.Extract(context.Background(), "a.txt", nil)
	require.ErrorIs(t, err, serrors.ErrCorrupt)
	require.Contains(t, err.Error(), "index out of range")
	require.Nil(t, emails)
}
