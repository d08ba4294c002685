package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSplitText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		max      int
		overlap  int
		expected []string
	}{
		{name: "empty", text: "  \n\t ", max: 10, expected: nil},
		{name: "fits", text: "Annual leave  is\n20 days.", max: 100, expected: []string{"Annual leave is 20 days."}},
		{name: "no overlap", text: "aaa bbb ccc ddd", max: 7, expected: []string{"aaa bbb", "ccc ddd"}},
		{name: "overlap", text: "aaa bbb ccc ddd", max: 7, overlap: 4, expected: []string{"aaa bbb", "bbb ccc", "ccc ddd"}},
		{name: "long word", text: "abcdefghij", max: 4, expected: []string{"abcd", "efgh", "ij"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, splitText(tc.text, tc.max, tc.overlap))
		})
	}
}

func TestSplitText_BoundsAndProgress(t *testing.T) {
	text := strings.Repeat("policy handbook section clause ", 200)
	chunks := splitText(text, 120, 40)

	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 120)
	}
	assert.Less(t, len(chunks), 200)
}

func TestExtractFile_Text(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "handbook.txt", "Employees must submit resignation letters 30 days in advance.\n")

	passages, err := New(1000, 200).ExtractFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, passages, 1)

	p := passages[0]
	assert.Equal(t, "Employees must submit resignation letters 30 days in advance.", p.Text)
	assert.Equal(t, "handbook.txt", p.Source)
	assert.Empty(t, p.Page)
	assert.True(t, filepath.IsAbs(p.FullPath))
}

func TestExtractFile_Unsupported(t *testing.T) {
	path := writeFile(t, t.TempDir(), "payload.exe", "MZ")

	_, err := New(1000, 200).ExtractFile(context.Background(), path)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestExtractFile_CSV(t *testing.T) {
	path := writeFile(t, t.TempDir(), "holidays.csv", "date,name\n2026-01-01,New Year\n2026-12-25,Christmas\n")

	passages, err := New(1000, 200).ExtractFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, passages, 2)
	assert.Equal(t, "date: 2026-01-01; name: New Year", passages[0].Text)
	assert.Equal(t, "2", passages[0].Page)
	assert.Equal(t, "date: 2026-12-25; name: Christmas", passages[1].Text)
}

func TestExtractFile_HTML(t *testing.T) {
	html := `<html><head><title>Remote Work</title><script>var x = 1;</script></head>
<body><nav>Home | About</nav><main><p>Staff may work remotely two days a week.</p></main></body></html>`
	path := writeFile(t, t.TempDir(), "remote.html", html)

	passages, err := New(1000, 200).ExtractFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Contains(t, passages[0].Text, "Staff may work remotely two days a week.")
	assert.Contains(t, passages[0].Text, "Remote Work")
	assert.NotContains(t, passages[0].Text, "var x")
	assert.NotContains(t, passages[0].Text, "About")
}

func TestExtractFile_JSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "payroll.json", `{"payday":"last Friday","currency":"EUR"}`)

	passages, err := New(1000, 200).ExtractFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Contains(t, passages[0].Text, "last Friday")

	bad := writeFile(t, dir, "broken.json", `{"payday":`)
	_, err = New(1000, 200).ExtractFile(context.Background(), bad)
	assert.Error(t, err)
}

func TestExtractFile_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "allowances.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]string{"Grade", "Travel allowance"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]string{"G1", "500"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]string{"G2", "750"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	passages, err := New(1000, 200).ExtractFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, passages, 2)
	assert.Equal(t, "Grade: G1; Travel allowance: 500", passages[0].Text)
	assert.Equal(t, "Sheet1", passages[0].Page)
}

func TestExtractDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b_leave.md", "# Leave\n\nAnnual leave is 20 days.")
	writeFile(t, dir, "a_handbook.txt", "Resignation requires 30 days notice.")
	writeFile(t, dir, ".upload-123.txt", "half written")
	writeFile(t, dir, "logo.png", "not text")
	writeFile(t, dir, "empty.txt", "   ")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0o755))

	passages, err := New(1000, 200).ExtractDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, passages, 2)
	assert.Equal(t, "a_handbook.txt", passages[0].Source)
	assert.Equal(t, "b_leave.md", passages[1].Source)
}

func TestExtractDir_SkipsUnreadable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "handbook.txt", "Resignation requires 30 days notice.")
	writeFile(t, dir, "legacy.json", `{"policy":`)

	passages, err := New(1000, 200).ExtractDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, "handbook.txt", passages[0].Source)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(1000, 200).ExtractDir(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractDir_Missing(t *testing.T) {
	_, err := New(1000, 200).ExtractDir(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("Policy.PDF"))
	assert.True(t, Supported("notes.md"))
	assert.False(t, Supported("archive.zip"))
	assert.False(t, Supported("README"))
}
