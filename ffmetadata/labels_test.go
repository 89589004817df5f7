package ffmetadata

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chapterize/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLabels(t *testing.T) {
	input := "0.000000\t12.500000\tOpening\r\n" +
		"\\\t0.000000\t0.000000\n" +
		"\n" +
		"12.500000\t30.000000\tPart Two\n" +
		"30\t31\t\n"

	records, err := ParseLabels(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []models.ChapterRecord{
		{Title: "Opening", StartUnits: 0, EndUnits: 12_500_000_000},
		{Title: "Part Two", StartUnits: 12_500_000_000, EndUnits: 30_000_000_000},
		{Title: "", StartUnits: 30_000_000_000, EndUnits: 31_000_000_000},
	}, records)
}

func TestParseLabels_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"one field", "12.5\n", "line 1"},
		{"bad start", "abc\t1\tx\n", "invalid start"},
		{"bad end", "1\tabc\tx\n", "invalid end"},
		{"negative", "-1\t1\tx\n", "not a valid time"},
		{"reversed", "5\t1\tx\n", "ends before it starts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLabels(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConvertLabelsFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "audacity_labels.txt")
	dst := filepath.Join(dir, "out", "FFMETADATA_NEW.txt")
	require.NoError(t, os.WriteFile(src, []byte("0\t1.5\tOne\n1.5\t3\tTwo\n"), 0644))

	n, err := ConvertLabelsFile(src, dst)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, ";FFMETADATA1\n\n[CHAPTER]\nSTART=0\nEND=1500000000\ntitle=One\n\n[CHAPTER]\nSTART=1500000000\nEND=3000000000\ntitle=Two\n", string(data))
}
