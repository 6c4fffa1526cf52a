package outwriter

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/tranche/schema"
)

func TestCreateFormatters(t *testing.T) {
	tests := []struct {
		precision int
		value     float64
		want      string
	}{
		{precision: 0, value: 12.5, want: "12"},
		{precision: 1, value: 12.25, want: "12.2"},
		{precision: 2, value: 0.3333, want: "0.33"},
		{precision: 1, value: -4.06, want: "-4.1"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			fmtFloat, intFmt := createFormatters(tt.precision)
			assert.Equal(t, tt.want, fmtFloat(tt.value))
			assert.Equal(t, "%d", intFmt)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	rows := []schema.CategoryMeta{{Source: "ABC", Category: "Infra", SortOrder: 1, Zoom: true}}
	require.NoError(t, writeJSON(&buf, rows))
	assert.True(t, strings.HasPrefix(buf.String(), "[\n  {\n"), "output is indented")

	var decoded []schema.CategoryMeta
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, rows, decoded)

	err := writeJSON(&buf, make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to encode JSON")
}

func TestWriteCSVWithHeader(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
		want string
	}{
		{
			name: "rows",
			rows: [][]string{{"ABC", "Infra"}, {"ABC", "Docs"}},
			want: "source,category\nABC,Infra\nABC,Docs\n",
		},
		{
			name: "no rows",
			want: "source,category\n",
		},
		{
			name: "quoted",
			rows: [][]string{{"ABC", "Infra, legacy"}},
			want: "source,category\nABC,\"Infra, legacy\"\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeCSVWithHeader(&buf, []string{"source", "category"}, tt.rows))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriteCSVWithHeaderError(t *testing.T) {
	err := writeCSVWithHeader(failingWriter{}, []string{"source"}, [][]string{{"ABC"}})
	require.Error(t, err)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, assert.AnError }

func TestWriteWithFile(t *testing.T) {
	dir := t.TempDir()
	write := func(w io.Writer) error {
		return writeCSVWithHeader(w, []string{"source"}, [][]string{{"ABC"}})
	}

	t.Run("stdout", func(t *testing.T) {
		called := false
		err := writeWithFile("", func(io.Writer) error {
			called = true
			return nil
		}, "Wrote CSV")
		require.NoError(t, err)
		assert.True(t, called)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(dir, "sources.csv")
		require.NoError(t, writeWithFile(path, write, "Wrote CSV"))
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "source\nABC\n", string(content))
	})

	t.Run("writer error", func(t *testing.T) {
		err := writeWithFile(filepath.Join(dir, "failed.csv"), func(io.Writer) error {
			return assert.AnError
		}, "Wrote CSV")
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("bad path", func(t *testing.T) {
		err := writeWithFile(filepath.Join(dir, "missing", "sources.csv"), write, "Wrote CSV")
		assert.Error(t, err)
	})
}

func TestOptionalFormatters(t *testing.T) {
	fmtFloat, _ := createFormatters(1)
	assert.Equal(t, noValue, optionalFloat(fmtFloat, nil))
	assert.Equal(t, "2.5", optionalFloat(fmtFloat, schema.Ptr(2.5)))
	assert.Equal(t, noValue, optionalInt(nil))
	assert.Equal(t, "7", optionalInt(schema.Ptr(7)))
	assert.Equal(t, noValue, optionalDate(nil))
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-01", optionalDate(&d))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a much longer title", 10, "a much ..."},
		{"abcdef", 3, "abc"},
		{"日本語のタイトル", 5, "日本..."},
		{"anything", 0, "anything"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, truncate(tt.in, tt.width))
		})
	}
}

func TestWriteTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTable(&buf, view{name: "widgets", title: "Widgets"}))
	assert.Equal(t, "Widgets\nNo widgets found.\n", buf.String())
}

func TestWriteTableRows(t *testing.T) {
	var buf bytes.Buffer
	v := view{
		name:    "widgets",
		columns: []string{"Name", "Size"},
		rows:    [][]string{{"bolt", "3"}, {"nut", "1"}},
		footer:  "2 widgets.",
	}
	require.NoError(t, writeTable(&buf, v))
	out := buf.String()
	assert.Contains(t, strings.ToUpper(out), "NAME")
	assert.Contains(t, out, "bolt")
	assert.Contains(t, out, "nut")
	assert.True(t, strings.HasSuffix(out, "2 widgets.\n"))
}
