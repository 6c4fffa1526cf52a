package contract

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/tranche/schema"
)

func TestGetColorLabel(t *testing.T) {
	for _, label := range []string{
		schema.ThisQuarterLabel,
		schema.NextQuarterLabel,
		schema.LaterLabel,
		schema.UnknownLabel,
	} {
		t.Run(label, func(t *testing.T) {
			assert.Contains(t, GetColorLabel(label), label)
		})
	}
}

func TestSelectOutputFile(t *testing.T) {
	f, err := SelectOutputFile("")
	require.NoError(t, err)
	assert.Equal(t, os.Stdout, f)

	path := filepath.Join(t.TempDir(), "out.csv")
	f, err = SelectOutputFile(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.FileExists(t, path)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList(""))
	assert.Equal(t, []string{"ABC", "XYZ"}, SplitList(" ABC,,XYZ, ABC "))
}

func TestParseBoolString(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
		wantErr  bool
	}{
		{"yes", true, false},
		{"TRUE", true, false},
		{"1", true, false},
		{"no", false, false},
		{"False", false, false},
		{"0", false, false},
		{"maybe", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBoolString(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, false).Debug("hidden")
	assert.Empty(t, buf.String())

	NewLogger(&buf, true).Debug("shown", "source", "ABC")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "source=ABC")
}

func TestGetDBFilePath(t *testing.T) {
	assert.Equal(t, ".tranche.db", filepath.Base(GetDBFilePath()))
}
