package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrame(t *testing.T) {
	f, err := ParseFrame("cddept; inseecommune ;nomcommune\n001;01001;L'ABERGEMENT\n002;02004;AISNE\n", ';')
	require.NoError(t, err)
	assert.Equal(t, []string{"cddept", "inseecommune", "nomcommune"}, f.Columns)
	require.Equal(t, 2, f.NumRows())
	assert.Equal(t, []string{"001", "01001", "L'ABERGEMENT"}, f.Rows[0])
}

func TestParseFrameRaggedRows(t *testing.T) {
	f, err := ParseFrame("a;b;c\n1;2\n1;2;3;4\n", ';')
	require.NoError(t, err)
	require.Equal(t, 2, f.NumRows())
	assert.Equal(t, []string{"1", "2", ""}, f.Rows[0], "short rows are padded")
	assert.Equal(t, []string{"1", "2", "3"}, f.Rows[1], "surplus fields are dropped")
}

func TestParseFrameEmpty(t *testing.T) {
	_, err := ParseFrame("", ';')
	assert.Error(t, err)
}

func TestAddConstColumn(t *testing.T) {
	f, err := ParseFrame("a;b\n1;2\n3;4\n", ';')
	require.NoError(t, err)
	f.AddConstColumn("_year", "2024")
	assert.Equal(t, []string{"a", "b", "_year"}, f.Columns)
	assert.Equal(t, []string{"1", "2", "2024"}, f.Rows[0])
	assert.Equal(t, []string{"3", "4", "2024"}, f.Rows[1])
}

func TestConcatUnionsColumns(t *testing.T) {
	f1, err := ParseFrame("a;b\n1;2\n", ';')
	require.NoError(t, err)
	f2, err := ParseFrame("b;c\n5;6\n7;8\n", ';')
	require.NoError(t, err)

	out := Concat([]*Frame{f1, f2})
	assert.Equal(t, []string{"a", "b", "c"}, out.Columns, "first-seen column order")
	require.Equal(t, 3, out.NumRows())
	assert.Equal(t, []string{"1", "2", ""}, out.Rows[0])
	assert.Equal(t, []string{"", "5", "6"}, out.Rows[1])
	assert.Equal(t, []string{"", "7", "8"}, out.Rows[2])
}

func TestConcatPreservesProvenance(t *testing.T) {
	f1, err := ParseFrame("a\n1\n", ';')
	require.NoError(t, err)
	f1.AddConstColumn("_source_blob", "unzip/dis-2024/x.txt")
	f2, err := ParseFrame("a\n2\n", ';')
	require.NoError(t, err)
	f2.AddConstColumn("_source_blob", "unzip/dis-2024/y.txt")

	out := Concat([]*Frame{f1, f2})
	assert.Equal(t, "unzip/dis-2024/x.txt", out.Rows[0][1])
	assert.Equal(t, "unzip/dis-2024/y.txt", out.Rows[1][1])
}

func TestChunk(t *testing.T) {
	f, err := ParseFrame("a\n1\n2\n3\n4\n5\n", ',')
	require.NoError(t, err)

	chunks := f.Chunk(2)
	require.Len(t, chunks, 3)
	assert.Equal(t, 2, chunks[0].NumRows())
	assert.Equal(t, 2, chunks[1].NumRows())
	assert.Equal(t, 1, chunks[2].NumRows())
	assert.Equal(t, []string{"5"}, chunks[2].Rows[0])

	single := f.Chunk(0)
	require.Len(t, single, 1)
	assert.Equal(t, 5, single[0].NumRows())

	empty := (&Frame{Columns: []string{"a"}}).Chunk(2)
	assert.Nil(t, empty)
}
