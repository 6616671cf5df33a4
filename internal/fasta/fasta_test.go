package fasta

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadConcatenatesSequenceLines(t *testing.T) {
	t.Parallel()

	input := ">seq1 first record\nACGT\nTTAA\n>seq2\nGGGG\n"
	records, err := Read(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "seq1 first record", records[0].Header)
	assert.Equal(t, "ACGTTTAA", records[0].Sequence)
	assert.Equal(t, "seq2", records[1].Header)
	assert.Equal(t, "GGGG", records[1].Sequence)
}

func TestReadTrimsAndSkipsBlankLines(t *testing.T) {
	t.Parallel()

	input := ">seq1\n  ACGT  \n\nTTAA\n"
	records, err := Read(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "ACGTTTAA", records[0].Sequence)
}

func TestReadIgnoresLinesBeforeFirstHeader(t *testing.T) {
	t.Parallel()

	input := "; stray comment\nACGT\n>seq1\nTTTT\n"
	records, err := Read(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "seq1", records[0].Header)
	assert.Equal(t, "TTTT", records[0].Sequence)
}

func TestReadEmptyInput(t *testing.T) {
	t.Parallel()

	records, err := Read(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadHeaderWithoutSequence(t *testing.T) {
	t.Parallel()

	records, err := Read(strings.NewReader(">empty\n>seq1\nACGT\n"))
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "empty", records[0].Header)
	assert.Empty(t, records[0].Sequence)
	assert.Equal(t, "ACGT", records[1].Sequence)
}

func TestWriteSingleLine(t *testing.T) {
	t.Parallel()

	records := []Record{
		{Header: "seq1", Sequence: "ACGTACGTACGT"},
		{Header: "seq2", Sequence: "TT"},
	}

	var sb strings.Builder
	require.NoError(t, Write(&sb, records, 0))

	assert.Equal(t, ">seq1\nACGTACGTACGT\n>seq2\nTT\n", sb.String())
}

func TestWriteWrapsSequences(t *testing.T) {
	t.Parallel()

	records := []Record{{Header: "seq1", Sequence: strings.Repeat("A", 10)}}

	var sb strings.Builder
	require.NoError(t, Write(&sb, records, 4))

	assert.Equal(t, ">seq1\nAAAA\nAAAA\nAA\n", sb.String())
}

func TestWriteRoundTrip(t *testing.T) {
	t.Parallel()

	records := []Record{
		{Header: "Morchella_esculenta_AB123456_USA-Michigan", Sequence: strings.Repeat("ACGT", 40)},
		{Header: "seq2", Sequence: "TTAA"},
	}

	var sb strings.Builder
	require.NoError(t, Write(&sb, records, 60))

	parsed, err := Read(strings.NewReader(sb.String()))
	require.NoError(t, err)
	assert.Equal(t, records, parsed)
}

func TestReadFileMissing(t *testing.T) {
	t.Parallel()

	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.fasta"))
	require.Error(t, err)
}

func writeTestFasta(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.fasta")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFilterFile(t *testing.T) {
	t.Parallel()

	path := writeTestFasta(t, ">long\nACGTACGTAC\n>short\nACGT\n>exact\nACGTA\n")

	var sb strings.Builder
	require.NoError(t, FilterFile(&sb, path, 5))

	outputPath := FilterPath(path)
	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, ">long\nACGTACGTAC\n>exact\nACGTA\n", string(data))

	expected := "Input file: " + path + "\n" +
		"Output file: " + outputPath + "\n" +
		"Minimum length: 5\n" +
		"Total sequences: 3\n" +
		"Kept: 2\n" +
		"Removed: 1\n"
	assert.Equal(t, expected, sb.String())
}

func TestFilterFileKeepsNothing(t *testing.T) {
	t.Parallel()

	path := writeTestFasta(t, ">a\nAC\n>b\nGT\n")

	var sb strings.Builder
	require.NoError(t, FilterFile(&sb, path, 100))

	data, err := os.ReadFile(FilterPath(path))
	require.NoError(t, err)
	assert.Empty(t, string(data))
	assert.Contains(t, sb.String(), "Kept: 0\n")
	assert.Contains(t, sb.String(), "Removed: 2\n")
}

func TestFilterPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "seqs_length-filtered.fasta", FilterPath("seqs.fasta"))
	assert.Equal(t, "dir/seqs_length-filtered.fasta", FilterPath("dir/seqs.fa"))
	assert.Equal(t, "noext_length-filtered.fasta", FilterPath("noext"))
}
