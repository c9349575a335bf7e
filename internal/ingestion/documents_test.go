package ingestion

import (
	"path/filepath"
	"testing"

	"github.com/jonathan/outreach-agent/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocuments_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "resumes.json")
	docs := types.DocumentSet{"General.pdf": "general", "Robotics.pdf": "robots"}

	require.NoError(t, WriteDocuments(path, docs))
	loaded, err := LoadDocuments(path)
	require.NoError(t, err)
	assert.Equal(t, docs, loaded)
}

func TestLoadDocuments_Errors(t *testing.T) {
	dir := t.TempDir()
	var inErr *InputError

	_, err := LoadDocuments(filepath.Join(dir, "missing.json"))
	assert.ErrorAs(t, err, &inErr)

	_, err = LoadDocuments(writeFile(t, dir, "empty.json", "{}"))
	require.ErrorAs(t, err, &inErr)
	assert.Contains(t, err.Error(), "empty")

	_, err = LoadDocuments(writeFile(t, dir, "list.json", "[]"))
	assert.ErrorAs(t, err, &inErr)
}

func TestExtractPDFDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.pdf", "not a pdf")
	writeFile(t, dir, "notes.txt", "ignored")

	res, err := ExtractPDFDir(dir)
	require.NoError(t, err)
	assert.Empty(t, res.Documents)
	assert.Contains(t, res.Skipped, "broken.pdf")
	assert.NotContains(t, res.Skipped, "notes.txt")

	_, err = ExtractPDFDir(filepath.Join(dir, "nope"))
	var inErr *InputError
	assert.ErrorAs(t, err, &inErr)
}

func TestTextFromContentStream(t *testing.T) {
	stream := []byte("BT\n/F1 12 Tf\n72 712 Td\n(Jane Doe) Tj\n0 -14 Td\n[(Robot) -200 (ics)] TJ\nT*\n(Line \\(three\\)) Tj\nET\n")
	assert.Equal(t, "Jane Doe\nRobotics\nLine (three)", textFromContentStream(stream))
}

func TestDecodeLiteral(t *testing.T) {
	assert.Equal(t, "a b", decodeLiteral([]byte(`a\040b`)))
	assert.Equal(t, "x\ny", decodeLiteral([]byte(`x\ny`)))
	assert.Equal(t, `back\slash`, decodeLiteral([]byte(`back\\slash`)))
}
