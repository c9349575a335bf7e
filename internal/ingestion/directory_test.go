package ingestion

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadSource(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "allen.csv", "name,email,bio,profile_link,source\n"+
		"Ada Lovelace,ada@uw.edu,Works on engines.,https://example.edu/ada,Allen School\n"+
		`Alan Turing,,"<p>Computability &amp; <a href=""mailto:alan@cs.washington.edu"">email</a></p>",,`+"\n"+
		",nobody@uw.edu,no name,,\n")

	list, err := LoadSource(SourceSpec{Name: "Allen School", Path: path})
	require.NoError(t, err)
	require.Len(t, list.Candidates, 2)

	ada := list.Candidates[0]
	assert.Equal(t, "Ada Lovelace", ada.Name)
	assert.Equal(t, "ada@uw.edu", ada.ContactHint)
	assert.Equal(t, "https://example.edu/ada", ada.ProfileLink)
	assert.Equal(t, "Allen School", ada.Source)

	alan := list.Candidates[1]
	assert.Equal(t, "alan@cs.washington.edu", alan.ContactHint)
	assert.Equal(t, "Computability & email", alan.ProfileText)
	assert.Equal(t, "Allen School", alan.Source, "source defaults to the configured source name")
}

func TestLoadSource_AlternateProfileColumn(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "deep.csv", "Name,Email,deep_profile_text\nGrace Hopper,,Compilers\n")

	list, err := LoadSource(SourceSpec{Name: "eScience", Path: path, ExcludeStudents: true})
	require.NoError(t, err)
	require.Len(t, list.Candidates, 1)
	assert.Equal(t, "Compilers", list.Candidates[0].ProfileText)
	assert.True(t, list.ExcludeStudents)
}

func TestLoadSource_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadSource(SourceSpec{Name: "x", Path: filepath.Join(dir, "missing.csv")})
	var inErr *InputError
	require.ErrorAs(t, err, &inErr)

	path := writeFile(t, dir, "noname.csv", "email,bio\na@b.edu,x\n")
	_, err = LoadSource(SourceSpec{Name: "x", Path: path})
	require.ErrorAs(t, err, &inErr)
	assert.Contains(t, err.Error(), "no name column")

	empty := writeFile(t, dir, "empty.csv", "")
	list, err := LoadSource(SourceSpec{Name: "x", Path: empty})
	require.NoError(t, err)
	assert.Empty(t, list.Candidates)
}

func TestLoadDirectory_PreservesPriorityOrder(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.csv", "name\nFirst\n")
	b := writeFile(t, dir, "b.csv", "name\nSecond\n")

	d, err := LoadDirectory(context.Background(), []SourceSpec{{Name: "A", Path: a}, {Name: "B", Path: b}}, nil)
	require.NoError(t, err)
	require.Len(t, d.Sources, 2)
	assert.Equal(t, "A", d.Sources[0].Name)
	assert.Equal(t, "First", d.Sources[0].Candidates[0].Name)
	assert.Equal(t, "Second", d.Sources[1].Candidates[0].Name)
}

func TestLoadDirectory_MissingSecondarySourceIsEmpty(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "allen.csv", "name\nFirst\n")

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	d, err := LoadDirectory(context.Background(), []SourceSpec{
		{Name: "Allen School", Path: a},
		{Name: "eScience", Path: filepath.Join(dir, "escience.csv"), ExcludeStudents: true},
	}, logger)
	require.NoError(t, err)
	require.Len(t, d.Sources, 2)
	assert.Equal(t, 1, d.Len())
	assert.Equal(t, "eScience", d.Sources[1].Name)
	assert.True(t, d.Sources[1].ExcludeStudents)
	assert.Empty(t, d.Sources[1].Candidates)
	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "escience.csv")
}

func TestLoadDirectory_MissingPrimarySourceFails(t *testing.T) {
	dir := t.TempDir()
	b := writeFile(t, dir, "escience.csv", "name\nSecond\n")

	_, err := LoadDirectory(context.Background(), []SourceSpec{
		{Name: "Allen School", Path: filepath.Join(dir, "allen.csv")},
		{Name: "eScience", Path: b},
	}, nil)
	var inErr *InputError
	require.ErrorAs(t, err, &inErr)
	assert.Contains(t, inErr.Path, "allen.csv")
}

func TestLoadDirectory_MalformedSecondarySourceFails(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "allen.csv", "name\nFirst\n")
	b := writeFile(t, dir, "escience.csv", "email\nx@uw.edu\n")

	_, err := LoadDirectory(context.Background(), []SourceSpec{{Name: "A", Path: a}, {Name: "B", Path: b}}, nil)
	var inErr *InputError
	require.ErrorAs(t, err, &inErr)
	assert.Equal(t, "directory source has no name column", inErr.Message)
}

func TestMailtoAddress(t *testing.T) {
	assert.Equal(t, "", MailtoAddress("no links here"))
	assert.Equal(t, "x@uw.edu", MailtoAddress(`<a href="mailto:x@uw.edu?subject=hi">x</a>`))
	assert.Equal(t, "y@uw.edu", MailtoAddress(`<a href="mailto:">empty</a><a href="mailto:y@uw.edu">y</a>`))
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "plain text", PlainText("plain   text"))
	assert.Equal(t, "Robotics Vision", PlainText("<div>Robotics</div><div>Vision</div>"))
	assert.Equal(t, "R&D", PlainText("<b>R&amp;D</b>"))
}
