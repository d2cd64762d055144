package cli

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ABFCode/Librium-sub000/internal/entities"
)

func sampleJobs() []entities.ImportJob {
	bookID := uint(7)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return []entities.ImportJob{
		{ID: 2, FileName: "broken.epub", Status: entities.ImportStatusFailed, Attempt: 1, ErrorMessage: "Parser timed out", CreatedAt: created},
		{ID: 1, FileName: "pride.epub", Status: entities.ImportStatusCompleted, Attempt: 2, BookID: &bookID, CreatedAt: created},
	}
}

func TestWriteJobs_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJobs(&buf, sampleJobs(), OutputJSON))

	var records []jobRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "Parser timed out", records[0].Error)
	assert.Nil(t, records[0].BookID)
	require.NotNil(t, records[1].BookID)
	assert.Equal(t, uint(7), *records[1].BookID)
}

func TestWriteJobs_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJobs(&buf, sampleJobs(), OutputYAML))

	assert.Contains(t, buf.String(), "fileName: pride.epub")
	assert.Contains(t, buf.String(), "status: failed")

	var records []jobRecord
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, entities.ImportStatusCompleted, records[1].Status)
	assert.Equal(t, 2, records[1].Attempt)
}

func TestWriteJobs_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJobs(&buf, sampleJobs(), OutputTable))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Contains(t, string(lines[0]), "STATUS")
	assert.Contains(t, string(lines[1]), "broken.epub")

	buf.Reset()
	require.NoError(t, writeJobs(&buf, nil, OutputTable))
	assert.Equal(t, "No import jobs.\n", buf.String())
}

func TestWriteJobs_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := writeJobs(&buf, sampleJobs(), "xml")
	assert.Error(t, err)
}
