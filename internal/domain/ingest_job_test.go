package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIngestJob(t *testing.T) {
	item := NewKnowledgeItem("doc-1", "some text")
	job := NewIngestJob("job-1", item)

	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, item, job.Item)
	assert.Equal(t, IngestJobStatusPending, job.Status)
	assert.Zero(t, job.Retries)
	assert.Nil(t, job.ProcessedAt)
	assert.False(t, job.CreatedAt.IsZero())
}

func TestValidateIngestJob(t *testing.T) {
	valid := func() *IngestJob {
		return NewIngestJob("job-1", NewKnowledgeItem("doc-1", "some text"))
	}

	t.Run("valid job", func(t *testing.T) {
		assert.NoError(t, ValidateIngestJob(valid()))
	})

	t.Run("nil job", func(t *testing.T) {
		assert.Error(t, ValidateIngestJob(nil))
	})

	t.Run("missing ID", func(t *testing.T) {
		job := valid()
		job.ID = ""
		assert.Error(t, ValidateIngestJob(job))
	})

	t.Run("invalid item", func(t *testing.T) {
		job := valid()
		job.Item.Content.Text = ""
		assert.Error(t, ValidateIngestJob(job))
	})

	t.Run("invalid status", func(t *testing.T) {
		job := valid()
		job.Status = "paused"
		err := ValidateIngestJob(job)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Status is invalid")
	})

	t.Run("negative retries", func(t *testing.T) {
		job := valid()
		job.Retries = -1
		assert.Error(t, ValidateIngestJob(job))
	})
}
