package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentIsEmpty(t *testing.T) {
	tests := []struct {
		name     string
		content  Content
		expected bool
	}{
		{"empty", Content{}, true},
		{"whitespace only", Content{Text: "  \n\t "}, true},
		{"title but no text", Content{Title: "a title"}, true},
		{"has text", Content{Text: "hello"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.content.IsEmpty())
		})
	}
}

func TestNewKnowledgeItem(t *testing.T) {
	item := NewKnowledgeItem("doc-1", "some text")

	assert.Equal(t, "doc-1", item.ID)
	assert.Equal(t, "some text", item.Content.Text)
	assert.Empty(t, item.Content.Title)
}

func TestValidateKnowledgeItem(t *testing.T) {
	t.Run("valid item", func(t *testing.T) {
		item := NewKnowledgeItem("doc-1", "some text")
		assert.NoError(t, ValidateKnowledgeItem(item))
	})

	t.Run("missing ID", func(t *testing.T) {
		item := NewKnowledgeItem("", "some text")
		err := ValidateKnowledgeItem(item)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingRequiredField))

		var domainErr *DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, ErrCodeValidation, domainErr.Code)
	})

	t.Run("empty content", func(t *testing.T) {
		item := NewKnowledgeItem("doc-1", "   ")
		err := ValidateKnowledgeItem(item)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrEmptyContent))
	})
}
