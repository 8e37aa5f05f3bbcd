package domain

import (
	"fmt"
	"strings"
)

// Content holds the text of a knowledge item plus optional structured fields
// carried alongside it into the store.
type Content struct {
	Text     string
	Title    string
	Source   string
	Category string
	Date     string
}

// IsEmpty reports whether the content carries no usable text.
func (c Content) IsEmpty() bool {
	return strings.TrimSpace(c.Text) == ""
}

// KnowledgeItem is the unit of ingestion and the unit returned by retrieval.
// The ID is caller-supplied and stable; re-ingesting with the same ID
// overwrites the parent document and regenerates its fragments.
type KnowledgeItem struct {
	ID      string
	Content Content
}

// NewKnowledgeItem creates a KnowledgeItem with plain text content.
func NewKnowledgeItem(id, text string) KnowledgeItem {
	return KnowledgeItem{
		ID:      id,
		Content: Content{Text: text},
	}
}

// ValidateKnowledgeItem validates a KnowledgeItem before ingestion.
func ValidateKnowledgeItem(item KnowledgeItem) error {
	if item.ID == "" {
		return NewDomainErrorWithCause(ErrCodeValidation, "knowledge item ID is required", ErrMissingRequiredField)
	}

	if item.Content.IsEmpty() {
		return NewDomainErrorWithCause(ErrCodeValidation, fmt.Sprintf("knowledge item %s has no text", item.ID), ErrEmptyContent)
	}

	return nil
}
