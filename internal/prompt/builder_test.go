package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doctwin/internal/domain"
)

func TestBuilder_WithContext(t *testing.T) {
	b := NewBuilder(10)

	parts := b.Build("What color is the sky?", "The sky is blue. Grass is green.", nil, nil)
	require.Len(t, parts, 1)
	text := parts[0].Text
	assert.Contains(t, text, "Context:\nThe sky is blue. Grass is green.")
	assert.Contains(t, text, "Current Question: What color is the sky?")
	assert.Contains(t, text, "Context Focus")
	assert.NotContains(t, text, "Recent Conversation History")
}

func TestBuilder_WithoutContext(t *testing.T) {
	b := NewBuilder(10)

	parts := b.Build("Hello!", "", nil, nil)
	require.Len(t, parts, 1)
	assert.Contains(t, parts[0].Text, "Current Question: Hello!")
	assert.NotContains(t, parts[0].Text, "Context:")
}

func TestBuilder_HistoryRendering(t *testing.T) {
	b := NewBuilder(10)

	history := []domain.Turn{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello"},
		{Role: domain.RoleUser, Content: "report.pdf", Kind: domain.KindFile},
	}
	parts := b.Build("next?", "", history, nil)
	text := parts[0].Text
	assert.Contains(t, text, "**Recent Conversation History:**")
	assert.Contains(t, text, "User: hi\n")
	assert.Contains(t, text, "Twin: hello\n")
	assert.Contains(t, text, "User: [Uploaded File: report.pdf]\n")
}

func TestBuilder_HistoryTruncation(t *testing.T) {
	b := NewBuilder(10)

	var history []domain.Turn
	for i := 0; i < 15; i++ {
		history = append(history, domain.Turn{Role: domain.RoleUser, Content: fmt.Sprintf("msg-%d", i)})
	}
	parts := b.Build("q", "", history, nil)
	text := parts[0].Text
	assert.NotContains(t, text, "msg-4")
	assert.Contains(t, text, "msg-5")
	assert.Contains(t, text, "msg-14")
	assert.Equal(t, 10, strings.Count(text, "User: msg-"))
}

func TestBuilder_MediaIsFirstPart(t *testing.T) {
	b := NewBuilder(10)

	media := &domain.MediaBlob{MimeType: "image/png", Data: "aGVsbG8="}
	parts := b.Build("what is this?", "", nil, media)
	require.Len(t, parts, 2)
	require.NotNil(t, parts[0].Media)
	assert.Equal(t, "image/png", parts[0].Media.MimeType)
	assert.Contains(t, parts[1].Text, "Current Question: what is this?")
}

func TestBuilder_Deterministic(t *testing.T) {
	b := NewBuilder(10)

	history := []domain.Turn{{Role: domain.RoleUser, Content: "hi"}}
	first := b.Build("q", "ctx", history, nil)
	second := b.Build("q", "ctx", history, nil)
	assert.Equal(t, first, second)
}

func TestBuilder_Summary(t *testing.T) {
	b := NewBuilder(10)

	parts := b.BuildSummary([]string{"chunk one", "chunk two"})
	require.Len(t, parts, 1)
	assert.Contains(t, parts[0].Text, "3-5 short bullet points")
	assert.Contains(t, parts[0].Text, "chunk one\n\nchunk two")
}
