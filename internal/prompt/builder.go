package prompt

import (
	"fmt"
	"strings"

	"doctwin/internal/domain"
)

// Builder assembles generation request parts from retrieved context,
// truncated conversation history, the current question and optional inline
// media. It is purely functional: same inputs, same payload, no I/O.
type Builder struct {
	historyLimit int
}

func NewBuilder(historyLimit int) *Builder {
	if historyLimit <= 0 {
		historyLimit = 10
	}
	return &Builder{historyLimit: historyLimit}
}

const contextTemplate = `You are a World-Class Knowledge Expert, similar to ChatGPT. 🧠✨
Answer this question with PRECISE DEPTH using the Context below. 🔍

Context:
%s
%s
Current Question: %s

**Instructions:**
1. **World-Class Quality:** Provide a thorough, deep, and structured explanation. 📖
2. **Zero Filler:** Every sentence must add value. Eliminate all fluff. 🎯
3. **Context Focus:** Build your answer directly from the document provided. 📄
4. **Natural Follow-up:** End with one relevant follow-up question.
5. **Tone:** Professional, intelligent, and friendly with relevant emojis. 👋✨

Answer:`

const generalTemplate = `You are a World-Class Knowledge Expert, similar to ChatGPT. 🧠✨
%s
Current Question: %s

**Instructions:**
1. Provide a high-quality, detailed, and precise answer. 🎯
2. Eliminate all useless filler. ⏱️
3. End with a natural suggestion for the next logical question. 😊
4. Use emojis tastefully. ✨`

const summaryTemplate = `Summarize this document in 3-5 short bullet points. 📑
**SKIP INTRO.** Just direct highlights with emojis! ✨

%s`

// Build produces the content parts for an answer request. A present media
// blob becomes the first part, ahead of the text prompt: the remote model
// treats the first part as the primary attached artifact.
func (b *Builder) Build(question, context string, history []domain.Turn, media *domain.MediaBlob) []domain.Part {
	historyBlock := b.renderHistory(history)

	var text string
	if context != "" {
		text = fmt.Sprintf(contextTemplate, context, historyBlock, question)
	} else {
		text = fmt.Sprintf(generalTemplate, historyBlock, question)
	}

	parts := []domain.Part{{Text: text}}
	if media != nil {
		parts = append([]domain.Part{{Media: media}}, parts...)
	}
	return parts
}

// BuildSummary wraps the given chunk texts, joined by blank lines, in the
// bullet-highlights instruction.
func (b *Builder) BuildSummary(chunkTexts []string) []domain.Part {
	joined := strings.Join(chunkTexts, "\n\n")
	return []domain.Part{{Text: fmt.Sprintf(summaryTemplate, joined)}}
}

// renderHistory keeps at most the last historyLimit turns and renders each
// as a "User:" or "Twin:" line. File turns carry the uploaded file name
// instead of raw content. The block is omitted entirely when empty.
func (b *Builder) renderHistory(history []domain.Turn) string {
	if len(history) > b.historyLimit {
		history = history[len(history)-b.historyLimit:]
	}
	var sb strings.Builder
	for _, turn := range history {
		role := "Twin"
		if turn.Role == domain.RoleUser {
			role = "User"
		}
		content := turn.Content
		if turn.Kind == domain.KindFile {
			content = fmt.Sprintf("[Uploaded File: %s]", content)
		}
		sb.WriteString(role)
		sb.WriteString(": ")
		sb.WriteString(content)
		sb.WriteString("\n")
	}
	if sb.Len() == 0 {
		return ""
	}
	return fmt.Sprintf("\n**Recent Conversation History:**\n%s\n", sb.String())
}
