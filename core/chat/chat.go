// Package chat turns reranked retrieval results into a natural-language book
// recommendation via an LLM. The retrieval core is consumed only through the
// Searcher and SummaryStore interfaces, so the chat layer carries no database
// dependencies of its own.
package chat

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/siherrmann/librarian/helper"
	"github.com/siherrmann/librarian/model"
)

const (
	// DefaultChatModel is the completion model used for recommendations.
	DefaultChatModel = "gpt-4o-mini"
	// DefaultTopK is the number of context snippets given to the model.
	DefaultTopK = 3

	chatTemperature = 0.6
	chatMaxTokens   = 450
)

// Searcher provides reranked retrieval, the sole retrieval contract the chat
// layer depends on.
type Searcher interface {
	SearchWithRerank(ctx context.Context, query string, k int, filter *model.Filter) ([]*model.Result, error)
}

// SummaryStore serves full summaries and the title listing for the tool calls
// the model may issue.
type SummaryStore interface {
	SummaryByTitle(title string) (string, error)
	Titles() ([]string, error)
}

// Service answers book-recommendation questions with RAG context.
type Service struct {
	client   *openai.Client
	searcher Searcher
	store    SummaryStore
	model    string
}

// NewService creates a chat service. An empty model selects DefaultChatModel.
func NewService(apiKey string, searcher Searcher, store SummaryStore, chatModel string) (*Service, error) {
	if apiKey == "" {
		return nil, helper.NewError("chat service validation", fmt.Errorf("OpenAI API key is empty"))
	}
	if searcher == nil {
		return nil, helper.NewError("chat service validation", fmt.Errorf("searcher is nil"))
	}
	if chatModel == "" {
		chatModel = DefaultChatModel
	}

	return &Service{
		client:   openai.NewClient(apiKey),
		searcher: searcher,
		store:    store,
		model:    chatModel,
	}, nil
}

// ContextSnippets returns the reranked snippets used as LLM context,
// in the shape the HTTP layer also exposes as sources.
func (s *Service) ContextSnippets(ctx context.Context, question string, k int, filter *model.Filter) ([]*model.Result, error) {
	return s.searcher.SearchWithRerank(ctx, question, k, filter)
}

// systemPrompt instructs the model to stay within the retrieved sources.
const systemPrompt = "Ești Smart Librarian, un asistent pentru recomandări de cărți. " +
	"Ai acces la fragmente indexate (RAG). " +
	"Răspunde în română, clar și prietenos. " +
	"Dacă utilizatorul cere o carte anume, oferă un scurt rezumat. " +
	"Nu inventa titluri — rămâi la sursele disponibile."

// formatContext renders snippets as one bullet per candidate title.
func formatContext(snippets []*model.Result) string {
	lines := make([]string, 0, len(snippets))
	for _, snippet := range snippets {
		title := snippet.Metadata.Title
		if title == "" {
			title = "N/A"
		}
		lines = append(lines, fmt.Sprintf("- %s (%s) [score=%.2f]", title, snippet.Metadata.Author, snippet.Score))
	}
	return strings.Join(lines, "\n")
}

// userPrompt builds the single user message with question, context and
// answer instructions.
func userPrompt(question string, k int, contextBullets string) string {
	return fmt.Sprintf(
		"Întrebare: %s\n\n"+
			"Fragmente relevante (top-%d):\n%s\n\n"+
			"Instrucțiuni:\n"+
			"- Recomandă 1-2 titluri, justifică pe scurt în funcție de teme/autor.\n"+
			"- Dacă utilizatorul a cerut un titlu concret, include pe scurt esența poveștii.\n"+
			"- Fii concis (max ~8-10 linii).",
		question, k, contextBullets,
	)
}

// ChatOnce answers a single question: retrieve top-k snippets, prompt the
// model, and resolve at most one summary tool round before the final answer.
func (s *Service) ChatOnce(ctx context.Context, question string, k int, filter *model.Filter) (string, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	snippets, err := s.ContextSnippets(ctx, question, k, filter)
	if err != nil {
		return "", helper.NewError("build context snippets", err)
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: userPrompt(question, k, formatContext(snippets))},
	}

	request := openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    messages,
		Temperature: chatTemperature,
		MaxTokens:   chatMaxTokens,
	}
	if s.store != nil {
		request.Tools = []openai.Tool{summaryTool, titlesTool}
	}

	response, err := s.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", helper.NewError("chat completion", err)
	}
	if len(response.Choices) == 0 {
		return "", helper.NewError("chat completion", fmt.Errorf("response has no choices"))
	}

	choice := response.Choices[0]
	if len(choice.Message.ToolCalls) == 0 {
		return strings.TrimSpace(choice.Message.Content), nil
	}

	// One tool round: resolve every requested call, then ask for the final answer
	messages = append(messages, choice.Message)
	for _, call := range choice.Message.ToolCalls {
		result := s.callTool(call)
		messages = append(messages, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Content:    result,
			ToolCallID: call.ID,
		})
	}

	response, err = s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    messages,
		Temperature: chatTemperature,
		MaxTokens:   chatMaxTokens,
	})
	if err != nil {
		return "", helper.NewError("chat completion with tool results", err)
	}
	if len(response.Choices) == 0 {
		return "", helper.NewError("chat completion with tool results", fmt.Errorf("response has no choices"))
	}

	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}
