package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/siherrmann/librarian/database"
)

// Tool names offered to the model.
const (
	toolSummaryByTitle = "get_summary_by_title"
	toolListTitles     = "list_titles"
)

var summaryTool = openai.Tool{
	Type: openai.ToolTypeFunction,
	Function: &openai.FunctionDefinition{
		Name:        toolSummaryByTitle,
		Description: "Returnează rezumatul complet al unei cărți după titlul exact.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Titlul exact al cărții.",
				},
			},
			"required": []string{"title"},
		},
	},
}

var titlesTool = openai.Tool{
	Type: openai.ToolTypeFunction,
	Function: &openai.FunctionDefinition{
		Name:        toolListTitles,
		Description: "Returnează lista tuturor titlurilor disponibile, sortate alfabetic.",
	},
}

type summaryArgs struct {
	Title string `json:"title"`
}

// callTool executes a single requested tool call. Failures are reported back
// to the model as text so it can still produce an answer.
func (s *Service) callTool(call openai.ToolCall) string {
	switch call.Function.Name {
	case toolSummaryByTitle:
		var args summaryArgs
		err := json.Unmarshal([]byte(call.Function.Arguments), &args)
		if err != nil || strings.TrimSpace(args.Title) == "" {
			return "Eroare: apel de tool fără titlu valid."
		}

		summary, err := s.store.SummaryByTitle(args.Title)
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Sprintf("Nu există nicio carte cu titlul %q.", args.Title)
		}
		if err != nil {
			return fmt.Sprintf("Eroare la căutarea titlului %q.", args.Title)
		}
		return summary

	case toolListTitles:
		titles, err := s.store.Titles()
		if err != nil {
			return "Eroare la listarea titlurilor."
		}
		if len(titles) == 0 {
			return "Nu există titluri indexate."
		}
		return strings.Join(titles, "\n")

	default:
		return fmt.Sprintf("Tool necunoscut: %s.", call.Function.Name)
	}
}
