// Package api exposes the recommendation pipeline over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	cors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/siherrmann/librarian/core/chat"
	"github.com/siherrmann/librarian/model"
)

// previewLength bounds the snippet preview shown as a source.
const previewLength = 220

// defaultTopK is the number of snippets retrieved for chat context.
const defaultTopK = 3

// Chatter is the chat contract the server depends on.
type Chatter interface {
	ContextSnippets(ctx context.Context, question string, k int, filter *model.Filter) ([]*model.Result, error)
	ChatOnce(ctx context.Context, question string, k int, filter *model.Filter) (string, error)
}

// Searcher provides the raw reranked search endpoint.
type Searcher interface {
	SearchWithRerank(ctx context.Context, query string, k int, filter *model.Filter) ([]*model.Result, error)
}

// Server wires the chat and search services into a gin engine.
type Server struct {
	engine   *gin.Engine
	chatter  Chatter
	searcher Searcher
	log      *slog.Logger
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// Source is one context snippet reference included with a chat answer.
type Source struct {
	Title   string `json:"title"`
	Preview string `json:"preview"`
}

// ChatResponse is the body of a successful POST /api/chat.
type ChatResponse struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// NewServer creates the HTTP server with all routes registered.
func NewServer(chatter Chatter, searcher Searcher, logger *slog.Logger) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}
	engine.Use(cors.New(corsConfig))

	server := &Server{
		engine:   engine,
		chatter:  chatter,
		searcher: searcher,
		log:      logger,
	}

	engine.GET("/healthz", server.health)
	engine.POST("/api/chat", server.chat)
	engine.GET("/api/search", server.search)

	return server
}

// Handler returns the underlying HTTP handler, for tests and custom servers.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run starts the server on the given address and blocks.
func (s *Server) Run(addr string) error {
	s.log.Info("Starting HTTP server", slog.String("addr", addr))
	return s.engine.Run(addr)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// chat answers a recommendation question. The context snippets used for the
// answer are returned as sources with truncated previews.
func (s *Server) chat(c *gin.Context) {
	var request ChatRequest
	err := c.ShouldBindJSON(&request)
	if err != nil || strings.TrimSpace(request.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Mesajul este gol."})
		return
	}

	if chat.ContainsProfanity(request.Message) {
		c.JSON(http.StatusOK, ChatResponse{
			Answer:  "Prefer să păstrăm conversația politicoasă. Reformulează, te rog, întrebarea.",
			Sources: []Source{},
		})
		return
	}

	snippets, err := s.chatter.ContextSnippets(c.Request.Context(), request.Message, defaultTopK, nil)
	if err != nil {
		s.log.Error("Building context snippets failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Căutarea a eșuat."})
		return
	}

	sources := make([]Source, 0, len(snippets))
	for _, snippet := range snippets {
		sources = append(sources, Source{
			Title:   snippet.Metadata.Title,
			Preview: preview(snippet.Document),
		})
	}

	answer, err := s.chatter.ChatOnce(c.Request.Context(), request.Message, defaultTopK, nil)
	if err != nil {
		s.log.Error("Chat completion failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Generarea răspunsului a eșuat."})
		return
	}

	c.JSON(http.StatusOK, ChatResponse{Answer: answer, Sources: sources})
}

// search exposes reranked retrieval directly. Query parameters: q (required),
// k (default 5), and optional metadata filters author, title, language, year.
func (s *Server) search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Parametrul q este gol."})
		return
	}

	k := model.DefaultSearchConfig().TopK
	if raw := c.Query("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Parametrul k trebuie să fie un întreg pozitiv."})
			return
		}
		k = parsed
	}

	filter := &model.Filter{
		Author:   c.Query("author"),
		Title:    c.Query("title"),
		Language: c.Query("language"),
		Year:     c.Query("year"),
	}
	if filter.IsZero() {
		filter = nil
	}

	results, err := s.searcher.SearchWithRerank(c.Request.Context(), query, k, filter)
	if err != nil {
		s.log.Error("Search failed", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Căutarea a eșuat."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// preview flattens newlines and truncates to previewLength runes.
func preview(document string) string {
	flat := strings.ReplaceAll(document, "\n", " ")
	runes := []rune(flat)
	if len(runes) > previewLength {
		return string(runes[:previewLength])
	}
	return flat
}
