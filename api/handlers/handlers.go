package handlers

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/local/coursebuilder/api/config"
	"github.com/local/coursebuilder/api/editor"
	"github.com/local/coursebuilder/api/layout"
	"github.com/local/coursebuilder/api/render"
	"github.com/local/coursebuilder/api/services"
	"github.com/local/coursebuilder/api/sessions"
	"github.com/local/coursebuilder/api/templates"
)

type Handler struct {
	db         *gorm.DB
	cfg        *config.Config
	aiProvider services.AIProvider
	generator  *services.QuizGenerator
	catalog    *templates.Catalog
	editors    *sessions.EditorStore
	viewers    *sessions.ViewerStore
}

func New(db *gorm.DB, cfg *config.Config) (*Handler, error) {
	var aiProvider services.AIProvider
	if cfg.ModelProvider == "openai" {
		aiProvider = services.NewAIProvider("openai", cfg.OpenAIAPIKey, cfg.OpenAIModel)
	} else {
		aiProvider = services.NewAIProvider("anthropic", cfg.AnthropicAPIKey, cfg.AnthropicModel)
	}

	generator := services.NewQuizGenerator(aiProvider, cfg.AITimeout)
	if cfg.QuestionCount > 0 {
		generator.Count = cfg.QuestionCount
	}

	catalog, err := templates.Default()
	if err != nil {
		return nil, err
	}

	poster := services.NewHTTPCommentPoster(cfg.CommentEndpoint, cfg.AITimeout)

	return &Handler{
		db:         db,
		cfg:        cfg,
		aiProvider: aiProvider,
		generator:  generator,
		catalog:    catalog,
		editors:    sessions.NewEditorStore(cfg.SessionTTL),
		viewers:    sessions.NewViewerStore(cfg.SessionTTL, generator, poster),
	}, nil
}

// Register mounts every API route on api.
func (h *Handler) Register(api *gin.RouterGroup) {
	api.GET("/health", h.Health)
	api.GET("/templates", h.ListTemplates)

	api.POST("/courses", h.CreateCourse)
	api.GET("/courses/:courseId", h.GetCourse)
	api.PUT("/courses/:courseId/elements", h.SaveCourseElements)
	api.GET("/courses/:courseId/view", h.ViewCourse)
	api.GET("/courses/:courseId/export", h.ExportCourse)
	api.POST("/upload", h.UploadPDF)

	ed := api.Group("/editor/sessions")
	{
		ed.POST("", h.CreateEditorSession)
		ed.GET("/:sessionId", h.GetEditorSession)
		ed.GET("/:sessionId/canvas", h.EditorCanvas)
		ed.POST("/:sessionId/intents", h.DispatchIntent)
		ed.POST("/:sessionId/drop", h.Drop)
		ed.POST("/:sessionId/drag", h.Drag)
		ed.POST("/:sessionId/resize", h.Resize)
		ed.POST("/:sessionId/observe", h.ObserveHeight)
		ed.POST("/:sessionId/elements/:elementId/arrange", h.Arrange)
		ed.POST("/:sessionId/elements/:elementId/quiz", h.EditQuiz)
		ed.POST("/:sessionId/elements/:elementId/quiz/generate", h.GenerateQuiz)
		ed.POST("/:sessionId/elements/:elementId/block", h.EditBlock)
		ed.POST("/:sessionId/save", h.SaveEditorSession)
	}

	vw := api.Group("/view/sessions")
	{
		vw.POST("", h.CreateViewSession)
		vw.GET("/:sessionId", h.GetViewSession)
		vw.POST("/:sessionId/quiz/:elementId/select", h.SelectQuizOption)
		vw.POST("/:sessionId/quiz/:elementId/submit", h.SubmitQuiz)
		vw.POST("/:sessionId/quiz/:elementId/retry", h.RetryQuiz)
		vw.POST("/:sessionId/flashcards/:elementId/flip", h.FlipFlashcard)
		vw.POST("/:sessionId/comments/:elementId", h.PostComment)
		vw.GET("/:sessionId/video/:elementId", h.GetGate)
		vw.POST("/:sessionId/video/:elementId/time", h.VideoTime)
		vw.POST("/:sessionId/video/:elementId/answer", h.AnswerGate)
		vw.POST("/:sessionId/video/:elementId/submit", h.SubmitGate)
		vw.POST("/:sessionId/video/:elementId/continue", h.ContinueGate)
		vw.POST("/:sessionId/video/:elementId/restart", h.RestartGate)
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"model_provider":  h.aiProvider.GetProviderName(),
		"editor_sessions": h.editors.Count(),
	})
}

// errorStatus maps domain errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, sessions.ErrNotFound),
		errors.Is(err, sessions.ErrUnknownElement),
		errors.Is(err, editor.ErrUnknownElement),
		errors.Is(err, templates.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, editor.ErrGenerationPending):
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

func abortWithError(c *gin.Context, err error) {
	status := errorStatus(err)
	log.Debug().Err(err).Int("status", status).Str("path", c.FullPath()).Msg("Request refused")
	c.JSON(status, gin.H{"error": err.Error()})
}

func serverError(c *gin.Context, err error, msg string) {
	log.Error().Err(err).Str("path", c.FullPath()).Msg(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

// containerWidth reads ?width=, defaulting to the full canvas width.
func containerWidth(c *gin.Context) float64 {
	w, err := strconv.ParseFloat(c.Query("width"), 64)
	if err != nil || w <= 0 {
		return layout.CanvasWidth
	}
	return w
}

// renderPage wraps body into a standalone document and writes it.
func renderPage(c *gin.Context, title string, body template.HTML) {
	page, err := render.Document(title, body)
	if err != nil {
		serverError(c, err, "Failed to render page")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}
