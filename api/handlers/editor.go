package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/coursebuilder/api/editor"
	"github.com/local/coursebuilder/api/elements"
	"github.com/local/coursebuilder/api/models"
	"github.com/local/coursebuilder/api/render"
	"github.com/local/coursebuilder/api/sessions"
)

type stateResponse struct {
	SessionID string       `json:"sessionId"`
	CourseID  string       `json:"courseId,omitempty"`
	State     editor.State `json:"state"`
	CanUndo   bool         `json:"canUndo"`
	CanRedo   bool         `json:"canRedo"`
}

func respondState(c *gin.Context, es *sessions.EditorSession, state editor.State) {
	c.JSON(http.StatusOK, stateResponse{
		SessionID: es.ID,
		CourseID:  es.CourseID(),
		State:     state,
		CanUndo:   state.CanUndo(),
		CanRedo:   state.CanRedo(),
	})
}

func (h *Handler) editorSession(c *gin.Context) (*sessions.EditorSession, bool) {
	es, err := h.editors.Get(c.Param("sessionId"))
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	return es, true
}

type CreateEditorSessionRequest struct {
	CourseID string `json:"courseId"`
	Template string `json:"template"`
}

// CreateEditorSession opens a course, a template or an empty page for editing.
func (h *Handler) CreateEditorSession(c *gin.Context) {
	var req CreateEditorSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state := editor.New()
	switch {
	case req.CourseID != "":
		_, list, err := h.loadCourse(req.CourseID)
		if err != nil {
			abortWithError(c, err)
			return
		}
		state = editor.Reduce(state, editor.LoadState{Elements: list})
	case req.Template != "":
		list, err := h.catalog.Get(req.Template)
		if err != nil {
			abortWithError(c, err)
			return
		}
		state = editor.Reduce(state, editor.LoadTemplate{Template: req.Template, Elements: list})
	}

	es := h.editors.Create(req.CourseID, state)
	log.Info().Str("session_id", es.ID).Str("course_id", req.CourseID).Str("template", req.Template).Msg("Editor session opened")
	respondState(c, es, es.View())
}

func (h *Handler) GetEditorSession(c *gin.Context) {
	es, ok := h.editorSession(c)
	if !ok {
		return
	}
	respondState(c, es, es.View())
}

// EditorCanvas renders the authoring canvas of the session as HTML.
func (h *Handler) EditorCanvas(c *gin.Context) {
	es, ok := h.editorSession(c)
	if !ok {
		return
	}
	state := es.View()
	body, err := render.Editor(state.Elements, state.PreviewMode, state.SelectedID)
	if err != nil {
		serverError(c, err, "Failed to render canvas")
		return
	}
	renderPage(c, "Editor", body)
}

// DispatchIntent applies one client intent. LOAD_TEMPLATE intents may name a
// catalog template instead of carrying elements.
func (h *Handler) DispatchIntent(c *gin.Context) {
	es, ok := h.editorSession(c)
	if !ok {
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request"})
		return
	}
	in, err := editor.DecodeIntent(body)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if lt, isTemplate := in.(editor.LoadTemplate); isTemplate && lt.Template != "" && len(lt.Elements) == 0 {
		list, err := h.catalog.Get(lt.Template)
		if err != nil {
			abortWithError(c, err)
			return
		}
		lt.Elements = list
		in = lt
	}
	respondState(c, es, es.Dispatch(in))
}

type DropRequest struct {
	Type    elements.Kind  `json:"type" binding:"required"`
	Pointer elements.Point `json:"pointer"`
	Origin  elements.Point `json:"origin"`
	Content string         `json:"content"`
}

func (h *Handler) Drop(c *gin.Context) {
	es, ok := h.editorSession(c)
	if !ok {
		return
	}
	var req DropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	el, err := es.Drop(req.Type, req.Pointer, req.Origin, req.Content)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"element": el, "state": es.View()})
}

const (
	phaseBegin = "begin"
	phaseMove  = "move"
	phaseEnd   = "end"
)

type DragRequest struct {
	Phase     string         `json:"phase" binding:"required,oneof=begin move end"`
	ElementID string         `json:"elementId"`
	Pointer   elements.Point `json:"pointer"`
	Origin    elements.Point `json:"origin"`
}

// Drag drives a move gesture: begin on pointer down, move per frame, end on
// release. Only end records history.
func (h *Handler) Drag(c *gin.Context) {
	es, ok := h.editorSession(c)
	if !ok {
		return
	}
	var req DragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var err error
	switch req.Phase {
	case phaseBegin:
		err = es.BeginDrag(req.ElementID, req.Pointer, req.Origin)
	case phaseMove:
		_, err = es.DragTo(req.Pointer, req.Origin)
	case phaseEnd:
		_, err = es.EndDrag()
	}
	if err != nil {
		abortWithError(c, err)
		return
	}
	respondState(c, es, es.View())
}

type ResizeRequest struct {
	Phase     string  `json:"phase" binding:"required,oneof=begin move end"`
	ElementID string  `json:"elementId"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
}

func (h *Handler) Resize(c *gin.Context) {
	es, ok := h.editorSession(c)
	if !ok {
		return
	}
	var req ResizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var err error
	switch req.Phase {
	case phaseBegin:
		err = es.BeginResize(req.ElementID)
	case phaseMove:
		_, err = es.ResizeTo(req.Width, req.Height)
	case phaseEnd:
		_, err = es.EndResize()
	}
	if err != nil {
		abortWithError(c, err)
		return
	}
	respondState(c, es, es.View())
}

type ObserveRequest struct {
	ElementID string  `json:"elementId" binding:"required"`
	Height    float64 `json:"height" binding:"required,gt=0"`
}

// ObserveHeight reports the rendered height of a content-driven block.
func (h *Handler) ObserveHeight(c *gin.Context) {
	es, ok := h.editorSession(c)
	if !ok {
		return
	}
	var req ObserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	es.ObserveContentHeight(req.ElementID, req.Height)
	respondState(c, es, es.View())
}

type ArrangeRequest struct {
	Action string `json:"action" binding:"required,oneof=front back duplicate"`
}

func (h *Handler) Arrange(c *gin.Context) {
	es, ok := h.editorSession(c)
	if !ok {
		return
	}
	var req ArrangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("elementId")
	if _, found := elements.Find(es.State().Elements, id); !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Element not found"})
		return
	}
	switch req.Action {
	case "front":
		es.BringToFront(id)
	case "back":
		es.SendToBack(id)
	case "duplicate":
		if _, err := es.Duplicate(id); err != nil {
			abortWithError(c, err)
			return
		}
	}
	respondState(c, es, es.View())
}

func (h *Handler) EditQuiz(c *gin.Context) {
	es, ok := h.editorSession(c)
	if !ok {
		return
	}
	var req editor.QuizEdit
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	state, err := es.EditQuiz(c.Param("elementId"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	respondState(c, es, state)
}

func (h *Handler) EditBlock(c *gin.Context) {
	es, ok := h.editorSession(c)
	if !ok {
		return
	}
	var req editor.BlockEdit
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	state, err := es.EditBlock(c.Param("elementId"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	respondState(c, es, state)
}

type GenerateQuizResponse struct {
	Questions []elements.Question `json:"questions"`
	Fallback  bool                `json:"fallback"`
	Notice    string              `json:"notice,omitempty"`
	State     editor.State        `json:"state"`
}

// GenerateQuiz fills a quiz block with questions drawn from the page text and
// any uploaded course material. A failed remote call still yields questions.
func (h *Handler) GenerateQuiz(c *gin.Context) {
	es, ok := h.editorSession(c)
	if !ok {
		return
	}
	gen, err := es.GenerateQuiz(c.Request.Context(), c.Param("elementId"), h.generator, h.sourceContext(es.CourseID()))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, GenerateQuizResponse{
		Questions: gen.Questions,
		Fallback:  gen.Fallback,
		Notice:    gen.Notice(),
		State:     es.View(),
	})
}

type SaveRequest struct {
	Title string `json:"title"`
}

// SaveEditorSession stores the committed elements. A session opened without a
// course creates one on first save.
func (h *Handler) SaveEditorSession(c *gin.Context) {
	es, ok := h.editorSession(c)
	if !ok {
		return
	}
	var req SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	list := es.State().Elements
	courseID := es.CourseID()
	if courseID == "" {
		title := req.Title
		if title == "" {
			title = "Untitled course"
		}
		course := &models.Course{ID: uuid.New().String(), Title: title, CreatedAt: time.Now(), UpdatedAt: time.Now()}
		if err := course.SetElements(list); err != nil {
			serverError(c, err, "Failed to encode elements")
			return
		}
		if err := h.db.Create(course).Error; err != nil {
			serverError(c, err, "Failed to create course")
			return
		}
		if !es.AttachCourse(course.ID) {
			c.JSON(http.StatusConflict, gin.H{"error": "Session was saved concurrently"})
			return
		}
		courseID = course.ID
	} else if err := h.saveElements(courseID, list); err != nil {
		abortWithError(c, err)
		return
	}

	log.Info().Str("session_id", es.ID).Str("course_id", courseID).Int("elements", len(list)).Msg("Course saved")
	c.JSON(http.StatusOK, gin.H{"courseId": courseID, "elements": len(list)})
}
