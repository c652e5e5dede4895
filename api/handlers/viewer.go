package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/local/coursebuilder/api/render"
	"github.com/local/coursebuilder/api/sessions"
)

func (h *Handler) viewer(c *gin.Context) (*sessions.Viewer, bool) {
	v, err := h.viewers.Get(c.Param("sessionId"))
	if err != nil {
		abortWithError(c, err)
		return nil, false
	}
	return v, true
}

type CreateViewSessionRequest struct {
	CourseID string `json:"courseId" binding:"required"`
}

func (h *Handler) CreateViewSession(c *gin.Context) {
	var req CreateViewSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	_, list, err := h.loadCourse(req.CourseID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	v := h.viewers.Create(req.CourseID, list)
	log.Info().Str("session_id", v.ID).Str("course_id", req.CourseID).Msg("Viewer session opened")
	c.JSON(http.StatusCreated, gin.H{"sessionId": v.ID, "courseId": req.CourseID, "elements": list})
}

// GetViewSession renders the course with this learner's progress applied.
func (h *Handler) GetViewSession(c *gin.Context) {
	v, ok := h.viewer(c)
	if !ok {
		return
	}
	body, err := render.Learner(v.Elements(), containerWidth(c), v.Snapshot())
	if err != nil {
		serverError(c, err, "Failed to render course")
		return
	}
	renderPage(c, "Course", body)
}

type AnswerRequest struct {
	Question int `json:"question" binding:"min=0"`
	Option   int `json:"option" binding:"min=0"`
}

func (h *Handler) SelectQuizOption(c *gin.Context) {
	v, ok := h.viewer(c)
	if !ok {
		return
	}
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := v.SelectOption(c.Param("elementId"), req.Question, req.Option)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) SubmitQuiz(c *gin.Context) {
	v, ok := h.viewer(c)
	if !ok {
		return
	}
	view, err := v.SubmitQuiz(c.Param("elementId"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) RetryQuiz(c *gin.Context) {
	v, ok := h.viewer(c)
	if !ok {
		return
	}
	view, err := v.RetryQuiz(c.Param("elementId"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) FlipFlashcard(c *gin.Context) {
	v, ok := h.viewer(c)
	if !ok {
		return
	}
	flipped, err := v.Flip(c.Param("elementId"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flipped": flipped})
}

type CommentRequest struct {
	User string `json:"user"`
	Text string `json:"text" binding:"required"`
}

func (h *Handler) PostComment(c *gin.Context) {
	v, ok := h.viewer(c)
	if !ok {
		return
	}
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	comment, err := v.PostComment(c.Param("elementId"), req.User, req.Text)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

type gateResponse struct {
	Gate     render.GateView `json:"gate"`
	ResumeAt *float64        `json:"resumeAt,omitempty"`
}

func (h *Handler) GetGate(c *gin.Context) {
	v, ok := h.viewer(c)
	if !ok {
		return
	}
	view, err := v.GateView(c.Param("elementId"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gateResponse{Gate: view})
}

type TimeRequest struct {
	Position float64 `json:"position" binding:"min=0"`
}

// VideoTime reports playback progress. The response says whether the player
// must pause for a checkpoint quiz.
func (h *Handler) VideoTime(c *gin.Context) {
	v, ok := h.viewer(c)
	if !ok {
		return
	}
	var req TimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := v.VideoTime(c.Request.Context(), c.Param("elementId"), req.Position)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gateResponse{Gate: view})
}

func (h *Handler) AnswerGate(c *gin.Context) {
	v, ok := h.viewer(c)
	if !ok {
		return
	}
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := v.AnswerGate(c.Param("elementId"), req.Question, req.Option)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gateResponse{Gate: view})
}

func (h *Handler) SubmitGate(c *gin.Context) {
	v, ok := h.viewer(c)
	if !ok {
		return
	}
	view, err := v.SubmitGate(c.Param("elementId"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gateResponse{Gate: view})
}

func (h *Handler) ContinueGate(c *gin.Context) {
	v, ok := h.viewer(c)
	if !ok {
		return
	}
	view, at, err := v.ContinueGate(c.Param("elementId"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gateResponse{Gate: view, ResumeAt: &at})
}

func (h *Handler) RestartGate(c *gin.Context) {
	v, ok := h.viewer(c)
	if !ok {
		return
	}
	view, at, err := v.RestartGate(c.Param("elementId"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gateResponse{Gate: view, ResumeAt: &at})
}
