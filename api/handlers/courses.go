package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/local/coursebuilder/api/elements"
	"github.com/local/coursebuilder/api/export"
	"github.com/local/coursebuilder/api/models"
	"github.com/local/coursebuilder/api/render"
	"github.com/local/coursebuilder/api/services"
	"github.com/local/coursebuilder/api/templates"
)

// maxContextChunks bounds how much uploaded text is offered to the quiz generator.
const maxContextChunks = 6

func (h *Handler) ListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"templates": h.catalog.List()})
}

type CreateCourseRequest struct {
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
	Template    string          `json:"template"`
	Elements    json.RawMessage `json:"elements"`
}

func (h *Handler) CreateCourse(c *gin.Context) {
	var req CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var list []elements.Element
	var err error
	switch {
	case req.Template != "":
		list, err = h.catalog.Get(req.Template)
	case len(req.Elements) > 0:
		list, err = elements.Decode(req.Elements)
	default:
		list = []elements.Element{}
	}
	if err != nil {
		abortWithError(c, err)
		return
	}

	course := &models.Course{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Template:    req.Template,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := course.SetElements(list); err != nil {
		serverError(c, err, "Failed to encode elements")
		return
	}
	if err := h.db.Create(course).Error; err != nil {
		serverError(c, err, "Failed to create course")
		return
	}

	log.Info().Str("course_id", course.ID).Str("template", req.Template).Int("elements", len(list)).Msg("Course created")
	c.JSON(http.StatusCreated, course)
}

func (h *Handler) loadCourse(courseID string) (*models.Course, []elements.Element, error) {
	var course models.Course
	if err := h.db.Where("id = ?", courseID).First(&course).Error; err != nil {
		return nil, nil, fmt.Errorf("course %s: %w", courseID, err)
	}
	list, err := course.ElementList()
	if err != nil {
		return nil, nil, err
	}
	return &course, list, nil
}

func (h *Handler) GetCourse(c *gin.Context) {
	course, _, err := h.loadCourse(c.Param("courseId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
		return
	}
	c.JSON(http.StatusOK, course)
}

type SaveElementsRequest struct {
	Elements json.RawMessage `json:"elements" binding:"required"`
}

// SaveCourseElements replaces the stored elements. The payload is stored as
// decoded and re-encoded, so unknown keys survive.
func (h *Handler) SaveCourseElements(c *gin.Context) {
	var req SaveElementsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	list, err := elements.Decode(req.Elements)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if err := h.saveElements(c.Param("courseId"), list); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"course_id": c.Param("courseId"), "elements": len(list)})
}

func (h *Handler) saveElements(courseID string, list []elements.Element) error {
	for _, w := range checkStyles(list) {
		log.Warn().Str("course_id", courseID).Msg(w)
	}
	course := models.Course{ID: courseID}
	if err := course.SetElements(list); err != nil {
		return err
	}
	res := h.db.Model(&models.Course{}).Where("id = ?", courseID).Updates(map[string]interface{}{
		"elements":   course.Elements,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return fmt.Errorf("failed to save course: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("course %s: %w", courseID, gorm.ErrRecordNotFound)
	}
	return nil
}

// checkStyles lists style keys that no renderer of the element's kind reads.
func checkStyles(list []elements.Element) []string {
	var out []string
	for _, el := range list {
		for _, key := range elements.CheckStyle(el.Type, el.Style) {
			out = append(out, fmt.Sprintf("Element %s (%s) has unrecognised style key %q", el.ID, el.Type, key))
		}
	}
	return out
}

func (h *Handler) ViewCourse(c *gin.Context) {
	course, list, err := h.loadCourse(c.Param("courseId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
		return
	}
	body, err := render.Learner(list, containerWidth(c), render.LearnerState{})
	if err != nil {
		serverError(c, err, "Failed to render course")
		return
	}
	renderPage(c, course.Title, body)
}

var unsafeFileChars = regexp.MustCompile(`[^a-z0-9]+`)

func exportFileName(title string) string {
	name := strings.Trim(unsafeFileChars.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if name == "" {
		name = "course"
	}
	return name + ".html"
}

func (h *Handler) ExportCourse(c *gin.Context) {
	course, list, err := h.loadCourse(c.Param("courseId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
		return
	}
	doc, err := export.Document(course.Title, list)
	if err != nil {
		serverError(c, err, "Failed to export course")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFileName(course.Title)))
	c.Data(http.StatusOK, "text/html; charset=utf-8", doc)
}

type UploadResponse struct {
	CourseID string `json:"course_id"`
	FileName string `json:"file_name"`
	Chunks   int    `json:"chunks"`
	Template string `json:"suggested_template"`
	Message  string `json:"message"`
}

// UploadPDF extracts the text of a PDF and keeps it as generation context
// for the course named by the courseId form field.
func (h *Handler) UploadPDF(c *gin.Context) {
	courseID := c.PostForm("courseId")
	if courseID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "courseId is required"})
		return
	}
	if _, _, err := h.loadCourse(courseID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	if !strings.HasSuffix(strings.ToLower(file.Filename), ".pdf") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF files are allowed"})
		return
	}
	if file.Size > h.cfg.MaxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("File size exceeds %dMB limit", h.cfg.MaxUploadSize>>20)})
		return
	}

	src, err := file.Open()
	if err != nil {
		serverError(c, err, "Failed to read file")
		return
	}
	defer src.Close()

	text, err := services.ExtractText(src, file.Size)
	if err != nil {
		log.Warn().Err(err).Str("file", file.Filename).Msg("Failed to extract text")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to extract text from PDF"})
		return
	}

	chunks := services.ChunkText(text)
	for i, chunk := range chunks {
		model := &models.SourceChunk{
			ID:        uuid.New().String(),
			CourseID:  courseID,
			FileName:  file.Filename,
			Content:   chunk,
			ChunkNum:  i,
			CreatedAt: time.Now(),
		}
		if err := h.db.Create(model).Error; err != nil {
			log.Warn().Err(err).Int("chunk", i).Msg("Failed to save chunk")
		}
	}

	c.JSON(http.StatusOK, UploadResponse{
		CourseID: courseID,
		FileName: file.Filename,
		Chunks:   len(chunks),
		Template: templates.Suggest(text),
		Message:  fmt.Sprintf("PDF processed into %d chunks", len(chunks)),
	})
}

// sourceContext joins the first uploaded chunks of a course.
func (h *Handler) sourceContext(courseID string) string {
	if courseID == "" {
		return ""
	}
	var chunks []models.SourceChunk
	if err := h.db.Where("course_id = ?", courseID).Order("chunk_num ASC").Limit(maxContextChunks).Find(&chunks).Error; err != nil {
		log.Warn().Err(err).Str("course_id", courseID).Msg("Failed to load source chunks")
		return ""
	}
	var b strings.Builder
	for _, chunk := range chunks {
		b.WriteString(chunk.Content)
		b.WriteString("\n\n")
	}
	return b.String()
}
