// Package export serializes a course into one self-contained HTML document
// that keeps its quizzes, flashcards, video checkpoints and comments working
// without the server.
package export

import (
	"bytes"
	"embed"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"strconv"

	"github.com/local/coursebuilder/api/elements"
	"github.com/local/coursebuilder/api/layout"
	"github.com/local/coursebuilder/api/render"
	"github.com/local/coursebuilder/api/services"
)

const (
	// StoragePrefix prefixes the localStorage key of each comment thread.
	StoragePrefix = "course-export-comments-"

	MarkerInterval = 300.0
	MaxMarkers     = 3
)

//go:embed templates/export.html
var templateFS embed.FS

var exportTemplates = template.Must(template.ParseFS(templateFS, "templates/export.html"))

type documentData struct {
	Title         string
	CanvasWidth   float64
	Height        float64
	StoragePrefix string
	Blocks        []blockData
}

type blockData struct {
	ID     string
	Kind   elements.Kind
	BoxCSS template.CSS
	Body   template.HTML
}

// Document renders list as a standalone page. Answer keys are emitted as
// base64 so they are not readable at a glance; this is not protection.
func Document(title string, list []elements.Element) ([]byte, error) {
	if title == "" {
		title = "Course"
	}
	data := documentData{
		Title:         title,
		CanvasWidth:   layout.CanvasWidth,
		Height:        layout.Bottom(list),
		StoragePrefix: StoragePrefix,
	}

	v := &blocks{}
	for _, el := range layout.PaintOrder(list) {
		body := elements.Dispatch(el, v)
		if v.err != nil {
			return nil, v.err
		}
		data.Blocks = append(data.Blocks, blockData{
			ID:     el.ID,
			Kind:   el.Type,
			BoxCSS: template.CSS(render.BoxCSS(el)),
			Body:   body,
		})
	}

	var b bytes.Buffer
	if err := exportTemplates.ExecuteTemplate(&b, "export", data); err != nil {
		return nil, fmt.Errorf("failed to render export: %w", err)
	}
	return b.Bytes(), nil
}

// AnswerKey encodes a correct option index the way the inline script reads it.
func AnswerKey(correct int) string {
	return base64.StdEncoding.EncodeToString([]byte(strconv.Itoa(correct)))
}

// Markers returns the checkpoints of a video block: the authored ones, or
// one every MarkerInterval seconds up to MaxMarkers.
func Markers(el elements.Element) []elements.Marker {
	if m := el.Metadata.Video().Markers; len(m) > 0 {
		return m
	}
	out := make([]elements.Marker, 0, MaxMarkers)
	for i := 1; i <= MaxMarkers; i++ {
		out = append(out, elements.Marker{
			Time:  MarkerInterval * float64(i),
			Label: fmt.Sprintf("Checkpoint %d: take a moment to review what you just watched.", i),
		})
	}
	return out
}

type blocks struct {
	err error
}

func (v *blocks) exec(name string, data any) template.HTML {
	if v.err != nil {
		return ""
	}
	var b bytes.Buffer
	if err := exportTemplates.ExecuteTemplate(&b, name, data); err != nil {
		v.err = fmt.Errorf("failed to render %s block: %w", name, err)
		return ""
	}
	return template.HTML(b.String())
}

func (v *blocks) Text(el elements.Element) template.HTML {
	return v.exec("text", struct {
		CSS  template.CSS
		HTML template.HTML
	}{render.JoinCSS(render.StyleCSS(el.Style)), render.RichText(el.Content)})
}

func (v *blocks) Image(el elements.Element) template.HTML {
	src := el.Content
	if src == "" {
		size := layout.Size(el)
		src = services.PlaceholderImageURL(el.ID, int(size.Width), int(size.Height))
	}
	alt := el.Style.String("alt")
	if alt == "" {
		alt = "Course image"
	}
	return v.exec("image", struct {
		Src string
		Alt string
		CSS template.CSS
	}{src, alt, render.JoinCSS("width:100%;height:100%", render.StyleCSS(el.Style, "objectFit", "borderRadius"))})
}

func (v *blocks) Video(el elements.Element) template.HTML {
	src := render.ClassifyVideo(el.Content)
	markers := ""
	if src.Gated() {
		b, err := json.Marshal(Markers(el))
		if err != nil {
			v.err = fmt.Errorf("failed to encode markers: %w", err)
			return ""
		}
		markers = string(b)
	}
	return v.exec("video", struct {
		Source  render.VideoSource
		Markers string
	}{src, markers})
}

func (v *blocks) Container(el elements.Element) template.HTML {
	return v.exec("container", struct{ CSS template.CSS }{render.JoinCSS("width:100%;height:100%", render.StyleCSS(el.Style))})
}

func (v *blocks) Hero(el elements.Element) template.HTML {
	title, subtitle := elements.HeroLines(el.Content)
	return v.exec("hero", struct {
		Title    string
		Subtitle string
		CSS      template.CSS
	}{title, subtitle, render.JoinCSS("width:100%;height:100%", render.HeroBackground(el.Style), render.StyleCSS(el.Style, "color", "textAlign", "padding"))})
}

func (v *blocks) List(el elements.Element) template.HTML {
	return v.exec("list", struct {
		Items []string
		CSS   template.CSS
	}{elements.ListItems(el.Content), render.JoinCSS(render.StyleCSS(el.Style))})
}

type exportQuestion struct {
	Question string
	Options  []string
	Key      string
}

func (v *blocks) Quiz(el elements.Element) template.HTML {
	var qs []exportQuestion
	for _, q := range el.Metadata.Quiz().Questions {
		qs = append(qs, exportQuestion{q.Question, q.Options, AnswerKey(q.Correct)})
	}
	return v.exec("quiz", struct {
		Questions []exportQuestion
		CSS       template.CSS
	}{qs, render.JoinCSS(render.StyleCSS(el.Style))})
}

func (v *blocks) Flashcard(el elements.Element) template.HTML {
	card := el.Metadata.Flashcard()
	return v.exec("flashcard", struct {
		Front string
		Back  string
		CSS   template.CSS
	}{card.Front, card.Back, render.JoinCSS(render.StyleCSS(el.Style))})
}

func (v *blocks) Resource(el elements.Element) template.HTML {
	data := el.Metadata.Resource()
	url := data.URL
	if url != "" && !render.SafeURL(url) {
		url = ""
	}
	return v.exec("resource", struct {
		Label    string
		URL      string
		FileName string
		Icon     string
		CSS      template.CSS
	}{data.Label, url, data.FileName, data.IconType, render.JoinCSS(render.StyleCSS(el.Style))})
}

func (v *blocks) Comment(el elements.Element) template.HTML {
	data := el.Metadata.Comments()
	return v.exec("comment", struct {
		ID       string
		Title    string
		Comments []elements.Comment
		CSS      template.CSS
	}{el.ID, data.Title, data.Comments, render.JoinCSS(render.StyleCSS(el.Style))})
}
