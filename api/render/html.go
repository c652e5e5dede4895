// Package render draws element collections for learners and authors and
// holds the learner-side interactive state of quiz, flashcard, comment and
// video blocks.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"

	"github.com/local/coursebuilder/api/elements"
	"github.com/local/coursebuilder/api/layout"
	"github.com/local/coursebuilder/api/services"
)

//go:embed templates/blocks.html
var templateFS embed.FS

var blockTemplates = template.Must(template.ParseFS(templateFS, "templates/blocks.html"))

// LearnerState is the interactive state of one viewing, keyed by element id.
// Missing entries render as untouched blocks.
type LearnerState struct {
	Quizzes  map[string]QuizView
	Flipped  map[string]bool
	Comments map[string][]elements.Comment
	Gates    map[string]GateView
}

type pageData struct {
	Editor   bool
	Scale    string
	OuterCSS template.CSS
	InnerCSS template.CSS
	Blocks   []blockData
}

type blockData struct {
	ID       string
	Kind     elements.Kind
	BoxCSS   template.CSS
	Selected bool
	Body     template.HTML
}

// Learner renders list for a container width. Elements keep their canonical
// coordinates inside an 800-wide layer that is scaled down as a whole, so the
// page is the editor layout up to a uniform scale.
func Learner(list []elements.Element, containerWidth float64, state LearnerState) (template.HTML, error) {
	scale := layout.ViewerScale(containerWidth)
	bottom := layout.Bottom(list)
	v := &learnerBlocks{blockRenderer{}, state}
	return page(list, scale, bottom, false, "", v, &v.blockRenderer)
}

// Editor renders the authoring canvas at the preview scale of mode, with
// drag handles on every block and delete and resize handles on the selection.
func Editor(list []elements.Element, mode, selectedID string) (template.HTML, error) {
	scale := layout.PreviewScale(mode)
	extent := layout.Extent(list, layout.CanvasMargin)
	v := &editorBlocks{}
	return page(list, scale, extent, true, selectedID, v, &v.blockRenderer)
}

func page(list []elements.Element, scale, height float64, editor bool, selectedID string, v elements.Visitor[template.HTML], r *blockRenderer) (template.HTML, error) {
	data := pageData{
		Editor:   editor,
		Scale:    strconv.FormatFloat(scale, 'f', -1, 64),
		OuterCSS: template.CSS(fmt.Sprintf("width:%s;height:%s", px(layout.CanvasWidth*scale), px(height*scale))),
		InnerCSS: template.CSS(fmt.Sprintf("width:%s;height:%s;transform:scale(%s)", px(layout.CanvasWidth), px(height), strconv.FormatFloat(scale, 'f', -1, 64))),
	}
	for _, el := range layout.PaintOrder(list) {
		body := elements.Dispatch(el, v)
		if r.err != nil {
			return "", r.err
		}
		data.Blocks = append(data.Blocks, blockData{
			ID:       el.ID,
			Kind:     el.Type,
			BoxCSS:   template.CSS(BoxCSS(el)),
			Selected: editor && el.ID == selectedID,
			Body:     body,
		})
	}

	var b bytes.Buffer
	if err := blockTemplates.ExecuteTemplate(&b, "page", data); err != nil {
		return "", fmt.Errorf("failed to render page: %w", err)
	}
	return template.HTML(b.String()), nil
}

// Document wraps a rendered page into a standalone HTML document.
func Document(title string, body template.HTML) ([]byte, error) {
	var b bytes.Buffer
	err := blockTemplates.ExecuteTemplate(&b, "document", struct {
		Title string
		Body  template.HTML
	}{title, body})
	if err != nil {
		return nil, fmt.Errorf("failed to render document: %w", err)
	}
	return b.Bytes(), nil
}

// blockRenderer holds what learner and editor blocks share.
type blockRenderer struct {
	err error
}

func (r *blockRenderer) exec(name string, data any) template.HTML {
	if r.err != nil {
		return ""
	}
	var b bytes.Buffer
	if err := blockTemplates.ExecuteTemplate(&b, name, data); err != nil {
		r.err = fmt.Errorf("failed to render %s block: %w", name, err)
		return ""
	}
	return template.HTML(b.String())
}

func (r *blockRenderer) text(el elements.Element, editing bool) template.HTML {
	return r.exec("text", struct {
		CSS     template.CSS
		HTML    template.HTML
		Editing bool
	}{JoinCSS(StyleCSS(el.Style)), RichText(el.Content), editing})
}

func (r *blockRenderer) Image(el elements.Element) template.HTML {
	src := el.Content
	if src == "" {
		size := layout.Size(el)
		src = services.PlaceholderImageURL(el.ID, int(size.Width), int(size.Height))
	}
	alt := el.Style.String("alt")
	if alt == "" {
		alt = "Course image"
	}
	return r.exec("image", struct {
		Src string
		Alt string
		CSS template.CSS
	}{src, alt, JoinCSS("width:100%;height:100%", StyleCSS(el.Style, "objectFit", "borderRadius"))})
}

func (r *blockRenderer) video(el elements.Element, gate *GateView) template.HTML {
	src := ClassifyVideo(el.Content)
	return r.exec("video", struct {
		Source VideoSource
		Gated  bool
		Gate   *GateView
	}{src, src.Gated() && gate != nil, gate})
}

func (r *blockRenderer) Container(el elements.Element) template.HTML {
	return r.exec("container", struct{ CSS template.CSS }{JoinCSS("width:100%;height:100%", StyleCSS(el.Style))})
}

func (r *blockRenderer) Hero(el elements.Element) template.HTML {
	title, subtitle := elements.HeroLines(el.Content)
	css := JoinCSS("width:100%;height:100%;display:flex;flex-direction:column;justify-content:center", HeroBackground(el.Style), StyleCSS(el.Style, "color", "textAlign", "padding"))
	return r.exec("hero", struct {
		Title    string
		Subtitle string
		CSS      template.CSS
	}{title, subtitle, css})
}

func (r *blockRenderer) List(el elements.Element) template.HTML {
	return r.exec("list", struct {
		Items []string
		CSS   template.CSS
	}{elements.ListItems(el.Content), JoinCSS(StyleCSS(el.Style))})
}

func (r *blockRenderer) flashcard(el elements.Element, flipped bool) template.HTML {
	card := el.Metadata.Flashcard()
	color := "frontColor"
	if flipped {
		color = "backColor"
	}
	bg := ""
	if v, ok := cssValue(color, el.Style.String(color)); ok {
		bg = "background:" + v
	}
	return r.exec("flashcard", struct {
		Front   string
		Back    string
		Flipped bool
		CSS     template.CSS
	}{card.Front, card.Back, flipped, JoinCSS("width:100%;height:100%", bg, StyleCSS(el.Style))})
}

func (r *blockRenderer) Resource(el elements.Element) template.HTML {
	data := el.Metadata.Resource()
	url := data.URL
	if url != "" && !SafeURL(url) {
		url = ""
	}
	return r.exec("resource", struct {
		Label    string
		URL      string
		FileName string
		Icon     string
		CSS      template.CSS
	}{data.Label, url, data.FileName, data.IconType, JoinCSS(StyleCSS(el.Style))})
}

func (r *blockRenderer) comments(el elements.Element, list []elements.Comment) template.HTML {
	data := el.Metadata.Comments()
	if list == nil {
		list = data.Comments
	}
	return r.exec("comment", struct {
		Title    string
		Comments []elements.Comment
		CSS      template.CSS
	}{data.Title, list, JoinCSS(StyleCSS(el.Style))})
}

type learnerBlocks struct {
	blockRenderer
	state LearnerState
}

func (v *learnerBlocks) Text(el elements.Element) template.HTML { return v.text(el, false) }

func (v *learnerBlocks) Video(el elements.Element) template.HTML {
	if g, ok := v.state.Gates[el.ID]; ok {
		return v.video(el, &g)
	}
	return v.video(el, nil)
}

func (v *learnerBlocks) Quiz(el elements.Element) template.HTML {
	view, ok := v.state.Quizzes[el.ID]
	if !ok {
		view = NewQuizAttempt(el.Metadata.Quiz().Questions).View()
	}
	return v.exec("quiz", struct {
		View QuizView
		CSS  template.CSS
	}{view, JoinCSS(StyleCSS(el.Style))})
}

func (v *learnerBlocks) Flashcard(el elements.Element) template.HTML {
	return v.flashcard(el, v.state.Flipped[el.ID])
}

func (v *learnerBlocks) Comment(el elements.Element) template.HTML {
	return v.comments(el, v.state.Comments[el.ID])
}

type editorBlocks struct {
	blockRenderer
}

func (v *editorBlocks) Text(el elements.Element) template.HTML { return v.text(el, true) }

func (v *editorBlocks) Video(el elements.Element) template.HTML { return v.video(el, nil) }

func (v *editorBlocks) Quiz(el elements.Element) template.HTML {
	return v.exec("edit-quiz", struct {
		Questions []elements.Question
		CSS       template.CSS
	}{el.Metadata.Quiz().Questions, JoinCSS(StyleCSS(el.Style))})
}

func (v *editorBlocks) Flashcard(el elements.Element) template.HTML { return v.flashcard(el, false) }

func (v *editorBlocks) Comment(el elements.Element) template.HTML { return v.comments(el, nil) }
