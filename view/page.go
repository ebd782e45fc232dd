package view

import (
	"embed"
	"html/template"
	"io"
	"strings"

	"github.com/raushankrgupta/eyewear-stylist/models"
	"github.com/raushankrgupta/eyewear-stylist/stylist"
)

//go:embed templates/page.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("page.html").Funcs(template.FuncMap{
	"imageSrc": imageSrc,
	"isTryOn":  func(m models.Mode) bool { return m == models.ModeTryOn },
	// slider styles are generated here, never user input
	"css": func(s string) template.CSS { return template.CSS(s) },
}).ParseFS(templateFS, "templates/page.html"))

// PageData feeds the two-pane stylist page.
type PageData struct {
	Token        string
	Snapshot     stylist.Snapshot
	Conversation ConversationView
	Slider       *Slider
}

func NewPageData(token string, snap stylist.Snapshot) PageData {
	return PageData{
		Token:        token,
		Snapshot:     snap,
		Conversation: NewConversationView(snap),
		Slider:       NewSlider(),
	}
}

// RenderPage writes the stylist page.
func RenderPage(w io.Writer, data PageData) error {
	if data.Slider == nil {
		data.Slider = NewSlider()
	}
	if data.Snapshot.Session == nil {
		data.Snapshot.Session = &models.Session{Mode: models.ModeConsultant}
	}
	return pageTemplate.Execute(w, data)
}

// imageSrc lets stored image data URLs through html/template's URL filter.
func imageSrc(dataURL string) template.URL {
	if !strings.HasPrefix(dataURL, "data:image/") {
		return ""
	}
	return template.URL(dataURL)
}
