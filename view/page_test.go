package view

import (
	"bytes"
	"testing"

	"github.com/raushankrgupta/eyewear-stylist/models"
	"github.com/raushankrgupta/eyewear-stylist/stylist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPage(t *testing.T) {
	snap := stylist.Snapshot{
		Session: &models.Session{
			ID:             "s",
			Mode:           models.ModeTryOn,
			SubjectImage:   "data:image/jpeg;base64,AAAA",
			GeneratedImage: "data:image/png;base64,BBBB",
			Messages: []models.ChatMessage{
				{ID: "init", Role: models.RoleModel, Text: "<b>سلام</b>", Links: []models.Link{{Title: "Shop", URL: "https://shop.example/p"}}},
			},
		},
		State: stylist.StateResultDisplayed,
		Busy:  true,
	}

	var buf bytes.Buffer
	require.NoError(t, RenderPage(&buf, NewPageData("tok-123", snap)))
	html := buf.String()

	assert.Contains(t, html, `data-token="tok-123"`)
	assert.Contains(t, html, `src="data:image/png;base64,BBBB"`)
	assert.Contains(t, html, `src="data:image/jpeg;base64,AAAA"`)
	assert.Contains(t, html, "clip-path: inset(0 50% 0 0)")
	assert.Contains(t, html, `data-upload="reference"`)
	assert.Contains(t, html, `href="https://shop.example/p"`)
	assert.Contains(t, html, "&lt;b&gt;سلام&lt;/b&gt;")
	assert.Contains(t, html, `<div class="busy" id="busy">`)
	assert.Contains(t, html, `id="generate" disabled`)
}

func TestRenderPageIdleHidesBusyIndicator(t *testing.T) {
	snap := stylist.Snapshot{Session: &models.Session{ID: "s", Mode: models.ModeConsultant}}

	var buf bytes.Buffer
	require.NoError(t, RenderPage(&buf, NewPageData("tok", snap)))
	html := buf.String()

	assert.Contains(t, html, `<div class="busy" id="busy" hidden>`)
	assert.NotContains(t, html, `id="generate" disabled`)
	// the script blocks a second action until the first one settles
	assert.Contains(t, html, "if (busy) return false;")
	assert.Contains(t, html, "setBusy(true);")
}

func TestRenderPageEmptySession(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderPage(&buf, PageData{}))
	assert.NotContains(t, buf.String(), `id="compare"`)
	assert.NotContains(t, buf.String(), `data-upload="reference"`)
}

func TestImageSrcRejectsNonImages(t *testing.T) {
	assert.Equal(t, "", string(imageSrc("javascript:alert(1)")))
	assert.Equal(t, "data:image/png;base64,AA", string(imageSrc("data:image/png;base64,AA")))
}
