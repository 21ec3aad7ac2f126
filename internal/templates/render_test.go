package templates

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matryer/is"
)

type baseLayer struct{ Name string }

type overlay struct {
	Name      string
	Visible   bool
	Populated bool
}

func TestRenderLayerControl(t *testing.T) {
	is := is.New(t)

	r, err := New()
	is.NoErr(err)

	html, err := r.Render("layer-control", map[string]any{
		"ActiveBase": "Street",
		"BaseLayers": []baseLayer{{"Topography"}, {"Street"}},
		"Overlays": []overlay{
			{Name: "Earthquakes", Visible: true, Populated: true},
			{Name: "Tectonic_Plates"},
		},
	})
	is.NoErr(err)
	is.True(strings.Contains(html, `value="Street" checked`))
	is.True(!strings.Contains(html, `value="Topography" checked`))
	is.Equal(strings.Count(html, `type="checkbox" checked`), 1)
	is.Equal(strings.Count(html, "(loading)"), 1)
}

func TestRenderLegendIsNotEscaped(t *testing.T) {
	is := is.New(t)

	r, err := New()
	is.NoErr(err)

	html, err := r.Render("legend", `<div class="info legend">x</div>`)
	is.NoErr(err)
	is.Equal(strings.TrimSpace(html), `<div class="info legend">x</div>`)
}

func TestRenderUnknownTemplate(t *testing.T) {
	is := is.New(t)

	r, err := New()
	is.NoErr(err)

	_, err = r.Render("nope", nil)
	is.True(err != nil)
}

func TestReloadFromDir(t *testing.T) {
	is := is.New(t)

	dir := t.TempDir()
	write := func(name, body string) {
		path := filepath.Join(dir, name)
		is.NoErr(os.MkdirAll(filepath.Dir(path), 0o755))
		is.NoErr(os.WriteFile(path, []byte(body), 0o644))
	}
	write("fragments/legend.html", `{{define "legend"}}v1{{end}}`)
	write("pages/viewer.html", `{{define "viewer"}}page{{end}}`)

	r, err := NewFromDir(dir)
	is.NoErr(err)
	html, err := r.Render("legend", nil)
	is.NoErr(err)
	is.Equal(html, "v1")

	write("fragments/legend.html", `{{define "legend"}}v2{{end}}`)
	is.NoErr(r.Reload(dir))
	html, err = r.Render("legend", nil)
	is.NoErr(err)
	is.Equal(html, "v2")

	write("fragments/legend.html", `{{define "legend"}}{{end`)
	is.True(r.Reload(dir) != nil)
	html, err = r.Render("legend", nil)
	is.NoErr(err)
	is.Equal(html, "v2") // a failed reload keeps the previous templates
}
