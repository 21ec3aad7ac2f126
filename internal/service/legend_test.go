package service

import (
	"strings"
	"testing"

	"github.com/matryer/is"
)

func TestLegendHasSixAscendingEntries(t *testing.T) {
	is := is.New(t)

	entries := Legend()
	is.Equal(len(entries), 6)
	for i := 1; i < len(entries); i++ {
		is.True(entries[i-1].Lower < entries[i].Lower)
		is.Equal(*entries[i-1].Upper, entries[i].Lower)
	}

	labels := make([]string, len(entries))
	for i, e := range entries {
		labels[i] = e.Label
	}
	is.Equal(labels, []string{"-10–10", "10–30", "30–50", "50–70", "70–90", "90+"})
}

func TestLegendColorsMatchMarkerColors(t *testing.T) {
	is := is.New(t)

	// Midpoints of each bucket share the marker color.
	for _, b := range DepthBuckets {
		mid := b.Lower + 10
		is.Equal(DepthColor(mid), b.Color)
	}
}

func TestLegendHTML(t *testing.T) {
	is := is.New(t)

	html := LegendHTML()
	is.True(strings.HasPrefix(html, `<div class="info legend">`))
	is.Equal(strings.Count(html, "<i style="), 6)
	is.True(strings.Contains(html, `<i style="background: #FFC0CB"></i> -10&ndash;10<br>`))
	is.True(strings.HasSuffix(html, `<i style="background: #FF0000"></i> 90+</div>`))
	is.Equal(LegendHTML(), html)
}
