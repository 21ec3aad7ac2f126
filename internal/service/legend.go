package service

import (
	"strings"
	"sync"
)

func bound(v float64) *float64 { return &v }

// DepthBuckets is the legend table in ascending order.
var DepthBuckets = []DepthBucket{
	{Lower: -10, Upper: bound(10), Color: "pink", Hex: "#FFC0CB"},
	{Lower: 10, Upper: bound(30), Color: "lightgreen", Hex: "#90EE90"},
	{Lower: 30, Upper: bound(50), Color: "yellow", Hex: "#FFFF00"},
	{Lower: 50, Upper: bound(70), Color: "gold", Hex: "#FFD700"},
	{Lower: 70, Upper: bound(90), Color: "orange", Hex: "#FFA500"},
	{Lower: 90, Color: "red", Hex: "#FF0000"},
}

// Label renders the bucket range, "lower–upper" or "lower+" when open-ended.
func (b DepthBucket) Label() string {
	if b.Upper == nil {
		return formatNumber(b.Lower) + "+"
	}
	return formatNumber(b.Lower) + "–" + formatNumber(*b.Upper)
}

// LegendEntry is a bucket with its rendered label.
type LegendEntry struct {
	DepthBucket
	Label string `json:"label" doc:"Range label" example:"-10–10"`
}

// Legend returns the buckets with labels, in ascending order.
func Legend() []LegendEntry {
	entries := make([]LegendEntry, len(DepthBuckets))
	for i, b := range DepthBuckets {
		entries[i] = LegendEntry{DepthBucket: b, Label: b.Label()}
	}
	return entries
}

var legendHTML = sync.OnceValue(func() string {
	var b strings.Builder
	b.WriteString(`<div class="info legend">`)
	for _, bucket := range DepthBuckets {
		b.WriteString(`<i style="background: `)
		b.WriteString(bucket.Hex)
		b.WriteString(`"></i> `)
		b.WriteString(formatNumber(bucket.Lower))
		if bucket.Upper != nil {
			b.WriteString("&ndash;")
			b.WriteString(formatNumber(*bucket.Upper))
			b.WriteString("<br>")
		} else {
			b.WriteString("+")
		}
	}
	b.WriteString(`</div>`)
	return b.String()
})

// LegendHTML returns the static legend fragment. It is built once.
func LegendHTML() string {
	return legendHTML()
}
