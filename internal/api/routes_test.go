package api

import (
	"testing"

	"github.com/matryer/is"
	"github.com/paulmach/orb"
)

func TestParseBBox(t *testing.T) {
	is := is.New(t)

	b, err := parseBBox("")
	is.NoErr(err)
	is.Equal(b, world)

	b, err = parseBBox(" -125, 30,-110 ,45")
	is.NoErr(err)
	is.Equal(b, orb.Bound{Min: orb.Point{-125, 30}, Max: orb.Point{-110, 45}})

	for _, bad := range []string{"1,2,3", "a,b,c,d", "10,0,0,10", "0,10,10,0"} {
		_, err := parseBBox(bad)
		is.True(err != nil) // malformed bbox
	}
}
