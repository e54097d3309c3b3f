package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Go Fundamentals", "go-fundamentals"},
		{"  Advanced   SQL!  ", "advanced-sql"},
		{"C++ for Gophers (2026)", "c-for-gophers-2026"},
		{"already-a-slug", "already-a-slug"},
		{"ALL CAPS", "all-caps"},
		{"---", ""},
	}
	for _, c := range cases {
		require.Equal(t, c.want, Slugify(c.in), "title %q", c.in)
	}
}
