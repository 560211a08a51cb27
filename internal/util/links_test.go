package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestParseLinks(t *testing.T) {
	doc := `<html><body>
		<a href="/resources/dis-2023-dept.zip">2023</a>
		<a href="https://static.data.gouv.fr/resources/dis-2024-dept.ZIP">2024</a>
		<a href="/about">about</a>
		<div><a href="nested/dis-2022-dept.zip">2022</a></div>
		<a>no href</a>
	</body></html>`
	root, err := html.Parse(strings.NewReader(doc))
	require.NoError(t, err)

	links := ParseLinks(root, ".zip")
	assert.Equal(t, []string{
		"/resources/dis-2023-dept.zip",
		"https://static.data.gouv.fr/resources/dis-2024-dept.ZIP",
		"nested/dis-2022-dept.zip",
	}, links)
}

func TestParseLinksNoMatches(t *testing.T) {
	root, err := html.Parse(strings.NewReader(`<html><body><a href="/x.csv">x</a></body></html>`))
	require.NoError(t, err)
	assert.Empty(t, ParseLinks(root, ".zip"))
}
