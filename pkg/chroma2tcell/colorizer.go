package chroma2tcell

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

var getStyle = styles.Get

var getFallbackStyle = func() *chroma.Style {
	return styles.Fallback
}

func Colorize(text, styleName string, lexer chroma.Lexer) (string, error) {
	iterator, err := lexer.Tokenise(nil, text)
	if err != nil {
		return "", err
	}

	style := getStyle(styleName)
	if style == nil {
		style = getFallbackStyle()
	}

	var sb strings.Builder
	for _, token := range iterator.Tokens() {
		color := style.Get(token.Type)
		if color.IsZero() {
			sb.WriteString(token.Value)
			continue
		}

		// Map Chroma color to tview [color] tag
		// simple approximation: use hex
		colorText := color.Colour.String()
		sb.WriteString("[" + colorText + "]")
		sb.WriteString(token.Value)
		sb.WriteString("[-]")
	}

	return sb.String(), nil
}

// ColorizeForFile picks a lexer from the file name and renders text
// with tview color tags. Unrecognized files pass through uncolored.
func ColorizeForFile(fileName, text string) (string, error) {
	lexer := matchLexer(fileName)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return Colorize(text, "dracula", lexer)
}

var matchLexer = lexers.Match
