// Package utils provides small helpers shared by the flit command and its
// UI.
package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/mitchellh/go-homedir"
	"github.com/muesli/termenv"
)

var frontmatterFence = regexp.MustCompile(`(?m)^---\r?\n`)

// RemoveFrontmatter strips a leading YAML frontmatter block, fences
// included, from markdown content. Content without one passes through
// untouched.
func RemoveFrontmatter(content []byte) []byte {
	fences := frontmatterFence.FindAllIndex(content, 2)
	if len(fences) < 2 || fences[0][0] != 0 {
		return content
	}
	return bytes.TrimLeft(content[fences[1][1]:], "\r\n")
}

// IsMarkdownFile tells whether the filename carries a markdown extension.
func IsMarkdownFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".mdown", ".mkdn", ".mkd", ".markdown":
		return true
	}
	return false
}

// ExpandPath expands a leading tilde and any environment variables in
// path.
func ExpandPath(path string) string {
	s, err := homedir.Expand(path)
	if err != nil {
		return os.ExpandEnv(path)
	}
	return os.ExpandEnv(s)
}

// WrapCodeBlock fences source text as a markdown code block so glamour
// can highlight it, using the file extension as the language hint.
func WrapCodeBlock(s, ext string) string {
	return "```" + strings.TrimPrefix(ext, ".") + "\n" + s + "```"
}

// GlamourStyle resolves a style name or JSON path into a renderer option.
// For bare code files the style's code block margin is dropped so the
// source sits flush left.
func GlamourStyle(style string, isCode bool) glamour.TermRendererOption {
	if !isCode {
		if style == styles.AutoStyle {
			return glamour.WithAutoStyle()
		}
		return glamour.WithStylePath(style)
	}

	var styleConfig ansi.StyleConfig
	switch {
	case style == styles.AutoStyle && termenv.HasDarkBackground():
		styleConfig = styles.DarkStyleConfig
	case style == styles.AutoStyle:
		styleConfig = styles.LightStyleConfig
	default:
		sc, ok := styles.DefaultStyles[style]
		if !ok {
			return glamour.WithStylesFromJSONFile(style)
		}
		styleConfig = *sc
	}

	var margin uint
	styleConfig.CodeBlock.Margin = &margin
	return glamour.WithStyles(styleConfig)
}
