package titlefetch

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// MaxTitleLength matches domain.MaxTitleLength; longer titles are cut to
// MaxTitleLength-3 characters plus "...".
const MaxTitleLength = 100

// ExtractTitle returns the first non-empty <title> of the document, or its
// og:title meta content when the title is missing. Text is entity-decoded
// and whitespace-collapsed but not truncated.
func ExtractTitle(r io.Reader) string {
	z := html.NewTokenizer(r)

	var (
		inTitle bool
		title   strings.Builder
		ogTitle string
	)

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// EOF or a malformed document; use whatever was found.
			if t := Clean(title.String()); t != "" {
				return t
			}
			return Clean(ogTitle)

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			switch string(name) {
			case "title":
				inTitle = tt == html.StartTagToken
			case "meta":
				if ogTitle == "" && hasAttr {
					ogTitle = metaOGTitle(z)
				}
			}

		case html.TextToken:
			if inTitle {
				title.Write(z.Text())
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "title":
				inTitle = false
				if t := Clean(title.String()); t != "" {
					return t
				}
				title.Reset()
			case "head":
				if ogTitle != "" {
					return Clean(ogTitle)
				}
			}
		}
	}
}

// metaOGTitle reads the content of a <meta property="og:title"> tag.
// Attribute order does not matter.
func metaOGTitle(z *html.Tokenizer) string {
	var isOG bool
	var content string
	for {
		key, val, more := z.TagAttr()
		switch string(key) {
		case "property", "name":
			if strings.EqualFold(string(val), "og:title") {
				isOG = true
			}
		case "content":
			content = string(val)
		}
		if !more {
			break
		}
	}
	if !isOG {
		return ""
	}
	return content
}

// Clean collapses runs of whitespace and trims the result.
func Clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate shortens titles longer than MaxTitleLength characters.
func Truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxTitleLength {
		return s
	}
	return string(runes[:MaxTitleLength-3]) + "..."
}

// Hostname returns the URL's host without port or a leading "www.".
func Hostname(u *url.URL) string {
	return strings.TrimPrefix(u.Hostname(), "www.")
}
