package preview

import (
	"bytes"
	"fmt"
	"html"
	"path/filepath"
	"strings"

	"github.com/beacondesk/beacon-deck/pkg/deck"
)

// Render turns a slide sequence into a self-contained navigable HTML
// document. A synthetic title slide derived from the filename is prepended
// ahead of the content slides. Every user-supplied string is HTML-escaped
// before embedding, since PDF content is untrusted.
func Render(slides []deck.Slide, filename string) string {
	title := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if title == "" || title == "." {
		title = "Presentation"
	}

	all := make([]deck.Slide, 0, len(slides)+1)
	all = append(all, deck.Slide{Title: title, Type: deck.TypeTitle})
	all = append(all, slides...)

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&buf, "<title>%s</title>\n", html.EscapeString(title))
	buf.WriteString("<style>\n")
	buf.WriteString(styles)
	buf.WriteString("</style>\n</head>\n<body>\n")

	for i, slide := range all {
		renderSlide(&buf, slide, i)
	}

	buf.WriteString("<div class=\"nav\">\n")
	buf.WriteString("<button id=\"prev\" onclick=\"step(-1)\">&#8592; Prev</button>\n")
	fmt.Fprintf(&buf, "<span id=\"counter\">1 / %d</span>\n", len(all))
	buf.WriteString("<button id=\"next\" onclick=\"step(1)\">Next &#8594;</button>\n")
	buf.WriteString("</div>\n<script>\n")
	buf.WriteString(script)
	buf.WriteString("</script>\n</body>\n</html>\n")

	return buf.String()
}

// renderSlide emits one slide div; only the first starts visible
func renderSlide(buf *bytes.Buffer, slide deck.Slide, index int) {
	visible := ""
	if index == 0 {
		visible = " visible"
	}
	fmt.Fprintf(buf, "<div class=\"slide slide-%s%s\" data-index=\"%d\">\n",
		html.EscapeString(string(slide.Type)), visible, index)

	switch slide.Type {
	case deck.TypeQuote:
		fmt.Fprintf(buf, "<blockquote>&ldquo;%s&rdquo;</blockquote>\n", html.EscapeString(slide.Quote))
		if slide.Attribution != "" {
			fmt.Fprintf(buf, "<p class=\"attribution\">&mdash; %s</p>\n", html.EscapeString(slide.Attribution))
		}
	case deck.TypeTwoColumn:
		writeTitle(buf, slide)
		buf.WriteString("<div class=\"columns\">\n<ul class=\"col\">\n")
		writeBullets(buf, slide.LeftContent)
		buf.WriteString("</ul>\n<ul class=\"col\">\n")
		writeBullets(buf, slide.RightContent)
		buf.WriteString("</ul>\n</div>\n")
	case deck.TypeSectionDivider, deck.TypeTitle:
		writeTitle(buf, slide)
	default:
		writeTitle(buf, slide)
		if len(slide.Content) > 0 {
			buf.WriteString("<ul>\n")
			writeBullets(buf, slide.Content)
			buf.WriteString("</ul>\n")
		}
	}

	for _, img := range slide.Images {
		alt := img.Description
		if alt == "" {
			alt = fmt.Sprintf("image from page %d", img.Page)
		}
		// Data URIs are rebuilt rather than echoed to keep arbitrary
		// payloads out of the src attribute.
		if strings.HasPrefix(img.Data, "data:image/") {
			fmt.Fprintf(buf, "<img src=\"%s\" alt=\"%s\">\n",
				html.EscapeString(img.Data), html.EscapeString(alt))
		}
	}

	buf.WriteString("</div>\n")
}

func writeTitle(buf *bytes.Buffer, slide deck.Slide) {
	if slide.Title == "" {
		return
	}
	class := ""
	if slide.Highlight {
		class = " class=\"highlight\""
	}
	fmt.Fprintf(buf, "<h1%s>%s</h1>\n", class, html.EscapeString(slide.Title))
}

func writeBullets(buf *bytes.Buffer, lines []string) {
	for _, line := range lines {
		fmt.Fprintf(buf, "<li>%s</li>\n", html.EscapeString(line))
	}
}

const styles = `body { font-family: -apple-system, 'Segoe UI', Arial, sans-serif; margin: 0; background: #1a1a2e; color: #eee; }
.slide { display: none; min-height: 85vh; padding: 8vh 10vw; box-sizing: border-box; }
.slide.visible { display: block; }
.slide h1 { font-size: 2.2em; color: #fff; }
.slide h1.highlight { color: #ffd166; }
.slide-title h1, .slide-section-divider h1 { font-size: 3em; text-align: center; margin-top: 25vh; }
.slide ul { font-size: 1.3em; line-height: 1.8; }
.slide blockquote { font-size: 2em; font-style: italic; text-align: center; margin-top: 20vh; }
.slide .attribution { text-align: center; font-size: 1.2em; color: #aaa; }
.slide-highlight { background: #16213e; }
.columns { display: flex; gap: 4vw; }
.columns .col { flex: 1; }
.slide img { max-width: 60%; max-height: 40vh; display: block; margin: 1em auto; }
.nav { position: fixed; bottom: 16px; width: 100%; text-align: center; }
.nav button { background: #0f3460; color: #fff; border: 0; padding: 10px 18px; margin: 0 8px; border-radius: 6px; cursor: pointer; }
.nav #counter { color: #aaa; }
`

const script = `var current = 0;
var slides = document.querySelectorAll('.slide');
function show(i) {
  if (i < 0 || i >= slides.length) return;
  slides[current].classList.remove('visible');
  current = i;
  slides[current].classList.add('visible');
  document.getElementById('counter').textContent = (current + 1) + ' / ' + slides.length;
}
function step(d) { show(current + d); }
document.addEventListener('keydown', function (e) {
  if (e.key === 'ArrowRight' || e.key === ' ') step(1);
  if (e.key === 'ArrowLeft') step(-1);
});
`
