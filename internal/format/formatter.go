package format

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"
)

// Options configures a Formatter. Zero limits fall back to defaults.
type Options struct {
	// PublicURL is the origin whose /uploads/ paths may be embedded as
	// images. Anything else stays a plain link.
	PublicURL string
	// MaxNewlines caps how many newlines become <br> in untrusted mode.
	MaxNewlines int
	// ImageLimit caps how many image URLs are embedded per message in
	// untrusted mode. Trusted mode is unlimited.
	ImageLimit int
	// Stickers maps literal chat codes to image URLs.
	Stickers map[string]string
}

const (
	defaultMaxNewlines = 20
	defaultImageLimit  = 2
)

// Formatter converts raw user text into safe HTML fragments. It is built
// explicitly and passed to call sites; there is no process-wide instance.
type Formatter struct {
	opts Options

	imageRe    *regexp.Regexp
	buttonRe   *regexp.Regexp
	extStickRe *regexp.Regexp
	linkRe     *regexp.Regexp
	stickers   []sticker // sorted by code for deterministic passes
}

type sticker struct {
	code string
	re   *regexp.Regexp
	url  string
}

var (
	buttonRe   = regexp.MustCompile(`\[\[(.+?)/(.+?)\]\]`)
	extStickRe = regexp.MustCompile(`https://api\.risibank\.fr/cache/stickers/d([0-9]+)/([0-9]+)-([A-Za-z0-9\[\]_-]+?)\.(jpg|jpeg|gif|png)`)
	linkRe     = regexp.MustCompile(`(^|[ ])((?:http|https)://[-\w?=&./;#~%+@,\[\]:!]+)`)
)

// New builds a formatter from options.
func New(opts Options) *Formatter {
	if opts.MaxNewlines <= 0 {
		opts.MaxNewlines = defaultMaxNewlines
	}
	if opts.ImageLimit <= 0 {
		opts.ImageLimit = defaultImageLimit
	}

	f := &Formatter{
		opts:       opts,
		buttonRe:   buttonRe,
		extStickRe: extStickRe,
		linkRe:     linkRe,
	}
	f.imageRe = regexp.MustCompile(regexp.QuoteMeta(opts.PublicURL) + `/uploads/([-/._a-zA-Z0-9]+)\.(png|jpg|jpeg|gif)`)

	codes := make([]string, 0, len(opts.Stickers))
	for code := range opts.Stickers {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		// Codes may contain regexp metacharacters; quote before compiling.
		f.stickers = append(f.stickers, sticker{
			code: code,
			re:   regexp.MustCompile(regexp.QuoteMeta(code)),
			url:  opts.Stickers[code],
		})
	}
	return f
}

// Format converts raw text to a safe HTML fragment. The transform order is
// fixed: every step after the initial escape operates on already-escaped
// text, so no step can reintroduce unescaped user content. remove yields a
// plain-text derivative with all rich elements stripped; trusted lifts the
// newline and image limits.
func (f *Formatter) Format(raw string, remove, trusted bool) string {
	out := f.escapeHTML(raw)
	out = f.replaceNewlines(out, remove, trusted)
	out = f.replaceButtons(out, remove, trusted)
	out = f.replaceImages(out, remove, trusted)
	out = f.replaceExternalStickers(out, remove)
	out = f.replaceStickers(out, remove)
	out = f.replaceLinks(out, remove)
	return out
}

func (f *Formatter) escapeHTML(s string) string {
	return html.EscapeString(s)
}

func (f *Formatter) replaceNewlines(s string, remove, trusted bool) string {
	if remove {
		return strings.ReplaceAll(s, "\n", " ")
	}
	if trusted {
		return strings.ReplaceAll(s, "\n", "<br>")
	}
	// Convert up to MaxNewlines, keep the remainder literal so a single
	// message cannot explode vertically.
	count := 0
	var b strings.Builder
	for _, r := range s {
		if r == '\n' {
			count++
			if count <= f.opts.MaxNewlines {
				b.WriteString("<br>")
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (f *Formatter) replaceButtons(s string, remove, trusted bool) string {
	return f.buttonRe.ReplaceAllStringFunc(s, func(match string) string {
		if remove {
			return ""
		}
		parts := f.buttonRe.FindStringSubmatch(match)
		if parts == nil {
			return match
		}
		return f.buttonHTML(parts[1], parts[2], trusted)
	})
}

// buttonHTML renders one [[title/action]] token. Title and action are
// nested user content and go back through the pipeline in remove mode, so
// they cannot smuggle markup into the attributes.
func (f *Formatter) buttonHTML(title, action string, trusted bool) string {
	title = f.Format(title, true, false)
	action = f.Format(action, true, false)
	if strings.HasPrefix(action, "/") && !trusted {
		// Show the command name so recipients can assess the action
		// before triggering it.
		name := strings.SplitN(action, " ", 2)[0]
		title += ` <span class="chat-button-info">(` + html.EscapeString(name) + `)</span>`
	}
	return fmt.Sprintf(`<button class="chat-button" title="%s" data-action="%s" data-trusted="%t">%s</button>`,
		action, action, trusted, title)
}

func (f *Formatter) replaceImages(s string, remove, trusted bool) string {
	matches := f.imageRe.FindAllString(s, -1)
	if matches == nil {
		return s
	}
	// Distinct URLs in first-appearance order.
	seen := make(map[string]struct{}, len(matches))
	urls := matches[:0]
	for _, u := range matches {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}

	count := 0
	for _, imageURL := range urls {
		re := regexp.MustCompile(regexp.QuoteMeta(imageURL))
		if remove {
			s = re.ReplaceAllString(s, "")
			continue
		}
		embed := fmt.Sprintf(`<a class="chat-image" href="%s" target="_blank"><img src="%s"></a>`, imageURL, imageURL)
		s = re.ReplaceAllStringFunc(s, func(u string) string {
			if !trusted && count >= f.opts.ImageLimit {
				return u
			}
			count++
			return embed
		})
	}
	return s
}

func (f *Formatter) replaceExternalStickers(s string, remove bool) string {
	if remove {
		return f.extStickRe.ReplaceAllString(s, "")
	}
	const repl = `<a class="chat-sticker-ext" href="//risibank.fr/stickers/${2}-0" target="_blank"><img src="//api.risibank.fr/cache/stickers/d${1}/${2}-${3}.${4}"></a>`
	return f.extStickRe.ReplaceAllString(s, repl)
}

func (f *Formatter) replaceStickers(s string, remove bool) string {
	for _, st := range f.stickers {
		if remove {
			s = st.re.ReplaceAllString(s, "")
			continue
		}
		embed := fmt.Sprintf(`<img class="chat-sticker" title="%s" alt="%s" src="%s">`, st.code, st.code, st.url)
		s = st.re.ReplaceAllLiteralString(s, embed)
	}
	return s
}

func (f *Formatter) replaceLinks(s string, remove bool) string {
	if remove {
		return f.linkRe.ReplaceAllString(s, "${1}")
	}
	return f.linkRe.ReplaceAllString(s, `${1}<a class="chat-link" target="_blank" rel="nofollow" href="${2}">${2}</a>`)
}
