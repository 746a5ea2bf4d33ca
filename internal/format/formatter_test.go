package format

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFormatter() *Formatter {
	return New(Options{
		PublicURL:   "https://chat.example.com",
		MaxNewlines: 2,
		ImageLimit:  2,
		Stickers: map[string]string{
			":ok:": "https://cdn.example.com/ok.png",
		},
	})
}

func TestFormatEscapesHTML(t *testing.T) {
	f := newTestFormatter()

	out := f.Format(`<script>alert("hi")</script>`, false, false)
	assert.Equal(t, `&lt;script&gt;alert(&#34;hi&#34;)&lt;/script&gt;`, out)
	assert.NotContains(t, out, "<script>")
}

func TestFormatNewlines(t *testing.T) {
	f := newTestFormatter()

	t.Run("untrusted capped", func(t *testing.T) {
		out := f.Format("a\nb\nc\nd", false, false)
		assert.Equal(t, "a<br>b<br>c\nd", out)
	})

	t.Run("trusted unlimited", func(t *testing.T) {
		out := f.Format("a\nb\nc\nd", false, true)
		assert.Equal(t, "a<br>b<br>c<br>d", out)
	})

	t.Run("remove mode flattens", func(t *testing.T) {
		out := f.Format("a\nb", true, false)
		assert.Equal(t, "a b", out)
	})
}

func TestFormatButtons(t *testing.T) {
	f := newTestFormatter()

	t.Run("command button gets hint", func(t *testing.T) {
		out := f.Format("[[Click me//help topic]]", false, false)
		assert.Contains(t, out, `class="chat-button"`)
		assert.Contains(t, out, `data-action="/help topic"`)
		assert.Contains(t, out, `data-trusted="false"`)
		assert.Contains(t, out, `<span class="chat-button-info">(/help)</span>`)
	})

	t.Run("trusted button skips hint", func(t *testing.T) {
		out := f.Format("[[Click me//help topic]]", false, true)
		assert.Contains(t, out, `data-trusted="true"`)
		assert.NotContains(t, out, "chat-button-info")
	})

	t.Run("title cannot smuggle markup", func(t *testing.T) {
		out := f.Format(`[[<b>x</b>/action]]`, false, false)
		assert.NotContains(t, out, "<b>")
	})

	t.Run("remove mode strips button", func(t *testing.T) {
		out := f.Format("before [[x/y]] after", true, false)
		assert.Equal(t, "before  after", out)
	})
}

func TestFormatImages(t *testing.T) {
	f := newTestFormatter()
	u1 := "https://chat.example.com/uploads/one.png"
	u2 := "https://chat.example.com/uploads/two.jpg"
	u3 := "https://chat.example.com/uploads/three.gif"

	t.Run("untrusted limit caps embeds", func(t *testing.T) {
		out := f.Format(u1+" "+u2+" "+u3, false, false)
		require.Equal(t, 2, strings.Count(out, `class="chat-image"`))
		// The third URL stays plain inside the image pass and is then
		// linkified by the later link pass.
		assert.Contains(t, out, `<a class="chat-link" target="_blank" rel="nofollow" href="`+u3+`"`)
	})

	t.Run("trusted is unlimited", func(t *testing.T) {
		out := f.Format(u1+" "+u2+" "+u3, false, true)
		assert.Equal(t, 3, strings.Count(out, `class="chat-image"`))
	})

	t.Run("duplicates count per occurrence", func(t *testing.T) {
		out := f.Format(u1+" "+u1+" "+u2, false, false)
		assert.Equal(t, 2, strings.Count(out, `class="chat-image"`))
		assert.NotContains(t, out, `<img src="`+u2+`"`)
	})

	t.Run("foreign origins never embed", func(t *testing.T) {
		out := f.Format("https://evil.example.com/uploads/x.png", false, false)
		assert.NotContains(t, out, "chat-image")
	})

	t.Run("remove mode strips image urls", func(t *testing.T) {
		out := f.Format("pic "+u1, true, false)
		assert.NotContains(t, out, u1)
	})
}

func TestFormatStickers(t *testing.T) {
	f := newTestFormatter()

	out := f.Format("fine :ok:", false, false)
	assert.Equal(t, `fine <img class="chat-sticker" title=":ok:" alt=":ok:" src="https://cdn.example.com/ok.png">`, out)

	out = f.Format("fine :ok:", true, false)
	assert.Equal(t, "fine ", out)
}

func TestFormatExternalStickers(t *testing.T) {
	f := newTestFormatter()

	out := f.Format("look https://api.risibank.fr/cache/stickers/d12/34-name.png", false, false)
	assert.Contains(t, out, `class="chat-sticker-ext"`)
	assert.Contains(t, out, `href="//risibank.fr/stickers/34-0"`)
	assert.NotContains(t, out, "chat-link")
}

func TestFormatLinks(t *testing.T) {
	f := newTestFormatter()

	t.Run("bare url becomes anchor", func(t *testing.T) {
		out := f.Format("see https://example.org/x", false, false)
		assert.Equal(t, `see <a class="chat-link" target="_blank" rel="nofollow" href="https://example.org/x">https://example.org/x</a>`, out)
	})

	t.Run("url at start of message", func(t *testing.T) {
		out := f.Format("https://example.org/x", false, false)
		assert.Contains(t, out, `class="chat-link"`)
	})

	t.Run("remove mode drops the url", func(t *testing.T) {
		out := f.Format("see https://example.org/x", true, false)
		assert.Equal(t, "see ", out)
	})
}

func TestFormatOrderIsStable(t *testing.T) {
	f := newTestFormatter()

	// A message exercising several transforms at once must stay fully
	// escaped: no raw < or > may survive outside generated tags.
	raw := "<hi>\n[[go//help]] :ok: https://example.org"
	out := f.Format(raw, false, false)
	assert.NotContains(t, out, "<hi>")
	assert.Contains(t, out, "&lt;hi&gt;")
	assert.Contains(t, out, "<br>")
	assert.Contains(t, out, "chat-button")
	assert.Contains(t, out, "chat-sticker")
	assert.Contains(t, out, "chat-link")
}
