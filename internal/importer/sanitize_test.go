package importer

import "testing"

func TestSanitizeHTML(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "Hello", "Hello"},
		{"drops script with content", `<p>Hi <script>alert(1)</script><b>there</b></p>`, `<p>Hi <b>there</b></p>`},
		{"unwraps unknown tags", `<div onclick="x" class="c"><font color="red">red</font></div>`, `<div class="c">red</div>`},
		{"unwraps nested unknown tags", `<section><article><em>deep</em></article></section>`, `<em>deep</em>`},
		{"keeps safe links", `<a href="https://example.com" title="t">x</a>`, `<a href="https://example.com" title="t">x</a>`},
		{"strips script urls", `<a href="javascript:alert(1)" target="_blank">x</a>`, `<a>x</a>`},
		{"keeps mail links", `<a href="mailto:info@example.com">mail</a>`, `<a href="mailto:info@example.com">mail</a>`},
		{"keeps relative links", `<a href="/program">program</a>`, `<a href="/program">program</a>`},
		{"line breaks", `line<br>next`, `line<br/>next`},
		{"escaped text", `a &amp; b`, `a &amp; b`},
		{"drops empty unknown", `<img src="x.png">text`, `text`},
		{"drops iframes", `<iframe src="https://evil.example"></iframe><p>ok</p>`, `<p>ok</p>`},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeHTML(tc.in); got != tc.want {
				t.Fatalf("SanitizeHTML(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
