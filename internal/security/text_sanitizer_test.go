package security

import "testing"

// TestTextSanitizer_Sanitize はHTMLタグ除去とエンティティ復元を検証する。
func TestTextSanitizer_Sanitize(t *testing.T) {
	s := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "プレーンテキストはそのまま",
			input: "just setting up my twttr",
			want:  "just setting up my twttr",
		},
		{
			name:  "空文字列",
			input: "",
			want:  "",
		},
		{
			name:  "scriptタグは除去",
			input: `hello <script>alert("x")</script>world`,
			want:  "hello world",
		},
		{
			name:  "通常のタグも除去",
			input: "<b>bold</b> and <a href=\"https://example.com\">link</a>",
			want:  "bold and link",
		},
		{
			name:  "HTMLエンティティは復元",
			input: "Tom &amp; Jerry &lt;3",
			want:  "Tom & Jerry <3",
		},
		{
			name:  "前後の空白は除去",
			input: "  padded  ",
			want:  "padded",
		},
		{
			name:  "日本語と絵文字は保持",
			input: "おはよう🌅 世界",
			want:  "おはよう🌅 世界",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Sanitize(tt.input)
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestTextSanitizer_Sanitize_Idempotent は同一入力への冪等性を検証する。
func TestTextSanitizer_Sanitize_Idempotent(t *testing.T) {
	s := NewTextSanitizer()

	input := `hello <b>world</b> &amp; more`
	first := s.Sanitize(input)
	second := s.Sanitize(first)

	if first != second {
		t.Errorf("Sanitize is not idempotent: first = %q, second = %q", first, second)
	}
}
