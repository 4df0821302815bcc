package alignment

import (
	"strings"
	"testing"
)

// benchText builds n lines of prose-like text.
func benchText(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteString("the quick brown fox jumps over the lazy dog ")
		sb.WriteByte(byte('a' + i%26))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func BenchmarkAlign_AnchorInFile(b *testing.B) {
	text := benchText(200)
	anchor := text[4000:4120]
	sw := NewDefault()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := sw.Align(anchor, text); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkBuildMatrices_100x1000(b *testing.B) {
	a := []rune(benchText(3)[:100])
	t := []rune(benchText(25)[:1000])
	scorer := DefaultScorer()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		BuildMatrices(a, t, scorer)
	}
}
