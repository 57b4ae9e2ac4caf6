package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitSnippetsEmpty(t *testing.T) {
	require.Nil(t, SplitSnippets("", 500))
	require.Nil(t, SplitSnippets("   \n\t ", 500))
	require.Nil(t, SplitSnippets("some text", 0))
	require.Nil(t, SplitSnippets("some text", -5))
}

func TestSplitSnippetsShortTextSingleChunk(t *testing.T) {
	text := "A short note. With two sentences!"
	chunks := SplitSnippets(text, 500)
	require.Equal(t, []string{text}, chunks)
}

func TestSplitSnippetsGreedyAccumulation(t *testing.T) {
	// three sentences of ~60 chars each against a 130-char budget:
	// the first two share a chunk, the third starts a new one
	s1 := strings.Repeat("a", 59) // +"." = 60
	s2 := strings.Repeat("b", 59)
	s3 := strings.Repeat("c", 59)
	text := s1 + ". " + s2 + ". " + s3 + "."
	chunks := SplitSnippets(text, 130)
	require.Len(t, chunks, 2)
	require.Equal(t, s1+". "+s2+".", chunks[0])
	require.Equal(t, s3+".", chunks[1])
}

func TestSplitSnippetsChunkBound(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString("This sentence pads the text with a reasonable length clause. ")
	}
	chunks := SplitSnippets(sb.String(), 500)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		require.LessOrEqual(t, len([]rune(chunk)), 500+len(TruncationMarker))
	}
}

func TestSplitSnippetsOversizedSentence(t *testing.T) {
	long := strings.Repeat("x", 700)
	text := "Intro. " + long + ". Outro."
	chunks := SplitSnippets(text, 500)
	require.Len(t, chunks, 3)
	require.Equal(t, "Intro.", chunks[0])
	require.True(t, strings.HasSuffix(chunks[1], TruncationMarker))
	require.Equal(t, 500+len([]rune(TruncationMarker)), len([]rune(chunks[1])))
	require.Equal(t, "Outro.", chunks[2])
}

func TestSplitSnippetsMixedTerminators(t *testing.T) {
	text := "Really?! Yes. Absolutely!"
	chunks := SplitSnippets(text, 11)
	require.Equal(t, []string{"Really.", "Yes.", "Absolutely."}, chunks)
}

func TestSplitSnippetsDeterministic(t *testing.T) {
	text := strings.Repeat("One more sentence for the pile. ", 50)
	first := SplitSnippets(text, 500)
	second := SplitSnippets(text, 500)
	require.Equal(t, first, second)
}

func TestSplitSnippetsRuneAware(t *testing.T) {
	sentence := strings.Repeat("世", 30) // multibyte runes
	text := sentence + ". " + sentence + "."
	chunks := SplitSnippets(text, 40)
	require.Len(t, chunks, 2)
	for _, chunk := range chunks {
		require.LessOrEqual(t, len([]rune(chunk)), 40)
	}
}
