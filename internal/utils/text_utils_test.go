package utils

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestExtractURLs(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		s   string
		out []string
	}{
		{
			s:   "visit https://example.com/page.",
			out: []string{"https://example.com/page"},
		},
		{
			s:   "go to www.test.org!",
			out: []string{"www.test.org"},
		},
		{
			s:   "(https://a.io/x), then http://b.co/y;",
			out: []string{"https://a.io/x", "http://b.co/y"},
		},
		{
			s:   "dotted prose like example.com is not a link",
			out: nil,
		},
	}

	for _, fix := range fixtures {
		assert.Equal(fix.out, ExtractURLs(fix.s), fix.s)
	}
}

func TestContentFlags(t *testing.T) {
	assert := assert.New(t)

	assert.True(HasURLs("see https://example.com"))
	assert.False(HasURLs("nothing to click on"))

	assert.True(HasHashtags("launch day #golang"))
	assert.False(HasHashtags("no tags in sight"))

	assert.True(HasMentions("thanks @reviewer"))
	assert.False(HasMentions("thanks everyone"))

	assert.Equal(3, CountMentions("@a @b and @c too"))
	assert.Equal(0, CountMentions("quiet thread"))
}

func TestContainsEmoji(t *testing.T) {
	assert := assert.New(t)

	assert.True(ContainsEmoji("this is 🔥 content"))
	assert.True(ContainsEmoji("five stars ⭐"))
	assert.False(ContainsEmoji("plain ascii text"))
	assert.False(ContainsEmoji("accented café"))
}

func TestLetterCounts(t *testing.T) {
	assert := assert.New(t)

	upper, letters := LetterCounts("Hello World!")
	assert.Equal(2, upper)
	assert.Equal(10, letters)

	upper, letters = LetterCounts("123 !?")
	assert.Equal(0, upper)
	assert.Equal(0, letters)
}

func TestWords(t *testing.T) {
	assert := assert.New(t)

	assert.Equal([]string{"a", "b", "c"}, Words("  a b \t c "))
	assert.Empty(Words(""))
	assert.Empty(Words("   "))
}

func TestSnippet(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("short", Snippet("short", 40))
	assert.Equal("hello...", Snippet("hello world", 5))
	assert.Equal("untouched", Snippet("untouched", 0))

	// Cutting inside a multi-byte rune backs up to the rune boundary.
	got := Snippet("héllo", 2)
	assert.Equal("h...", got)
	assert.True(utf8.ValidString(got))
}

func TestSanitizeUTF8(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("clean text", SanitizeUTF8("clean text"))
	assert.Equal("abcdef", SanitizeUTF8("abc\xffdef"))

	// A literal replacement character is valid and survives; raw invalid
	// bytes around it do not.
	assert.Equal("ab�c", SanitizeUTF8("a\xffb�c"))
}
