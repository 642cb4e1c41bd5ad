package cure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) []Token {
	t.Helper()
	l := NewLexer([]byte(src))
	var toks []Token
	for {
		tok, err := l.Next()
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.Kind == TokEOF {
			return toks
		}
	}
}

func TestLexer_Next(t *testing.T) {
	for _, test := range []struct {
		Name     string
		Src      string
		Expected []TokKind
	}{
		{
			Name:     "empty",
			Src:      "",
			Expected: []TokKind{TokEOF},
		},
		{
			Name:     "identifier and keyword",
			Src:      "let mut x",
			Expected: []TokKind{TokKeyword, TokKeyword, TokId, TokEOF},
		},
		{
			Name:     "int and float literals",
			Src:      "42 3.14",
			Expected: []TokKind{TokInt, TokFloat, TokEOF},
		},
		{
			Name:     "string literal",
			Src:      `"hello"`,
			Expected: []TokKind{TokString, TokEOF},
		},
		{
			Name:     "two-character operators",
			Src:      "== != <= >= && || ->",
			Expected: []TokKind{TokOp, TokOp, TokOp, TokOp, TokOp, TokOp, TokArrow, TokEOF},
		},
		{
			Name:     "punctuation",
			Src:      "(){}[],:.",
			Expected: []TokKind{TokLParen, TokRParen, TokLBrace, TokRBrace, TokLBracket, TokRBracket, TokComma, TokColon, TokDot, TokEOF},
		},
		{
			Name:     "line comment kept as a token",
			Src:      "// hi",
			Expected: []TokKind{TokComment, TokEOF},
		},
	} {
		t.Run(test.Name, func(t *testing.T) {
			toks := scanAll(t, test.Src)
			kinds := make([]TokKind, len(toks))
			for i, tok := range toks {
				kinds[i] = tok.Kind
			}
			assert.Equal(t, test.Expected, kinds)
		})
	}
}

func TestLexer_StringEscapes(t *testing.T) {
	toks := scanAll(t, `"a\nb\tc\"d\\e"`)
	require.Len(t, toks, 2)
	assert.Equal(t, "a\nb\tc\"d\\e", toks[0].Text)
}

func TestLexer_UnterminatedString(t *testing.T) {
	l := NewLexer([]byte(`"oops`))
	_, err := l.Next()
	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
}

func TestLexer_UnexpectedCharacter(t *testing.T) {
	l := NewLexer([]byte("@"))
	_, err := l.Next()
	require.Error(t, err)
}

func TestLexer_TracksLineAndColumn(t *testing.T) {
	l := NewLexer([]byte("a\nbb"))
	first, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, first.Pos.Line)

	second, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, 2, second.Pos.Line)
	assert.Equal(t, 1, second.Pos.Column)
}
