package cypher

import "testing"

func collectKinds(src string) []TokenKind {
	l := NewLexer(src)
	var kinds []TokenKind
	for {
		tok := l.Next()
		if tok.Kind == TokEOF {
			break
		}
		kinds = append(kinds, tok.Kind)
	}
	return kinds
}

func TestLexerKeywordsAreCaseInsensitive(t *testing.T) {
	l := NewLexer("match Match MATCH")
	for i := 0; i < 3; i++ {
		tok := l.Next()
		if tok.Kind != TokKeyword || tok.Text != "MATCH" {
			t.Fatalf("token %d: got %+v, want keyword MATCH", i, tok)
		}
	}
}

func TestLexerNumbers(t *testing.T) {
	l := NewLexer("42 3.14 2.5e10 7")
	want := []TokenKind{TokInt, TokFloat, TokFloat, TokInt}
	for i, w := range want {
		tok := l.Next()
		if tok.Kind != w {
			t.Fatalf("token %d: got %v, want %v (%q)", i, tok.Kind, w, tok.Text)
		}
	}
}

func TestLexerStringEscapes(t *testing.T) {
	l := NewLexer(`"hello\nworld" 'it\'s'`)
	tok1 := l.Next()
	if tok1.Kind != TokString || tok1.Text != "hello\nworld" {
		t.Fatalf("got %+v", tok1)
	}
	tok2 := l.Next()
	if tok2.Kind != TokString || tok2.Text != "it's" {
		t.Fatalf("got %+v", tok2)
	}
}

func TestLexerUnterminatedStringIsErrorToken(t *testing.T) {
	l := NewLexer(`"unterminated`)
	tok := l.Next()
	if tok.Kind != TokError {
		t.Fatalf("expected error token, got %+v", tok)
	}
}

func TestLexerComments(t *testing.T) {
	kinds := collectKinds("MATCH // a line comment\n RETURN /* block\ncomment */ n")
	want := []TokenKind{TokKeyword, TokKeyword, TokIdent}
	if len(kinds) != len(want) {
		t.Fatalf("got %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("token %d: got %v want %v", i, kinds[i], want[i])
		}
	}
}

func TestLexerArrowsAndComparisons(t *testing.T) {
	l := NewLexer("-> <- <-> -- <> != <= >=")
	want := []string{"->", "<-", "<->", "--", "<>", "!=", "<=", ">="}
	for i, w := range want {
		tok := l.Next()
		if tok.Text != w {
			t.Fatalf("token %d: got %q want %q", i, tok.Text, w)
		}
	}
}

func TestLexerUnrecognizedCharacterBecomesErrorToken(t *testing.T) {
	l := NewLexer("MATCH (n) RETURN n §")
	var last Token
	for {
		tok := l.Next()
		if tok.Kind == TokEOF {
			break
		}
		last = tok
	}
	if last.Kind != TokError {
		t.Fatalf("expected trailing error token, got %+v", last)
	}
}
