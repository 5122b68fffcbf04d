package main

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func kinds(words []classifiedWord) []matchKind {
	out := make([]matchKind, len(words))
	for i, w := range words {
		out[i] = w.kind
	}
	return out
}

func TestClassifyTranscriptionExact(t *testing.T) {
	got := classifyTranscription("The quick brown fox", "the quick brown fox")
	want := []matchKind{matchExact, matchExact, matchExact, matchExact}
	if !reflect.DeepEqual(kinds(got), want) {
		t.Errorf("kinds = %v, want %v", kinds(got), want)
	}
}

func TestClassifyTranscriptionIgnoresPunctuation(t *testing.T) {
	got := classifyTranscription("Good morning, everyone.", "good morning everyone")
	for _, w := range got {
		if w.kind != matchExact {
			t.Errorf("%q classified %v, want exact", w.text, w.kind)
		}
	}
}

func TestClassifyTranscriptionSoundAlike(t *testing.T) {
	got := classifyTranscription("put it over there", "put it over their")
	if len(got) != 4 {
		t.Fatalf("got %d words", len(got))
	}
	if got[3].kind != matchClose {
		t.Errorf("their vs there classified %v, want close", got[3].kind)
	}
}

func TestClassifyTranscriptionWrongWord(t *testing.T) {
	got := classifyTranscription("the quick brown fox", "the quick brown elephant")
	if got[3].kind != matchWrong {
		t.Errorf("elephant classified %v, want wrong", got[3].kind)
	}
}

func TestMissedWords(t *testing.T) {
	missed := missedWords("the quick brown fox jumps", "the brown fox")
	want := []string{"quick", "jumps"}
	if !reflect.DeepEqual(missed, want) {
		t.Errorf("missed = %v, want %v", missed, want)
	}
}

func TestMissedWordsCoveredBySoundAlike(t *testing.T) {
	missed := missedWords("over there now", "over their now")
	if len(missed) != 0 {
		t.Errorf("sound-alike should cover the script word, got %v", missed)
	}
}

func TestMissedWordsNone(t *testing.T) {
	if missed := missedWords("hello world", "world hello again"); missed != nil {
		t.Errorf("missed = %v, want none", missed)
	}
}

func TestLoadScriptInlineArgs(t *testing.T) {
	got, err := loadScript("", []string{"hello", " world "})
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello world" {
		t.Errorf("got %q", got)
	}
}

func TestLoadScriptCollapsesWhitespace(t *testing.T) {
	got, err := loadScript("", []string{"a\n\nb", "\tc"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "a b c" {
		t.Errorf("got %q", got)
	}
}

func TestClockFormat(t *testing.T) {
	cases := map[int]string{0: "0:00", 59: "0:59", 60: "1:00", 300: "5:00"}
	for in, want := range cases {
		if got := clock(in); got != want {
			t.Errorf("clock(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four", 9)
	if len(lines) < 2 {
		t.Fatalf("expected wrapping, got %v", lines)
	}
	for _, l := range lines {
		if len(l) > 9 {
			t.Errorf("line %q exceeds width", l)
		}
	}
}

func TestWrapTextMultibyte(t *testing.T) {
	const text = "señor compró cañón añejo"
	lines := wrapText(text, 8)
	for _, l := range lines {
		if !utf8.ValidString(l) {
			t.Errorf("line %q is not valid UTF-8", l)
		}
		if n := utf8.RuneCountInString(l); n > 8 {
			t.Errorf("line %q is %d runes wide, want <= 8", l, n)
		}
	}
	if got := strings.Join(lines, " "); got != text {
		t.Errorf("wrapping altered the text: %q", got)
	}
}

func TestWrapTextUnbrokenMultibyteWord(t *testing.T) {
	lines := wrapText("ñññññ", 3)
	want := []string{"ñññ", "ññ"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("lines = %q, want %q", lines, want)
	}
}
