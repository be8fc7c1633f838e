package source

import (
	"testing"
)

func TestNewVirtual_NormalizesContent(t *testing.T) {
	u := NewVirtual("test.att", []byte("\xEF\xBB\xBFlet a = 1\r\nlet b = 2\n"), 0)
	want := "let a = 1\nlet b = 2\n"
	if string(u.Content) != want {
		t.Errorf("Content = %q, want %q", u.Content, want)
	}
	if !u.Virtual {
		t.Error("Virtual should be true")
	}
}

func TestLineCol(t *testing.T) {
	u := NewVirtual("test.att", []byte("abc\ndef\n\nxyz"), 0)
	cases := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{1, 1}},
		{2, LineCol{1, 3}},
		{4, LineCol{2, 1}},
		{6, LineCol{2, 3}},
		{8, LineCol{3, 1}},
		{9, LineCol{4, 1}},
		{11, LineCol{4, 3}},
	}
	for _, c := range cases {
		got := u.LineCol(c.off)
		if got != c.want {
			t.Errorf("LineCol(%d) = %v, want %v", c.off, got, c.want)
		}
	}
}

func TestSpanCover(t *testing.T) {
	s := Span{Start: 4, End: 8}
	got := s.Cover(Span{Start: 2, End: 6})
	if got.Start != 2 || got.End != 8 {
		t.Errorf("Cover = %v, want 2-8", got)
	}
	if (Span{Start: 3, End: 3}).Empty() != true {
		t.Error("empty span not detected")
	}
}
