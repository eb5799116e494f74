package normalize

import "testing"

func TestProject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"befr0124", "BEFR0124"},
		{"bl22k", "BLXX0022K"},
		{"BEFR0124", "BEFR0124"},
		{"be-fr 0124", "BEFR0124"},
		{"bl7", "BLXX0007"},
		{"bl123456", "BLXX3456"},
		{"abcde12", "ABCD0012"},
		{"", "XXXX0000"},
		{"!!??", "XXXX0000"},
		{"1234", "XXXX1234"},
		{"abck", "ABCK0000"}, // K after letters is part of the letter run
		{"ab12k", "ABXX0012K"},
	}

	for _, tc := range cases {
		if got := Project(tc.in); got != tc.want {
			t.Errorf("Project(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDrawing(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"tür vorne rechts bl7", "Tür Vorne Rechts, BL07"},
		{"bl7", "BL07"},
		{"bl123", "BL23"},
		{"seitenwand links", "Seitenwand Links"},
		{"bl7 tr12", "BL07, TR12"},
		{"dach hinten tr9 mitte bl450", "Dach Hinten, TR09, Mitte, BL50"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := Drawing(tc.in); got != tc.want {
			t.Errorf("Drawing(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
