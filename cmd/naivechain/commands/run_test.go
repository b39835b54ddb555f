package commands

import "testing"

func TestPortToAddr(t *testing.T) {
	cases := map[string]string{
		"3001":           ":3001",
		":3001":          ":3001",
		"127.0.0.1:6001": "127.0.0.1:6001",
		"localhost":      "localhost",
		"":               "",
	}

	for in, expected := range cases {
		if got := portToAddr(in); got != expected {
			t.Fatalf("portToAddr(%q) should be %q, not %q", in, expected, got)
		}
	}
}
