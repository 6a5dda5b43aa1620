package segment

import "testing"

func TestIDDeterministic(t *testing.T) {
	a := ID("src/a.js", "foo", 1)
	b := ID("src/a.js", "foo", 1)
	if a != b {
		t.Errorf("same inputs produced different ids: %s vs %s", a, b)
	}
}

func TestIDDistinguishesInputs(t *testing.T) {
	base := ID("src/a.js", "foo", 1)

	variants := map[string]string{
		"different path":       ID("src/b.js", "foo", 1),
		"different name":       ID("src/a.js", "bar", 1),
		"different occurrence": ID("src/a.js", "foo", 2),
	}
	for label, id := range variants {
		if id == base {
			t.Errorf("%s collided with base id %s", label, base)
		}
	}
}

func TestIDSeparatorAmbiguity(t *testing.T) {
	// The 0-byte separator keeps (ab, c) and (a, bc) apart.
	if ID("ab", "c", 1) == ID("a", "bc", 1) {
		t.Error("adjacent fields are ambiguous")
	}
}

func TestHashContent(t *testing.T) {
	h1 := HashContent("function foo() {}")
	h2 := HashContent("function foo() {}")
	h3 := HashContent("function foo() { }")

	if h1 != h2 {
		t.Error("identical content produced different hashes")
	}
	if h1 == h3 {
		t.Error("one-byte change did not change the hash")
	}
	if len(h1) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(h1))
	}
}
