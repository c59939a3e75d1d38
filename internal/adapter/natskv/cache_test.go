package natskv

import (
	"regexp"
	"testing"
)

var validKey = regexp.MustCompile(`^[-/_=.a-zA-Z0-9]+$`)

func TestKVKeyIsValidSubjectToken(t *testing.T) {
	for _, raw := range []string{"idem:abc", "key with spaces", "a.b.*.>", "ação/ü", ""} {
		k := kvKey(raw)
		if !validKey.MatchString(k) {
			t.Errorf("kvKey(%q) = %q is not a valid KV key", raw, k)
		}
		if len(k) != 64 {
			t.Errorf("kvKey(%q) length = %d, want 64", raw, len(k))
		}
	}
}

func TestKVKeyDeterministic(t *testing.T) {
	if kvKey("same") != kvKey("same") {
		t.Fatal("kvKey must be deterministic")
	}
	if kvKey("a") == kvKey("b") {
		t.Fatal("distinct keys must not collide")
	}
}
