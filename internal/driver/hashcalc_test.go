package driver

import "testing"

func TestCombineDigestDeterministicAndOrdered(t *testing.T) {
	a := contentDigest([]byte("a"))
	b := contentDigest([]byte("b"))
	c := contentDigest([]byte("c"))

	if combineDigest(a, b, c) != combineDigest(a, b, c) {
		t.Fatal("digest must be deterministic")
	}
	// порядок зависимостей входит в ключ
	if combineDigest(a, b, c) == combineDigest(a, c, b) {
		t.Fatal("dependency order must change the digest")
	}
	if combineDigest(a) == a {
		t.Fatal("combined digest must differ from the bare content digest")
	}
}

func TestSnapshotDigest(t *testing.T) {
	a := SnapshotDigest(snapshot(t, nil))
	b := SnapshotDigest(snapshot(t, nil))
	if a != b {
		t.Fatal("digest must be deterministic")
	}
	if c := SnapshotDigest(snapshot(t, map[string]any{"asciiOnly": true})); c == a {
		t.Fatal("ascii-only must change the digest")
	}
	if d := SnapshotDigest(snapshot(t, map[string]any{"allowedUnicodeChars": []any{"200b"}})); d == a {
		t.Fatal("the allow-list must change the digest")
	}
	if e := SnapshotDigest(snapshot(t, map[string]any{"severity": "hint"})); e != a {
		t.Fatal("severity must not change the digest")
	}
}
