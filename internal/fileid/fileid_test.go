package fileid

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRequestKey(t *testing.T) {
	id1 := RequestKey("/foo/challenge1b_input.json")
	id2 := RequestKey("/foo/challenge1b_input.json")
	if id1 != id2 {
		t.Errorf("same path should give same key: %q vs %q", id1, id2)
	}
	if !strings.HasPrefix(id1, filePrefix) {
		t.Errorf("key should have prefix %q: got %q", filePrefix, id1)
	}
	if len(id1) != len(filePrefix)+32 {
		t.Errorf("unexpected key length: %q", id1)
	}
}

func TestRequestKey_differentPaths(t *testing.T) {
	if RequestKey("/foo/a.json") == RequestKey("/foo/b.json") {
		t.Error("different paths should give different keys")
	}
}

func TestRequestKey_normalized(t *testing.T) {
	id1 := RequestKey("/foo/bar.json")
	id2 := RequestKey("/foo/./bar.json")
	id3 := RequestKey("/foo/baz/../bar.json")
	if id1 != id2 || id1 != id3 {
		t.Errorf("equivalent paths should match: %q %q %q", id1, id2, id3)
	}
}

func TestRequestKey_relativeResolvesAgainstCwd(t *testing.T) {
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if RequestKey("req.json") != RequestKey(filepath.Join(cwd, "req.json")) {
		t.Error("relative path should resolve against the working directory")
	}
}

func TestContentKey(t *testing.T) {
	a := ContentKey([]byte(`{"persona":{"role":"Chef"}}`))
	b := ContentKey([]byte(`{"persona":{"role":"Chef"}}`))
	c := ContentKey([]byte(`{"persona":{"role":"Cook"}}`))
	if a != b {
		t.Errorf("same content should give same key: %q vs %q", a, b)
	}
	if a == c {
		t.Error("different content should give different keys")
	}
	if !strings.HasPrefix(a, contentPrefix) {
		t.Errorf("key should have prefix %q: got %q", contentPrefix, a)
	}
}
