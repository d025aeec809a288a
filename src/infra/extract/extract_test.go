package extract

import (
	"testing"
)

func TestString(t *testing.T) {
	e := New()

	if v, ok := e.String(`{"checkForm":"abc123"}`, "checkForm"); !ok || v != "abc123" {
		t.Errorf("quoted key: got %q ok=%v", v, ok)
	}
	if v, ok := e.String(`license_token = "tok"`, "license_token"); !ok || v != "tok" {
		t.Errorf("unquoted assignment: got %q ok=%v", v, ok)
	}
	if v, ok := e.String(`{"other":"x"}`, "missing"); ok {
		t.Errorf("expected miss, got %q", v)
	}
	if v, ok := e.String(`{"empty":""}`, "empty"); !ok || v != "" {
		t.Errorf("empty value should still match: got %q ok=%v", v, ok)
	}
}

func TestNumber(t *testing.T) {
	e := New()
	if n, ok := e.Number(`{"accessTokenExpirationTimestampMs":1700000000123}`, "accessTokenExpirationTimestampMs"); !ok || n != 1700000000123 {
		t.Errorf("got %d ok=%v", n, ok)
	}
	if n, ok := e.Number(`{"offset":-42}`, "offset"); !ok || n != -42 {
		t.Errorf("negative: got %d ok=%v", n, ok)
	}
	if _, ok := e.Number(`{"offset":"x"}`, "offset"); ok {
		t.Error("expected miss for non-numeric value")
	}
}

func TestRawObject(t *testing.T) {
	e := New()
	body := `{"urls":{"high":"https://a/h.mp3","low":"https://a/l.mp3"},"x":1}`
	inner, ok := e.RawObject(body, "urls")
	if !ok {
		t.Fatal("expected urls object")
	}
	if v, ok := e.String(inner, "high"); !ok || v != "https://a/h.mp3" {
		t.Errorf("nested lookup failed: got %q ok=%v", v, ok)
	}
}

func TestNumberArray(t *testing.T) {
	e := New()
	if got, ok := e.NumberArray(`{"secret":[12, 34, 56]}`, "secret"); !ok || len(got) != 3 || got[1] != 34 {
		t.Errorf("bracketed: got %v ok=%v", got, ok)
	}
	if got, ok := e.NumberArray(`secret=7,8,9`, "secret"); !ok || len(got) != 3 {
		t.Errorf("bare assignment: got %v ok=%v", got, ok)
	}
	if _, ok := e.NumberArray(`{"secret":[1]}`, "secret"); ok {
		t.Error("single element is not an array literal here")
	}
}

func TestObjects(t *testing.T) {
	e := New()
	body := `{"data":[{"url":"https://a/1.mp3"},{"url":"https://a/2.flac"}]}`
	entries := e.Objects(body, "data")
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if v, ok := e.String(entries[1], "url"); !ok || v != "https://a/2.flac" {
		t.Errorf("entry extraction failed: got %q ok=%v", v, ok)
	}
	if entries := e.Objects(`{"data":"not-an-array"}`, "data"); entries != nil {
		t.Errorf("expected nil for non-array, got %v", entries)
	}
}

func TestScriptSources(t *testing.T) {
	e := New()
	html := `<html>
<script src="https://cdn.example.com/a.js"></script>
<script type="module" src='https://cdn.example.com/b.js'></script>
<script>inline()</script>
</html>`
	got := e.ScriptSources(html)
	if len(got) != 2 {
		t.Fatalf("expected 2 sources, got %v", got)
	}
	if got[0] != "https://cdn.example.com/a.js" || got[1] != "https://cdn.example.com/b.js" {
		t.Errorf("unexpected sources %v", got)
	}
}

func TestURLsByExtension(t *testing.T) {
	e := New()
	text := `{"a":"https://cdn.example.com/t.mp3?sig=1","b":"https://cdn.example.com/t.mpd","c":"https://cdn.example.com/t.flac"}`
	got := e.URLsByExtension(text, []string{"mp3", "flac"})
	if len(got) != 2 {
		t.Fatalf("expected 2 urls, got %v", got)
	}
	if got[0] != "https://cdn.example.com/t.mp3?sig=1" {
		t.Errorf("query string should be kept, got %q", got[0])
	}
	if e.URLsByExtension(text, nil) != nil {
		t.Error("no extensions means no matches")
	}
}
