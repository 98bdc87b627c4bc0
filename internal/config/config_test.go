package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "service.conf")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadSkipsCommentsAndBlankLines(t *testing.T) {
	path := writeConfig(t, "; a comment\n# also a comment\n\nctype::sdc\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := c.CType(); got != "sdc" {
		t.Fatalf("CType() = %q, want sdc", got)
	}
}

func TestGetBool(t *testing.T) {
	path := writeConfig(t, "debug::true\ntrace::FALSE\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !c.GetBool("debug") {
		t.Fatalf("debug should be true")
	}
	if c.GetBool("trace") {
		t.Fatalf("trace should be false")
	}
	if c.GetBool("missing") {
		t.Fatalf("missing key should default to false")
	}
}

func TestGetInt(t *testing.T) {
	path := writeConfig(t, "limit::250\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := c.GetInt("limit", 10); got != 250 {
		t.Fatalf("GetInt(limit) = %d, want 250", got)
	}
	if got := c.GetInt("timeout", 30); got != 30 {
		t.Fatalf("GetInt(timeout) default = %d, want 30", got)
	}
}

func TestGetPipeList(t *testing.T) {
	path := writeConfig(t, "mailkeys::ops@example.com|alerts@example.com\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := c.GetPipeList("mailkeys")
	want := []string{"ops@example.com", "alerts@example.com"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("GetPipeList(mailkeys) = %v, want %v", got, want)
	}
}

func TestGetColonListAndHasOption(t *testing.T) {
	path := writeConfig(t, "suppressed::ACC001:ACC002\noptions::with_aliases:jzdo\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	sup := c.GetColonList("suppressed")
	if len(sup) != 2 || sup[0] != "ACC001" || sup[1] != "ACC002" {
		t.Fatalf("GetColonList(suppressed) = %v", sup)
	}
	if !c.HasOption("jzdo") {
		t.Fatalf("HasOption(jzdo) should be true")
	}
	if c.HasOption("unique") {
		t.Fatalf("HasOption(unique) should be false")
	}
}

func TestHasOptionWildcard(t *testing.T) {
	path := writeConfig(t, "options::*\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !c.HasOption("anything") {
		t.Fatalf("HasOption should honor the '*' wildcard")
	}
}

func TestCTypeDefaultsToBankperso(t *testing.T) {
	path := writeConfig(t, "root::/var/log/orders\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := c.CType(); got != "bankperso" {
		t.Fatalf("CType() default = %q, want bankperso", got)
	}
}

func TestDeltaDateFromDefaultAndParsed(t *testing.T) {
	path := writeConfig(t, "root::/var/log/orders\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	near, far := c.DeltaDateFrom()
	if near != -7 || far != -30 {
		t.Fatalf("DeltaDateFrom() default = (%d, %d), want (-7, -30)", near, far)
	}

	path2 := writeConfig(t, "delta_datefrom::-3:-14\n")
	c2, err := Load(path2)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	near, far = c2.DeltaDateFrom()
	if near != -3 || far != -14 {
		t.Fatalf("DeltaDateFrom() = (%d, %d), want (-3, -14)", near, far)
	}
}

func TestCompleteDefaultsAndOverrides(t *testing.T) {
	path := writeConfig(t, "root::/var/log/orders\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := c.Complete()
	if len(got) != len(DefaultComplete) {
		t.Fatalf("Complete() default length = %d, want %d", len(got), len(DefaultComplete))
	}

	path2 := writeConfig(t, "complete::62|64\n")
	c2, err := Load(path2)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got2 := c2.Complete()
	if len(got2) != 2 || got2[0] != 62 || got2[1] != 64 {
		t.Fatalf("Complete() override = %v", got2)
	}
}

func TestGetStringNormalizesPathKeys(t *testing.T) {
	path := writeConfig(t, `seen::state\seen.dat`+"\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := c.GetString("seen")
	if got == "" {
		t.Fatalf("GetString(seen) should not be empty")
	}
	if filepath.Base(got) != "seen.dat" {
		t.Fatalf("GetString(seen) = %q, want base seen.dat", got)
	}
}
