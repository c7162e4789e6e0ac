package utils

import "testing"

func TestGetEnv(t *testing.T) {
	t.Setenv("PAGETONE_TEST_STR", "from-env")
	if got := GetEnv("PAGETONE_TEST_STR", "fallback", nil); got != "from-env" {
		t.Errorf("got %q, want from-env", got)
	}
	if got := GetEnv("PAGETONE_TEST_MISSING", "fallback", nil); got != "fallback" {
		t.Errorf("got %q, want fallback", got)
	}
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("PAGETONE_TEST_INT", "42")
	if got := GetEnvAsInt("PAGETONE_TEST_INT", 7, nil); got != 42 {
		t.Errorf("got %d, want 42", got)
	}
	t.Setenv("PAGETONE_TEST_BAD_INT", "forty-two")
	if got := GetEnvAsInt("PAGETONE_TEST_BAD_INT", 7, nil); got != 7 {
		t.Errorf("unparsable value should fall back, got %d", got)
	}
	if got := GetEnvAsInt("PAGETONE_TEST_MISSING", 7, nil); got != 7 {
		t.Errorf("missing key should fall back, got %d", got)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	cases := map[string]bool{
		"1": true, "true": true, "YES": true, "On": true,
		"0": false, "false": false, "no": false, "OFF": false,
	}
	for raw, want := range cases {
		t.Setenv("PAGETONE_TEST_BOOL", raw)
		if got := GetEnvAsBool("PAGETONE_TEST_BOOL", !want, nil); got != want {
			t.Errorf("%q parsed as %v, want %v", raw, got, want)
		}
	}
	t.Setenv("PAGETONE_TEST_BOOL", "maybe")
	if got := GetEnvAsBool("PAGETONE_TEST_BOOL", true, nil); !got {
		t.Errorf("unparsable value should fall back to default")
	}
}
