package env

import "testing"

func TestGetFallsBack(t *testing.T) {
	t.Setenv("CAFEHOP_TEST_VALUE", "")
	if got := Get("CAFEHOP_TEST_VALUE", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("CAFEHOP_TEST_VALUE", "set")
	if got := Get("CAFEHOP_TEST_VALUE", "fallback"); got != "set" {
		t.Fatalf("expected set, got %q", got)
	}
}

func TestFirstPrefersEarlierKeys(t *testing.T) {
	t.Setenv("CAFEHOP_TEST_A", "")
	t.Setenv("CAFEHOP_TEST_B", "b")
	t.Setenv("CAFEHOP_TEST_C", "c")
	if got := First("none", "CAFEHOP_TEST_A", "CAFEHOP_TEST_B", "CAFEHOP_TEST_C"); got != "b" {
		t.Fatalf("expected b, got %q", got)
	}
	if got := First("none"); got != "none" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
