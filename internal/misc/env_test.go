package misc

import (
	"testing"
	"time"
)

func TestGetenv(t *testing.T) {
	t.Setenv("HOSTPULSE_TEST_SET", "value")

	if got := Getenv("HOSTPULSE_TEST_SET", "def"); got != "value" {
		t.Errorf("set key: got %q", got)
	}
	if got := Getenv("HOSTPULSE_TEST_UNSET", "def"); got != "def" {
		t.Errorf("unset key: got %q", got)
	}
}

func TestGetDuration(t *testing.T) {
	cases := []struct {
		name string
		val  string
		def  time.Duration
		want time.Duration
	}{
		{name: "unset_returns_default", val: "", def: 15 * time.Second, want: 15 * time.Second},
		{name: "bare_seconds", val: "30", want: 30 * time.Second},
		{name: "go_duration_syntax", val: "2m", want: 2 * time.Minute},
		{name: "non_positive_normalizes_to_zero", val: "0", def: time.Second, want: 0},
		{name: "negative_duration_normalizes_to_zero", val: "-5s", def: time.Second, want: 0},
		{name: "garbage_returns_default", val: "soon", def: time.Second, want: time.Second},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.val != "" {
				t.Setenv("HOSTPULSE_TEST_DUR", tc.val)
			}
			if got := GetDuration("HOSTPULSE_TEST_DUR", tc.def); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}
