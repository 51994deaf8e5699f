package raw

import "testing"

func TestConf(t *testing.T) {
	c := New().Prefix("LOG_")
	t.Setenv("LOG_FORMAT", " json ")
	t.Setenv("LOG_CALLER", "yes")
	t.Setenv("LOG_SAMPLE_EVERY", "10")
	t.Setenv("LOG_BAD_BOOL", "maybe")
	t.Setenv("LOG_BAD_INT", "-3")

	cases := []struct {
		name string
		got  any
		want any
	}{
		{"get", c.Get("FORMAT", "console"), "json"},
		{"get default", c.Get("LEVEL", "debug"), "debug"},
		{"bool yes", c.GetBool("CALLER", false), true},
		{"bool invalid", c.GetBool("BAD_BOOL", true), true},
		{"bool default", c.GetBool("MISSING", false), false},
		{"int", c.GetInt("SAMPLE_EVERY", 0), 10},
		{"int negative", c.GetInt("BAD_INT", 1), 1},
		{"int default", c.GetInt("MISSING", 7), 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Fatalf("got %v, want %v", tc.got, tc.want)
			}
		})
	}
}
