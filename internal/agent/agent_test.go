package agent

import "testing"

func TestIsTestFile(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"tests/test_cart.py", true},
		{"src/tests/test_x.py", true},
		{"test_cart.py", true},
		{"tests\\test_cart.py", true},
		{"cart.py", false},
		{"src/models.py", false},
		{"contest.py", false},
		{"src/latest_results.py", false},
	}
	for _, tc := range cases {
		if got := isTestFile(tc.path); got != tc.want {
			t.Fatalf("isTestFile(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestModuleName(t *testing.T) {
	cases := []struct {
		file string
		want string
	}{
		{"cart.py", "cart"},
		{"src/models.py", "src.models"},
		{"src/models/user.py", "src.models.user"},
		{"pkg\\util.py", "pkg.util"},
	}
	for _, tc := range cases {
		if got := moduleName(tc.file); got != tc.want {
			t.Fatalf("moduleName(%q) = %q, want %q", tc.file, got, tc.want)
		}
	}
}
