package version

import "testing"

func TestString(t *testing.T) {
	origVersion, origSHA, origTime := Version, GitSHA, BuildTime
	t.Cleanup(func() { Version, GitSHA, BuildTime = origVersion, origSHA, origTime })

	Version, GitSHA, BuildTime = "1.2.3", "abc1234", "2025-06-01T12:00:00Z"
	want := "radar-cluster 1.2.3 (git abc1234, built 2025-06-01T12:00:00Z)"
	if got := String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
