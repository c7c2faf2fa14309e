package whois

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestParseAge(t *testing.T) {
	now := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		output string
		want   int
	}{
		{
			name:   "registry creation date",
			output: "Domain Name: EXAMPLE.COM\nCreation Date: 2024-04-05T00:00:00Z\nRegistry Expiry Date: 2025-04-05T00:00:00Z\n",
			want:   10,
		},
		{
			name:   "lowercase created",
			output: "domain: example.org\ncreated: 2024-03-16T00:00:00Z\n",
			want:   30,
		},
		{
			name:   "mixed case created",
			output: "Created: 2024-04-14T12:00:00Z\n",
			want:   0,
		},
		{
			name:   "future creation clamps to zero",
			output: "Creation Date: 2024-05-01T00:00:00Z\n",
			want:   0,
		},
		{
			name:   "malformed date skipped, later line parsed",
			output: "Creation Date: sometime\ncreated: 2024-04-05T00:00:00Z\n",
			want:   10,
		},
		{
			name:   "no creation line",
			output: "Domain Name: EXAMPLE.COM\nRegistrar: Example Registrar\n",
			want:   AgeUnknown,
		},
		{
			name:   "empty output",
			output: "",
			want:   AgeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseAge(tt.output, now); got != tt.want {
				t.Errorf("parseAge() = %d, want %d", got, tt.want)
			}
		})
	}
}

// fakeWhois writes a shell script that prints canned whois output, so tests
// exercise the real subprocess path without network access.
func fakeWhois(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake whois script requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "whois")
	script := "#!/bin/sh\ncat <<'EOF'\n" + body + "\nEOF\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("writing fake whois: %v", err)
	}
	return path
}

func TestRegistrationAge(t *testing.T) {
	created := time.Now().UTC().AddDate(0, 0, -7).Format("2006-01-02T15:04:05Z")
	binary := fakeWhois(t, fmt.Sprintf("Creation Date: %s", created))

	client, err := New(Options{Binary: binary})
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}

	age := client.RegistrationAge(context.Background(), "example.com")
	if age != 7 {
		t.Errorf("expected age 7, got %d", age)
	}
}

func TestRegistrationAgeUnknown(t *testing.T) {
	binary := fakeWhois(t, "No match for domain")

	client, err := New(Options{Binary: binary})
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}

	if age := client.RegistrationAge(context.Background(), "nxdomain.example"); age != AgeUnknown {
		t.Errorf("expected %d for unparseable output, got %d", AgeUnknown, age)
	}
}

func TestRegistrationAgeMissingBinary(t *testing.T) {
	client, err := New(Options{Binary: filepath.Join(t.TempDir(), "missing-whois")})
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}

	if age := client.RegistrationAge(context.Background(), "example.com"); age != AgeUnknown {
		t.Errorf("expected %d when the binary is missing, got %d", AgeUnknown, age)
	}
}

func TestRegistrationAgeCached(t *testing.T) {
	// Counting script: appends one line to a file per invocation
	dir := t.TempDir()
	marker := filepath.Join(dir, "calls")
	path := filepath.Join(dir, "whois")
	created := time.Now().UTC().AddDate(0, 0, -30).Format("2006-01-02T15:04:05Z")
	script := fmt.Sprintf("#!/bin/sh\necho run >> %s\necho \"Creation Date: %s\"\n", marker, created)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("writing fake whois: %v", err)
	}

	client, err := New(Options{Binary: path})
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}

	for i := 0; i < 3; i++ {
		if age := client.RegistrationAge(context.Background(), "example.com"); age != 30 {
			t.Fatalf("expected age 30, got %d", age)
		}
	}

	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("reading call marker: %v", err)
	}
	if got := len(strings.Fields(string(data))); got != 1 {
		t.Errorf("expected exactly 1 subprocess call, got %d", got)
	}
}
