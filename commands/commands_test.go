package commands

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRoot()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, args...))
	err := root.Execute()
	return strings.TrimSpace(out.String()), err
}

func TestPrice(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"base currency", []string{"1000000"}, "Rp 1.000.000"},
		{"language table", []string{"250000", "--lang", "ja", "--rate", "JPY=100"}, "￥2,500"},
		{"explicit currency", []string{"250000", "--currency", "USD", "--locale", "en-US", "--rate", "usd=15000"}, "$16.67"},
		{"missing rate uses one", []string{"1500", "--lang", "en"}, "$1,500.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := run(t, append([]string{"price"}, tc.args...)...)
			if err != nil {
				t.Fatalf("price: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestPriceRejectsBadInput(t *testing.T) {
	for name, args := range map[string][]string{
		"amount":       {"price", "lots"},
		"rate format":  {"price", "100", "--rate", "USD"},
		"zero rate":    {"price", "100", "--rate", "USD=0"},
		"no arguments": {"price"},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := run(t, args...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestKeys(t *testing.T) {
	dir := t.TempDir()
	priv := filepath.Join(dir, "private.pem")
	pub := filepath.Join(dir, "public.pem")
	t.Setenv("TOUR_JWT_PRIVATE_KEY", priv)
	t.Setenv("TOUR_JWT_PUBLIC_KEY", pub)

	if _, err := run(t, "keys"); err != nil {
		t.Fatalf("keys: %v", err)
	}
	for _, path := range []string{priv, pub} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("%s not written: %v", path, err)
		}
	}

	if _, err := run(t, "keys"); err == nil {
		t.Fatal("expected refusal to overwrite")
	}
	if _, err := run(t, "keys", "--force"); err != nil {
		t.Fatalf("keys --force: %v", err)
	}
}
