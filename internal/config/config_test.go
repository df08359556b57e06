package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	c := Default()
	if c.DB.Kind != "postgres" {
		t.Errorf("default kind = %q, want postgres", c.DB.Kind)
	}
	if c.Load.BatchSize != 10000 {
		t.Errorf("default batch size = %d, want 10000", c.Load.BatchSize)
	}
	if c.Parse.StrictNumbers {
		t.Error("strict numbers must default off")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
  "db": {"kind": "sqlite", "dsn": "file:discogs.db"},
  "load": {"batch_size": 500},
  "parse": {"strict_numbers": true},
  "runtime": {"file_workers": 4}
}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if c.DB.Kind != "sqlite" || c.DB.DSN != "file:discogs.db" {
		t.Errorf("db = %+v", c.DB)
	}
	if c.Load.BatchSize != 500 || !c.Parse.StrictNumbers || c.Runtime.FileWorkers != 4 {
		t.Errorf("decoded config = %+v", c)
	}
}

func TestLoadFileMissing(t *testing.T) {
	t.Parallel()

	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("LoadFile must fail on a missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DB_KIND", "sqlite")
	t.Setenv("DB_DSN", "file:env.db")
	t.Setenv("DB_SCHEMA", "discogs")
	t.Setenv("BATCH_SIZE", "2500")
	t.Setenv("FILE_WORKERS", "2")
	t.Setenv("STRICT_NUMBERS", "true")

	c := FromEnv()
	if c.DB.Kind != "sqlite" || c.DB.DSN != "file:env.db" || c.DB.Schema != "discogs" {
		t.Errorf("db = %+v", c.DB)
	}
	if c.Load.BatchSize != 2500 || c.Runtime.FileWorkers != 2 || !c.Parse.StrictNumbers {
		t.Errorf("overrides not applied: %+v", c)
	}
}

func TestEnvOverridesIgnoreGarbage(t *testing.T) {
	t.Setenv("BATCH_SIZE", "lots")
	t.Setenv("STRICT_NUMBERS", "sometimes")

	c := FromEnv()
	if c.Load.BatchSize != 10000 || c.Parse.StrictNumbers {
		t.Errorf("unparsable env values must be ignored: %+v", c)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := Default()

	cases := []struct {
		name     string
		mutate   func(*Config)
		path     string
		severity IssueSeverity
	}{
		{
			name:     "empty kind",
			mutate:   func(c *Config) { c.DB.Kind = "" },
			path:     "db.kind",
			severity: SeverityError,
		},
		{
			name:     "unknown kind",
			mutate:   func(c *Config) { c.DB.Kind = "oracle" },
			path:     "db.kind",
			severity: SeverityError,
		},
		{
			name:     "empty dsn",
			mutate:   func(c *Config) { c.DB.DSN = "  " },
			path:     "db.dsn",
			severity: SeverityError,
		},
		{
			name: "sqlite with schema",
			mutate: func(c *Config) {
				c.DB.Kind = "sqlite"
				c.DB.Schema = "discogs"
			},
			path:     "db.schema",
			severity: SeverityWarning,
		},
		{
			name:     "negative batch size",
			mutate:   func(c *Config) { c.Load.BatchSize = -1 },
			path:     "load.batch_size",
			severity: SeverityError,
		},
		{
			name:     "tiny batch size",
			mutate:   func(c *Config) { c.Load.BatchSize = 10 },
			path:     "load.batch_size",
			severity: SeverityWarning,
		},
		{
			name:     "negative workers",
			mutate:   func(c *Config) { c.Runtime.FileWorkers = -2 },
			path:     "runtime.file_workers",
			severity: SeverityError,
		},
	}

	if issues := Validate(valid); len(issues) != 0 {
		t.Fatalf("default config must validate cleanly, got %v", issues)
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := Default()
			tc.mutate(&c)
			issues := Validate(c)
			found := false
			for _, iss := range issues {
				if iss.Path == tc.path && iss.Severity == tc.severity {
					found = true
				}
			}
			if !found {
				t.Errorf("issues = %v, want %s at %s", issues, tc.severity, tc.path)
			}
		})
	}
}

func TestIssueError(t *testing.T) {
	t.Parallel()

	iss := Issue{Severity: SeverityError, Path: "db.dsn", Message: "db.dsn must not be empty"}
	want := "error at db.dsn: db.dsn must not be empty"
	if iss.Error() != want {
		t.Errorf("Error() = %q, want %q", iss.Error(), want)
	}
}
