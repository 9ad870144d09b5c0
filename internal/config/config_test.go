package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validGraph = `
log_level: debug
local_path: /var/lib/bi-mail
store:
  provider: graph
  timeout_seconds: 5
  graph:
    tenant_id: tenant
    client_id: client
    client_secret: secret
    host: contoso.sharepoint.com
    site: BISite
smtp:
  host: smtp.example.com
  port: 587
  from: reports@example.com
reports:
  Daily Sales:
    remote_folder: Report/Daily Sales
`

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validGraph))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "graph", cfg.Store.Provider)
	assert.Equal(t, 5*time.Second, cfg.Store.Timeout())
	assert.Equal(t, 10*time.Second, cfg.SMTP.Timeout())

	rep, err := cfg.Report("Daily Sales")
	require.NoError(t, err)
	assert.Equal(t, "Report/Daily Sales", rep.RemoteFolder)
	// Date format defaults to the ISO calendar date.
	assert.Equal(t, "2006-01-02", rep.DateFormat)
}

func TestLoadValidS3(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
store:
  provider: s3
  s3:
    region: eu-west-1
    bucket: bi-exports
smtp:
  host: smtp.example.com
  port: 25
  from: reports@example.com
reports:
  Weekly:
    remote_folder: Report/Weekly
    date_format: "02-01-2006"
`))
	require.NoError(t, err)

	rep, err := cfg.Report("Weekly")
	require.NoError(t, err)
	assert.Equal(t, "02-01-2006", rep.DateFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "data", cfg.LocalPath)
}

func TestLoadInvalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing provider",
			content: "smtp:\n  host: h\n  port: 25\n  from: f@x.com\nreports:\n  A:\n    remote_folder: r\n",
			wantErr: "store.provider",
		},
		{
			name: "graph without credentials",
			content: `
store:
  provider: graph
  graph:
    host: contoso.sharepoint.com
    site: BISite
smtp: {host: h, port: 25, from: f@x.com}
reports:
  A: {remote_folder: r}
`,
			wantErr: "store.graph",
		},
		{
			name: "s3 without bucket",
			content: `
store:
  provider: s3
  s3: {region: eu-west-1}
smtp: {host: h, port: 25, from: f@x.com}
reports:
  A: {remote_folder: r}
`,
			wantErr: "store.s3.bucket",
		},
		{
			name: "missing smtp host",
			content: `
store:
  provider: s3
  s3: {region: eu-west-1, bucket: b}
smtp: {port: 25, from: f@x.com}
reports:
  A: {remote_folder: r}
`,
			wantErr: "smtp.host",
		},
		{
			name: "no reports",
			content: `
store:
  provider: s3
  s3: {region: eu-west-1, bucket: b}
smtp: {host: h, port: 25, from: f@x.com}
`,
			wantErr: "at least one report",
		},
		{
			name: "report without remote folder",
			content: `
store:
  provider: s3
  s3: {region: eu-west-1, bucket: b}
smtp: {host: h, port: 25, from: f@x.com}
reports:
  A: {}
`,
			wantErr: "remote_folder",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestUnknownReport(t *testing.T) {
	cfg, err := Load(writeConfig(t, validGraph))
	require.NoError(t, err)

	_, err = cfg.Report("Nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown report "Nope"`)
}

func TestReportDir(t *testing.T) {
	cfg := &Config{LocalPath: "data"}
	assert.Equal(t, filepath.Join("data", "daily_sales"), cfg.ReportDir("Daily Sales"))
	assert.Equal(t, "weekly", Slug("Weekly"))
}
