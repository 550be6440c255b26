package migrate

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/orris-inc/lineconnect/internal/infrastructure/migration"
)

func TestPrintStatus(t *testing.T) {
	var out bytes.Buffer
	printStatus(&out, 1, []migration.MigrationStatus{
		{Version: 1, Source: "scripts/sqlite/00001_init.sql", Applied: true},
		{Version: 2, Source: "scripts/sqlite/00002_liff.sql"},
	})

	assert.Contains(t, out.String(), "00001_init.sql")
	assert.Regexp(t, `2\s+pending\s+00002_liff.sql`, out.String())
	assert.Contains(t, out.String(), "current version 1, 1 pending")
}

func TestPrintPending(t *testing.T) {
	var out bytes.Buffer
	printPending(&out, []migration.MigrationStatus{{Version: 1, Source: "a/00001_init.sql", Applied: true}})
	assert.Equal(t, "nothing to apply\n", out.String())

	out.Reset()
	printPending(&out, []migration.MigrationStatus{{Version: 2, Source: "a/00002_next.sql"}})
	assert.Equal(t, "would apply 00002_next.sql\n", out.String())
}

func TestDownRejectsZeroSteps(t *testing.T) {
	cmd := NewCommand()
	cmd.SetArgs([]string{"down", "--steps", "0"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.Execute()
	assert.ErrorContains(t, err, "--steps must be at least 1")
}
