package safety

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeRisk(t *testing.T) {
	cases := []struct {
		cmd  string
		want Risk
	}{
		{"rm -rf /tmp/foo", RiskHigh},
		{"rm -fr /tmp/foo", RiskHigh},
		{"sudo reboot", RiskHigh},
		{"shutdown -h now", RiskHigh},
		{"mkfs.ext4 /dev/sdb1", RiskHigh},
		{"echo x > /dev/sda", RiskHigh},
		{"dd if=/dev/zero of=/dev/sda", RiskHigh},
		{"FORMAT C:", RiskHigh},

		{"rm /tmp/foo", RiskMedium},
		{"mv a b", RiskMedium},
		{"systemctl stop nginx", RiskMedium},
		{"kill -9 4242", RiskMedium},
		{"apt remove vim", RiskMedium},
		{"pip uninstall requests", RiskMedium},
		{"echo $(whoami)", RiskMedium},
		{"echo `date`", RiskMedium},

		{"ls -la", RiskLow},
		{"cat /proc/meminfo", RiskLow},
		{"", RiskLow},
		// Word boundaries: no substring false positives.
		{"echo informative", RiskLow},
		{"ls performance_rms", RiskLow},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, AnalyzeRisk(tc.cmd), "cmd: %q", tc.cmd)
	}
}

func TestAnalyzeRiskDeterministic(t *testing.T) {
	cmd := "rm -rf /var/tmp/x"
	first := AnalyzeRisk(cmd)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, AnalyzeRisk(cmd))
	}
}

func TestScrub(t *testing.T) {
	assert.Equal(t, "", Scrub("rm -rf /tmp/foo"))
	assert.Equal(t, "", Scrub("curl http://x -o /tmp/y"))
	assert.Equal(t, "", Scrub("echo hi > out.txt"))
	assert.Equal(t, "", Scrub("sudo ls"))
	assert.Equal(t, "uptime", Scrub("uptime"))
	assert.Equal(t, "ls -la /home", Scrub("ls -la /home"))
}

func TestAllowedTool(t *testing.T) {
	assert.True(t, AllowedTool("shell"))
	assert.True(t, AllowedTool("gui_speak"))
	assert.False(t, AllowedTool("wizard"))
	assert.False(t, AllowedTool(""))
}

func TestSnapshotFile(t *testing.T) {
	dir := t.TempDir()
	backups := filepath.Join(dir, "backups")
	target := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(target, []byte("important"), 0644))

	dest, err := Snapshot(backups, target)
	require.NoError(t, err)
	require.NotEmpty(t, dest)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "important", string(data))
}

func TestSnapshotDirectory(t *testing.T) {
	dir := t.TempDir()
	backups := filepath.Join(dir, "backups")
	target := filepath.Join(dir, "project")
	require.NoError(t, os.MkdirAll(filepath.Join(target, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "sub", "a.txt"), []byte("a"), 0644))

	dest, err := Snapshot(backups, target)
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dest, "sub", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))
}

func TestSnapshotMissingPath(t *testing.T) {
	dest, err := Snapshot(t.TempDir(), "/no/such/path/at/all")
	require.NoError(t, err)
	assert.Empty(t, dest)
}
