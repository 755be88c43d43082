package toolchain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiffEnv(t *testing.T) {
	baseline := []string{"HOME=/home/ci", "PATH=/usr/bin", "SHLVL=1"}
	output := "HOME=/home/ci\nPATH=/opt/ldc/bin:/usr/bin\nDMD=ldmd2\nSHLVL=2\nPS1=(ldc) \nnot a pair\n"

	got := diffEnv(output, baseline)
	assert.Equal(t, []string{"DMD=ldmd2", "PATH=/opt/ldc/bin:/usr/bin"}, got)
}

func TestDiffEnv_NoChanges(t *testing.T) {
	baseline := []string{"HOME=/home/ci"}
	assert.Empty(t, diffEnv("HOME=/home/ci\n", baseline))
}

func TestCompilerFromEnv(t *testing.T) {
	assert.Equal(t, "ldmd2", compilerFromEnv([]string{"DC=ldc2", "DMD=ldmd2"}))
	assert.Equal(t, "dmd", compilerFromEnv([]string{"DC=ldc2"}))
	assert.Equal(t, "dmd", compilerFromEnv([]string{"DMD="}))
	assert.Equal(t, "dmd", compilerFromEnv(nil))
}

func TestShouldIncludeVar(t *testing.T) {
	assert.True(t, shouldIncludeVar("DMD"))
	assert.True(t, shouldIncludeVar("LD_LIBRARY_PATH"))
	assert.True(t, shouldIncludeVar("PATH"))
	assert.False(t, shouldIncludeVar("PS1"))
	assert.False(t, shouldIncludeVar("SHLVL"))
	assert.False(t, shouldIncludeVar("_"))
}
