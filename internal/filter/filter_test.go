package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"skiff/internal/sftp"
)

func entry(name string, dir bool) sftp.RemoteResourceInfo {
	attrs := sftp.EmptyAttributes.WithMode(0x8000 | 0o644)
	if dir {
		attrs = sftp.EmptyAttributes.WithMode(0x4000 | 0o755)
	}
	return sftp.RemoteResourceInfo{Name: name, Path: "/" + name, Attrs: attrs}
}

func TestBuildSelector(t *testing.T) {
	t.Parallel()

	t.Run("no patterns includes everything", func(t *testing.T) {
		t.Parallel()
		sel := BuildSelector(nil, nil)
		assert.Equal(t, sftp.Include, sel.Select(entry("a.txt", false)))
		assert.Equal(t, sftp.Include, sel.Select(entry("build", true)))
	})

	t.Run("excludes by pattern", func(t *testing.T) {
		t.Parallel()
		sel := BuildSelector([]string{"*.log", "build/"}, nil)
		assert.Equal(t, sftp.Exclude, sel.Select(entry("debug.log", false)))
		assert.Equal(t, sftp.Exclude, sel.Select(entry("build", true)))
		assert.Equal(t, sftp.Include, sel.Select(entry("main.go", false)))
		// Directory-only pattern does not match a plain file.
		assert.Equal(t, sftp.Include, sel.Select(entry("build", false)))
	})

	t.Run("includes override excludes", func(t *testing.T) {
		t.Parallel()
		sel := BuildSelector([]string{"*.log"}, []string{"keep.log"})
		assert.Equal(t, sftp.Include, sel.Select(entry("keep.log", false)))
		assert.Equal(t, sftp.Exclude, sel.Select(entry("drop.log", false)))
	})

	t.Run("negated pattern", func(t *testing.T) {
		t.Parallel()
		sel := BuildSelector([]string{"*.log", "!important.log"}, nil)
		assert.Equal(t, sftp.Include, sel.Select(entry("important.log", false)))
		assert.Equal(t, sftp.Exclude, sel.Select(entry("other.log", false)))
	})
}
