package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raushankrgupta/eyewear-stylist/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	names := []string{}
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"generate", "chat"}, names)

	gen, _, err := root.Find([]string{"generate"})
	require.NoError(t, err)
	assert.Equal(t, "result.png", gen.Flag("out").DefValue)
	assert.NotNil(t, gen.Flag("glasses"))
	assert.NotNil(t, gen.Flag("style"))
}

func TestChatNeedsMessage(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"chat"})
	root.SetOut(&strings.Builder{})
	root.SetErr(&strings.Builder{})
	assert.Error(t, root.Execute())
}

func TestReadImageFile(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "face.png")
	require.NoError(t, os.WriteFile(png, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o600))
	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("hello there"), 0o600))

	dataURL, err := readImageFile(png)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dataURL, "data:image/png;base64,"))

	_, err = readImageFile(txt)
	assert.ErrorIs(t, err, utils.ErrNotAnImage)

	_, err = readImageFile(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}
