package msg

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestIndentWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &IndentWriter{Indent: "  ", W: &buf}

	n, err := w.Write([]byte("first\nsec"))
	assert.NoError(t, err)
	assert.Equal(t, 9, n)

	_, err = w.Write([]byte("ond\nthird\n"))
	assert.NoError(t, err)
	assert.Equal(t, "  first\n  second\n  third\n", buf.String())
}

func TestLabels(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	old := Out
	Out = &buf
	t.Cleanup(func() { Out = old })

	Info("wrote %s", "a.cpp")
	Warn("careful")
	Step("MC", "%s", "msgs.mc")

	assert.Equal(t, "info: wrote a.cpp\nwarn: careful\nMC msgs.mc\n", buf.String())
}
