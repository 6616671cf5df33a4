package resolve

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsoleObserverProgressBar(t *testing.T) {
	var buf bytes.Buffer
	obs := &ConsoleObserver{out: &buf, verbose: false, barLength: 20}

	obs.Progress(5, 20)
	assert.Equal(t, "\rProcessed 5/20 species: [#####---------------]", buf.String())

	buf.Reset()
	obs.Progress(20, 20)
	assert.Equal(t, "\rProcessed 20/20 species: [####################]", buf.String())
}

func TestConsoleObserverProgressWithoutTotal(t *testing.T) {
	var buf bytes.Buffer
	obs := &ConsoleObserver{out: &buf, verbose: false, barLength: 20}

	obs.Progress(0, 0)
	assert.Empty(t, buf.String())
}

func TestConsoleObserverNotice(t *testing.T) {
	var buf bytes.Buffer
	obs := &ConsoleObserver{out: &buf, verbose: true, barLength: 20}

	obs.Notice("Skipping '%s' (%s)", "Amanita sp.", ReasonAmbiguous)
	assert.Equal(t, "\r\033[KSkipping 'Amanita sp.' (ambiguous)\n", buf.String())
}

func TestConsoleObserverNoticeSuppressedWhenQuiet(t *testing.T) {
	var buf bytes.Buffer
	obs := &ConsoleObserver{out: &buf, verbose: false, barLength: 20}

	obs.Notice("Skipping '%s'", "Amanita sp.")
	assert.Empty(t, buf.String())
}
