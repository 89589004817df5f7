package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_DisabledIsNoop(t *testing.T) {
	r := New(&bytes.Buffer{}, false)
	assert.IsType(t, Noop{}, r)

	r = New(nil, true)
	assert.IsType(t, Noop{}, r)
}

func TestNoop(t *testing.T) {
	r := Noop{}
	bar := r.NewBar("probing", 3)
	bar.Increment()
	bar.SetCurrent(3)
	bar.Done()
	r.Wait()
}

func TestTerminal_CompletesAndWaits(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, true)

	bar := r.NewBar("probing", 2)
	bar.Increment()
	bar.Increment()
	bar.Done()

	aborted := r.NewBar("encoding", 100)
	aborted.SetCurrent(40)
	aborted.Done()

	r.Wait()
	assert.Contains(t, buf.String(), "probing")
}

func TestTerminal_NewBarAfterWait(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, true)

	bar := r.NewBar("probing", 1)
	bar.Increment()
	bar.Done()
	r.Wait()

	assert.NotPanics(t, func() {
		next := r.NewBar("encoding", 100)
		next.SetCurrent(100)
		next.Done()
		r.Wait()
	})
	assert.Contains(t, buf.String(), "probing")
	assert.Contains(t, buf.String(), "encoding")
}

func TestTerminal_WaitWithoutBars(t *testing.T) {
	r := New(&bytes.Buffer{}, true)
	assert.NotPanics(t, r.Wait)
}
