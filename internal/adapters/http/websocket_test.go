package http

import (
	"errors"
	"sync"
	"testing"
)

type recordingConn struct {
	frames int
}

func (r *recordingConn) WriteMessage(int, []byte) error {
	r.frames++
	return nil
}

// releasedConn stands in for a connection already handed back to the pool.
type releasedConn struct{}

func (releasedConn) WriteMessage(int, []byte) error {
	panic("write on released connection")
}

func TestYearFilter(t *testing.T) {
	f := newYearFilter()
	if !f.pass("imagery.thumbnail.2020") {
		t.Fatal("a new filter should pass every year")
	}

	if r := f.apply(wsCommand{Action: "unsubscribe", Year: 0}); r.Status != "unsubscribed" {
		t.Fatalf("unexpected reply %+v", r)
	}
	if f.pass("imagery.thumbnail.2020") {
		t.Error("expected nothing to pass after unsubscribing from all years")
	}

	f.apply(wsCommand{Action: "subscribe", Year: 2020})
	if !f.pass("imagery.thumbnail.2020") {
		t.Error("expected 2020 to pass")
	}
	if f.pass("imagery.thumbnail.2019") {
		t.Error("expected 2019 to be filtered")
	}
	if f.pass("imagery.thumbnail.x") {
		t.Error("expected malformed subjects to be filtered")
	}

	if r := f.apply(wsCommand{Action: "unsubscribe", Year: 2019}); r.Error == "" {
		t.Error("expected an error unsubscribing from a year never subscribed")
	}
	f.apply(wsCommand{Action: "unsubscribe", Year: 2020})
	if f.pass("imagery.thumbnail.2020") {
		t.Error("expected 2020 to be filtered after unsubscribe")
	}

	if r := f.apply(wsCommand{Action: "watch"}); r.Error != "unknown action: watch" {
		t.Errorf("unexpected reply %+v", r)
	}
}

func TestClientWriter_DropsWritesAfterShutdown(t *testing.T) {
	conn := &recordingConn{}
	w := &clientWriter{conn: conn}
	if err := w.write(1, []byte("a")); err != nil {
		t.Fatal(err)
	}
	w.shutdown()
	if err := w.write(1, []byte("b")); !errors.Is(err, errClientGone) {
		t.Errorf("expected errClientGone, got %v", err)
	}
	if conn.frames != 1 {
		t.Errorf("expected 1 frame written, got %d", conn.frames)
	}
}

func TestClientWriter_LateRelayAfterHandlerReturn(t *testing.T) {
	w := &clientWriter{conn: releasedConn{}}
	w.shutdown()

	// Relay callbacks still in flight when the handler returned.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = w.write(1, []byte(`{"year":2020}`))
		}()
	}
	wg.Wait()
}
