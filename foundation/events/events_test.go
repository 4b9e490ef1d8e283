package events_test

import (
	"testing"

	"github.com/dalyulbam/Class101LLL/foundation/events"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestEvents(t *testing.T) {
	t.Log("Given the need to fan out ledger events.")
	{
		evts := events.New()

		ch1 := evts.Acquire("one")
		ch2 := evts.Acquire("two")

		if again := evts.Acquire("one"); again != ch1 {
			t.Fatalf("\t%s\tShould get the same channel for the same id.", failed)
		}
		t.Logf("\t%s\tShould get the same channel for the same id.", success)

		evts.Send("viewer: block[2] mined")

		for i, ch := range []chan string{ch1, ch2} {
			if got := <-ch; got != "viewer: block[2] mined" {
				t.Fatalf("\t%s\tShould receive the event on channel %d: %q", failed, i, got)
			}
		}
		t.Logf("\t%s\tShould receive the event on every channel.", success)

		if err := evts.Release("one"); err != nil {
			t.Fatalf("\t%s\tShould be able to release a channel: %s", failed, err)
		}
		if _, open := <-ch1; open {
			t.Fatalf("\t%s\tShould close a released channel.", failed)
		}
		t.Logf("\t%s\tShould close a released channel.", success)

		if err := evts.Release("one"); err == nil {
			t.Fatalf("\t%s\tShould get an error releasing an unknown id.", failed)
		}
		t.Logf("\t%s\tShould get an error releasing an unknown id.", success)

		evts.Shutdown()
		if _, open := <-ch2; open || evts.Count() != 0 {
			t.Fatalf("\t%s\tShould close every channel on shutdown.", failed)
		}
		t.Logf("\t%s\tShould close every channel on shutdown.", success)
	}
}
