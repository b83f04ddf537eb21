package events_test

import (
	"testing"

	"github.com/okilalu/Blockchain/foundation/events"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Events(t *testing.T) {
	evts := events.New()

	t.Log("Given the need to fan events out to subscribers.")
	{
		ch1 := evts.Acquire("1")
		ch2 := evts.Acquire("2")

		if evts.Acquire("1") != ch1 {
			t.Fatalf("\t%s\tShould get back the same channel for the same id.", failed)
		}
		t.Logf("\t%s\tShould get back the same channel for the same id.", success)

		evts.Send("viewer: block: 1")

		if msg := <-ch1; msg != "viewer: block: 1" {
			t.Fatalf("\t%s\tShould receive the message on channel 1, got %q.", failed, msg)
		}
		if msg := <-ch2; msg != "viewer: block: 1" {
			t.Fatalf("\t%s\tShould receive the message on channel 2, got %q.", failed, msg)
		}
		t.Logf("\t%s\tShould receive the message on every channel.", success)

		if err := evts.Release("1"); err != nil {
			t.Fatalf("\t%s\tShould be able to release channel 1: %s", failed, err)
		}
		if _, open := <-ch1; open {
			t.Fatalf("\t%s\tShould get a closed channel after release.", failed)
		}
		if err := evts.Release("1"); err == nil {
			t.Fatalf("\t%s\tShould not be able to release channel 1 twice.", failed)
		}
		t.Logf("\t%s\tShould be able to release a channel once.", success)

		for i := 0; i < 150; i++ {
			evts.Send("flood")
		}
		if evts.Dropped() != 50 {
			t.Fatalf("\t%s\tShould drop events for a full subscriber, got %d.", failed, evts.Dropped())
		}
		t.Logf("\t%s\tShould drop events for a full subscriber.", success)

		evts.Shutdown()
		if evts.Count() != 0 {
			t.Fatalf("\t%s\tShould remove every channel on shutdown, got %d.", failed, evts.Count())
		}
		t.Logf("\t%s\tShould remove every channel on shutdown.", success)

		for range ch2 {
		}
	}
}

func Test_EventsFilter(t *testing.T) {
	evts := events.New()
	defer evts.Shutdown()

	t.Log("Given the need to only deliver the events a subscriber asked for.")
	{
		ch := evts.Acquire("viewer", "viewer: block: ")

		evts.Send("state: Commit: write to disk: blk[1]")
		evts.Send("viewer: block: {\"index\":1}")

		if msg := <-ch; msg != "viewer: block: {\"index\":1}" {
			t.Fatalf("\t%s\tShould only receive block events, got %q.", failed, msg)
		}
		if len(ch) != 0 {
			t.Fatalf("\t%s\tShould not receive other events.", failed)
		}
		t.Logf("\t%s\tShould only receive block events.", success)
	}
}
