package server

import (
	"context"
	"testing"
	"time"

	"go.oxrpc.dev/ox/client"
)

// TestContainerScenario is S2: the client sends a slice of ints, the server's
// handler sums them.
func TestContainerScenario(t *testing.T) {
	sum := make(chan int32, 1)
	s := startEchoServer(t, func(nums []int32) {
		var total int32
		for _, n := range nums {
			total += n
		}
		sum <- total
	})

	sess, err := client.Dial(context.Background(), s.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer sess.Close()

	if err := sess.Invoke([]int32{1, 2, 3}); err != nil {
		t.Fatalf("invoke: %v", err)
	}

	select {
	case got := <-sum:
		if got != 6 {
			t.Fatalf("got %d, want 6", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never observed the sum")
	}
}

// capabilities is the aggregate S3 sends back to the client: three callables
// sharing mutable state captured by the server's root handler.
type capabilities struct {
	Inc func()
	Dec func()
	Get func(func(int32))
}

// TestCapabilityObjectScenario is S3: the client sends a single continuation;
// the server replies with an aggregate of three callables (inc, dec, get)
// closing over a shared counter. The client calls inc, inc, dec, then
// get(record) and must observe 1.
func TestCapabilityObjectScenario(t *testing.T) {
	s := startEchoServer(t, func(ready func(capabilities)) {
		var n int32
		ready(capabilities{
			Inc: func() { n++ },
			Dec: func() { n-- },
			Get: func(record func(int32)) { record(n) },
		})
	})

	sess, err := client.Dial(context.Background(), s.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer sess.Close()

	caps := make(chan capabilities, 1)
	if err := sess.Invoke(func(c capabilities) { caps <- c }); err != nil {
		t.Fatalf("invoke: %v", err)
	}

	var c capabilities
	select {
	case c = <-caps:
	case <-time.After(2 * time.Second):
		t.Fatal("capability object never arrived")
	}

	c.Inc()
	c.Inc()
	c.Dec()

	recorded := make(chan int32, 1)
	c.Get(func(v int32) { recorded <- v })

	select {
	case got := <-recorded:
		if got != 1 {
			t.Fatalf("got %d, want 1", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("get never replied")
	}
}
