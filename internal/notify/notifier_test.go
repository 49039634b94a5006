package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/skillhunt/messaging-backend/internal/models"
)

func TestPublishWithoutSubscribersIsDropped(t *testing.T) {
	n := NewNotifier()
	done := make(chan struct{})
	go func() {
		n.Publish(models.Message{ID: "m1"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish with no subscribers must not block")
	}
}

func TestBroadcastReachesEverySubscriber(t *testing.T) {
	assert := assert.New(t)
	n := NewNotifier()

	ch1, cancel1 := n.Subscribe()
	defer cancel1()
	ch2, cancel2 := n.Subscribe()
	defer cancel2()

	n.Publish(models.Message{ID: "m1", Text: "hello"})

	for _, ch := range []<-chan models.Message{ch1, ch2} {
		select {
		case msg := <-ch:
			assert.Equal("m1", msg.ID)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the broadcast")
		}
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	assert := assert.New(t)
	n := NewNotifier()

	ch1, cancel1 := n.Subscribe()
	ch2, cancel2 := n.Subscribe()
	defer cancel2()

	cancel1()
	// double cancel is harmless
	cancel1()

	n.Publish(models.Message{ID: "m1"})

	_, open := <-ch1
	assert.False(open, "cancelled subscriber channel should be closed")

	select {
	case msg := <-ch2:
		assert.Equal("m1", msg.ID)
	case <-time.After(time.Second):
		t.Fatal("remaining subscriber should still receive")
	}
}

func TestSlowSubscriberDoesNotBlockPublisher(t *testing.T) {
	n := NewNotifier()
	_, cancel := n.Subscribe() // nobody drains this channel
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			n.Publish(models.Message{ID: "m"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}
}

func TestConcurrentSubscribeAndPublish(t *testing.T) {
	n := NewNotifier()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, cancel := n.Subscribe()
			cancel()
		}()
		go func() {
			defer wg.Done()
			n.Publish(models.Message{ID: "m"})
		}()
	}
	wg.Wait()
}
