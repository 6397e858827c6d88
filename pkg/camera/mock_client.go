package camera

import (
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

// Minimal JPEG markers so the frame passes MIME sniffing downstream.
var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
var jpegTrailer = []byte{0xFF, 0xD9}

type mockClient struct {
	mu        sync.Mutex
	delay     time.Duration
	rng       *rand.Rand
	available bool
	open      int32
	captures  int64
}

func NewMock(delay time.Duration, rng *rand.Rand, available bool) *MockClient {
	return &MockClient{mockClient{delay: delay, rng: rng, available: available}}
}

// MockClient is exported so tests can assert the stream was released.
type MockClient struct{ mockClient }

func (m *MockClient) OpenStreams() int32 { return atomic.LoadInt32(&m.open) }

func (m *MockClient) Acquire() (*Frame, func(), error) {
	time.Sleep(m.delay)
	if !m.available {
		return nil, nil, ErrUnavailable
	}
	atomic.AddInt32(&m.open, 1)
	release := func() { atomic.AddInt32(&m.open, -1) }

	m.mu.Lock()
	n := atomic.AddInt64(&m.captures, 1)
	body := make([]byte, 512+m.rng.Intn(2048))
	m.rng.Read(body)
	m.mu.Unlock()

	data := append(append(append([]byte{}, jpegHeader...), body...), jpegTrailer...)
	return &Frame{
		Name: fmt.Sprintf("capture-%d.jpg", n),
		MIME: "image/jpeg",
		Data: data,
	}, release, nil
}
