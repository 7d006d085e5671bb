package app

import (
	"sync"

	"gocv.io/x/gocv"
)

// Preview holds the most recent camera frame as JPEG. Front camera frames are
// mirrored so the preview behaves like a mirror.
type Preview struct {
	mu     sync.RWMutex
	jpeg   []byte
	seq    uint64
	notify chan struct{}
}

// NewPreview creates an empty Preview.
func NewPreview() *Preview {
	return &Preview{notify: make(chan struct{})}
}

// Update encodes mat and publishes it.
func (p *Preview) Update(mat *gocv.Mat, frontFacing bool) error {
	src := *mat
	if frontFacing {
		flipped := gocv.NewMat()
		defer flipped.Close()
		gocv.Flip(*mat, &flipped, 1)
		src = flipped
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, src)
	if err != nil {
		return err
	}
	defer buf.Close()

	p.Publish(buf.GetBytes())
	return nil
}

// Publish stores an already encoded JPEG and wakes every waiter.
func (p *Preview) Publish(jpeg []byte) {
	data := make([]byte, len(jpeg))
	copy(data, jpeg)

	p.mu.Lock()
	p.jpeg = data
	p.seq++
	close(p.notify)
	p.notify = make(chan struct{})
	p.mu.Unlock()
}

// Latest returns the current frame and its sequence number. The sequence is 0 until
// the first frame is published.
func (p *Preview) Latest() ([]byte, uint64, <-chan struct{}) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.jpeg, p.seq, p.notify
}
