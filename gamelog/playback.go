package gamelog

// Playback is a cursor over the frames of a game log.
type Playback struct {
	log   *GameLog
	index int
}

// NewPlayback creates a cursor positioned on the first frame.
func NewPlayback(g *GameLog) *Playback {
	return &Playback{log: g}
}

// Log returns the log being played back.
func (p *Playback) Log() *GameLog {
	return p.log
}

// Len returns the number of frames.
func (p *Playback) Len() int {
	return len(p.log.Game)
}

// Index returns the current frame index (0-based).
func (p *Playback) Index() int {
	return p.index
}

// Current returns the current frame, or nil for an empty log.
func (p *Playback) Current() *Frame {
	if p.Len() == 0 {
		return nil
	}
	return &p.log.Game[p.index]
}

// Forward advances one frame. Returns false if already at the last frame.
func (p *Playback) Forward() bool {
	if p.index >= p.Len()-1 {
		return false
	}
	p.index++
	return true
}

// Back moves one frame back. Returns false if already at the first frame.
func (p *Playback) Back() bool {
	if p.index == 0 {
		return false
	}
	p.index--
	return true
}

// Seek jumps to frame i, clamped to the valid range.
func (p *Playback) Seek(i int) {
	switch {
	case p.Len() == 0 || i < 0:
		p.index = 0
	case i >= p.Len():
		p.index = p.Len() - 1
	default:
		p.index = i
	}
}

// First jumps to the first frame.
func (p *Playback) First() {
	p.Seek(0)
}

// Last jumps to the last frame.
func (p *Playback) Last() {
	p.Seek(p.Len() - 1)
}

// AtEnd returns true if the cursor is on the last frame.
func (p *Playback) AtEnd() bool {
	return p.index >= p.Len()-1
}
