package stream

// Defaults assumed for a speaker until a config envelope arrives.
const (
	DefaultSampleRate = 16000
	DefaultChannels   = 1
)

// ChannelState buffers PCM16 bytes for one speaker in one stream format.
// A format change drops whatever was buffered, so audio from two formats
// is never transcribed together.
type ChannelState struct {
	sampleRate int
	channels   int
	threshold  int
	maxBytes   int
	buf        []byte
}

func (c *ChannelState) SampleRate() int { return c.sampleRate }

func (c *ChannelState) Channels() int { return c.channels }

func (c *ChannelState) Len() int { return len(c.buf) }

// Configure sets the stream format and buffering limits. Changing the
// (sampleRate, channels) pair discards buffered bytes from the old format.
func (c *ChannelState) Configure(sampleRate, channels, threshold, maxBytes int) {
	if sampleRate != c.sampleRate || channels != c.channels {
		c.buf = nil
	}
	c.sampleRate = sampleRate
	c.channels = channels
	c.threshold = threshold
	c.maxBytes = maxBytes
}

// Append adds one received chunk. When the buffer cap is exceeded the
// oldest bytes are dropped; the dropped count is returned so the caller
// can log it.
func (c *ChannelState) Append(p []byte) (dropped int) {
	c.buf = append(c.buf, p...)
	return c.trim()
}

// Ready reports whether enough audio is buffered to transcribe.
func (c *ChannelState) Ready() bool {
	return c.threshold > 0 && len(c.buf) >= c.threshold
}

// Flush takes all buffered bytes, leaving the buffer empty.
func (c *ChannelState) Flush() []byte {
	b := c.buf
	c.buf = nil
	return b
}

// Restore puts back bytes a failed transcription did not consume. The cap
// still applies.
func (c *ChannelState) Restore(p []byte) (dropped int) {
	if len(c.buf) == 0 {
		c.buf = p
	} else {
		c.buf = append(p, c.buf...)
	}
	return c.trim()
}

func (c *ChannelState) trim() (dropped int) {
	if c.maxBytes <= 0 || len(c.buf) <= c.maxBytes {
		return 0
	}
	dropped = len(c.buf) - c.maxBytes
	keep := make([]byte, c.maxBytes)
	copy(keep, c.buf[dropped:])
	c.buf = keep
	return dropped
}
