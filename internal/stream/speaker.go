package stream

// Speaker identifies one side of a two-party call. The wire protocol only
// ever names these two values; anything else is treated as the user side,
// so per-speaker maps stay bounded.
type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerOther Speaker = "other"
)

func ParseSpeaker(s string) Speaker {
	if s == string(SpeakerOther) {
		return SpeakerOther
	}
	return SpeakerUser
}

func (s Speaker) String() string { return string(s) }
