package domain

type EventKind string

const (
	KindPlay              EventKind = "PLAY"
	KindPause             EventKind = "PAUSE"
	KindSeekTo            EventKind = "SEEK_TO"
	KindMembershipChanged EventKind = "MEMBERSHIP_CHANGED"
)

// PlaybackEvent is one of Play, Pause or SeekTo. Timestamp is meaningful only for SeekTo.
type PlaybackEvent struct {
	Kind      EventKind
	Timestamp float64
}

func Play() PlaybackEvent {
	return PlaybackEvent{Kind: KindPlay}
}

func Pause() PlaybackEvent {
	return PlaybackEvent{Kind: KindPause}
}

func SeekTo(timestamp float64) PlaybackEvent {
	return PlaybackEvent{Kind: KindSeekTo, Timestamp: timestamp}
}

// Event is what a connection receives: a relayed playback event or a membership snapshot.
type Event struct {
	Kind      EventKind
	Timestamp float64
	From      string
	Members   []string
}

func Relayed(ev PlaybackEvent, from string) Event {
	return Event{
		Kind:      ev.Kind,
		Timestamp: ev.Timestamp,
		From:      from,
	}
}

func MembershipChanged(members []string) Event {
	return Event{
		Kind:    KindMembershipChanged,
		Members: members,
	}
}
