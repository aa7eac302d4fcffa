package presence

import "strings"

type Status string

const (
	Online  Status = "online"
	Away    Status = "away"
	Busy    Status = "busy"
	Offline Status = "offline"
)

// All lists the statuses in display order.
var All = []Status{Online, Away, Busy, Offline}

// Resolve maps a raw stored status to a known Status. Empty or unknown
// values resolve to Offline.
func Resolve(raw string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case Online:
		return Online
	case Away:
		return Away
	case Busy:
		return Busy
	default:
		return Offline
	}
}

// ResolvePtr is Resolve for optional values.
func ResolvePtr(raw *string) Status {
	if raw == nil {
		return Offline
	}
	return Resolve(*raw)
}

func (s Status) Valid() bool {
	return Resolve(string(s)) == s
}
