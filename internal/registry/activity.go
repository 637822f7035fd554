package registry

// Activity is a named extracurricular offering with a fixed capacity and an
// ordered list of participant emails.
type Activity struct {
	Name            string   `json:"-"`
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// Availability is max_participants minus the current participant count.
// It goes negative if an activity was oversubscribed.
func (a Activity) Availability() int {
	return a.MaxParticipants - len(a.Participants)
}

// HasParticipant reports whether email is already listed.
func (a Activity) HasParticipant(email string) bool {
	return indexOf(a.Participants, email) >= 0
}

func (a Activity) clone() Activity {
	out := a
	out.Participants = make([]string, len(a.Participants))
	copy(out.Participants, a.Participants)
	return out
}

func indexOf(list []string, email string) int {
	for i, p := range list {
		if p == email {
			return i
		}
	}
	return -1
}
