package agent

// Session keeps an in-memory sliding window of conversation messages. The
// system prompt is not tracked here; the loop prepends a fresh one on every
// call.
type Session struct {
	messages []Message
	window   int
}

func NewSession(window int) *Session {
	return &Session{
		messages: make([]Message, 0, window),
		window:   window,
	}
}

func (s *Session) Add(msg Message) {
	s.messages = append(s.messages, msg)
	s.trim()
}

func (s *Session) AddAll(msgs []Message) {
	s.messages = append(s.messages, msgs...)
	s.trim()
}

// trim drops old messages once the window is exceeded, preferring to cut at
// a user message so tool call and tool result pairs stay intact.
func (s *Session) trim() {
	if len(s.messages) <= s.window {
		return
	}

	excess := len(s.messages) - s.window

	cutPoint := excess
	for i := excess; i < len(s.messages) && i < excess+5; i++ {
		if s.messages[i].Role == "user" {
			cutPoint = i
			break
		}
	}

	s.messages = s.messages[cutPoint:]
}

func (s *Session) Get() []Message {
	return s.messages
}

func (s *Session) Clear() {
	s.messages = s.messages[:0]
}

func (s *Session) Len() int {
	return len(s.messages)
}
