package session

// ring кольцевой буфер фиксированной ёмкости: при переполнении вытесняется самое старое сообщение.
// Не потокобезопасен, защищается мьютексом сессии.
type ring struct {
	buf  []Message
	head int
	size int
}

func newRing(capacity int) *ring {
	if capacity < 1 {
		capacity = 1
	}
	return &ring{buf: make([]Message, capacity)}
}

func (r *ring) push(msg Message) {
	if r.size < len(r.buf) {
		r.buf[(r.head+r.size)%len(r.buf)] = msg
		r.size++
		return
	}
	r.buf[r.head] = msg
	r.head = (r.head + 1) % len(r.buf)
}

// items возвращает копию в порядке добавления.
func (r *ring) items() []Message {
	out := make([]Message, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

func (r *ring) last() (Message, bool) {
	if r.size == 0 {
		return Message{}, false
	}
	return r.buf[(r.head+r.size-1)%len(r.buf)], true
}

func (r *ring) len() int {
	return r.size
}

func (r *ring) reset() {
	for i := range r.buf {
		r.buf[i] = Message{}
	}
	r.head = 0
	r.size = 0
}
