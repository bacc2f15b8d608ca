package assistant

import (
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Stream is a lazy, finite, non-restartable sequence of reply text fragments.
// Recv returns io.EOF after the last fragment. Close releases the underlying
// transport and cancels any in-flight production.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// Collect drains a stream into the final reply string. The upstream API
// retransmits the first chunk at end of stream, so a final fragment that
// exactly repeats the text accumulated so far is dropped. A repeat that is
// followed by more fragments is real content and is kept.
func Collect(s Stream) (string, error) {
	defer s.Close()

	var b strings.Builder
	var pending string
	for {
		fragment, err := s.Recv()
		if err == io.EOF {
			return b.String(), nil
		}
		if err != nil {
			return "", err
		}
		if fragment == "" {
			continue
		}
		if pending != "" {
			b.WriteString(pending)
			pending = ""
		}
		if b.Len() > 0 && fragment == b.String() {
			pending = fragment
			continue
		}
		b.WriteString(fragment)
	}
}

// fragmentStream yields a fixed slice of fragments, used for completed
// assistant messages whose content arrives as parts.
type fragmentStream struct {
	fragments []string
	next      int
}

func newFragmentStream(fragments []string) *fragmentStream {
	return &fragmentStream{fragments: fragments}
}

func (s *fragmentStream) Recv() (string, error) {
	if s.next >= len(s.fragments) {
		return "", io.EOF
	}
	f := s.fragments[s.next]
	s.next++
	return f, nil
}

func (s *fragmentStream) Close() error {
	s.next = len(s.fragments)
	return nil
}

// chatStream adapts a chat-completion delta stream to Stream.
type chatStream struct {
	inner *openai.ChatCompletionStream
}

func (s *chatStream) Recv() (string, error) {
	resp, err := s.inner.Recv()
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Delta.Content, nil
}

func (s *chatStream) Close() error {
	return s.inner.Close()
}
