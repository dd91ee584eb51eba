package publish

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/FranksOps/followtrack/internal/message"
)

// Stdout prints the post with its length instead of sending it.
type Stdout struct {
	out io.Writer
}

func NewStdout(out io.Writer) *Stdout {
	return &Stdout{out: out}
}

func (s *Stdout) Name() string {
	return KindStdout
}

func (s *Stdout) Publish(ctx context.Context, m Message) (Receipt, error) {
	if _, err := io.WriteString(s.out, Preview(m.Text)); err != nil {
		return Receipt{}, fmt.Errorf("write preview: %w", err)
	}
	return Receipt{}, nil
}

// Preview frames text with its character count against the length limit.
func Preview(text string) string {
	rule := strings.Repeat("=", 50)
	return fmt.Sprintf("Post to publish:\n%s\n%s\nCharacters: %d/%d\n%s\n",
		rule, text, message.Length(text), message.MaxLength, rule)
}
