package explorer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/AlecAivazis/survey/v2/terminal"
)

func TestAbortOnMapsInterruptAndClosedInput(t *testing.T) {
	other := errors.New("tty gone")
	cases := []struct {
		name string
		in   error
		want error
	}{
		{name: "interrupt", in: terminal.InterruptErr, want: ErrAborted},
		{name: "eof", in: io.EOF, want: ErrAborted},
		{name: "wrapped eof", in: fmt.Errorf("read answer: %w", io.EOF), want: ErrAborted},
		{name: "other", in: other, want: other},
		{name: "nil", in: nil, want: nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := abortOn(tc.in); !errors.Is(got, tc.want) && got != tc.want {
				t.Fatalf("abortOn(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestSurveyDriverInfoWritesPathSummary(t *testing.T) {
	var buf bytes.Buffer
	driver := NewSurveyDriver(&buf)
	if err := driver.Info(context.Background(), "Visible questions (2):"); err != nil {
		t.Fatalf("info: %v", err)
	}
	if got := buf.String(); got != "Visible questions (2):\n" {
		t.Fatalf("unexpected output %q", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := driver.Select(ctx, SelectConfig{Question: 1, Label: "ServiceType"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
