package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/omnibot/pkg/domain"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsInteractive reports whether f is attached to a terminal.
func IsInteractive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Presenter prints bot responses for the chat command.
type Presenter struct {
	out     io.Writer
	render  func(string) (string, error)
	profile termenv.Profile
}

// NewPresenter creates a presenter. Styling (markdown and colors) is applied only when styled is set.
func NewPresenter(out io.Writer, styled bool) *Presenter {
	profile := termenv.Ascii
	if styled {
		profile = termenv.ColorProfile()
	}
	return &Presenter{out: out, render: NewRenderer(styled), profile: profile}
}

// Show prints one bot response.
func (p *Presenter) Show(resp *domain.BotResponse) {
	if resp == nil {
		return
	}
	body, err := p.render(resp.Content)
	if err != nil {
		body = resp.Content
	}
	body = strings.TrimRight(body, "\n")

	prefix := p.style("bot>", "#34d399")
	if resp.Type == domain.ResponseError {
		prefix = p.style("bot!", "#f87171")
	}
	fmt.Fprintf(p.out, "%s %s\n", prefix, body)

	for i, b := range resp.Buttons {
		fmt.Fprintf(p.out, "  %s %s\n", p.style(fmt.Sprintf("[%d]", i+1), "#60a5fa"), b)
	}
	if resp.RequiresInput && resp.InputType != "" && resp.InputType != domain.InputButton && resp.InputType != domain.InputText {
		fmt.Fprintf(p.out, "  %s\n", p.style("("+string(resp.InputType)+")", "#9ca3af"))
	}
	if resp.Type == domain.ResponseTransfer {
		queue := resp.TransferQueue
		if queue == "" {
			queue = domain.DefaultQueue
		}
		fmt.Fprintf(p.out, "%s\n", p.style("-- transferred to queue "+queue+" --", "#fbbf24"))
	}
}

// Note prints a line that is not part of the conversation.
func (p *Presenter) Note(text string) {
	fmt.Fprintf(p.out, "%s\n", p.style(">>> "+text, "#9ca3af"))
}

// Prompt prints the customer prompt.
func (p *Presenter) Prompt() {
	fmt.Fprint(p.out, p.style("you> ", "#e5e7eb"))
}

func (p *Presenter) style(s, color string) string {
	if p.profile == termenv.Ascii {
		return s
	}
	return termenv.String(s).Foreground(p.profile.Color(color)).String()
}
