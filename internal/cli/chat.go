package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/omnibot/internal/presentation/tui"
	"github.com/aretw0/omnibot/pkg/domain"
	"github.com/aretw0/omnibot/pkg/ports"
)

// RunChat plays a conversation in the terminal until the bot hands it off,
// the input ends, or the customer types "exit".
// An existing conversation id resumes where it stopped.
func RunChat(ctx context.Context, engine ports.ConversationEngine, conversationID string, in io.Reader, p *tui.Presenter) error {
	resp, err := engine.Start(ctx, conversationID)
	switch {
	case errors.Is(err, domain.ErrConversationExists):
		exec, err := engine.Execution(ctx, conversationID)
		if err != nil {
			return err
		}
		if exec.Terminal() {
			return fmt.Errorf("%w: %s is %s", domain.ErrNotBotHandled, conversationID, exec.Status)
		}
		p.Note(fmt.Sprintf("resuming conversation %s at node %s", conversationID, exec.CurrentNodeID))
	case err != nil:
		return err
	default:
		conversationID = resp.ConversationID
		p.Show(resp)
		if resp.Type == domain.ResponseTransfer {
			return nil
		}
	}

	scanner := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			return nil
		}
		p.Prompt()
		if !scanner.Scan() {
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		switch text {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		resp, err := engine.HandleMessage(ctx, domain.InboundMessage{
			ConversationID: conversationID,
			Content:        text,
			MessageType:    domain.MessageText,
		})
		if err != nil {
			return err
		}
		p.Show(resp)
		if resp.Type == domain.ResponseTransfer {
			return nil
		}
	}
}
