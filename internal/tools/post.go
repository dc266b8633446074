package tools

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	PostToolName = "post_content"

	// PostErrorPrefix marca una pubblicazione fallita
	PostErrorPrefix = "[POST ERROR]"
)

// Publisher invia un post finito a una piattaforma social
type Publisher interface {
	Publish(ctx context.Context, platform, content string) (string, error)
}

// MockPublisher conferma ogni post senza alcun I/O
type MockPublisher struct{}

func (MockPublisher) Publish(ctx context.Context, platform, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("Successfully posted to %s (%d characters).", platform, utf8.RuneCountInString(content)), nil
}

// NewPostTool costruisce la capability post_content legata a una piattaforma
func NewPostTool(platform string, pub Publisher) Tool {
	fn := func(ctx context.Context, content string) string {
		if strings.TrimSpace(content) == "" {
			return PostErrorPrefix + " content is required"
		}

		ack, err := pub.Publish(ctx, platform, content)
		if err != nil {
			return fmt.Sprintf("%s %v", PostErrorPrefix, err)
		}
		return ack
	}

	return Tool{
		Name:         PostToolName,
		Description:  fmt.Sprintf("Publish the final post text to %s. Returns a confirmation message.", platform),
		Argument:     "content",
		ArgumentHelp: "The complete post text to publish.",
		Fn:           fn,
	}
}
