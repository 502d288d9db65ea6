package persona

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/trapline-ai/trapline/internal/gemini"
)

const replyPrompt = `You are playing the role of a potential scam victim to safely engage a scammer and extract information.

CHARACTER PROFILE:
- Name: %s
- Age: %d
- Occupation: %s
- Personality: %s
- Speaking style: %s

YOUR GOAL:
1. Stay in character as a believable potential victim
2. Show interest but ask clarifying questions
3. Try to get the scammer to reveal:
   - Bank account numbers
   - UPI IDs (like xyz@paytm, abc@upi)
   - Phone numbers
   - Payment links or websites
4. Never actually send money or real personal info
5. Keep responses short (1-3 sentences)
6. Sound like a real Indian person - use Hindi-English mix naturally

FULL CONVERSATION HISTORY:
%s

LATEST MESSAGE FROM SCAMMER:
%s

Generate your next response as %s. Stay in character. Be curious but slightly hesitant. Ask about payment details naturally.

RESPOND WITH ONLY THE MESSAGE TEXT (no quotes, no "Response:", just the message):`

// fallbackReplies keep the conversation moving when the LLM is unavailable.
// The pick rotates deterministically on turn count.
var fallbackReplies = []string{
	"Ji ji, please tell me more about this. How do I proceed?",
	"Okay beta, but how will I receive the money? What details you need?",
	"This sounds interesting. Where should I send the payment?",
	"I am interested, but first tell me your bank details for verification.",
	"My husband is asking - please share your UPI ID so we can verify.",
	"Haan ji, I understand. What is the account number I should note down?",
	"Beta, is this genuine? Please share your contact number also.",
	"Ok ji, I will do the needful. Just tell me where to pay.",
}

// Generator produces in-character replies. A nil llm means every reply comes
// from the fallback rotation.
type Generator struct {
	llm    *gemini.Client
	logger *slog.Logger
}

func NewGenerator(llm *gemini.Client, logger *slog.Logger) *Generator {
	return &Generator{llm: llm, logger: logger}
}

// Reply generates the persona's next message. It never fails: on any
// collaborator error it substitutes a deterministic fallback so the
// conversation never stalls.
func (g *Generator) Reply(ctx context.Context, p Persona, conversation, latest string, turnCount int) string {
	if g.llm == nil {
		return Fallback(turnCount)
	}

	prompt := fmt.Sprintf(replyPrompt,
		p.Name, p.Age, p.Occupation,
		strings.Join(p.Characteristics, ", "),
		p.Style,
		conversation,
		latest,
		p.Name,
	)

	reply, err := g.llm.Generate(ctx, prompt)
	if err != nil {
		g.logger.Warn("reply generation failed, using fallback", "error", err)
		return Fallback(turnCount)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return Fallback(turnCount)
	}
	return reply
}

// Fallback returns the canned reply for the given turn count.
func Fallback(turnCount int) string {
	if turnCount < 0 {
		turnCount = 0
	}
	return fallbackReplies[turnCount%len(fallbackReplies)]
}
