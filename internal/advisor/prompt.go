package advisor

import (
	"fmt"
	"strings"
	"time"

	"teddy/internal/core"
	"teddy/internal/stats"
)

// RecentLimit is how many of the latest transactions the prompt lists.
const RecentLimit = 20

const promptDate = "1/2/2006"

// Greeting is Leo's opening message for a new conversation.
func Greeting(p core.Profile) Message {
	return Message{
		Role: RoleAssistant,
		Content: fmt.Sprintf("Hey %s! 👋 I'm Leo, your personal financial advisor here in Teddy. "+
			"I have full access to your transaction history, so I can help you understand your spending patterns, "+
			"suggest ways to save money, or answer any questions about your finances. How can I help you today?",
			p.DisplayName("there")),
	}
}

// SystemPrompt describes Leo's persona and the user's current finances.
// txs is expected most recent first.
func SystemPrompt(p core.Profile, txs []core.Transaction, now time.Time) string {
	s := stats.Summarize(txs, now)

	var b strings.Builder
	b.WriteString("You are Leo, a friendly, warm and highly analytical financial advisor in the Teddy app.\n\n")
	b.WriteString("INSTRUCTIONS:\n")
	b.WriteString("1. IDENTITY: You are Leo, with a smart, optimistic and helpful personality.\n")
	b.WriteString("2. DATA: You have live access to the user's finances listed below. Use specific numbers, dates and categories.\n")
	b.WriteString("3. TONE: Be human, engaging and conversational.\n")
	b.WriteString("4. LENGTH: Keep answers short, usually two or three sentences, unless asked for more.\n\n")

	b.WriteString("USER CONTEXT:\n")
	fmt.Fprintf(&b, "- Name: %s\n", p.DisplayName("there"))
	fmt.Fprintf(&b, "- Date: %s\n\n", now.Format(promptDate))

	b.WriteString("FINANCIAL DATA:\n")
	fmt.Fprintf(&b, "- Total Spent (All Time): $%s\n", s.Total.Fixed())
	fmt.Fprintf(&b, "- This Month: $%s\n", s.ThisMonth.Fixed())
	fmt.Fprintf(&b, "- Last Month: $%s\n", s.LastMonth.Fixed())
	fmt.Fprintf(&b, "- Transaction Count: %d\n\n", s.TransactionCount)

	b.WriteString("TOP CATEGORIES:\n")
	if len(s.ByCategory) == 0 {
		b.WriteString("  No data.\n")
	}
	for _, ca := range s.ByCategory {
		fmt.Fprintf(&b, "  - %s: $%s\n", ca.Name, ca.Amount.Fixed())
	}

	b.WriteString("\nRECENT TRANSACTIONS:\n")
	recent := txs
	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}
	if len(recent) == 0 {
		b.WriteString("  No transactions.\n")
	}
	for _, tx := range recent {
		fmt.Fprintf(&b, "  - %s: %s - $%s", tx.Date.In(now.Location()).Format(promptDate), tx.Category, tx.Amount.Fixed())
		if tx.Description != "" {
			fmt.Fprintf(&b, " (%s)", tx.Description)
		}
		b.WriteByte('\n')
	}

	b.WriteString("\nStart by answering the user's question directly using the data above.")
	return b.String()
}
