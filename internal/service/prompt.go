package service

import (
	"fmt"
	"strings"

	"luvv/internal/entity/dto"
	"luvv/internal/llm"
	"luvv/internal/message"
)

const systemPrompt = `You write short Valentine's Day greeting card messages.
Reply with JSON only, shaped exactly as {"messages": ["...", "...", "..."]}.
Never invent or include real names. Write the literal token [RECIPIENT] wherever the recipient's name belongs and [SENDER] wherever the sender's name belongs.`

var toneGuidance = map[string]string{
	dto.ToneRomantic:     "heartfelt and affectionate",
	dto.ToneProfessional: "polished, courteous and businesslike",
	dto.ToneFriendly:     "warm, relaxed and cheerful",
	dto.TonePolite:       "gracious and considerate",
	dto.ToneFunny:        "light-hearted and playful, with gentle humour",
	dto.ToneHeartbroken:  "tender and wistful without being bitter",
	dto.ToneApology:      "sincere and humble, owning a mistake",
	dto.ToneAppreciation: "grateful and generous in praise",
}

// BuildPrompt assembles the provider prompt for a relationship and tone. Names are never
// part of the prompt; the model answers with placeholders.
func BuildPrompt(relationship, tone string) llm.Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "Write %d distinct Valentine's Day messages from %s to %s.\n", message.MaxMessages, message.SenderToken, message.RecipientToken)
	fmt.Fprintf(&b, "The recipient is the sender's %s.\n", strings.ToLower(relationship))
	if guidance, ok := toneGuidance[tone]; ok {
		fmt.Fprintf(&b, "Tone: %s (%s).\n", tone, guidance)
	} else {
		fmt.Fprintf(&b, "Tone: %s.\n", tone)
	}
	b.WriteString(contentPolicy(relationship))
	b.WriteString("\nIf the tone conflicts with these rules, the rules win.\n")
	b.WriteString("Each message should be 40 to 100 words, mention [RECIPIENT] at least once and be signed by [SENDER].\n")
	b.WriteString("Make the three messages clearly different from each other.")

	return llm.Prompt{System: systemPrompt, User: b.String()}
}

func contentPolicy(relationship string) string {
	category, _ := dto.CategoryOf(relationship)
	switch category {
	case dto.CategoryRomantic:
		return "Romantic and intimate language is welcome, but keep it tasteful."
	case dto.CategoryProfessional:
		return fmt.Sprintf("This is a professional relationship. Do not use romantic, flirtatious or intimate language of any kind; keep it respectful and appropriate for a %s.", strings.ToLower(relationship))
	case dto.CategoryFormerPartner:
		return "This is a former partner. Do not use romantic or flirtatious language, and do not be hostile, bitter or blaming. Keep it kind and respectful."
	case dto.CategoryFamily:
		return "This is a family member. Keep it warm and platonic. Do not use romantic language."
	default:
		return "This is a friend. Keep it warm and platonic. Do not use romantic language."
	}
}
