package message

// GenericFallbacks are relationship-agnostic greetings in template form. The front end
// carries the same strings for when the gateway cannot be reached at all.
var GenericFallbacks = []string{
	"To [RECIPIENT], Wishing you a wonderful Valentine's Day filled with joy. You are truly appreciated. With love, [SENDER]",
	"Dearest [RECIPIENT], thank you for being such a wonderful part of my life. Happy Valentine's Day! Best, [SENDER]",
	"Happy Valentine's Day, [RECIPIENT]! Sending you warmth and happiness today and always. From [SENDER]",
}
