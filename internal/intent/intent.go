// Package intent routes questions between canned conversational replies and
// the SQL-backed business path.
package intent

import (
	"regexp"
	"strings"
)

type Kind int

const (
	Business Kind = iota
	Conversational
)

func (k Kind) String() string {
	if k == Conversational {
		return "conversational"
	}
	return "business"
}

// vocabulary matches phrases in a lower-cased question.
type vocabulary []*regexp.Regexp

// newVocabulary matches whole words only, so "hi" does not match "this".
func newVocabulary(phrases ...string) vocabulary {
	return compileVocabulary(`\b`, `\b`, phrases)
}

// newStemVocabulary anchors only the start of each phrase so inflected forms
// such as "revenues" or "totals" still match.
func newStemVocabulary(phrases ...string) vocabulary {
	return compileVocabulary(`\b`, ``, phrases)
}

func compileVocabulary(prefix, suffix string, phrases []string) vocabulary {
	v := make(vocabulary, 0, len(phrases))
	for _, p := range phrases {
		v = append(v, regexp.MustCompile(prefix+regexp.QuoteMeta(p)+suffix))
	}
	return v
}

func (v vocabulary) matches(lower string) bool {
	for _, re := range v {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

var (
	businessTerms = newStemVocabulary(
		"revenue", "earnings", "sales", "orders", "customers", "items", "best", "least", "top", "average",
		"total", "count", "how much", "how many", "which day", "dine-in", "takeout", "pick up", "earn", "spend",
		"spent", "spending", "customer", "number", "amount", "popular", "selling", "yesterday", "today", "week", "month",
	)

	greetings     = newVocabulary("hello", "hi", "hey", "good morning", "good afternoon", "good evening")
	statusChecks  = newVocabulary("how are you", "how's it going", "what's up")
	gratitude     = newVocabulary("thank you", "thanks", "appreciate it")
	farewells     = newVocabulary("bye", "goodbye", "see you", "talk to you later")
	helpRequests  = newVocabulary("help", "what can you do", "capabilities")
	conversations = []vocabulary{greetings, statusChecks, gratitude, farewells, helpRequests}
)

const (
	greetingReply = "Hello! I'm Nova AI, your sales and inventory assistant. How can I help you today?"
	statusReply   = "I'm doing great! Ready to help you with your sales data and inventory questions. What would you like to know?"
	thanksReply   = "You're welcome! Is there anything else you'd like to know about your sales or inventory?"
	farewellReply = "Goodbye! Feel free to come back anytime if you need help with your sales data."
	helpReply     = "I can help you with sales analysis, inventory tracking, customer insights, and financial reports. " +
		"I can answer questions about best-selling items, revenue, customer spending, order types, and much more. " +
		"Just ask me anything about your business data!"
)

// Classify returns Business whenever a business term is present, Conversational
// when only conversational phrases match, and Business otherwise.
func Classify(question string) Kind {
	lower := strings.ToLower(question)
	if businessTerms.matches(lower) {
		return Business
	}
	for _, v := range conversations {
		if v.matches(lower) {
			return Conversational
		}
	}
	return Business
}

// Respond picks the canned reply for a conversational question. Buckets are
// checked as greeting, status, gratitude, farewell, help; the greeting is the
// fallback.
func Respond(question string) string {
	lower := strings.ToLower(question)
	switch {
	case greetings.matches(lower):
		return greetingReply
	case statusChecks.matches(lower):
		return statusReply
	case gratitude.matches(lower):
		return thanksReply
	case farewells.matches(lower):
		return farewellReply
	case helpRequests.matches(lower):
		return helpReply
	default:
		return greetingReply
	}
}
