package notify

import (
	"fmt"
	"strings"

	"github.com/cinescan/cinescan/pkg/showings"
)

// Templates frames the notification body. Greeting is a format string
// taking the recipient's username.
type Templates struct {
	Greeting string
	SignOff  string
}

// DefaultTemplates is used when the configuration does not override the
// framing text.
var DefaultTemplates = Templates{
	Greeting: "Hi %s,\n\nThis is your automated cinema scanner here to tell you which of your favourite movies are showing in a cinema near you! Check them out below :)\n\n",
	SignOff:  "Thanks,\nCineScan",
}

// Compose renders the match result into a notification body. An empty
// result returns ok=false, meaning no message should be sent at all;
// an empty-bodied notification is never produced.
func Compose(result *showings.MatchResult, username string, tmpl Templates) (string, bool) {
	if result.Empty() {
		return "", false
	}

	if tmpl.Greeting == "" {
		tmpl = DefaultTemplates
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf(tmpl.Greeting, username))

	for _, title := range result.Titles() {
		b.WriteString(title)
		b.WriteString(" is showing at:\n")
		for _, entry := range result.Entries(title) {
			b.WriteString(entry)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(tmpl.SignOff)

	return b.String(), true
}
