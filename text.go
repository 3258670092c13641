package main

import (
	"fmt"
	"html/template"
	"strings"
	"time"
)

var (
	PrivacyIntro = `This site keeps as little about you as it can. Page views are counted so
	I know which sections people read, and contact messages are stored so none get lost
	if email delivery fails.`

	PrivacyVisitors = `Your IP address is never stored. It is combined with a random salt and hashed,
	and only the first 16 characters of that hash are kept together with your browser's user agent,
	the page path and the time of the visit. Visit records are deleted after 12 months.`

	PrivacyDNT = `If your browser sends a Do Not Track header, no visit is recorded at all.`

	PrivacyContact = `Messages sent through the contact form are stored with the name and email
	address you enter so I can reply. Ask through the same form and they will be deleted.`

	ContactSuccess = "Thank you for your message! I'll get back to you soon."
	ContactFailure = "Sorry, there was an error sending your message. Please try again later."
)

var templateFuncs = template.FuncMap{
	"statValue": statValue,
	"join":      strings.Join,
	"initial":   initial,
	"ago":       ago,
	"datetime":  func(t time.Time) string { return t.Local().Format("Jan 2, 2006 15:04") },
	"year":      func() int { return time.Now().Year() },
}

// statValue renders a statistic the way the profile cards show it.
func statValue(v any) string {
	switch n := v.(type) {
	case nil:
		return "N/A"
	case float64:
		if n == float64(int64(n)) {
			return fmt.Sprintf("%d", int64(n))
		}
		return fmt.Sprintf("%g", n)
	default:
		return fmt.Sprint(v)
	}
}

func initial(s string) string {
	for _, r := range strings.TrimSpace(s) {
		return strings.ToUpper(string(r))
	}
	return ""
}

func ago(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "never"
	}
	d := time.Since(*t).Round(time.Minute)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d min ago", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%d h ago", int(d.Hours()))
	default:
		return t.Local().Format("Jan 2, 2006")
	}
}
