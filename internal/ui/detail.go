package ui

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rivo/tview"

	"github.com/Devcode940/kenyawatch/internal/civic"
	"github.com/Devcode940/kenyawatch/internal/store"
)

// renderProfile formats a profile with tview color tags.
func renderProfile(p store.Profile, theme Theme) string {
	var b strings.Builder
	r := p.Representative
	heading := func(s string) {
		fmt.Fprintf(&b, "\n[%s::b]%s[-::-]\n", theme.TagAccent, s)
	}
	muted := func(s string) {
		fmt.Fprintf(&b, "  [%s]%s[-]\n", theme.TagMuted, tview.Escape(s))
	}

	fmt.Fprintf(&b, "[%s::b]%s[-::-]  %s\n", theme.TagTextPrimary, tview.Escape(r.Name), tview.Escape(string(r.Position)))
	place := r.ConstituencyOrWard
	if r.County != "" && r.County != place {
		place = strings.TrimSpace(place + ", " + r.County)
	}
	fmt.Fprintf(&b, "%s | %s\n", tview.Escape(place), tview.Escape(r.Party))
	if r.VotesGarnered != nil {
		fmt.Fprintf(&b, "Votes garnered: %s\n", humanize.Comma(*r.VotesGarnered))
	}

	var contact []string
	for _, c := range []struct{ label, value string }{
		{"Email", r.ContactInfo.Email},
		{"Phone", r.ContactInfo.Phone},
		{"Office", r.ContactInfo.OfficeAddress},
		{"Twitter", r.ContactInfo.Twitter},
		{"Facebook", r.ContactInfo.Facebook},
	} {
		if c.value != "" {
			contact = append(contact, c.label+": "+c.value)
		}
	}
	if len(contact) > 0 {
		fmt.Fprintf(&b, "%s\n", tview.Escape(strings.Join(contact, "  ")))
	}
	if r.ParticipationRecordSummary != "" {
		heading("Participation")
		fmt.Fprintf(&b, "  %s\n", tview.Escape(r.ParticipationRecordSummary))
	}

	heading("Performance Metrics")
	if len(p.Metrics) == 0 {
		muted("No performance metrics recorded.")
	}
	for _, m := range p.Metrics {
		value := m.Value.String()
		if m.Unit == "%" {
			value += "%"
		} else if m.Unit != "" {
			value += " " + m.Unit
		}
		fmt.Fprintf(&b, "  %s: [::b]%s[::-]%s\n", tview.Escape(m.Name), tview.Escape(value), trendMark(m.Trend, theme))
	}

	heading("Highlights")
	if len(p.Highlights) == 0 {
		muted("No highlights yet. Press h to generate them from social media.")
	}
	for _, h := range p.Highlights {
		date := h.Date
		if len(date) >= 10 {
			date = date[:10]
		}
		fmt.Fprintf(&b, "  %s [%s]%s[-] %s\n", date, theme.TagWarning, tview.Escape(string(h.Category)), tview.Escape(h.Title))
		if h.Description != "" {
			muted("    " + h.Description)
		}
	}

	heading("Citizen Reviews")
	if len(p.Reviews) == 0 {
		muted("No reviews yet. Press v to add one.")
	}
	for _, rv := range p.Reviews {
		stars := strings.Repeat("★", rv.Rating) + strings.Repeat("☆", civic.MaxRating-rv.Rating)
		fmt.Fprintf(&b, "  [%s]%s[-] %s (%s)\n", theme.TagWarning, stars, tview.Escape(rv.UserName), humanize.Time(rv.CreatedAt))
		muted("    " + rv.Comment)
	}

	heading("Integrity Report")
	if p.Report == nil {
		muted("No integrity report yet. Press c to run a fact check or i to summarize the news.")
	} else {
		fmt.Fprintf(&b, "  [%s]%s, %s[-]\n", theme.TagMuted, p.Report.Kind, humanize.Time(p.Report.CreatedAt))
		fmt.Fprintf(&b, "  %s\n", tview.Escape(p.Report.Report))
	}
	return b.String()
}

func trendMark(t civic.Trend, theme Theme) string {
	switch t {
	case civic.TrendUp:
		return fmt.Sprintf(" [%s]↑[-]", theme.TagSuccess)
	case civic.TrendDown:
		return fmt.Sprintf(" [%s]↓[-]", theme.TagError)
	case civic.TrendStable:
		return fmt.Sprintf(" [%s]→[-]", theme.TagMuted)
	}
	return ""
}
