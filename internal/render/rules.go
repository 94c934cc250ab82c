package render

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"

	"resume-builder/internal/model"
)

// Formatting rules shared by the preview and export paths. Both renderers
// only ever see a Layout produced from these.

var months = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

var (
	yearMonth = regexp.MustCompile(`^(\d{4})-(\d{1,2})(?:-\d{1,2})?$`)
	schemeRe  = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+-]*:`)
)

const present = "Present"

// FormatDate renders YYYY-MM and YYYY-MM-DD as "Jan 2020" and keeps any
// other text, a bare year included, trimmed.
func FormatDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	switch strings.ToLower(s) {
	case "present", "current", "now":
		return present
	}
	if m := yearMonth.FindStringSubmatch(s); m != nil {
		mon := 0
		for _, c := range m[2] {
			mon = mon*10 + int(c-'0')
		}
		if mon >= 1 && mon <= 12 {
			return months[mon-1] + " " + m[1]
		}
	}
	return s
}

// DateRange joins a start and end date. A missing end reads as Present, a
// missing start shows the end alone.
func DateRange(start, end string) string {
	start, end = FormatDate(start), FormatDate(end)
	switch {
	case start != "" && end != "":
		return start + " – " + end
	case start != "":
		return start + " – " + present
	default:
		return end
	}
}

// Link is a rendered hyperlink.
type Link struct {
	Label string
	Href  string
}

// Href returns the stored value with https:// prepended when it has no scheme.
func Href(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || schemeRe.MatchString(raw) {
		return raw
	}
	return "https://" + raw
}

func parseHost(raw string) (*url.URL, bool) {
	u, err := url.Parse(Href(raw))
	if err != nil || u.Hostname() == "" {
		return nil, false
	}
	return u, true
}

// bareHost drops a leading www. label unless what remains would be a bare
// public suffix, as with www.com.
func bareHost(u *url.URL) string {
	host := u.Hostname()
	rest, ok := strings.CutPrefix(host, "www.")
	if !ok {
		return host
	}
	if _, err := publicsuffix.EffectiveTLDPlusOne(rest); err != nil {
		return host
	}
	return rest
}

// LinkLabel is the bare host of raw: scheme, www. and path are dropped.
// Subdomains are kept.
func LinkLabel(raw string) string {
	raw = strings.TrimSpace(raw)
	u, ok := parseHost(raw)
	if !ok {
		return raw
	}
	return bareHost(u)
}

// ProfileLabel keeps host and path, for personal links such as a LinkedIn
// profile where the path is the point.
func ProfileLabel(raw string) string {
	raw = strings.TrimSpace(raw)
	u, ok := parseHost(raw)
	if !ok {
		return raw
	}
	return bareHost(u) + strings.TrimRight(u.EscapedPath(), "/")
}

func entryLink(raw string) *Link {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return &Link{Label: LinkLabel(raw), Href: Href(raw)}
}

// Suppressed reports whether an entry is left out of the output: every key
// field is blank. Bullets and other fields do not count.
func Suppressed(d model.Descriptor, e model.Entry) bool {
	for _, name := range d.KeyFields() {
		if strings.TrimSpace(e.Get(name)) != "" {
			return false
		}
	}
	return true
}

// CleanLines trims every line and drops blank ones.
func CleanLines(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func joinNonBlank(sep string, parts ...string) string {
	return strings.Join(CleanLines(parts), sep)
}

// buildItem applies the field roles of d to one entry.
func buildItem(d model.Descriptor, e model.Entry) Item {
	it := Item{ID: e.ID, Bullets: CleanLines(e.Bullets)}
	var subs []string
	var start, end string
	for _, f := range d.Fields {
		v := strings.TrimSpace(e.Get(f.Name))
		if v == "" {
			continue
		}
		switch f.Role {
		case model.RoleHeading:
			it.Heading = joinNonBlank(" ", it.Heading, v)
		case model.RoleSubheading:
			subs = append(subs, v)
		case model.RoleLocation:
			it.Location = v
		case model.RoleStart:
			start = v
		case model.RoleEnd:
			end = v
		case model.RoleDate:
			it.Dates = FormatDate(v)
		case model.RoleLink:
			it.Link = entryLink(v)
		case model.RoleDetail:
			if f.Label != "" {
				v = f.Label + ": " + v
			}
			it.Details = append(it.Details, v)
		}
	}
	it.Subheading = strings.Join(subs, ", ")
	if start != "" || end != "" {
		it.Dates = DateRange(start, end)
	}
	return it
}

func buildHeader(p model.PersonalInfo) *Header {
	h := &Header{Name: strings.TrimSpace(p.FullName)}
	add := func(kind, label, href string) {
		if label != "" {
			h.Contacts = append(h.Contacts, Contact{Kind: kind, Label: label, Href: href})
		}
	}
	if v := strings.TrimSpace(p.Email); v != "" {
		add("email", v, "mailto:"+v)
	}
	if v := strings.TrimSpace(p.Phone); v != "" {
		add("phone", v, "tel:"+strings.Map(func(r rune) rune {
			if r == '+' || r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, v))
	}
	add("location", strings.TrimSpace(p.Location), "")
	for _, l := range []struct{ kind, raw, base string }{
		{"linkedin", p.LinkedIn, "linkedin.com/in/"},
		{"github", p.GitHub, "github.com/"},
		{"portfolio", p.Portfolio, ""},
	} {
		raw := strings.TrimSpace(l.raw)
		if raw == "" {
			continue
		}
		// bare handles such as "janedoe"
		if l.base != "" && !strings.ContainsAny(raw, "./") {
			raw = l.base + raw
		}
		add(l.kind, ProfileLabel(raw), Href(raw))
	}
	return h
}

func paragraphs(text string) []string {
	return CleanLines(strings.Split(text, "\n"))
}

func skillLines(s *model.SkillSet) []SkillLine {
	var out []SkillLine
	for _, g := range s.Groups {
		c, items := strings.TrimSpace(g.Category), strings.TrimSpace(g.Items)
		if items == "" {
			continue
		}
		out = append(out, SkillLine{Category: c, Items: items})
	}
	return out
}
