package alerts

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mozillazg/go-unidecode"

	"github.com/georgia-utilities/alertbot/internal/lib/areatree"
)

const (
	dateTimeLayout = "2006-01-02 15:04"
	clockLayout    = "15:04"
	areaIndent     = "    "
)

// translateOrKeep returns the translation of text, or text itself when no
// translator is set or the translation fails
func translateOrKeep(ctx context.Context, tr Translator, text string) string {
	if tr == nil || strings.TrimSpace(text) == "" {
		return text
	}
	out, err := tr.Translate(ctx, text)
	if err != nil || out == "" {
		return text
	}
	return out
}

func escape(text string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, text)
}

// linkText makes text safe inside a Markdown link label
func linkText(text string) string {
	return strings.NewReplacer("[", "(", "]", ")").Replace(text)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(Tbilisi).Format(dateTimeLayout)
}

// FormatAreas renders the area tree with four spaces per level. Node names
// are resolved through the translator.
func FormatAreas(ctx context.Context, tree *areatree.AreaTree, tr Translator) string {
	var b strings.Builder
	tree.Walk(func(node *areatree.AreaTree, level int) bool {
		if level == 0 {
			return true
		}
		b.WriteString(strings.Repeat(areaIndent, level-1))
		b.WriteString(escape(node.Resolve(ctx, tr)))
		b.WriteString("\n")
		return true
	})
	return b.String()
}

// FormatSingle renders the channel post for one alert
func FormatSingle(ctx context.Context, a Alert, tr Translator) string {
	plan := a.Plan()

	var b strings.Builder
	b.WriteString(plan.Emoji())
	if plan == PlanEmergency {
		b.WriteString(" _Emergency_ ")
	} else {
		b.WriteString(" ")
	}
	fmt.Fprintf(&b, "*[%s]* %s\n\n",
		escape(translateOrKeep(ctx, tr, a.ScName)),
		escape(translateOrKeep(ctx, tr, a.TaskName)))

	fmt.Fprintf(&b, "*Start:* %s\n", formatTime(a.Start()))
	fmt.Fprintf(&b, "*End:* %s\n", formatTime(a.End()))
	if a.RegionName != "" {
		fmt.Fprintf(&b, "*Region:* %s\n", escape(translateOrKeep(ctx, tr, a.RegionName)))
	}

	if areas := FormatAreas(ctx, a.Areas(), tr); areas != "" {
		b.WriteString("\n*Area:*\n")
		b.WriteString(areas)
	}

	if note := strings.TrimSpace(a.TaskNote); note != "" {
		b.WriteString("\n")
		b.WriteString(escape(translateOrKeep(ctx, tr, note)))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatDeleted renders the replacement text for posts of a withdrawn alert
func FormatDeleted(ctx context.Context, a Alert, tr Translator) string {
	return "❌ *Cancelled*\n\n" + FormatSingle(ctx, a, tr)
}

// ImageLink appends an invisible link so Telegram previews the map image
// under a text message
func ImageLink(url string) string {
	if url == "" {
		return ""
	}
	return "\n[\u200b\u200b\u200b](" + url + ")"
}

// DigestLine is one entry of the daily channel digest
func DigestLine(a Alert, name, link string) string {
	return fmt.Sprintf("[%s-%s %s](%s)\n",
		a.Start().In(Tbilisi).Format(clockLayout),
		a.End().In(Tbilisi).Format(clockLayout),
		escape(linkText(name)), link)
}

// Digest joins digest lines under a bold caption
func Digest(caption string, lines []string) string {
	return "*" + caption + "*\n\n" + strings.Join(lines, "")
}

// SummaryLine is one alert in a per-day summary
func SummaryLine(a Alert) string {
	return fmt.Sprintf("%s %s - %s /alert_%d",
		a.Plan().Emoji(),
		a.Start().In(Tbilisi).Format(clockLayout),
		a.End().In(Tbilisi).Format(clockLayout),
		a.TaskID)
}

// SummaryForDate renders plain-text alert lines grouped by city. City
// headings are omitted when the summary is already filtered to one city.
func SummaryForDate(caption string, byCity map[string][]Alert, filtered bool) string {
	cities := make([]string, 0, len(byCity))
	for city, group := range byCity {
		if len(group) > 0 {
			cities = append(cities, city)
		}
	}
	if len(cities) == 0 {
		return caption + "\nNo alerts"
	}
	sort.Strings(cities)

	var b strings.Builder
	b.WriteString(caption)
	b.WriteString("\n")
	for _, city := range cities {
		group := append([]Alert(nil), byCity[city]...)
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Start().Before(group[j].Start())
		})
		if !filtered {
			b.WriteString(city)
			b.WriteString("\n")
		}
		for _, a := range group {
			b.WriteString(SummaryLine(a))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

var commandSeparators = regexp.MustCompile(`[- /]`)

// CityCommand turns a city name into an ASCII command suffix
func CityCommand(name string) string {
	slug := strings.ToLower(unidecode.Unidecode(strings.TrimSpace(name)))
	return commandSeparators.ReplaceAllString(slug, "_")
}
