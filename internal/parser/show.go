// Package parser turns archived show and season pages into structured
// records. Parsing is pure: ambiguous or missing markup resolves to empty
// strings, nil values or absent records rather than errors.
package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/JakeFAU/trivia-archive/internal/archive"
)

var (
	moneyPattern      = regexp.MustCompile(`\$?\s*([0-9,]+)`)
	airDatePattern    = regexp.MustCompile(`Air date:\s*([A-Za-z]+\s+\d{1,2},\s*\d{4}|\d{4}-\d{2}-\d{2})`)
	bareDatePattern   = regexp.MustCompile(`\b((?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|June?|July?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\s+\d{1,2},\s*\d{4}|\d{4}-\d{2}-\d{2})\b`)
	showNumberPattern = regexp.MustCompile(`Show\s*#\s*(\d+)`)
	dateCommaPattern  = regexp.MustCompile(`,\s*`)
)

var airDateLayouts = []string{"January 2, 2006", "Jan 2, 2006", "2006-01-02"}

// roundSections maps section ids to round kinds in board order.
var roundSections = []struct {
	id   string
	kind archive.RoundKind
}{
	{"jeopardy_round", archive.RoundFirst},
	{"double_jeopardy_round", archive.RoundSecond},
	{"final_jeopardy_round", archive.RoundFinal},
}

const (
	headerSelector     = "#game_title, .game_title, .game_header"
	correctResponse    = "em.correct_response"
	dailyDoubleClass   = "clue_value_daily_double"
	clueValueSelector  = ".clue_value, .clue_value_daily_double"
	responseTextSuffix = "_r"
)

// ParseShow extracts the structured record of one show page. It fails only
// when the markup cannot be read at all.
func ParseShow(markup []byte) (archive.ParsedShow, error) {
	doc, err := Parse(markup)
	if err != nil {
		return archive.ParsedShow{}, err
	}

	var show archive.ParsedShow
	if title := first(doc.Find("title")); title != nil {
		show.Title = title.Text()
	}
	header := headerText(doc, show.Title)
	show.AirDate = parseAirDate(header, show.Title)
	show.ShowNumber = parseShowNumber(header, show.Title)

	for _, rs := range roundSections {
		section := first(doc.Find("#" + rs.id))
		if section == nil {
			continue
		}
		show.Rounds = append(show.Rounds, archive.ParsedRound{Kind: rs.kind})
		categories := parseCategories(section, rs.kind)
		if rs.kind == archive.RoundFinal {
			if len(categories) > 1 {
				categories = categories[:1]
			}
			show.Categories = append(show.Categories, categories...)
			show.Clues = append(show.Clues, parseFinalClue(section))
			continue
		}
		show.Categories = append(show.Categories, categories...)
		show.Clues = append(show.Clues, parseBoardClues(section, rs.kind)...)
	}
	return show, nil
}

// ParseMoney extracts a currency amount such as "$1,200" or "DD: $2,000". It
// returns nil when the text carries no digit group.
func ParseMoney(text string) *int {
	m := moneyPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	digits := strings.ReplaceAll(m[1], ",", "")
	if digits == "" {
		return nil
	}
	v, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return &v
}

func headerText(doc Node, title string) string {
	if h := first(doc.Find(headerSelector)); h != nil {
		return h.Text()
	}
	if h := first(doc.Find("h1")); h != nil {
		return h.Text()
	}
	return title
}

// parseAirDate prefers a date after an "Air date:" label; a labelled date
// that does not parse yields nil. Without a label, the first unlabelled
// long-form or ISO date that parses is used.
func parseAirDate(texts ...string) *time.Time {
	for _, text := range texts {
		if m := airDatePattern.FindStringSubmatch(text); m != nil {
			return parseDate(m[1])
		}
	}
	for _, text := range texts {
		for _, m := range bareDatePattern.FindAllStringSubmatch(text, -1) {
			if t := parseDate(m[1]); t != nil {
				return t
			}
		}
	}
	return nil
}

func parseDate(raw string) *time.Time {
	raw = dateCommaPattern.ReplaceAllString(raw, ", ")
	for _, layout := range airDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

func parseShowNumber(texts ...string) *int {
	for _, text := range texts {
		m := showNumberPattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil {
			return &n
		}
	}
	return nil
}

// parseCategories assigns positions by header cell order. A header cell with
// no name yields no category, leaving its column unresolved.
func parseCategories(section Node, kind archive.RoundKind) []archive.ParsedCategory {
	var out []archive.ParsedCategory
	for pos, cell := range section.Find(".category") {
		name := first(cell.Find(".category_name"))
		if name == nil {
			continue
		}
		cat := archive.ParsedCategory{Round: kind, Position: pos, Name: name.Text()}
		if c := first(cell.Find(".category_comments")); c != nil {
			if text := c.Text(); text != "" {
				cat.Comments = &text
			}
		}
		out = append(out, cat)
	}
	return out
}

func parseBoardClues(section Node, kind archive.RoundKind) []archive.ParsedClue {
	var (
		out []archive.ParsedClue
		row int
	)
	for _, tr := range section.Find("tr") {
		cells := tr.Children("td.clue")
		if len(cells) == 0 {
			continue
		}
		for col, cell := range cells {
			question, ok := clueText(cell)
			if !ok {
				continue
			}
			clue := archive.ParsedClue{
				Round:            kind,
				CategoryPosition: col,
				Row:              row,
				Question:         question,
				Answer:           extractAnswer(cell),
			}
			if v := first(cell.Find(clueValueSelector)); v != nil {
				clue.Value = ParseMoney(v.Text())
				clue.DailyDouble = v.HasClass(dailyDoubleClass)
			}
			out = append(out, clue)
		}
		row++
	}
	return out
}

func parseFinalClue(section Node) archive.ParsedClue {
	question, _ := clueText(section)
	return archive.ParsedClue{
		Round:    archive.RoundFinal,
		Question: question,
		Answer:   extractAnswer(section),
	}
}

// clueText returns the visible question of a cell. Response containers share
// the clue_text class and are told apart by their id suffix.
func clueText(n Node) (string, bool) {
	for _, candidate := range n.Find(".clue_text") {
		if id, ok := candidate.Attr("id"); ok && strings.HasSuffix(id, responseTextSuffix) {
			continue
		}
		text := candidate.Text()
		if text == "" {
			return "", false
		}
		return text, true
	}
	return "", false
}

// extractAnswer looks for the correct response as a direct child, then as any
// descendant, then inside the markup of onmouseover handlers used by older
// pages. It returns "" when none is found.
func extractAnswer(n Node) string {
	if text := firstText(n.Children(correctResponse)); text != "" {
		return text
	}
	if text := firstText(n.Find(correctResponse)); text != "" {
		return text
	}
	handlers := append([]Node{n}, n.Find("[onmouseover]")...)
	for _, h := range handlers {
		markup, ok := h.Attr("onmouseover")
		if !ok || !strings.Contains(markup, "correct_response") {
			continue
		}
		frag, err := parseFragment(markup)
		if err != nil {
			continue
		}
		if text := firstText(frag.Find(correctResponse)); text != "" {
			return text
		}
	}
	return ""
}

func firstText(nodes []Node) string {
	for _, n := range nodes {
		if text := n.Text(); text != "" {
			return text
		}
	}
	return ""
}
