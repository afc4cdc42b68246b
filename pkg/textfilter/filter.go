// Package textfilter keeps generated story text suitable for young readers.
package textfilter

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/story-adventure/pkg/adventure"
)

// replacements maps unsuitable words to friendly alternatives.
// An empty replacement is never used; every entry has something to say instead.
var replacements = map[string]string{
	"damn":      "dang",
	"damned":    "darned",
	"hell":      "heck",
	"crap":      "crud",
	"ass":       "donkey",
	"bastard":   "meanie",
	"bitch":     "grump",
	"shit":      "shoot",
	"fuck":      "fudge",
	"goddamn":   "gosh-dang",
	"bullshit":  "baloney",
	"asshole":   "meanie",
	"jackass":   "silly donkey",
	"dumbass":   "silly goose",
	"stupid":    "silly",
	"idiot":     "goofball",
	"moron":     "goofball",
	"shut up":   "hush",
	"kill":      "stop",
	"killed":    "stopped",
	"kills":     "stops",
	"killing":   "stopping",
	"dead":      "asleep",
	"die":       "faint",
	"died":      "fainted",
	"blood":     "goo",
	"bloody":    "gooey",
	"murder":    "mischief",
	"gun":       "water squirter",
	"guns":      "water squirters",
	"knife":     "spoon",
	"weapon":    "gadget",
	"weapons":   "gadgets",
	"hate":      "dislike",
	"beer":      "root beer",
	"wine":      "grape juice",
	"drunk":     "dizzy",
	"cigarette": "lollipop",
}

// Filter replaces unsuitable words, keeping the casing of the original.
type Filter struct {
	re *regexp.Regexp
}

// New compiles the word list into a single case-insensitive pattern.
func New() *Filter {
	words := make([]string, 0, len(replacements))
	for w := range replacements {
		words = append(words, w)
	}
	// Longest first so "bullshit" wins over "shit".
	sort.Slice(words, func(i, j int) bool {
		if len(words[i]) != len(words[j]) {
			return len(words[i]) > len(words[j])
		}
		return words[i] < words[j]
	})

	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return &Filter{
		re: regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`),
	}
}

// Clean returns text with every listed word replaced.
func (f *Filter) Clean(text string) string {
	if text == "" {
		return text
	}
	return f.re.ReplaceAllStringFunc(text, func(match string) string {
		return matchCase(match, replacements[strings.ToLower(match)])
	})
}

// Contains reports whether text has any listed word.
func (f *Filter) Contains(text string) bool {
	return f.re.MatchString(text)
}

// CleanNode filters the story text, choice text and drawing prompts of a node.
func (f *Filter) CleanNode(n adventure.StoryNode) adventure.StoryNode {
	n.StoryText = f.Clean(n.StoryText)
	choices := make([]adventure.Choice, len(n.Choices))
	for i, c := range n.Choices {
		choices[i] = adventure.Choice{Text: f.Clean(c.Text)}
		if c.DrawingPrompt != nil {
			p := f.Clean(*c.DrawingPrompt)
			choices[i].DrawingPrompt = &p
		}
	}
	n.Choices = choices
	return n
}

// CleanArc filters every section of a story arc.
func (f *Filter) CleanArc(arc adventure.StoryArc) adventure.StoryArc {
	return adventure.StoryArc{
		Scene:         f.Clean(arc.Scene),
		Ruin:          f.Clean(arc.Ruin),
		BreakingPoint: f.Clean(arc.BreakingPoint),
		Cleanup:       f.Clean(arc.Cleanup),
		WrapUp:        f.Clean(arc.WrapUp),
	}
}

func matchCase(original, replacement string) string {
	switch {
	case strings.ToUpper(original) == original && strings.ToLower(original) != original:
		return strings.ToUpper(replacement)
	case strings.ToLower(original) == original:
		return replacement
	}

	title := cases.Title(language.English)
	if title.String(strings.ToLower(original)) == original {
		return title.String(replacement)
	}

	// Sentence case: only the first letter is raised.
	r := []rune(replacement)
	if first := []rune(original)[0]; unicode.IsUpper(first) {
		r[0] = unicode.ToUpper(r[0])
	}
	return string(r)
}
