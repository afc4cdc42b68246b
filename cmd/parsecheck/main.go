package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jwebster45206/story-adventure/pkg/adventure"
	"github.com/jwebster45206/story-adventure/pkg/parser"
	"github.com/jwebster45206/story-adventure/pkg/textfilter"
)

func main() {
	filename, initial, ok := parseArgs(os.Args[1:])
	if !ok {
		fmt.Fprintf(os.Stderr, "Usage: %s <response.txt> [-initial]\n", os.Args[0])
		os.Exit(1)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", filename, err)
		os.Exit(1)
	}

	if err := check(string(data), initial); err != nil {
		fmt.Fprintf(os.Stderr, "Check failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Response parses cleanly!")
}

func parseArgs(args []string) (filename string, initial bool, ok bool) {
	for _, arg := range args {
		switch {
		case arg == "-initial" || arg == "--initial":
			initial = true
		case strings.HasPrefix(arg, "-"):
			return "", false, false
		case filename == "":
			filename = arg
		default:
			return "", false, false
		}
	}
	return filename, initial, filename != ""
}

// check prints what the parser extracts and reports whether the response
// would be accepted as an opening when initial is set.
func check(text string, initial bool) error {
	filter := textfilter.New()
	result := parser.Parse(text)

	if initial {
		arc, missing := parser.ParseArc(text)
		printArc(filter.CleanArc(arc), missing)
	}

	fmt.Println("Story:")
	fmt.Println("  " + filter.Clean(result.StoryText))
	if result.StoryText == parser.FallbackStory {
		fmt.Println("  (no story tag found, fallback used)")
	}
	if filter.Contains(result.StoryText) {
		fmt.Println("  (unsuitable words replaced)")
	}

	fmt.Printf("\nChoices (%d):\n", len(result.Choices))
	for i, c := range result.Choices {
		fmt.Printf("  %d. %s\n", i+1, filter.Clean(c.Text))
		if c.DrawingPrompt != nil {
			fmt.Printf("     drawing: %s\n", *c.DrawingPrompt)
		}
	}
	fmt.Printf("\nEnding: %t\n\n", result.IsEnding)

	if initial && (result.StoryText == "" || len(result.Choices) == 0) {
		return fmt.Errorf("an opening needs story text and at least one choice (story %d chars, %d choices)",
			len(result.StoryText), len(result.Choices))
	}
	return nil
}

func printArc(arc adventure.StoryArc, missing []string) {
	fmt.Println("Arc:")
	fmt.Println("  Scene:          " + arc.Scene)
	fmt.Println("  Ruin:           " + arc.Ruin)
	fmt.Println("  Breaking point: " + arc.BreakingPoint)
	fmt.Println("  Cleanup:        " + arc.Cleanup)
	fmt.Println("  Wrap-up:        " + arc.WrapUp)
	if len(missing) > 0 {
		fmt.Printf("  Missing sections (defaults used): %s\n", strings.Join(missing, ", "))
	}
	fmt.Println()
}
