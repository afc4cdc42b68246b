package adventure

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AgeGroup is the reader's age band. It is fixed once an adventure starts.
type AgeGroup string

const (
	AgeGroup3to5  AgeGroup = "3-5"
	AgeGroup6to8  AgeGroup = "6-8"
	AgeGroup9to12 AgeGroup = "9-12"
)

// AgeGroups returns every supported age band in display order.
func AgeGroups() []AgeGroup {
	return []AgeGroup{AgeGroup3to5, AgeGroup6to8, AgeGroup9to12}
}

// ParseAgeGroup validates an age band string.
func ParseAgeGroup(s string) (AgeGroup, error) {
	s = strings.TrimSpace(s)
	for _, ag := range AgeGroups() {
		if string(ag) == s {
			return ag, nil
		}
	}
	return "", fmt.Errorf("unknown age group %q", s)
}

// Theme is the narrative theme. It is fixed once an adventure starts.
type Theme string

const (
	ThemeFantasy     Theme = "Fantasy"
	ThemeSpace       Theme = "Space"
	ThemeMystery     Theme = "Mystery"
	ThemeAnimals     Theme = "Animals"
	ThemeSuperheroes Theme = "Superheroes"
	ThemePirates     Theme = "Pirates"
	ThemeDinosaurs   Theme = "Dinosaurs"
	ThemeMagicSchool Theme = "Magic School"
)

// Themes returns every supported theme in display order.
func Themes() []Theme {
	return []Theme{
		ThemeFantasy,
		ThemeSpace,
		ThemeMystery,
		ThemeAnimals,
		ThemeSuperheroes,
		ThemePirates,
		ThemeDinosaurs,
		ThemeMagicSchool,
	}
}

// ParseTheme validates a theme name, ignoring case, and returns its canonical form.
func ParseTheme(s string) (Theme, error) {
	s = strings.TrimSpace(s)
	for _, t := range Themes() {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown theme %q", s)
}

// Screen is the high-level screen a client should show for an adventure.
type Screen string

const (
	ScreenOnboarding Screen = "onboarding"
	ScreenLoading    Screen = "loading"
	ScreenAdventure  Screen = "adventure"
	ScreenEnding     Screen = "ending"
)

// StoryArc is the five-part plan generated once at the start of an adventure.
// Every continuation prompt restates it.
type StoryArc struct {
	Scene         string `json:"scene"`
	Ruin          string `json:"ruin"`
	BreakingPoint string `json:"breaking_point"`
	Cleanup       string `json:"cleanup"`
	WrapUp        string `json:"wrap_up"`
}

// Choice is one option offered to the reader. DrawingPrompt is nil unless
// the choice invites the reader to submit a drawing.
type Choice struct {
	Text          string  `json:"text"`
	DrawingPrompt *string `json:"drawing_prompt"`
}

// StoryNode is one beat of the narrative.
type StoryNode struct {
	ID          string   `json:"id"`
	ParentID    *string  `json:"parent_id"`
	StoryText   string   `json:"story_text"`
	ImageBase64 string   `json:"image_base64"`
	Choices     []Choice `json:"choices"`
	IsEnding    bool     `json:"is_ending"`
	AudioBase64 *string  `json:"audio_base64"`
}

// NewStoryNode creates a node with a fresh id. A nil parent marks the root.
func NewStoryNode(parentID *string, storyText, imageBase64 string, choices []Choice, isEnding bool, audioBase64 *string) StoryNode {
	if choices == nil {
		choices = []Choice{}
	}
	return StoryNode{
		ID:          uuid.New().String(),
		ParentID:    parentID,
		StoryText:   storyText,
		ImageBase64: imageBase64,
		Choices:     choices,
		IsEnding:    isEnding,
		AudioBase64: audioBase64,
	}
}

// HasMedia reports whether the node still carries an image or narration.
func (n StoryNode) HasMedia() bool {
	return n.ImageBase64 != "" || n.AudioBase64 != nil
}

// DrawingPrompt returns the first drawing prompt among the node's choices.
func (n StoryNode) DrawingPrompt() (string, bool) {
	for _, c := range n.Choices {
		if c.DrawingPrompt != nil {
			return *c.DrawingPrompt, true
		}
	}
	return "", false
}

// Adventure is the saved state of one play-through.
// StoryTree is append-only; insertion order is visitation order.
// CurrentNodeID is empty exactly when StoryTree is empty.
type Adventure struct {
	ID            uuid.UUID   `json:"id"`
	AgeGroup      AgeGroup    `json:"age_group,omitempty"`
	Theme         Theme       `json:"theme,omitempty"`
	StoryArc      *StoryArc   `json:"story_arc,omitempty"`
	StoryTree     []StoryNode `json:"story_tree"`
	CurrentNodeID string      `json:"current_node_id,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// New creates an empty adventure at onboarding.
func New() *Adventure {
	now := time.Now()
	return &Adventure{
		ID:        uuid.New(),
		StoryTree: make([]StoryNode, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Started reports whether the adventure has its first node.
func (a Adventure) Started() bool {
	return len(a.StoryTree) > 0
}

// CurrentNode returns the active node, if it can be found.
func (a Adventure) CurrentNode() (StoryNode, bool) {
	if a.CurrentNodeID == "" {
		return StoryNode{}, false
	}
	for _, n := range a.StoryTree {
		if n.ID == a.CurrentNodeID {
			return n, true
		}
	}
	return StoryNode{}, false
}

// History joins the text of every node in visitation order.
func (a Adventure) History() string {
	parts := make([]string, 0, len(a.StoryTree))
	for _, n := range a.StoryTree {
		parts = append(parts, n.StoryText)
	}
	return strings.Join(parts, "\n\n")
}

// TurnCount is the number of beats told so far.
func (a Adventure) TurnCount() int {
	return len(a.StoryTree)
}

// Screen derives which screen the adventure is on.
func (a Adventure) Screen() Screen {
	if !a.Started() {
		return ScreenOnboarding
	}
	if n, ok := a.CurrentNode(); ok && n.IsEnding {
		return ScreenEnding
	}
	return ScreenAdventure
}

// ReadyToStart reports whether onboarding is complete.
func (a Adventure) ReadyToStart() bool {
	return a.AgeGroup != "" && a.Theme != "" && !a.Started()
}
