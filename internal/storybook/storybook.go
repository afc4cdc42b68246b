// Package storybook renders an adventure as a printable PDF.
package storybook

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/jwebster45206/story-adventure/pkg/adventure"
)

// ErrNotStarted is returned for an adventure with no story yet.
var ErrNotStarted = errors.New("adventure has no story to print")

const (
	pageMargin = 20.0
	lineHeight = 7.0
	imageSize  = 120.0
)

// Render writes the adventure as a PDF: a title page, one section per story
// node in reading order, and the current scene image when it is still stored.
func Render(w io.Writer, a adventure.Adventure) error {
	if !a.Started() {
		return ErrNotStarted
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(title(a), true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 28)
	pdf.Ln(60)
	pdf.CellFormat(0, 14, tr(title(a)), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 14)
	if a.AgeGroup != "" {
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("A story for readers aged %s", a.AgeGroup)), "", 1, "C", false, 0, "")
	}

	pageWidth, _ := pdf.GetPageSize()
	for i, node := range a.StoryTree {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 18)
		pdf.CellFormat(0, 12, tr(fmt.Sprintf("Chapter %d", i+1)), "", 1, "L", false, 0, "")
		pdf.Ln(2)

		if img, kind := decodeImage(node.ImageBase64); kind != "" {
			name := "scene-" + node.ID
			pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: kind}, bytes.NewReader(img))
			x := (pageWidth - imageSize) / 2
			pdf.ImageOptions(name, x, pdf.GetY(), imageSize, 0, true, gofpdf.ImageOptions{ImageType: kind}, 0, "")
			pdf.Ln(4)
		}

		pdf.SetFont("Times", "", 13)
		pdf.MultiCell(0, lineHeight, tr(node.StoryText), "", "L", false)

		if node.ID == a.CurrentNodeID {
			switch {
			case node.IsEnding:
				pdf.Ln(6)
				pdf.SetFont("Helvetica", "B", 16)
				pdf.CellFormat(0, 10, "The End", "", 1, "C", false, 0, "")
			case len(node.Choices) > 0:
				pdf.Ln(4)
				pdf.SetFont("Helvetica", "I", 12)
				pdf.CellFormat(0, lineHeight, "What will you choose next?", "", 1, "L", false, 0, "")
				for j, c := range node.Choices {
					pdf.MultiCell(0, lineHeight, tr(fmt.Sprintf("%d. %s", j+1, c.Text)), "", "L", false)
				}
			}
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render storybook: %w", err)
	}
	return pdf.Output(w)
}

func title(a adventure.Adventure) string {
	if a.Theme == "" {
		return "My Adventure"
	}
	return fmt.Sprintf("My %s Adventure", a.Theme)
}

// decodeImage returns the image bytes and their gofpdf type, or "" when the
// node has no printable image.
func decodeImage(encoded string) ([]byte, string) {
	if encoded == "" {
		return nil, ""
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ""
	}
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return data, "JPG"
	case bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'}):
		return data, "PNG"
	}
	return nil, ""
}
