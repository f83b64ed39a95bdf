package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/export"
)

const (
	// MaxCardFields is how many flattened fields a card shows before "+N more".
	MaxCardFields = 6
	cardWidth     = 44
	minCardWidth  = 24
)

// Renderer turns snapshots into terminal text. The zero value is not usable; use NewRenderer.
type Renderer struct {
	theme Theme
	width int
}

// NewRenderer lays cards out for a terminal of the given width. Width <= 0 means one column.
func NewRenderer(theme Theme, width int) *Renderer {
	return &Renderer{theme: theme, width: width}
}

// Stats renders the header line with total, successful, processing and failed counts.
func (r *Renderer) Stats(s entity.Stats) string {
	parts := []string{
		r.theme.statusStyle().Render(fmt.Sprintf("Total %d", s.Total)),
		r.theme.completedStyle().Render(fmt.Sprintf("Successful %d", s.Completed)),
		r.theme.badgeStyle(constants.StatusProcessing).Render(fmt.Sprintf("Processing %d", s.Pending+s.Processing)),
		r.theme.errorStyle().Render(fmt.Sprintf("Failed %d", s.Failed)),
	}
	return strings.Join(parts, "   ")
}

// Card renders one record.
func (r *Renderer) Card(d entity.Document) string {
	width := r.cardWidth()
	var b strings.Builder

	badge := r.theme.badgeStyle(d.Status).Render(strings.ToUpper(string(d.Status)))
	b.WriteString(badge + " " + lipgloss.NewStyle().Bold(true).Render(clip(d.Filename, width-len(d.Status)-3)))

	switch d.Status {
	case constants.StatusCompleted:
		docType := d.DocumentType()
		if docType == "" {
			docType = "Unknown document"
		}
		b.WriteString("\n" + r.theme.statusStyle().Render(docType))
		if score, ok := d.Data.ConfidenceScore(); ok {
			b.WriteString(r.theme.labelStyle().Render(fmt.Sprintf("  %s confidence", FormatConfidence(score))))
		}
		fields := CardFields(d.Data)
		for _, f := range fields.Shown {
			b.WriteString("\n" + r.theme.labelStyle().Render(clip(f.Key, width/2)+": ") + clip(f.Value, width-len(f.Key)-2))
		}
		if fields.Hidden > 0 {
			b.WriteString("\n" + r.theme.hintStyle().Render(fmt.Sprintf("+%d more", fields.Hidden)))
		}
	case constants.StatusError:
		b.WriteString("\n" + r.theme.errorStyle().Render(d.ErrorMessage))
	case constants.StatusProcessing:
		b.WriteString("\n" + r.theme.hintStyle().Render("Extracting..."))
	default:
		b.WriteString("\n" + r.theme.hintStyle().Render("Waiting in queue"))
	}

	return r.theme.cardStyle(width).Render(b.String())
}

// Grid renders every record as cards in insertion order, wrapped to the terminal width.
func (r *Renderer) Grid(docs []entity.Document) string {
	if len(docs) == 0 {
		return r.theme.hintStyle().Render("No documents yet.")
	}
	cols := r.columns()
	var rows []string
	var row []string
	for _, d := range docs {
		row = append(row, r.Card(d))
		if len(row) == cols {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// JSON renders the export artifact view.
func (r *Renderer) JSON(docs []entity.Document) (string, error) {
	b, err := export.MarshalJSON(export.BuildEntries(docs))
	if err != nil {
		return "", err
	}
	title := r.theme.statusStyle().Render("GET /api/v1/identities/export")
	return title + "\n" + string(b), nil
}

// Summary is the plain closing block printed when the queue drains.
func (r *Renderer) Summary(docs []entity.Document) string {
	return r.Stats(entity.CountStats(docs)) + "\n\n" + r.Grid(docs)
}

func (r *Renderer) cardWidth() int {
	if r.width > 0 && r.width < cardWidth+2 {
		return max(r.width-2, minCardWidth)
	}
	return cardWidth
}

func (r *Renderer) columns() int {
	if r.width <= 0 {
		return 1
	}
	return max(r.width/(r.cardWidth()+2), 1)
}

// CardFieldList is the flattened fields a card shows.
type CardFieldList struct {
	Shown  []entity.FlatField
	Hidden int
}

// CardFields skips the reserved keys and keeps the first MaxCardFields leaves.
func CardFields(f entity.Fields) CardFieldList {
	var out CardFieldList
	for _, ff := range f.Flatten() {
		if ff.Key == constants.FieldDocumentType || ff.Key == constants.FieldConfidenceScore {
			continue
		}
		if len(out.Shown) < MaxCardFields {
			out.Shown = append(out.Shown, ff)
			continue
		}
		out.Hidden++
	}
	return out
}

// FormatConfidence renders a 0..1 score as a percentage. Scores above 1 are taken as already scaled.
func FormatConfidence(score float64) string {
	if score <= 1 {
		score *= 100
	}
	return fmt.Sprintf("%.0f%%", score)
}

func clip(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
