package feedback

import (
	"fmt"
	"strings"

	"gradermate-backend/internal/canvas"
)

// buildGradingPrompt assembles the user prompt sent to the text model:
// assignment context (when known), the grader's instructions, and the
// extracted submission content, in that order.
func buildGradingPrompt(assignment *canvas.Assignment, instructions, extracted string) string {
	var b strings.Builder

	if assignment != nil {
		fmt.Fprintf(&b, "ASSIGNMENT: %s\n", assignment.Name)
		if assignment.PointsPossible > 0 {
			fmt.Fprintf(&b, "Points possible: %.4g\n", assignment.PointsPossible)
		}
		if desc := strings.TrimSpace(assignment.Description); desc != "" {
			fmt.Fprintf(&b, "Description:\n%s\n", desc)
		}
		if len(assignment.Rubric) > 0 {
			b.WriteString("\nRUBRIC:\n")
			for _, r := range assignment.Rubric {
				fmt.Fprintf(&b, "- %s (%.4g pts)", r.Description, r.Points)
				if long := strings.TrimSpace(r.LongDescription); long != "" {
					fmt.Fprintf(&b, ": %s", long)
				}
				b.WriteByte('\n')
			}
		}
		b.WriteByte('\n')
	}

	if instructions = strings.TrimSpace(instructions); instructions != "" {
		fmt.Fprintf(&b, "GRADING INSTRUCTIONS:\n%s\n\n", instructions)
	}

	b.WriteString(extracted)
	return b.String()
}
