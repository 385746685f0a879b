package massbalance

import (
	"fmt"
	"strings"
)

// FormatReport renders a Result as fixed-format text. The layout is
// deterministic for identical results, so the output can serve directly as a
// golden-file fixture or an operator-facing shift report.
func FormatReport(r Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== MASS BALANCE REPORT ===\n")
	fmt.Fprintf(&b, "status: %s\n", r.Status)
	fmt.Fprintf(&b, "valid: %t\n", r.Valid)
	fmt.Fprintf(&b, "audit: %s\n", r.AuditHash)
	b.WriteString("\n")

	writeStream(&b, "feed", r.Input.Feed)
	writeStream(&b, "centrate", r.Input.Centrate)
	writeStream(&b, "cake", r.Input.Cake)
	fmt.Fprintf(&b, "oil recovered: %.1f kg/h\n", r.Input.OilRecoveredKgH)
	b.WriteString("\n")

	fmt.Fprintf(&b, "overall closure: %.2f%% (in %.1f kg/h, out %.1f kg/h)\n",
		r.ClosurePct, r.TotalInKgH, r.TotalOutKgH)
	writeComponent(&b, r.Water)
	writeComponent(&b, r.Oil)
	writeComponent(&b, r.Solids)
	b.WriteString("\n")

	fmt.Fprintf(&b, "centrate solids: %.2f%%\n", r.Quality.CentrateSolidsPct)
	fmt.Fprintf(&b, "cake moisture: %.2f%%\n", r.Quality.CakeMoisturePct)
	fmt.Fprintf(&b, "oil recovery: %.2f%%\n", r.Quality.OilRecoveryPct)
	b.WriteString("\n")

	if len(r.Alerts) == 0 {
		b.WriteString("alerts: none\n")
		return b.String()
	}
	b.WriteString("alerts:\n")
	for _, a := range r.Alerts {
		if a.Stream != "" {
			fmt.Fprintf(&b, "  [%s] %s (%s): %s\n", a.Severity, a.Code, a.Stream, a.Message)
		} else {
			fmt.Fprintf(&b, "  [%s] %s: %s\n", a.Severity, a.Code, a.Message)
		}
	}
	return b.String()
}

func writeStream(b *strings.Builder, name string, s Stream) {
	fmt.Fprintf(b, "%s: total %.1f kg/h (water %.1f, oil %.1f, solids %.1f)\n",
		name, s.TotalMassKgH, s.WaterKgH, s.OilKgH, s.SolidsKgH)
}

func writeComponent(b *strings.Builder, cb ComponentBalance) {
	validity := "valid"
	if !cb.Valid {
		validity = "INVALID"
	}
	fmt.Fprintf(b, "%s closure: %.2f%% (in %.1f, out %.1f) %s\n",
		cb.Component, cb.ClosurePct, cb.InKgH, cb.OutKgH, validity)
}
