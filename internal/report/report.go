package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"sentvec/internal/classify"
	"sentvec/internal/domain"
)

// PrintMetrics writes a colored evaluation summary with a confusion matrix.
func PrintMetrics(w io.Writer, metrics classify.Metrics) {
	header := color.New(color.FgCyan, color.Bold).SprintFunc()
	good := color.New(color.FgGreen, color.Bold).SprintFunc()

	fmt.Fprintln(w, header("Evaluation"))
	fmt.Fprintf(w, "  test reviews: %d\n", metrics.Total)
	fmt.Fprintf(w, "  correct:      %d\n", metrics.Correct)
	fmt.Fprintf(w, "  accuracy:     %s\n", good(fmt.Sprintf("%.4f", metrics.Accuracy())))

	fmt.Fprintln(w, header("Confusion"))
	fmt.Fprintf(w, "  %-20s %10s %10s\n", "", "pred pos", "pred neg")
	for _, actual := range []int{classify.Positive, classify.Negative} {
		row := metrics.Confusion[actual]
		fmt.Fprintf(w, "  actual %-13s %10d %10d\n",
			labelName(actual), row[classify.Positive], row[classify.Negative])
	}
}

// Summary renders the one-line training summary shown in the TUI header.
func Summary(metrics classify.Metrics) string {
	return fmt.Sprintf("accuracy %.3f over %d test reviews", metrics.Accuracy(), metrics.Total)
}

func labelName(code int) string {
	if code == classify.Positive {
		return domain.LabelPositive
	}
	return domain.LabelNegative
}
