package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/FACorreiaa/go-item-tracker/internal/client/ui"
)

func ok(w io.Writer, msg string) {
	fmt.Fprintln(w, ui.SuccessStyle.Render("✔ "+msg))
}

func fail(w io.Writer, msg string) {
	fmt.Fprintln(w, ui.ErrorStyle.Render("✖ "+msg))
}

func panel(w io.Writer, lines []string) {
	fmt.Fprintln(w, ui.Panel(strings.Join(lines, "\n")))
}
