package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
)

// OutputFormatter печатает результат команды как текст или JSON.
type OutputFormatter struct {
	Format string
	Writer io.Writer
	// ErrWriter предупреждения, чтобы не портить JSON на stdout.
	ErrWriter io.Writer
	Verbose   bool
}

// Response JSON-ответ команды.
type Response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

// Success выводит data. В текстовом режиме вызывается text, если он задан.
func (f *OutputFormatter) Success(data any, text func(w io.Writer) error) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(Response{Status: "ok", Data: data})
	}
	if text == nil {
		_, err := fmt.Fprintln(f.Writer, "ok")
		return err
	}
	return text(f.Writer)
}

// Message выводит короткое сообщение о выполненном действии.
func (f *OutputFormatter) Message(msg string, data any) error {
	return f.Success(data, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, msg)
		return err
	})
}

// Warn печатает предупреждение в ErrWriter.
func (f *OutputFormatter) Warn(msg string) {
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintln(w, "warning:", msg)
}

// table печатает строки, выровненные по колонкам.
func table(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	writeRow(tw, header)
	for _, r := range rows {
		writeRow(tw, r)
	}
	return tw.Flush()
}

func writeRow(w io.Writer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)
}
