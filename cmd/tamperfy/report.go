package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/anatolykoptev/go-tamperfy"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// writeMarkdownReport renders a scan as a Markdown document for review queues.
func writeMarkdownReport(w io.Writer, dir string, threshold float64, reports []postReport) error {
	md := markdown.NewMarkdown(w)

	var flagged []postReport
	for _, r := range reports {
		if r.Flagged {
			flagged = append(flagged, r)
		}
	}

	md.H1("Tamperfy Scan Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Directory", "`" + dir + "`"},
			{"Posts", strconv.Itoa(len(reports))},
			{"Flagged", strconv.Itoa(len(flagged))},
			{"Flag Threshold", strconv.FormatFloat(threshold, 'f', -1, 64)},
		},
	})
	md.PlainText("")

	writeLabelChart(md, reports)

	if len(flagged) > 0 {
		md.Warningf("%d of %d post(s) scored above the flag threshold and need review.", len(flagged), len(reports))
	} else {
		md.Tip("No post scored above the flag threshold.")
	}
	md.PlainText("")

	md.H2("Posts")
	md.PlainText("")
	if len(reports) == 0 {
		md.PlainText("No image uploads found.")
		md.PlainText("")
	} else {
		rows := make([][]string, len(reports))
		for i, r := range reports {
			status := "ok"
			if r.Flagged {
				status = "**FLAG**"
			}
			dup := r.DuplicateOf
			if dup == "" {
				dup = "-"
			}
			rows[i] = []string{
				r.Name,
				status,
				fmt.Sprintf("%s (%.4f)", r.Image.Label, r.Image.Score),
				fmt.Sprintf("%s (%.4f)", r.Text.Label, r.Text.Score),
				dup,
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Post", "Status", "Image", "Text", "Duplicate Of"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	for _, r := range flagged {
		if len(r.Text.Findings) == 0 {
			continue
		}
		md.PlainText("### " + r.Name)
		md.PlainText("")
		items := make([]string, len(r.Text.Findings))
		for i, f := range r.Text.Findings {
			items[i] = fmt.Sprintf("[%s] %s: %s", f.Severity, f.Rule, f.Excerpt)
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by tamperfy %s*", getVersion())

	return md.Build()
}

// writeLabelChart adds a mermaid pie chart of image verdicts.
func writeLabelChart(md *markdown.Markdown, reports []postReport) {
	order := []tamperfy.Label{
		tamperfy.LabelAuthentic,
		tamperfy.LabelSuspicious,
		tamperfy.LabelLikelyTampered,
		tamperfy.LabelCannotOpen,
	}
	counts := make(map[tamperfy.Label]uint64)
	for _, r := range reports {
		counts[r.Image.Label]++
	}
	if len(counts) == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Image Verdicts"),
		piechart.WithShowData(true),
	)
	for _, label := range order {
		if n := counts[label]; n > 0 {
			chart.LabelAndIntValue(string(label), n)
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}
