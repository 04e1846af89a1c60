package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/ecoswap/backend/internal/domain"
)

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	goodColor    = color.New(color.FgGreen, color.Bold)
	badColor     = color.New(color.FgRed, color.Bold)
	faintColor   = color.New(color.Faint)
)

func printHeading(w io.Writer, format string, args ...any) {
	headingColor.Fprintf(w, format+"\n", args...)
}

func printVerdict(w io.Writer, v domain.Verdict) {
	if v.IsSustainable {
		goodColor.Fprintf(w, "  sustainable")
	} else {
		badColor.Fprintf(w, "  not sustainable")
	}
	fmt.Fprintf(w, "  score %d/%d  (%s)\n", v.SustainabilityScore, domain.MaxScore, v.AnalysisMethod)
	if v.Reason != "" {
		faintColor.Fprintf(w, "  %s\n", v.Reason)
	}
	for i, a := range v.Alternatives {
		fmt.Fprintf(w, "  %d. %s", i+1, a.Name)
		if terms := strings.Join(a.SearchTerms, ", "); terms != "" {
			faintColor.Fprintf(w, "  [%s]", terms)
		}
		fmt.Fprintln(w)
		if a.Description != "" {
			fmt.Fprintf(w, "     %s\n", a.Description)
		}
		for _, s := range a.Suppliers {
			if s.Website != "" {
				fmt.Fprintf(w, "     - %s <%s>\n", s.Name, s.Website)
			} else {
				fmt.Fprintf(w, "     - %s\n", s.Name)
			}
		}
	}
}
