package nifcheck

/**
 * SPDX-License-Identifier: Apache-2.0
 * Copyright 2020 vorteil.io Pty Ltd
 */

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/sisatech/tablewriter"
)

// Render writes a table of diagnostics per checked geometry. Clean
// reports print a single confirmation line.
func Render(w io.Writer, path string, reports []*Report) {
	for _, report := range reports {
		if report == nil {
			continue
		}
		name := report.GeometryName
		if name == "" {
			name = "(unnamed)"
		}
		if report.Clean() {
			fmt.Fprintf(w, "%s: tangent space of %q checks out (%d vertices)\n",
				path, name, report.NumVertices)
			continue
		}

		fmt.Fprintf(w, "%s: %s in %q:\n", path,
			color.YellowString("%d tangent space warnings", len(report.Diagnostics)), name)

		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"vertex", "kind", "detail"})
		for _, d := range report.Diagnostics {
			vertex := strconv.Itoa(d.Vertex)
			if d.Vertex < 0 {
				vertex = "-"
			}
			table.Append([]string{vertex, d.Kind, d.Detail})
		}
		table.Render()
	}
}
