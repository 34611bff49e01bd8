package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	writer := table.NewWriter()
	writer.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for index, name := range headers {
		header[index] = name
	}

	writer.AppendHeader(header)

	for _, row := range rows {
		cells := make(table.Row, columns)
		for index := range columns {
			cells[index] = ""
			if index < len(row) {
				cells[index] = row[index]
			}
		}

		writer.AppendRow(cells)
	}

	configs := make([]table.ColumnConfig, 0, columns)

	for index := range columns {
		align := text.AlignLeft
		if index < len(aligns) && aligns[index] == alignRight {
			align = text.AlignRight
		}

		configs = append(configs, table.ColumnConfig{
			Number:      index + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}

	writer.SetColumnConfigs(configs)

	return writer.Render()
}
