// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package output holds the output formats shared by azsm commands.
package output

import (
	"io"

	"github.com/juju/ansiterm"
	"github.com/juju/cmd/v3"
	"github.com/juju/errors"
)

// DefaultFormatters returns the yaml and json formatters along with
// the given tabular formatter.
func DefaultFormatters(tabular cmd.Formatter) map[string]cmd.Formatter {
	formatters := map[string]cmd.Formatter{
		"yaml": cmd.FormatYaml,
		"json": cmd.FormatJson,
	}
	if tabular != nil {
		formatters["tabular"] = tabular
	}
	return formatters
}

// TabWriter returns a new tab writer with common layout definition.
func TabWriter(writer io.Writer) *ansiterm.TabWriter {
	const (
		// To format things into columns.
		minwidth = 0
		tabwidth = 1
		padding  = 2
		padchar  = ' '
		flags    = 0
	)
	return ansiterm.NewTabWriter(writer, minwidth, tabwidth, padding, padchar, flags)
}

// Wrapper provides some helper functions for writing values out tab
// separated.
type Wrapper struct {
	*ansiterm.TabWriter
}

// Print writes each value followed by a tab.
func (w *Wrapper) Print(values ...interface{}) {
	for _, v := range values {
		_, _ = io.WriteString(w, toString(v)+"\t")
	}
}

// Println writes many tab separated values finished with a new line.
func (w *Wrapper) Println(values ...interface{}) {
	for i, v := range values {
		if i != len(values)-1 {
			_, _ = io.WriteString(w, toString(v)+"\t")
		} else {
			_, _ = io.WriteString(w, toString(v))
		}
	}
	_, _ = io.WriteString(w, "\n")
}

// Tabular returns a formatter for values of type T written by write.
// A value of another type is an error.
func Tabular[T any](write func(*Wrapper, T)) cmd.Formatter {
	return func(writer io.Writer, value interface{}) error {
		v, ok := value.(T)
		if !ok {
			return errors.Errorf("expected value of type %T, got %T", v, value)
		}
		w := &Wrapper{TabWriter(writer)}
		write(w, v)
		return w.Flush()
	}
}
