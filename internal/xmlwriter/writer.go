// =============================================================================
// Conciliador - XML Writer Module
// =============================================================================
//
// This module serializes an output grid as an XML document, for systems
// that ingest reconciliations as XML instead of spreadsheets.
//
// XML STRUCTURE:
//
//   <?xml version="1.0" encoding="UTF-8"?>
//   <conciliacao linhas="2">                  <!-- Root element, row count -->
//     <linha n="1">                           <!-- One element per grid row -->
//       <coluna nome="Data">06/10/2025</coluna>
//       <coluna nome="Valor" tipo="number">150.5</coluna>
//       <coluna nome="Cliente">João Silva</coluna>
//     </linha>
//     <linha n="2">
//       <coluna nome="Data">07/10/2025</coluna>
//       <coluna nome="Valor" tipo="number">10</coluna>
//       <coluna nome="Cliente"></coluna>
//     </linha>
//   </conciliacao>
//
//   Column labels are carried as attributes because they are free text and
//   rarely valid element names. Non-text cells get a "tipo" attribute.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/ginjaninja78/conciliador/internal/grid"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for XML generation.
type GenerateOptions struct {
	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool

	// RootElement names the document element.
	// Default: "conciliacao"
	RootElement string

	// RowElement names the per-row element.
	// Default: "linha"
	RowElement string

	// FieldElement names the per-cell element.
	// Default: "coluna"
	FieldElement string

	// RootAttributes are additional attributes for the root element.
	// Example: {"banco": "Azul"}
	RootAttributes map[string]string
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
		RootElement:           "conciliacao",
		RowElement:            "linha",
		FieldElement:          "coluna",
		RootAttributes:        make(map[string]string),
	}
}

// =============================================================================
// XML DOCUMENT BUILDING
// =============================================================================

// XMLElement represents a generic XML element.
type XMLElement struct {
	XMLName  xml.Name
	Attrs    []xml.Attr   `xml:",attr"`
	Value    string       `xml:",chardata"`
	Children []XMLElement `xml:",any"`
}

// buildDocument converts the grid into an element tree.
func buildDocument(g *grid.Grid, opts GenerateOptions) XMLElement {
	root := XMLElement{
		XMLName: xml.Name{Local: opts.RootElement},
		Attrs:   []xml.Attr{{Name: xml.Name{Local: "linhas"}, Value: strconv.Itoa(g.Len())}},
	}

	keys := make([]string, 0, len(opts.RootAttributes))
	for k := range opts.RootAttributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		root.Attrs = append(root.Attrs, xml.Attr{Name: xml.Name{Local: k}, Value: opts.RootAttributes[k]})
	}

	for i, row := range g.Rows {
		line := XMLElement{
			XMLName: xml.Name{Local: opts.RowElement},
			Attrs:   []xml.Attr{{Name: xml.Name{Local: "n"}, Value: strconv.Itoa(i + 1)}},
		}
		for col, label := range g.Columns {
			cell := grid.Empty()
			if col < len(row) {
				cell = row[col]
			}
			line.Children = append(line.Children, buildField(opts.FieldElement, label, cell))
		}
		root.Children = append(root.Children, line)
	}

	return root
}

func buildField(name, label string, cell grid.Cell) XMLElement {
	el := XMLElement{
		XMLName: xml.Name{Local: name},
		Attrs:   []xml.Attr{{Name: xml.Name{Local: "nome"}, Value: label}},
		Value:   cell.String(),
	}
	switch cell.Kind() {
	case grid.KindNumber, grid.KindDate:
		el.Attrs = append(el.Attrs, xml.Attr{Name: xml.Name{Local: "tipo"}, Value: cell.Kind().String()})
	}
	return el
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// Generate renders g as an XML document.
//
// PARAMETERS:
//   - g: The output grid.
//   - opts: Element names and formatting; zero fields take the defaults.
//
// RETURNS:
//   - The encoded document.
//   - An error if encoding fails.
func Generate(g *grid.Grid, opts GenerateOptions) ([]byte, error) {
	opts = withDefaults(opts)

	var buf bytes.Buffer
	if opts.IncludeXMLDeclaration {
		buf.WriteString(xml.Header)
	}

	enc := xml.NewEncoder(&buf)
	enc.Indent("", opts.Indent)
	if err := enc.Encode(buildDocument(g, opts)); err != nil {
		return nil, fmt.Errorf("failed to encode XML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode XML: %w", err)
	}
	buf.WriteByte('\n')

	return buf.Bytes(), nil
}

// Write renders g and stores it at path.
func Write(g *grid.Grid, path string, opts GenerateOptions) error {
	data, err := Generate(g, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write XML file: %w", err)
	}
	return nil
}

func withDefaults(opts GenerateOptions) GenerateOptions {
	def := DefaultGenerateOptions()
	if opts.RootElement == "" {
		opts.RootElement = def.RootElement
	}
	if opts.RowElement == "" {
		opts.RowElement = def.RowElement
	}
	if opts.FieldElement == "" {
		opts.FieldElement = def.FieldElement
	}
	return opts
}
