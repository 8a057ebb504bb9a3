// Package pdf implementa la generación de la Nota de Traslado: el documento
// que acompaña la mercancía entre sucursales.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: NOTA DE TRASLADO  │  N° Traslado + Fecha + Estado   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  ORIGEN: Sucursal + dirección                                │
//	│  DESTINO: Sucursal + dirección                               │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: SKU | Producto | Cant. enviada | Cant. recibida      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: unidades enviadas / recibidas                      │
//	│  FOOTER: leyenda de verificación en destino                  │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/invorya/transfers-api/internal/application/transfers"
	"github.com/invorya/transfers-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// printer formatea cantidades con separador de miles (convención es-CO: 1.000).
var printer = message.NewPrinter(language.Spanish)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoNoteGenerator implementa transfers.TransferNotePDFGenerator usando Maroto v2.
type MarotoNoteGenerator struct{}

// NewMarotoNoteGenerator construye el generador.
func NewMarotoNoteGenerator() *MarotoNoteGenerator { return &MarotoNoteGenerator{} }

var _ transfers.TransferNotePDFGenerator = (*MarotoNoteGenerator)(nil)

// GenerateTransferNote genera el PDF de la nota y devuelve sus bytes.
func (g *MarotoNoteGenerator) GenerateTransferNote(
	_ context.Context,
	transfer *entity.Transfer,
	from, to *entity.Branch,
	lines []transfers.NoteLine,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Nota de Traslado "+transfer.TransferNumber, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(transfer))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(branchRow("SUCURSAL ORIGEN", from))
	m.AddRows(branchRow("SUCURSAL DESTINO", to))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableLineRows(lines) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(lines))

	m.AddRows(line.NewRow(3))
	m.AddRows(footerRow())

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: título (izq) y N° de traslado + fecha + estado (der).
func headerRow(transfer *entity.Transfer) core.Row {
	fecha := transfer.CreatedAt.Format("02/01/2006")
	if transfer.ShippedAt != nil {
		fecha = transfer.ShippedAt.Format("02/01/2006")
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New("NOTA DE TRASLADO", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Movimiento de stock entre sucursales", props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(transfer.TransferNumber, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 1,
			}),
			text.New("Fecha despacho: "+fecha, props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
			text.New("Estado: "+transfer.Status, props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 13, Color: colorPrimary,
			}),
		),
	)
}

// branchRow: datos de una sucursal (origen o destino).
func branchRow(label string, branch *entity.Branch) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New(label, props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("%s   |   Dirección: %s",
				branch.Name, nonEmpty(branch.Address, "—"),
			), props.Text{Size: 9, Top: 7}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de líneas.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("SKU", 2, align.Left),
		h("Producto", 5, align.Left),
		h("Cant. enviada", 2, align.Right),
		h("Cant. recibida", 3, align.Right),
	)
}

// tableLineRows: una fila por línea de la nota.
func tableLineRows(lines []transfers.NoteLine) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		result = append(result, row.New(7).Add(
			col.New(2).Add(text.New(
				nonEmpty(l.SKU, "—"),
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(5).Add(text.New(
				l.ProductName,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				formatQty(l.Quantity),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(3).Add(text.New(
				formatQty(l.ReceivedQty),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: totales de unidades enviadas y recibidas.
func totalsRow(lines []transfers.NoteLine) core.Row {
	var sent, received int64
	for _, l := range lines {
		sent += l.Quantity
		received += l.ReceivedQty
	}
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	return row.New(14).Add(
		col.New(4),
		col.New(4).Add(
			label("Total unidades enviadas:"),
			label("Total unidades recibidas:"),
		),
		col.New(4).Add(
			value(formatQty(sent)),
			value(formatQty(received)),
		),
	)
}

// footerRow: leyenda de verificación en destino.
func footerRow() core.Row {
	return row.New(10).Add(col.New(12).Add(
		text.New(
			"La sucursal destino debe verificar las cantidades al momento de la recepción. "+
				"Las diferencias se registran como recepciones parciales en el sistema.",
			props.Text{Size: 6.5, Color: colorGray, Top: 2},
		),
	))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatQty formatea una cantidad con separador de miles. Ej: 25000 → "25.000"
func formatQty(n int64) string {
	return printer.Sprintf("%d", n)
}
