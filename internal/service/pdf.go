package service

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"albaranes-api/internal/domain"
)

// renderDeliveryNotePDF genera el documento del albarán: cabecera, partes,
// tabla de líneas y estado de firma.
func renderDeliveryNotePDF(note domain.DeliveryNote, owner domain.Account, client domain.Client, project domain.Project) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	// Las fuentes base usan cp1252; el traductor cubre los acentos.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, tr("Albarán"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("ID: %s", note.ID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Fecha: %s", note.CreatedAt.UTC().Format(time.RFC3339)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Usuario: %s (%s)", owner.Name, owner.Email)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Cliente: %s (CIF %s)", client.Name, client.CIF)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Proyecto: %s", project.Name)), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(30, 8, "Tipo", "1", 0, "L", false, 0, "")
	pdf.CellFormat(120, 8, tr("Descripción"), "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 8, "Cantidad", "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for _, item := range note.Items {
		pdf.CellFormat(30, 8, item.Type, "1", 0, "L", false, 0, "")
		pdf.CellFormat(120, 8, tr(item.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 8, fmt.Sprintf("%.2f", item.Quantity), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(8)

	if note.IsSigned && note.SignatureURL != "" {
		pdf.CellFormat(0, 6, fmt.Sprintf("Firmado. Firma: %s", note.SignatureURL), "", 1, "L", false, 0, "")
	} else {
		pdf.CellFormat(0, 6, tr("Albarán no firmado"), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
