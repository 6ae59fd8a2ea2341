package llm

import (
	"strings"
	"testing"
)

func TestNewExtractionRequestDefaultsMime(t *testing.T) {
	req := NewExtractionRequest("QUJD", "")
	if req.MimeType != "image/jpeg" {
		t.Fatalf("expected image/jpeg default, got %q", req.MimeType)
	}
	if got := req.DataURL(); got != "data:image/jpeg;base64,QUJD" {
		t.Fatalf("unexpected data url %q", got)
	}
}

func TestIntakeInstructionNamesEveryGroup(t *testing.T) {
	instruction := IntakeInstruction()
	for _, key := range []string{
		"Hoja de Inscripción",
		"Fecha de Registro",
		"Folio",
		"Datos Generales",
		"Datos Médicos",
		"Datos del Cuidador Primario",
		"Documentos Generales",
		"¿Recibe apoyo de alguna otra institución?",
	} {
		if !strings.Contains(instruction, key) {
			t.Fatalf("instruction missing key %q", key)
		}
	}
	if !strings.Contains(instruction, "JSON") {
		t.Fatalf("instruction must ask for JSON output")
	}
}
