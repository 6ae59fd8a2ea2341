package intake

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	GenderMale   = "Masculino"
	GenderFemale = "Femenino"
)

// supportQuestionKey contains '¿', which encoding/json does not accept in a
// struct tag, so DocumentosGenerales maps it by hand.
const supportQuestionKey = "¿Recibe apoyo de alguna otra institución?"

// ExtractionResult mirrors the intake form.
type ExtractionResult struct {
	HojaInscripcion     string              `json:"Hoja de Inscripción"`
	FechaRegistro       Date                `json:"Fecha de Registro"`
	Folio               string              `json:"Folio"`
	DatosGenerales      DatosGenerales      `json:"Datos Generales"`
	DatosMedicos        DatosMedicos        `json:"Datos Médicos"`
	CuidadorPrimario    CuidadorPrimario    `json:"Datos del Cuidador Primario"`
	DocumentosGenerales DocumentosGenerales `json:"Documentos Generales"`
}

type Date struct {
	Dia  int `json:"Día"`
	Mes  int `json:"Mes"`
	Anio int `json:"Año"`
}

// PartialDate is a date whose parts may be left blank on the form.
type PartialDate struct {
	Dia  Nullable[int] `json:"Día"`
	Mes  Nullable[int] `json:"Mes"`
	Anio Nullable[int] `json:"Año"`
}

type PersonName struct {
	ApellidoPaterno string `json:"Apellido Paterno"`
	ApellidoMaterno string `json:"Apellido Materno"`
	Nombre          string `json:"Nombre"`
}

type DatosGenerales struct {
	Nombre          PersonName       `json:"Nombre"`
	Genero          string           `json:"Género"`
	Edad            int              `json:"Edad"`
	FechaNacimiento Date             `json:"Fecha de nacimiento"`
	Religion        Nullable[string] `json:"Religión"`
	LugarNacimiento string           `json:"Lugar de nacimiento"`
	Direccion       string           `json:"Dirección"`
	Municipio       string           `json:"Municipio"`
	CURP            string           `json:"CURP"`
}

type Tratamiento struct {
	Inicio  PartialDate `json:"Inicio Tratamiento"`
	Termino PartialDate `json:"Termino Tratamiento"`
}

type Recaidas struct {
	Anios Nullable[[]int] `json:"Años"`
}

type EtapaStatus struct {
	Tratamiento   bool `json:"Tratamiento"`
	Vigilancia    bool `json:"Vigilancia"`
	Superviviente bool `json:"Superviviente"`
}

type DatosMedicos struct {
	Diagnostico       string           `json:"Diagnóstico"`
	Tratamiento       Tratamiento      `json:"Tratamiento"`
	TipoSangre        Nullable[string] `json:"Tipo de sangre"`
	Recaidas          Recaidas         `json:"Recaídas"`
	EtapaStatus       EtapaStatus      `json:"Etapa o Status"`
	Hospital          string           `json:"Hospital de tratamiento"`
	OtrasEnfermedades Nullable[string] `json:"Otras enfermedades"`
	ContactoHospital  string           `json:"Número de contacto del hospital y médico"`
	MedicoTratante    string           `json:"Médico tratante/Cédula profesional"`
}

type CuidadorPrimario struct {
	PadreTutor            PersonName  `json:"Padre o Tutor"`
	FechaNacimiento       PartialDate `json:"Fecha de Nacimiento"`
	Edad                  int         `json:"Edad"`
	Parentesco            string      `json:"Parentesco"`
	Telefono              string      `json:"Teléfono de contacto"`
	CURP                  string      `json:"CURP"`
	IdentificacionOficial string      `json:"Identificación Oficial"`
}

type ApoyoInstitucion struct {
	Respuesta bool             `json:"Respuesta"`
	Cual      Nullable[string] `json:"Cuál"`
}

type DocumentosGenerales struct {
	ActaNacimiento       bool
	ComprobanteDomicilio bool
	ApoyoOtraInstitucion ApoyoInstitucion
}

type documentosWire struct {
	ActaNacimiento       bool `json:"Acta de Nacimiento"`
	ComprobanteDomicilio bool `json:"Comprobante de domicilio"`
}

func (d *DocumentosGenerales) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var wire documentosWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	d.ActaNacimiento = wire.ActaNacimiento
	d.ComprobanteDomicilio = wire.ComprobanteDomicilio
	d.ApoyoOtraInstitucion = ApoyoInstitucion{}
	if raw, ok := fields[supportQuestionKey]; ok {
		if err := json.Unmarshal(raw, &d.ApoyoOtraInstitucion); err != nil {
			return fmt.Errorf("%s: %w", supportQuestionKey, err)
		}
	}
	return nil
}

func (d DocumentosGenerales) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"Acta de Nacimiento":       d.ActaNacimiento,
		"Comprobante de domicilio": d.ComprobanteDomicilio,
		supportQuestionKey:         d.ApoyoOtraInstitucion,
	})
}

// Validate enforces the value constraints the form imposes.
func (r *ExtractionResult) Validate() error {
	if r == nil {
		return &ViolationError{Violations: []string{"/: result is nil"}}
	}
	var v []string
	v = r.FechaRegistro.check("/Fecha de Registro", v)
	v = r.DatosGenerales.FechaNacimiento.check("/Datos Generales/Fecha de nacimiento", v)
	if r.DatosGenerales.Genero != GenderMale && r.DatosGenerales.Genero != GenderFemale {
		v = append(v, fmt.Sprintf("/Datos Generales/Género: %q is not a valid gender", r.DatosGenerales.Genero))
	}
	if r.DatosGenerales.Edad < 0 {
		v = append(v, "/Datos Generales/Edad: must be >= 0")
	}
	v = r.DatosMedicos.Tratamiento.Inicio.check("/Datos Médicos/Tratamiento/Inicio Tratamiento", v)
	v = r.DatosMedicos.Tratamiento.Termino.check("/Datos Médicos/Tratamiento/Termino Tratamiento", v)
	if years, ok := r.DatosMedicos.Recaidas.Anios.Get(); ok {
		for i, y := range years {
			if y <= 0 {
				v = append(v, fmt.Sprintf("/Datos Médicos/Recaídas/Años/%d: must be > 0", i))
			}
		}
	}
	v = r.CuidadorPrimario.FechaNacimiento.check("/Datos del Cuidador Primario/Fecha de Nacimiento", v)
	if r.CuidadorPrimario.Edad < 0 {
		v = append(v, "/Datos del Cuidador Primario/Edad: must be >= 0")
	}
	if len(v) > 0 {
		return &ViolationError{Violations: v}
	}
	return nil
}

func (d Date) check(path string, v []string) []string {
	return checkDateParts(path, Some(d.Dia), Some(d.Mes), Some(d.Anio), v)
}

func (d PartialDate) check(path string, v []string) []string {
	return checkDateParts(path, d.Dia, d.Mes, d.Anio, v)
}

func checkDateParts(path string, day, month, year Nullable[int], v []string) []string {
	if n, ok := day.Get(); ok && (n < 1 || n > 31) {
		v = append(v, fmt.Sprintf("%s/Día: %d out of range [1,31]", path, n))
	}
	if n, ok := month.Get(); ok && (n < 1 || n > 12) {
		v = append(v, fmt.Sprintf("%s/Mes: %d out of range [1,12]", path, n))
	}
	if n, ok := year.Get(); ok && n <= 0 {
		v = append(v, fmt.Sprintf("%s/Año: %d must be > 0", path, n))
	}
	return v
}

// ParseResult accepts the extraction payload as a whole or not at all.
// Invalid JSON yields ErrMalformedResult; schema or value violations yield a
// *ViolationError matching ErrNonConformingResult.
func ParseResult(raw []byte) (*ExtractionResult, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return nil, fmt.Errorf("%w: payload is not valid JSON", ErrMalformedResult)
	}

	var generic any
	if err := json.Unmarshal(trimmed, &generic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}
	violations, err := validateSchema(generic)
	if err != nil {
		return nil, fmt.Errorf("schema check: %w", err)
	}
	if len(violations) > 0 {
		return nil, &ViolationError{Violations: violations}
	}

	var result ExtractionResult
	if err := json.Unmarshal(trimmed, &result); err != nil {
		return nil, &ViolationError{Violations: []string{err.Error()}}
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}
	return &result, nil
}
