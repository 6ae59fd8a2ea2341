package intake

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func object(props map[string]any) map[string]any {
	required := make([]string, 0, len(props))
	for k := range props {
		required = append(required, k)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

func str() map[string]any { return map[string]any{"type": "string"} }

func nullableStr() map[string]any { return map[string]any{"type": []any{"string", "null"}} }

func boolean() map[string]any { return map[string]any{"type": "boolean"} }

// ranged is an integer schema; hi <= 0 leaves it unbounded above.
func ranged(lo, hi int, nullable bool) map[string]any {
	s := map[string]any{"type": "integer", "minimum": lo}
	if hi > 0 {
		s["maximum"] = hi
	}
	if nullable {
		s["type"] = []any{"integer", "null"}
	}
	return s
}

func date(nullable bool) map[string]any {
	return object(map[string]any{
		"Día": ranged(1, 31, nullable),
		"Mes": ranged(1, 12, nullable),
		"Año": ranged(1, 0, nullable),
	})
}

func personName() map[string]any {
	return object(map[string]any{
		"Apellido Paterno": str(),
		"Apellido Materno": str(),
		"Nombre":           str(),
	})
}

// SchemaMap returns the intake form result as a JSON Schema document.
// Every declared key is required; nullable keys must be present with null.
func SchemaMap() map[string]any {
	root := object(map[string]any{
		"Hoja de Inscripción": str(),
		"Fecha de Registro":   date(false),
		"Folio":               str(),
		"Datos Generales": object(map[string]any{
			"Nombre":              personName(),
			"Género":              map[string]any{"type": "string", "enum": []any{GenderMale, GenderFemale}},
			"Edad":                ranged(0, 0, false),
			"Fecha de nacimiento": date(false),
			"Religión":            nullableStr(),
			"Lugar de nacimiento": str(),
			"Dirección":           str(),
			"Municipio":           str(),
			"CURP":                str(),
		}),
		"Datos Médicos": object(map[string]any{
			"Diagnóstico": str(),
			"Tratamiento": object(map[string]any{
				"Inicio Tratamiento":  date(true),
				"Termino Tratamiento": date(true),
			}),
			"Tipo de sangre": nullableStr(),
			"Recaídas": object(map[string]any{
				"Años": map[string]any{
					"type":  []any{"array", "null"},
					"items": ranged(1, 0, false),
				},
			}),
			"Etapa o Status": object(map[string]any{
				"Tratamiento":   boolean(),
				"Vigilancia":    boolean(),
				"Superviviente": boolean(),
			}),
			"Hospital de tratamiento":                  str(),
			"Otras enfermedades":                       nullableStr(),
			"Número de contacto del hospital y médico": str(),
			"Médico tratante/Cédula profesional":       str(),
		}),
		"Datos del Cuidador Primario": object(map[string]any{
			"Padre o Tutor":          personName(),
			"Fecha de Nacimiento":    date(true),
			"Edad":                   ranged(0, 0, false),
			"Parentesco":             str(),
			"Teléfono de contacto":   str(),
			"CURP":                   str(),
			"Identificación Oficial": str(),
		}),
		"Documentos Generales": object(map[string]any{
			"Acta de Nacimiento":       boolean(),
			"Comprobante de domicilio": boolean(),
			supportQuestionKey: object(map[string]any{
				"Respuesta": boolean(),
				"Cuál":      nullableStr(),
			}),
		}),
	})
	root["$schema"] = "https://json-schema.org/draft/2020-12/schema"
	return root
}

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func compiled() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		b, err := json.Marshal(SchemaMap())
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("intake.json", bytes.NewReader(b)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile("intake.json")
	})
	return compiledSchema, compileErr
}

// validateSchema checks a decoded JSON value against the intake schema and
// returns one entry per failing instance path.
func validateSchema(v any) ([]string, error) {
	schema, err := compiled()
	if err != nil {
		return nil, err
	}
	err = schema.Validate(v)
	if err == nil {
		return nil, nil
	}
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return nil, err
	}
	var out []string
	seen := make(map[string]bool)
	for _, e := range verr.BasicOutput().Errors {
		// the root entry only says the document failed
		if e.KeywordLocation == "" {
			continue
		}
		loc := e.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		msg := loc + ": " + e.Error
		if seen[msg] {
			continue
		}
		seen[msg] = true
		out = append(out, msg)
	}
	if len(out) == 0 {
		out = append(out, verr.Error())
	}
	return out, nil
}
