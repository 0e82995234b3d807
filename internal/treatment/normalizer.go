package treatment

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// ErrUnparsableResponse means no treatment payload could be located in the
// webhook response at all. Soft shape deviations (a missing or mistyped
// section) never produce it; those fall back to per-section defaults.
var ErrUnparsableResponse = errors.New("no treatment payload in response")

// Normalize converts the decoded webhook response into a complete Result.
//
// The workflow returns its payload as a JSON-encoded string inside an
// envelope of the form [{"output": "<json>"}]. That string is parsed and its
// "resultado" field read; an absent or mistyped resultado is treated as an
// empty object. Each section then gets a deterministic default when the
// source value doesn't have the expected syntactic shape, so the returned
// Result is total: every list is non-nil (possibly empty), every compound
// block has all sub-fields, and rendering never needs nil checks.
func Normalize(raw any) (*Result, error) {
	output, ok := envelopeOutput(raw)
	if !ok {
		return nil, fmt.Errorf("%w: missing output envelope", ErrUnparsableResponse)
	}

	var parsed any
	if err := json.Unmarshal([]byte(output), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsableResponse, err)
	}

	root, _ := parsed.(map[string]any)
	resultado, _ := root["resultado"].(map[string]any)

	return &Result{
		Fitoterapia:           itemList(resultado["fitoterapia"]),
		MedicinaOriental:      orientalSection(resultado["medicina_oriental"]),
		MedicinaOrtomolecular: itemList(resultado["medicina_ortomolecular"]),
		MedicinaAntroposofica: itemList(resultado["medicina_antroposofica"]),
		Homeopatia:            itemList(resultado["homeopatia"]),
		MedicinaAyurvedica:    ayurvedicSection(resultado["medicina_ayurvedica"]),
		CuraXamanica:          itemList(resultado["cura_xamanica"]),
		MedicinaBiofisica:     itemList(resultado["medicina_biofisica"]),
		AparelhosFrequencia:   itemList(resultado["aparelhos_frequencia"]),
		Cromoterapia:          itemList(resultado["cromoterapia"]),
		Aromaterapia:          itemList(resultado["aromaterapia"]),
		Acupuntura:            itemList(resultado["acupuntura"]),
		SaberesAncestrais:     itemList(resultado["saberes_ancestrais"]),
		Alimentacao:           dietarySection(resultado["alimentacao"]),
		MudancasRotina:        itemList(resultado["mudancas_rotina"]),
		MensagemFinal:         stringOr(resultado["mensagem_final"]),
	}, nil
}

// envelopeOutput pulls the JSON-encoded payload string out of the
// [{"output": ...}] envelope.
func envelopeOutput(raw any) (string, bool) {
	seq, ok := raw.([]any)
	if !ok || len(seq) == 0 {
		return "", false
	}
	first, ok := seq[0].(map[string]any)
	if !ok {
		return "", false
	}
	output, ok := first["output"].(string)
	return output, ok
}

// itemList accepts any syntactic JSON array verbatim, including an empty one.
// Anything else becomes an empty list.
func itemList(v any) []any {
	if seq, ok := v.([]any); ok {
		return seq
	}
	return []any{}
}

func orientalSection(v any) OrientalMedicine {
	section, ok := v.(map[string]any)
	if !ok {
		return OrientalMedicine{Acupuntura: []any{}, Praticas: []any{}}
	}
	return OrientalMedicine{
		Diagnostico: stringOr(section["diagnostico"]),
		Acupuntura:  itemList(section["acupuntura"]),
		Praticas:    itemList(section["praticas"]),
	}
}

func ayurvedicSection(v any) AyurvedicMedicine {
	section, ok := v.(map[string]any)
	if !ok {
		return AyurvedicMedicine{Tratamentos: []any{}}
	}
	return AyurvedicMedicine{
		Diagnostico: stringOr(section["diagnostico"]),
		Tratamentos: itemList(section["tratamentos"]),
	}
}

func dietarySection(v any) DietaryGuidance {
	section, ok := v.(map[string]any)
	if !ok {
		return DietaryGuidance{Indicada: []any{}, Contraindicada: []any{}}
	}
	return DietaryGuidance{
		Indicada:       itemList(section["indicada"]),
		Contraindicada: itemList(section["contraindicada"]),
	}
}

func stringOr(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
