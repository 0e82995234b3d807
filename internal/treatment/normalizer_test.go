package treatment

import (
	"errors"
	"reflect"
	"testing"

	"github.com/goccy/go-json"
)

// decode builds the kind of value Normalize receives in production: the
// webhook body after a plain JSON decode.
func decode(t *testing.T, body string) any {
	t.Helper()
	var raw any
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		t.Fatalf("test body does not decode: %v", err)
	}
	return raw
}

func envelope(t *testing.T, payload string) any {
	t.Helper()
	body, err := json.Marshal([]map[string]any{{"output": payload}})
	if err != nil {
		t.Fatalf("building envelope: %v", err)
	}
	return decode(t, string(body))
}

func TestNormalizeUnparsableEnvelopes(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty array", `[]`},
		{"object instead of array", `{"output": "{}"}`},
		{"first element without output", `[{"result": "{}"}]`},
		{"output not a string", `[{"output": 42}]`},
		{"output not json", `[{"output": "not json"}]`},
		{"output empty string", `[{"output": ""}]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(decode(t, tc.body))
			if !errors.Is(err, ErrUnparsableResponse) {
				t.Fatalf("expected ErrUnparsableResponse, got %v", err)
			}
		})
	}
}

func TestNormalizeEmptyPayloadYieldsDefaults(t *testing.T) {
	result, err := Normalize(envelope(t, `{}`))
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	assertAllSectionsDefault(t, result)
}

func TestNormalizeMissingResultadoYieldsDefaults(t *testing.T) {
	result, err := Normalize(envelope(t, `{"status": "ok"}`))
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	assertAllSectionsDefault(t, result)
}

// A payload that parses but is not an object is a soft deviation, not a
// parse failure.
func TestNormalizeNonObjectPayloadYieldsDefaults(t *testing.T) {
	result, err := Normalize(envelope(t, `[1, 2, 3]`))
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	assertAllSectionsDefault(t, result)
}

func TestNormalizePartialResultado(t *testing.T) {
	payload := `{"resultado":{"fitoterapia":[{"planta":"Valeriana","descricao":"Calming herb"}]}}`
	result, err := Normalize(envelope(t, payload))
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}

	if len(result.Fitoterapia) != 1 {
		t.Fatalf("expected one herbal remedy, got %d", len(result.Fitoterapia))
	}
	item, ok := result.Fitoterapia[0].(map[string]any)
	if !ok {
		t.Fatalf("unexpected item shape: %T", result.Fitoterapia[0])
	}
	if item["planta"] != "Valeriana" || item["descricao"] != "Calming herb" {
		t.Fatalf("unexpected item: %+v", item)
	}

	// Every other section resolves to its empty default.
	if result.MensagemFinal != "" {
		t.Fatalf("expected empty closing message, got %q", result.MensagemFinal)
	}
	for name, list := range sectionLists(result) {
		if name == "fitoterapia" {
			continue
		}
		if list == nil {
			t.Fatalf("section %s is nil", name)
		}
		if len(list) != 0 {
			t.Fatalf("section %s expected empty, got %d items", name, len(list))
		}
	}
}

func TestNormalizeMistypedSectionsFallBack(t *testing.T) {
	payload := `{"resultado":{
		"fitoterapia": "not a list",
		"homeopatia": 7,
		"medicina_oriental": "not an object",
		"alimentacao": null,
		"mensagem_final": 3
	}}`
	result, err := Normalize(envelope(t, payload))
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	assertAllSectionsDefault(t, result)
}

func TestNormalizeKeepsCompoundSectionsVerbatim(t *testing.T) {
	payload := `{"resultado":{
		"medicina_oriental":{"diagnostico":"Qi stagnation","acupuntura":[{"ponto":"LV3","descricao":"Liver 3"}],"praticas":["qigong"]},
		"medicina_ayurvedica":{"diagnostico":"Vata imbalance","tratamentos":["abhyanga"]},
		"alimentacao":{"indicada":["ginger"],"contraindicada":["coffee"]},
		"mensagem_final":"Rest well"
	}}`
	result, err := Normalize(envelope(t, payload))
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}

	if result.MedicinaOriental.Diagnostico != "Qi stagnation" {
		t.Fatalf("unexpected oriental diagnosis: %q", result.MedicinaOriental.Diagnostico)
	}
	if len(result.MedicinaOriental.Acupuntura) != 1 || len(result.MedicinaOriental.Praticas) != 1 {
		t.Fatalf("unexpected oriental lists: %+v", result.MedicinaOriental)
	}
	if result.MedicinaAyurvedica.Diagnostico != "Vata imbalance" {
		t.Fatalf("unexpected ayurvedic diagnosis: %q", result.MedicinaAyurvedica.Diagnostico)
	}
	if len(result.Alimentacao.Indicada) != 1 || result.Alimentacao.Indicada[0] != "ginger" {
		t.Fatalf("unexpected indicated foods: %+v", result.Alimentacao.Indicada)
	}
	if len(result.Alimentacao.Contraindicada) != 1 || result.Alimentacao.Contraindicada[0] != "coffee" {
		t.Fatalf("unexpected contraindicated foods: %+v", result.Alimentacao.Contraindicada)
	}
	if result.MensagemFinal != "Rest well" {
		t.Fatalf("unexpected closing message: %q", result.MensagemFinal)
	}
}

// A fully populated result wrapped back into the envelope must normalize to
// a deep-equal value.
func TestNormalizeRoundTripIdempotence(t *testing.T) {
	payload := `{"resultado":{
		"fitoterapia":[{"planta":"Valeriana","descricao":"Calming herb"}],
		"medicina_oriental":{"diagnostico":"Qi stagnation","acupuntura":[{"ponto":"LV3","descricao":"Liver 3"}],"praticas":["qigong"]},
		"medicina_ortomolecular":[{"suplemento":"Magnesium","descricao":"Before bed"}],
		"medicina_antroposofica":[{"pratica":"Eurythmy","descricao":"Movement"}],
		"homeopatia":[{"medicamento":"Coffea cruda","descricao":"30C"}],
		"medicina_ayurvedica":{"diagnostico":"Vata imbalance","tratamentos":["abhyanga"]},
		"cura_xamanica":[{"pratica":"Drum journey","descricao":"Weekly"}],
		"medicina_biofisica":[{"tecnologia":"PEMF","descricao":"Low frequency"}],
		"aparelhos_frequencia":[{"tecnologia":"Rife","descricao":"Session"}],
		"cromoterapia":[{"cor":"Azul","descricao":"Calming"}],
		"aromaterapia":[{"oleo":"Lavanda","descricao":"Diffuse at night"}],
		"acupuntura":["HT7 daily"],
		"saberes_ancestrais":["Moon tea"],
		"alimentacao":{"indicada":["ginger"],"contraindicada":["coffee"]},
		"mudancas_rotina":["No screens after 22h"],
		"mensagem_final":"Rest well"
	}}`

	first, err := Normalize(envelope(t, payload))
	if err != nil {
		t.Fatalf("first normalize failed: %v", err)
	}

	encoded, err := json.Marshal(map[string]any{"resultado": first})
	if err != nil {
		t.Fatalf("re-encoding result: %v", err)
	}
	second, err := Normalize(envelope(t, string(encoded)))
	if err != nil {
		t.Fatalf("second normalize failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("round trip changed the result:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func sectionLists(r *Result) map[string][]any {
	return map[string][]any{
		"fitoterapia":                     r.Fitoterapia,
		"medicina_oriental.acupuntura":    r.MedicinaOriental.Acupuntura,
		"medicina_oriental.praticas":      r.MedicinaOriental.Praticas,
		"medicina_ortomolecular":          r.MedicinaOrtomolecular,
		"medicina_antroposofica":          r.MedicinaAntroposofica,
		"homeopatia":                      r.Homeopatia,
		"medicina_ayurvedica.tratamentos": r.MedicinaAyurvedica.Tratamentos,
		"cura_xamanica":                   r.CuraXamanica,
		"medicina_biofisica":              r.MedicinaBiofisica,
		"aparelhos_frequencia":            r.AparelhosFrequencia,
		"cromoterapia":                    r.Cromoterapia,
		"aromaterapia":                    r.Aromaterapia,
		"acupuntura":                      r.Acupuntura,
		"saberes_ancestrais":              r.SaberesAncestrais,
		"alimentacao.indicada":            r.Alimentacao.Indicada,
		"alimentacao.contraindicada":      r.Alimentacao.Contraindicada,
		"mudancas_rotina":                 r.MudancasRotina,
	}
}

func assertAllSectionsDefault(t *testing.T, r *Result) {
	t.Helper()
	for name, list := range sectionLists(r) {
		if list == nil {
			t.Fatalf("section %s is nil", name)
		}
		if len(list) != 0 {
			t.Fatalf("section %s expected empty, got %d items", name, len(list))
		}
	}
	if r.MedicinaOriental.Diagnostico != "" || r.MedicinaAyurvedica.Diagnostico != "" {
		t.Fatalf("expected empty diagnoses, got %+v / %+v", r.MedicinaOriental, r.MedicinaAyurvedica)
	}
	if r.MensagemFinal != "" {
		t.Fatalf("expected empty closing message, got %q", r.MensagemFinal)
	}
}
